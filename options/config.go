// Package options holds the per-session configuration of a decode or encode
// call. Nothing here is global: every session receives its own Config and
// builds its codecs from it.
package options

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"time"
	"unicode/utf8"

	"github.com/go-kit/log"
	"gopkg.in/yaml.v3"

	"tabcodec/codec"
	"tabcodec/metrics"
	"tabcodec/primitive"
	"tabcodec/schema"
	"tabcodec/table"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the whole configuration surface of a session.
type Config struct {
	// HasHeader tells whether the first physical row is a header.
	HasHeader bool `yaml:"has_header"`
	// Header is the declared field order on decode and the override header on
	// encode. Nil means the introspected order.
	Header []string `yaml:"header,omitempty"`
	// Delimiter is a single character; quotes are always '"'.
	Delimiter  string `yaml:"delimiter"`
	LazyQuotes bool   `yaml:"lazy_quotes,omitempty"`
	UseCRLF    bool   `yaml:"use_crlf,omitempty"`
	// Sheet selects the XLSX worksheet.
	Sheet string `yaml:"sheet,omitempty"`

	Spellings primitive.Spellings `yaml:"spellings"`
	// NilAsEmptyString decodes a string field with no column as "" instead of
	// failing with a missing value.
	NilAsEmptyString bool      `yaml:"nil_as_empty_string,omitempty"`
	Tolerance        Tolerance `yaml:"tolerance,omitempty"`
	ErrorMode        ErrorMode `yaml:"error_mode"`
	// SkipIntrospection decodes named-header input through a direct name map.
	SkipIntrospection bool `yaml:"skip_introspection,omitempty"`
	// InferSample is the number of rows used to guess kinds of columns no
	// field describes. Zero disables inference.
	InferSample int `yaml:"infer_sample,omitempty"`

	// Fields configures per-field codecs by field name.
	Fields map[string]FieldConfig `yaml:"fields,omitempty"`

	// Codecs is the base registry Fields are added to. Nil means
	// codec.NewRegistry().
	Codecs *codec.Registry `yaml:"-"`
	// Logger defaults to a no-op logger.
	Logger  log.Logger       `yaml:"-"`
	Metrics *metrics.Metrics `yaml:"-"`
	// OnRowError is called for every row skipped in SkipRow mode.
	OnRowError func(row int, err error) `yaml:"-"`
}

// FieldConfig selects the codec of one field. At most one of Bool, Enum,
// Time, Decimal and Bytes may be set.
type FieldConfig struct {
	Bool     *BoolSpellings    `yaml:"bool,omitempty"`
	Enum     map[string]string `yaml:"enum,omitempty"`
	Time     string            `yaml:"time,omitempty"`
	Location string            `yaml:"location,omitempty"`
	Decimal  *int              `yaml:"decimal,omitempty"`
	Bytes    string            `yaml:"bytes,omitempty"`
	// Optional wraps the codec so the empty cell decodes to nil.
	Optional bool `yaml:"optional,omitempty"`
}

// BoolSpellings lists accepted spellings; the first of each is canonical.
type BoolSpellings struct {
	True  []string `yaml:"true"`
	False []string `yaml:"false"`
}

var byteEncodings = map[string]*base64.Encoding{
	"std": base64.StdEncoding,
	"url": base64.URLEncoding,
}

// Default returns the configuration used when none is given.
func Default() *Config {
	cfg := &Config{HasHeader: true}
	applyDefaults(cfg)
	return cfg
}

// LoadFile loads and parses a YAML configuration file from the given path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	return Parse(data)
}

// Parse parses YAML data into a Config. Keys absent from data keep their
// Default value.
func Parse(data []byte) (*Config, error) {
	cfg := Default()

	err := yaml.Unmarshal(data, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(cfg *Config) {
	if cfg.Delimiter == "" {
		cfg.Delimiter = ","
	}

	def := primitive.DefaultSpellings()
	if len(cfg.Spellings.True) == 0 {
		cfg.Spellings.True = def.True
	}
	if len(cfg.Spellings.False) == 0 {
		cfg.Spellings.False = def.False
	}
	if cfg.Spellings.Nil == nil {
		cfg.Spellings.Nil = def.Nil
	}
}

// Validate checks the configuration and every field codec it describes.
func (c *Config) Validate() error {
	if utf8.RuneCountInString(c.Delimiter) != 1 {
		return fmt.Errorf("%w: delimiter %q must be one character", ErrInvalidConfig, c.Delimiter)
	}
	if r := c.Comma(); r == '"' || r == '\r' || r == '\n' || r == utf8.RuneError {
		return fmt.Errorf("%w: delimiter %q is not allowed", ErrInvalidConfig, c.Delimiter)
	}
	if c.InferSample < 0 {
		return fmt.Errorf("%w: infer_sample must not be negative", ErrInvalidConfig)
	}
	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// Comma returns the delimiter rune.
func (c *Config) Comma() rune {
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// Log returns the configured logger or a no-op one.
func (c *Config) Log() log.Logger {
	if c == nil || c.Logger == nil {
		return log.NewNopLogger()
	}
	return c.Logger
}

// Policy converts the tolerance mask into a header resolution policy.
func (c *Config) Policy() schema.Policy {
	return schema.Policy{
		TolerateExtra:   c.Tolerance.Has(TolerateExtraColumns),
		TolerateMissing: c.Tolerance.Has(TolerateMissingColumns),
		Loose:           c.Tolerance.Has(MatchNormalizedHeaders),
	}
}

// CSV returns reader/writer options for delimited text.
func (c *Config) CSV(types map[string]primitive.Kind) table.CSVOptions {
	return table.CSVOptions{
		Comma:      c.Comma(),
		HasHeader:  c.HasHeader,
		TrimSpace:  c.Tolerance.Has(TrimSpace),
		LazyQuotes: c.LazyQuotes,
		UseCRLF:    c.UseCRLF,
		Spellings:  c.Spellings,
		Types:      types,
	}
}

// XLSX returns workbook reader/writer options.
func (c *Config) XLSX(types map[string]primitive.Kind) table.XLSXOptions {
	return table.XLSXOptions{
		Sheet:     c.Sheet,
		HasHeader: c.HasHeader,
		Spellings: c.Spellings,
		Types:     types,
	}
}

// Registry builds the session codec table: a clone of Codecs with one codec
// per entry of Fields.
func (c *Config) Registry() (*codec.Registry, error) {
	reg := c.Codecs.Clone()
	for name, fc := range c.Fields {
		cd, err := fc.codec()
		if err != nil {
			return nil, fmt.Errorf("%w: field %q: %w", ErrInvalidConfig, name, err)
		}
		if cd != nil {
			reg.Field(name, cd)
		}
	}
	return reg, nil
}

func (fc FieldConfig) codec() (codec.Codec, error) {
	var (
		cd  codec.Codec
		set int
	)

	if fc.Bool != nil {
		set++
		b, err := codec.NewBool(fc.Bool.True, fc.Bool.False)
		if err != nil {
			return nil, err
		}
		cd = b
	}
	if fc.Enum != nil {
		set++
		e, err := codec.NewEnum(fc.Enum)
		if err != nil {
			return nil, err
		}
		cd = e
	}
	if fc.Time != "" {
		set++
		loc := time.UTC
		if fc.Location != "" {
			var err error
			if loc, err = time.LoadLocation(fc.Location); err != nil {
				return nil, err
			}
		}
		cd = codec.Time{Layout: fc.Time, Location: loc}
	}
	if fc.Decimal != nil {
		set++
		cd = codec.Decimal{Places: int32(*fc.Decimal)}
	}
	if fc.Bytes != "" {
		set++
		enc, ok := byteEncodings[fc.Bytes]
		if !ok {
			return nil, fmt.Errorf("bytes encoding %q must be std or url", fc.Bytes)
		}
		cd = codec.Bytes{Encoding: enc}
	}

	if set > 1 {
		return nil, errors.New("only one codec may be configured per field")
	}
	if cd != nil && fc.Optional {
		cd = codec.Optional{Base: cd}
	}
	return cd, nil
}
