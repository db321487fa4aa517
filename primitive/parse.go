package primitive

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// ErrSyntax is wrapped by every Parse failure.
var ErrSyntax = errors.New("invalid cell syntax")

// Spellings lists the accepted textual forms of booleans and nil cells. The
// first entry of True and False is canonical and is the one emitted on encode.
type Spellings struct {
	True  []string `yaml:"true"`
	False []string `yaml:"false"`
	Nil   []string `yaml:"nil"`
}

// DefaultSpellings returns true/false booleans and the empty string as nil.
func DefaultSpellings() Spellings {
	return Spellings{
		True:  []string{"true"},
		False: []string{"false"},
		Nil:   []string{""},
	}
}

// IsNil reports whether cell is one of the nil spellings.
func (s Spellings) IsNil(cell string) bool {
	for _, n := range s.Nil {
		if cell == n {
			return true
		}
	}
	return false
}

// ParseBool matches cell case-insensitively against the true and false sets.
func (s Spellings) ParseBool(cell string) (value bool, ok bool) {
	for _, t := range s.True {
		if strings.EqualFold(cell, t) {
			return true, true
		}
	}
	for _, f := range s.False {
		if strings.EqualFold(cell, f) {
			return false, true
		}
	}
	return false, false
}

// FormatBool returns the canonical spelling of b.
func (s Spellings) FormatBool(b bool) string {
	if b {
		if len(s.True) > 0 {
			return s.True[0]
		}
		return "true"
	}
	if len(s.False) > 0 {
		return s.False[0]
	}
	return "false"
}

// FormatNil returns the canonical nil spelling.
func (s Spellings) FormatNil() string {
	if len(s.Nil) > 0 {
		return s.Nil[0]
	}
	return ""
}

// Parse converts cell into a value of the Go type canonical for k (int8 for
// KindInt8, time.Time for KindTime and so on).
func Parse(k Kind, cell string, sp Spellings) (any, error) {
	fail := func(err error) error {
		if err == nil {
			return fmt.Errorf("%w: %q is not a %s", ErrSyntax, cell, k)
		}
		return fmt.Errorf("%w: %q is not a %s: %w", ErrSyntax, cell, k, err)
	}

	switch {
	case k == KindString:
		return cell, nil
	case k == KindBool:
		b, ok := sp.ParseBool(cell)
		if !ok {
			return nil, fail(nil)
		}
		return b, nil
	case k.IsSigned():
		n, err := strconv.ParseInt(strings.TrimSpace(cell), 10, k.Bits())
		if err != nil {
			return nil, fail(err)
		}
		return reflect.ValueOf(n).Convert(goTypes[k]).Interface(), nil
	case k.IsUnsigned():
		n, err := strconv.ParseUint(strings.TrimSpace(cell), 10, k.Bits())
		if err != nil {
			return nil, fail(err)
		}
		return reflect.ValueOf(n).Convert(goTypes[k]).Interface(), nil
	case k.IsFloat():
		f, err := strconv.ParseFloat(strings.TrimSpace(cell), k.Bits())
		if err != nil {
			return nil, fail(err)
		}
		if k == KindFloat32 {
			return float32(f), nil
		}
		return f, nil
	case k == KindTime:
		t, err := time.Parse(time.RFC3339Nano, cell)
		if err != nil {
			return nil, fail(err)
		}
		return t, nil
	case k == KindDuration:
		d, err := time.ParseDuration(cell)
		if err != nil {
			return nil, fail(err)
		}
		return d, nil
	case k == KindDecimal:
		d, err := decimal.NewFromString(strings.TrimSpace(cell))
		if err != nil {
			return nil, fail(err)
		}
		return d, nil
	case k == KindBytes:
		b, err := base64.StdEncoding.DecodeString(cell)
		if err != nil {
			return nil, fail(err)
		}
		return b, nil
	case k == KindURL:
		u, err := url.Parse(cell)
		if err != nil {
			return nil, fail(err)
		}
		return *u, nil
	default:
		return nil, fmt.Errorf("%w: unknown kind %s", ErrSyntax, k)
	}
}

// Format is the inverse of Parse. v may be of any named type whose
// FromReflectType is k.
func Format(k Kind, v any, sp Spellings) (string, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return sp.FormatNil(), nil
	}
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return sp.FormatNil(), nil
		}
		rv = rv.Elem()
	}

	switch {
	case k == KindString:
		return rv.String(), nil
	case k == KindBool:
		return sp.FormatBool(rv.Bool()), nil
	case k == KindDuration:
		return time.Duration(rv.Int()).String(), nil
	case k.IsSigned():
		return strconv.FormatInt(rv.Int(), 10), nil
	case k.IsUnsigned():
		return strconv.FormatUint(rv.Uint(), 10), nil
	case k.IsFloat():
		return strconv.FormatFloat(rv.Float(), 'f', -1, k.Bits()), nil
	case k == KindTime:
		return rv.Convert(timeType).Interface().(time.Time).Format(time.RFC3339Nano), nil
	case k == KindDecimal:
		return FormatDecimal(rv.Convert(decimalType).Interface().(decimal.Decimal)), nil
	case k == KindBytes:
		return base64.StdEncoding.EncodeToString(rv.Bytes()), nil
	case k == KindURL:
		u := rv.Convert(urlType).Interface().(url.URL)
		return u.String(), nil
	default:
		return "", fmt.Errorf("cannot format %T as %s", v, k)
	}
}

// FormatDecimal writes d with as many fractional digits as its exponent
// carries, so a parsed "12.50" is written back as "12.50".
func FormatDecimal(d decimal.Decimal) string {
	if exp := d.Exponent(); exp < 0 {
		return d.StringFixed(-exp)
	}
	return d.String()
}

var goTypes = map[Kind]reflect.Type{
	KindInt:    reflect.TypeFor[int](),
	KindInt8:   reflect.TypeFor[int8](),
	KindInt16:  reflect.TypeFor[int16](),
	KindInt32:  reflect.TypeFor[int32](),
	KindInt64:  reflect.TypeFor[int64](),
	KindUint:   reflect.TypeFor[uint](),
	KindUint8:  reflect.TypeFor[uint8](),
	KindUint16: reflect.TypeFor[uint16](),
	KindUint32: reflect.TypeFor[uint32](),
	KindUint64: reflect.TypeFor[uint64](),
}
