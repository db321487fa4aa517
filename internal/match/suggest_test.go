package match

import (
	"testing"
)

func TestSuggest(t *testing.T) {
	known := []string{"name", "age", "height", "tall", "nationality"}

	tests := []struct {
		name    string
		want    string
		wantOK  bool
		comment string
	}{
		{"Nationalty", "nationality", true, "typo"},
		{"HEIGHT", "height", true, "case"},
		{"zodiac", "", false, "unrelated"},
	}

	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			got, ok := Suggest(tt.name, known, DefaultThreshold)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Suggest(%q) = %q, %v; want %q, %v", tt.name, got, ok, tt.want, tt.wantOK)
			}
		})
	}

	if _, ok := Suggest("name", nil, DefaultThreshold); ok {
		t.Error("Suggest with no known names must fail")
	}
}

func TestRankIsStable(t *testing.T) {
	ranked := Rank("ab", []string{"ax", "ay", "ab"})
	if ranked[0].Name != "ab" || ranked[1].Name != "ax" || ranked[2].Name != "ay" {
		t.Errorf("unexpected order: %+v", ranked)
	}
}

func TestIndex(t *testing.T) {
	idx, collisions := NewIndex([]string{"Long Hair", "Color", "long_hair"})

	if len(collisions) != 1 || collisions[0] != [2]string{"Long Hair", "long_hair"} {
		t.Errorf("collisions = %v", collisions)
	}

	if i, ok := idx.Lookup("LongHair"); !ok || i != 0 {
		t.Errorf("Lookup(LongHair) = %d, %v", i, ok)
	}

	if i, ok := idx.Lookup("COLOR"); !ok || i != 1 {
		t.Errorf("Lookup(COLOR) = %d, %v", i, ok)
	}

	if _, ok := idx.Lookup("Friendly"); ok {
		t.Error("Lookup(Friendly) should miss")
	}
}
