package fingerprint

import (
	"strings"
	"testing"
)

func TestSum_KnownVector(t *testing.T) {
	got := Sum([]byte(`{"description":"D","proposer":"P","title":"T"}`))
	want := "7fb7b755490dc11f8f043dafbddc6dcf3c23ced0d74528774fd91cf8b604e416"
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	if !Valid(got) {
		t.Fatalf("Valid(%s) = false", got)
	}
}

func TestOf_MatchesSumOfCanonicalBytes(t *testing.T) {
	v := map[string]any{"z": "é", "a": []any{1, 2.5, map[string]any{"c": true, "b": nil}}}
	got, err := Of(v)
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	if got == "a1c65b9ff7ea281cf545478cc6b92d788977e252fd005dd95d25365c5d56a79f" {
		t.Fatalf("non-ASCII was hashed unescaped")
	}
	want := Sum([]byte(`{"a":[1,2.5,{"b":null,"c":true}],"z":"\u00e9"}`))
	if got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}

func TestOf_SensitiveToEveryValue(t *testing.T) {
	base := map[string]any{"title": "T", "description": "D", "proposer": "P", "budget": 5000}
	ref, err := Of(base)
	if err != nil {
		t.Fatalf("Of: %v", err)
	}
	mutations := map[string]any{"title": "T ", "description": "d", "proposer": "Q", "budget": 5001}
	for k, v := range mutations {
		changed := make(map[string]any, len(base))
		for bk, bv := range base {
			changed[bk] = bv
		}
		changed[k] = v
		got, err := Of(changed)
		if err != nil {
			t.Fatalf("Of: %v", err)
		}
		if Equal(got, ref) {
			t.Fatalf("changing %q did not change the fingerprint", k)
		}
	}
}

func TestValid(t *testing.T) {
	ok := strings.Repeat("ab", 32)
	if !Valid(ok) {
		t.Fatalf("expected valid")
	}
	for _, bad := range []string{"", ok[:63], strings.ToUpper(ok), ok[:63] + "g"} {
		if Valid(bad) {
			t.Fatalf("Valid(%q) = true", bad)
		}
	}
}
