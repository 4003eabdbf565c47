package matching

import (
	"reflect"
	"testing"
)

func TestNormalizeTerm(t *testing.T) {
	cases := map[string]string{
		"  CNC Machining ": "cnc machining",
		"ALUMINUM":         "aluminum",
		"":                 "",
		"   ":              "",
	}
	for in, want := range cases {
		if got := NormalizeTerm(in); got != want {
			t.Fatalf("NormalizeTerm(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNormalizeSetDedupesAndPreservesOrder(t *testing.T) {
	got := NormalizeSet([]string{"CNC", " cnc ", "Casting", "", "casting", "Welding"})
	want := []string{"cnc", "casting", "welding"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("NormalizeSet = %v, want %v", got, want)
	}
}

func TestFuzzyContains(t *testing.T) {
	cases := []struct {
		a, b string
		want bool
	}{
		{"cnc", "cnc", true},
		{"cnc", "CNC Machining", true},
		{"cnc machining", "cnc", true},
		{"aluminum", "aluminum 6061", true},
		{"casting", "welding", false},
		{"", "cnc", false},
		{"cnc", "", false},
	}
	for _, tc := range cases {
		if got := FuzzyContains(tc.a, tc.b); got != tc.want {
			t.Fatalf("FuzzyContains(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestMatchFraction(t *testing.T) {
	if got := MatchFraction(nil, []string{"cnc"}); got != 1 {
		t.Fatalf("empty requirement should be fully satisfied, got %v", got)
	}
	if got := MatchFraction([]string{"cnc", "casting"}, []string{"CNC Machining"}); got != 0.5 {
		t.Fatalf("partial match = %v, want 0.5", got)
	}
	if got := MatchFraction([]string{"cnc"}, nil); got != 0 {
		t.Fatalf("no offer = %v, want 0", got)
	}
	// Duplicate requirements collapse before the fraction is taken.
	if got := MatchFraction([]string{"cnc", "CNC"}, []string{"cnc"}); got != 1 {
		t.Fatalf("duplicated requirement = %v, want 1", got)
	}
}
