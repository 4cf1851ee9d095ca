package gss

import (
	"slices"
	"testing"
)

func TestParsePattern_Placeholders(t *testing.T) {
	tests := []struct {
		src  string
		want []string
	}{
		{"sm-{value}", []string{"value"}},
		{"{a}-{b}", []string{"a", "b"}},
		{"plain", nil},
		{"{}", nil},
		{"{not closed", nil},
		{"{with space}", nil},
		{"@container (min-width: {value}px)", []string{"value"}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			got := ParsePattern(tt.src).Placeholders()
			if !slices.Equal(got, tt.want) {
				t.Errorf("Placeholders() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		input    string
		wantOK   bool
		captures map[string]string
	}{
		{"single placeholder", "sm-{value}", "sm-400", true, map[string]string{"value": "400"}},
		{"literal mismatch", "sm-{value}", "md-400", false, nil},
		{"empty capture not allowed", "sm-{value}", "sm-", false, nil},
		{"slash not captured", "sm-{value}", "sm-4/5", false, nil},
		{"two placeholders greedy", "{a}-{b}", "x-y-z", true, map[string]string{"a": "x-y", "b": "z"}},
		{"trailing literal", "w{n}px", "w20px", true, map[string]string{"n": "20"}},
		{"no placeholders exact", "print", "print", true, map[string]string{}},
		{"no placeholders mismatch", "print", "prints", false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParsePattern(tt.pattern).Match(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("Match(%q) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if len(got) != len(tt.captures) {
				t.Fatalf("captures = %v, want %v", got, tt.captures)
			}
			for k, v := range tt.captures {
				if got[k] != v {
					t.Errorf("capture %q = %q, want %q", k, got[k], v)
				}
			}
		})
	}
}

func TestPattern_Expand(t *testing.T) {
	p := ParsePattern("@container (min-width: {value}px) and {missing}")
	got := p.Expand(map[string]string{"value": "400"})
	want := "@container (min-width: 400px) and {missing}"
	if got != want {
		t.Errorf("Expand() = %q, want %q", got, want)
	}
}

func TestStore_MatchContainer(t *testing.T) {
	s := NewStore()
	s.SetContainer("sm-{value}", "@container (min-width: {value}px)")
	s.SetContainer("{name}-{value}", "@container {name} (min-width: {value}px)")

	got, ok := s.MatchContainer("sm-400")
	if !ok {
		t.Fatal("expected match")
	}
	if want := "@container (min-width: 400px)"; got != want {
		t.Errorf("MatchContainer() = %q, want %q (first declared pattern wins)", got, want)
	}

	got, ok = s.MatchContainer("card-300")
	if !ok {
		t.Fatal("expected match for second pattern")
	}
	if want := "@container card (min-width: 300px)"; got != want {
		t.Errorf("MatchContainer() = %q, want %q", got, want)
	}

	if _, ok := s.MatchContainer("nothing"); ok {
		t.Error("unexpected match")
	}

	// re-declaration keeps position and replaces template
	s.SetContainer("sm-{value}", "@container (max-width: {value}px)")
	if len(s.Containers) != 2 {
		t.Fatalf("containers = %d, want 2", len(s.Containers))
	}
	got, _ = s.MatchContainer("sm-10")
	if want := "@container (max-width: 10px)"; got != want {
		t.Errorf("after re-declaration MatchContainer() = %q, want %q", got, want)
	}
}
