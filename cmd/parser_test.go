package cmd

import (
	"reflect"
	"testing"
)

func testFlagSet() *CommandFlagSet {
	return &CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"verbose": {Name: "verbose", Short: "v", Type: "bool"},
			"all":     {Name: "all", Short: "a", Type: "bool"},
			"kind":    {Name: "kind", Short: "k", Type: "stringSlice", Default: []string{"texture"}},
			"depth":   {Name: "depth", Short: "d", Type: "int", Default: int64(1)},
			"format":  {Name: "format", Type: "string"},
		},
	}
}

func TestParserFlags(t *testing.T) {
	tests := []struct {
		name   string
		raw    []string
		args   []string
		verify func(t *testing.T, a *CommandArgs)
	}{
		{
			name: "defaults",
			raw:  []string{"Assets"},
			args: []string{"Assets"},
			verify: func(t *testing.T, a *CommandArgs) {
				if a.Int("depth") != 1 {
					t.Errorf("Expected depth 1, got %d", a.Int("depth"))
				}
				if !reflect.DeepEqual(a.Strings("kind"), []string{"texture"}) {
					t.Errorf("Expected default kind, got %v", a.Strings("kind"))
				}
				if a.Bool("verbose") {
					t.Errorf("Expected verbose to be unset")
				}
			},
		},
		{
			name: "combined short bools",
			raw:  []string{"-va", "x"},
			args: []string{"x"},
			verify: func(t *testing.T, a *CommandArgs) {
				if !a.Bool("verbose") || !a.Bool("all") {
					t.Errorf("Expected verbose and all, got %v", a.Flags)
				}
			},
		},
		{
			name: "short value attached and separate",
			raw:  []string{"-d3", "-k", "model"},
			verify: func(t *testing.T, a *CommandArgs) {
				if a.Int("depth") != 3 {
					t.Errorf("Expected depth 3, got %d", a.Int("depth"))
				}
				if !reflect.DeepEqual(a.Strings("kind"), []string{"model"}) {
					t.Errorf("Expected [model], got %v", a.Strings("kind"))
				}
			},
		},
		{
			name: "repeated slice flag",
			raw:  []string{"--kind", "mesh", "--kind=scene,prefab"},
			verify: func(t *testing.T, a *CommandArgs) {
				want := []string{"mesh", "scene", "prefab"}
				if !reflect.DeepEqual(a.Strings("kind"), want) {
					t.Errorf("Expected %v, got %v", want, a.Strings("kind"))
				}
			},
		},
		{
			name: "long values and terminator",
			raw:  []string{"--format=json", "--verbose=false", "--", "-not-a-flag"},
			args: []string{"-not-a-flag"},
			verify: func(t *testing.T, a *CommandArgs) {
				if a.String("format") != "json" {
					t.Errorf("Expected json, got '%s'", a.String("format"))
				}
				if a.Bool("verbose") {
					t.Errorf("Expected verbose=false to be honoured")
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			a, err := NewParser(testFlagSet()).Parse(tc.raw)
			if err != nil {
				t.Fatalf("Expected no error, got %v", err)
			}
			if len(tc.args) > 0 || len(a.Args) > 0 {
				if !reflect.DeepEqual(a.Args, tc.args) {
					t.Errorf("Expected args %v, got %v", tc.args, a.Args)
				}
			}
			tc.verify(t, a)
		})
	}
}

func TestParserErrors(t *testing.T) {
	required := testFlagSet()
	required.Flags["format"].Required = true

	tests := []struct {
		name    string
		flagSet *CommandFlagSet
		raw     []string
	}{
		{"unknown long", testFlagSet(), []string{"--nope"}},
		{"unknown short", testFlagSet(), []string{"-x"}},
		{"missing value", testFlagSet(), []string{"--format"}},
		{"missing short value", testFlagSet(), []string{"-d"}},
		{"invalid integer", testFlagSet(), []string{"--depth", "deep"}},
		{"required", required, []string{"-v"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewParser(tc.flagSet).Parse(tc.raw); err == nil {
				t.Errorf("Expected an error for %v", tc.raw)
			}
		})
	}
}

func TestNilFlagSet(t *testing.T) {
	a, err := NewParser(nil).Parse([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if a.Arg(1, "") != "b" || a.Arg(2, "fallback") != "fallback" {
		t.Errorf("Expected positional args, got %v", a.Args)
	}
}
