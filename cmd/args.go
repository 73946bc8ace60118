package cmd

// CommandArgs contains parsed command arguments
type CommandArgs struct {
	// Positional arguments (command-specific)
	Args []string

	// Parsed flags
	Flags map[string]any

	// Raw unparsed arguments (for custom parsing)
	Raw []string
}

// CommandFlagSet defines the expected flags for a command
type CommandFlagSet struct {
	Flags map[string]*CommandFlag
}

// CommandFlag represents a single command-line flag
type CommandFlag struct {
	Name        string `json:"name"`              // e.g., "kind"
	Short       string `json:"short"`             // Single-char shorthand (e.g., "k")
	Type        string `json:"type"`              // "string", "bool", "int", "stringSlice"
	Default     any    `json:"default,omitempty"` // Default value
	Required    bool   `json:"required"`          // Must be provided
	Description string `json:"description"`       // Help text
}

// Bool returns a bool flag, false when unset.
func (a *CommandArgs) Bool(name string) bool {
	v, _ := a.Flags[name].(bool)
	return v
}

// String returns a string flag, "" when unset.
func (a *CommandArgs) String(name string) string {
	v, _ := a.Flags[name].(string)
	return v
}

// Int returns an int flag, 0 when unset.
func (a *CommandArgs) Int(name string) int64 {
	switch v := a.Flags[name].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	}
	return 0
}

// Strings returns every value of a stringSlice flag.
func (a *CommandArgs) Strings(name string) []string {
	v, _ := a.Flags[name].([]string)
	return v
}

// Arg returns the positional argument at i or fallback.
func (a *CommandArgs) Arg(i int, fallback string) string {
	if i < len(a.Args) {
		return a.Args[i]
	}
	return fallback
}
