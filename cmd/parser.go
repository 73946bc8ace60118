package cmd

import (
	"fmt"
	"strconv"
	"strings"
)

// Parser parses user-defined arguments into flags
type Parser struct {
	flagSet *CommandFlagSet
}

func NewParser(flagSet *CommandFlagSet) *Parser {
	if flagSet == nil {
		flagSet = &CommandFlagSet{Flags: make(map[string]*CommandFlag)}
	}
	return &Parser{
		flagSet: flagSet,
	}
}

func (cp *Parser) Parse(raw []string) (*CommandArgs, error) {
	args := &CommandArgs{
		Flags: make(map[string]any),
		Raw:   raw,
	}

	for flagName, flag := range cp.flagSet.Flags {
		if flag.Default != nil {
			args.Flags[flagName] = flag.Default
		}
	}

	longToName := make(map[string]string)
	shortToName := make(map[string]string)
	for flagName, flag := range cp.flagSet.Flags {
		longToName[flag.Name] = flagName
		if flag.Short != "" {
			shortToName[flag.Short] = flagName
		}
	}

	// defaults of stringSlice flags are replaced, not extended
	explicit := make(map[string]bool)

	set := func(flagName, value string) error {
		flag := cp.flagSet.Flags[flagName]
		if flag.Type == "stringSlice" {
			var values []string
			if explicit[flagName] {
				values, _ = args.Flags[flagName].([]string)
			}
			explicit[flagName] = true
			for _, v := range strings.Split(value, ",") {
				if v = strings.TrimSpace(v); v != "" {
					values = append(values, v)
				}
			}
			args.Flags[flagName] = values
			return nil
		}

		v, err := coerce(value, flag.Type)
		if err != nil {
			return fmt.Errorf("flag %s: %w", flag.Name, err)
		}
		args.Flags[flagName] = v
		return nil
	}

	for i := 0; i < len(raw); i++ {
		arg := raw[i]

		if arg == "--" {
			args.Args = append(args.Args, raw[i+1:]...)
			break
		}

		if strings.HasPrefix(arg, "--") {
			key, value, hasValue := parseLongFlag(arg)
			flagName, exists := longToName[key]
			if !exists {
				return nil, fmt.Errorf("unknown flag: --%s", key)
			}

			flag := cp.flagSet.Flags[flagName]
			switch {
			case flag.Type == "bool" && hasValue:
				if err := set(flagName, value); err != nil {
					return nil, err
				}
			case flag.Type == "bool":
				args.Flags[flagName] = true
			case hasValue:
				if err := set(flagName, value); err != nil {
					return nil, err
				}
			case i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-"):
				if err := set(flagName, raw[i+1]); err != nil {
					return nil, err
				}
				i++
			default:
				return nil, fmt.Errorf("flag %s requires a value", key)
			}
			continue
		}

		if strings.HasPrefix(arg, "-") && len(arg) > 1 {
			shortFlags := arg[1:]

			for j, shortChar := range shortFlags {
				shortStr := string(shortChar)
				flagName, exists := shortToName[shortStr]
				if !exists {
					return nil, fmt.Errorf("unknown flag: -%s", shortStr)
				}

				flag := cp.flagSet.Flags[flagName]
				if flag.Type == "bool" {
					args.Flags[flagName] = true
					continue
				}

				if j+1 < len(shortFlags) {
					if err := set(flagName, shortFlags[j+1:]); err != nil {
						return nil, err
					}
					break
				}
				if i+1 < len(raw) && !strings.HasPrefix(raw[i+1], "-") {
					if err := set(flagName, raw[i+1]); err != nil {
						return nil, err
					}
					i++
					break
				}
				return nil, fmt.Errorf("flag -%s requires a value", shortStr)
			}
			continue
		}

		args.Args = append(args.Args, arg)
	}

	for flagName, flag := range cp.flagSet.Flags {
		if flag.Required {
			if _, ok := args.Flags[flagName]; !ok {
				if flag.Short != "" {
					return nil, fmt.Errorf("required flag: -%s / --%s", flag.Short, flag.Name)
				}
				return nil, fmt.Errorf("required flag: --%s", flag.Name)
			}
		}
	}

	return args, nil
}

func parseLongFlag(arg string) (key, value string, hasValue bool) {
	arg = strings.TrimPrefix(arg, "--")
	if idx := strings.Index(arg, "="); idx >= 0 {
		return arg[:idx], arg[idx+1:], true
	}
	return arg, "", false
}

func coerce(value string, typeStr string) (any, error) {
	switch typeStr {
	case "int":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer '%s'", value)
		}
		return v, nil
	case "bool":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return value == "yes", nil
		}
		return v, nil
	default:
		return value, nil
	}
}
