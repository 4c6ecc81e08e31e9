package config

import (
	"fmt"
	"sort"
	"strings"
)

// Key describes one configuration setting.
type Key struct {
	Name        string // koanf path, as in sysabi.yaml
	Env         string // environment variable that sets it
	Default     string
	Description string
}

var keyDescriptions = map[string]string{
	"table":             "Syscall table file; empty selects the built-in ABI",
	"output_dir":        "Directory generated code is written to",
	"backends":          "Backends generate runs, comma-separated in the environment",
	"lock":              "ABI lock file checked before generation",
	"verbose":           "Log debug records to stderr",
	"output":            "Output format: auto, text, markdown or json",
	"go.kernel_package": "Package name of the generated Go dispatcher",
	"go.user_package":   "Package name of the generated Go stubs",
	"go.runtime_module": "Module path the generated Go dispatcher imports",
	"c.kernel_prefix":   "Prefix of C kernel handler symbols",
	"c.user_prefix":     "Prefix of C user stub symbols",
	"c.trap_function":   "C function the user stubs trap through",
}

// Keys lists every setting LoadConfig understands, sorted by name.
func Keys() []Key {
	d := defaults()
	keys := make([]Key, 0, len(d))
	for name, v := range d {
		keys = append(keys, Key{
			Name:        name,
			Env:         envPrefix + strings.ToUpper(strings.ReplaceAll(name, ".", "_")),
			Default:     formatDefault(v),
			Description: keyDescriptions[name],
		})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Name < keys[j].Name })
	return keys
}

func formatDefault(v interface{}) string {
	if s, ok := v.([]string); ok {
		return strings.Join(s, ",")
	}
	return fmt.Sprint(v)
}
