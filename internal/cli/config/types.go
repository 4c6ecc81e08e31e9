// Package config provides configuration management for the sysabi CLI.
//
// Values are layered, lowest to highest precedence: built-in defaults, the
// sysabi.yaml project file, SYSABI_* environment variables, and flags that
// were set explicitly on the command line.
package config

import "github.com/leapstack-labs/sysabi/internal/gen"

// Config holds all CLI configuration options.
type Config struct {
	// Table is the authored table file. Empty selects the built-in ABI.
	Table        string   `koanf:"table"`
	OutputDir    string   `koanf:"output_dir"`
	Backends     []string `koanf:"backends"`
	Lock         string   `koanf:"lock"`
	Verbose      bool     `koanf:"verbose"`
	OutputFormat string   `koanf:"output"`
	Go           GoConfig `koanf:"go"`
	C            CConfig  `koanf:"c"`

	// ProjectRoot is the directory relative paths were resolved against.
	ProjectRoot string `koanf:"-"`
}

// GoConfig configures the go backend.
type GoConfig struct {
	KernelPackage string `koanf:"kernel_package"`
	UserPackage   string `koanf:"user_package"`
	RuntimeModule string `koanf:"runtime_module"`
}

// CConfig configures the c backend.
type CConfig struct {
	KernelPrefix string `koanf:"kernel_prefix"`
	UserPrefix   string `koanf:"user_prefix"`
	TrapFunction string `koanf:"trap_function"`
}

// Default configuration values.
const (
	DefaultOutputDir = "generated"
	DefaultLock      = "abi.lock.json"
	DefaultOutput    = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// Config file names, in lookup order.
var configFileNames = []string{"sysabi.yaml", "sysabi.yml"}

// Default returns the configuration used when nothing was loaded.
func Default() *Config {
	return &Config{
		OutputDir:    DefaultOutputDir,
		Backends:     []string{string(gen.BackendC), string(gen.BackendGo)},
		Lock:         DefaultLock,
		OutputFormat: DefaultOutput,
		Go: GoConfig{
			KernelPackage: gen.DefaultKernelPackage,
			UserPackage:   gen.DefaultUserPackage,
			RuntimeModule: gen.DefaultRuntimeModule,
		},
		C: CConfig{
			KernelPrefix: gen.DefaultKernelPrefix,
			UserPrefix:   gen.DefaultUserPrefix,
			TrapFunction: gen.DefaultTrapFunction,
		},
	}
}

// GenOptions converts the configuration into generator options.
func (c *Config) GenOptions() (gen.Options, error) {
	backends, err := gen.ParseBackends(c.Backends)
	if err != nil {
		return gen.Options{}, err
	}
	return gen.Options{
		Backends: backends,
		Go: gen.GoOptions{
			KernelPackage: c.Go.KernelPackage,
			UserPackage:   c.Go.UserPackage,
			RuntimeModule: c.Go.RuntimeModule,
		},
		C: gen.COptions{
			KernelPrefix: c.C.KernelPrefix,
			UserPrefix:   c.C.UserPrefix,
			TrapFunction: c.C.TrapFunction,
		},
	}, nil
}
