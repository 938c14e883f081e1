package application

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/lk2023060901/planwire-go/internal/plan/registry"
	"github.com/lk2023060901/planwire-go/internal/plan/serde"
	"github.com/lk2023060901/planwire-go/pkg/log"
	"github.com/lk2023060901/planwire-go/pkg/util/hardware"
	zviper "github.com/lk2023060901/planwire-go/pkg/util/viper"
)

// Application is the main runtime container for a planwire process.
// It owns configuration, the type registry and the serde engine,
// and manages named loggers.
type Application struct {
	cfg     *zviper.Config
	loggers map[string]*zap.Logger

	registry *registry.Registry
	serde    *serde.Serde
}

// New creates a new Application instance with an empty type registry.
func New() *Application {
	r := registry.New()
	return &Application{
		registry: r,
		serde:    serde.New(r),
	}
}

// Run is the entry of a planwire application.
// It parses command-line arguments (os.Args) and loads configuration file
// using the following priority:
//  1. Default: ./config.yaml
//  2. Env: PLANWIRE_CONFIG_FILE_PATH
//  3. CLI: --config <path> or --config=<path>
func (a *Application) Run() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	a.cfg = cfg

	if err := a.initLogging(); err != nil {
		return err
	}

	log.Info("planwire application started",
		zap.Int("cpuNum", hardware.GetCPUNum()),
		zap.Uint64("hostMemory", hardware.GetMemoryCount()))
	return nil
}

// Config returns the loaded configuration, if any.
func (a *Application) Config() *zviper.Config {
	return a.cfg
}

// Registry returns the application-wide type registry.
// Serializable types should be registered here during startup.
func (a *Application) Registry() *registry.Registry {
	return a.registry
}

// Serde returns the conversion engine bound to the application registry.
func (a *Application) Serde() *serde.Serde {
	return a.serde
}

// Logger returns a named logger created from configuration.
// If the name is unknown, it falls back to the global logger.
func (a *Application) Logger(name string) *zap.Logger {
	if lg, ok := a.loggers[name]; ok && lg != nil {
		return lg
	}
	return log.L()
}

// loadConfig resolves config file path and loads it via viper wrapper.
func (a *Application) loadConfig() (*zviper.Config, error) {
	configPath := "./config.yaml"

	if envPath := os.Getenv("PLANWIRE_CONFIG_FILE_PATH"); envPath != "" {
		configPath = envPath
	}

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--config" {
			if i+1 >= len(args) {
				return nil, fmt.Errorf("missing value after --config")
			}
			configPath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--config=") {
			val := strings.TrimPrefix(arg, "--config=")
			if val != "" {
				configPath = val
			}
			continue
		}
	}

	cfg := zviper.New()
	if err := cfg.LoadFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file %q: %w", configPath, err)
	}

	return cfg, nil
}

// initLogging initializes global and module-level loggers.
func (a *Application) initLogging() error {
	if err := a.initGlobalLoggerFromEnv(); err != nil {
		return err
	}
	if err := a.initModuleLoggersFromConfig(); err != nil {
		return err
	}
	return nil
}

// initGlobalLoggerFromEnv configures the process-wide logger based on PLANWIRE_LOG_* env vars.
//
// Priority:
//   - PLANWIRE_LOG_ENABLE: "1"/"true" to enable outputs; others treated as disabled.
//   - PLANWIRE_LOG_LEVEL: log level (default "info").
//   - PLANWIRE_LOG_STDOUT: whether to log to stdout (default false).
//   - PLANWIRE_LOG_FILE_DIR: log directory.
//   - PLANWIRE_LOG_FILE: log file name (empty means no file).
//   - PLANWIRE_LOG_FORMAT: log format ("text" or "json", default "text").
func (a *Application) initGlobalLoggerFromEnv() error {
	enabled := getenvBool("PLANWIRE_LOG_ENABLE", false)

	cfg := &log.Config{
		Level:               getenvDefault("PLANWIRE_LOG_LEVEL", "info"),
		Format:              getenvDefault("PLANWIRE_LOG_FORMAT", "text"),
		DisableTimestamp:    false,
		Stdout:              getenvBool("PLANWIRE_LOG_STDOUT", false),
		DisableCaller:       false,
		DisableStacktrace:   false,
		DisableErrorVerbose: true,
		File: log.FileLogConfig{
			RootPath: getenvDefault("PLANWIRE_LOG_FILE_DIR", ""),
			Filename: getenvDefault("PLANWIRE_LOG_FILE", ""),
		},
	}

	// When not enabled, direct all outputs to a discarded sink.
	if !enabled {
		cfg.Stdout = false
		cfg.File.Filename = ""
	}

	logger, props, err := log.InitLogger(cfg)
	if err != nil {
		return fmt.Errorf("init global logger from env: %w", err)
	}
	log.ReplaceGlobals(logger, props)
	return nil
}

// initModuleLoggersFromConfig creates named loggers from YAML config under "logging" key.
//
// Example:
//
//	logging:
//	  serde:
//	    level: debug
//	    stdout: true
//	    file:
//	      rootpath: ./logs
//	      filename: serde.log
func (a *Application) initModuleLoggersFromConfig() error {
	if a.cfg == nil {
		return nil
	}

	raw := make(map[string]log.Config)
	if err := a.cfg.UnmarshalKey("logging", &raw); err != nil {
		// If the key doesn't exist, UnmarshalKey typically leaves raw empty without error.
		// Any real error should be returned.
		return err
	}
	if len(raw) == 0 {
		return nil
	}

	a.loggers = make(map[string]*zap.Logger, len(raw))
	for name, lc := range raw {
		cfgCopy := lc
		logger, _, err := log.InitLogger(&cfgCopy)
		if err != nil {
			return fmt.Errorf("init module logger %q: %w", name, err)
		}
		a.loggers[name] = logger
	}

	return nil
}

func getenvDefault(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getenvBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	switch strings.ToLower(val) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}
