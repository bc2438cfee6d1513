package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/leapstack-labs/provgate/pkg/gate"
	"github.com/spf13/pflag"
)

// ConfigFileName is the default config file name.
const ConfigFileName = "provgate.yaml"

// ConfigFileNameAlt is the alternate config file name.
const ConfigFileNameAlt = "provgate.yml"

// DefaultStorePath is the default SQLite database file.
const DefaultStorePath = "provgate.db"

// DefaultServerAddr is the default API listen address.
const DefaultServerAddr = ":8090"

// findConfigFile finds the config file to use.
// Priority: explicit path > provgate.yaml > provgate.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}

// Load loads configuration from file, environment variables, and flags.
// Precedence (highest to lowest): flags > env vars > config file > defaults.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"store.backend": BackendSQLite,
		"store.path":    DefaultStorePath,
		"server.addr":   DefaultServerAddr,
		"label_column":  "label",
		"log_level":     "info",
		"output":        "auto",
		"verbose":       false,
	}
	for key, v := range gateDefaults() {
		defaults["gate."+key] = v
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// 3. Environment variables (PROVGATE_ prefix).
	// Transform: PROVGATE_STORE__BACKEND -> store.backend
	if err := k.Load(env.Provider("PROVGATE_", ".", func(s string) string {
		key := strings.ToLower(strings.TrimPrefix(s, "PROVGATE_"))
		return strings.ReplaceAll(key, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// The CLI exposes short flag names for nested keys.
			switch key {
			case "db":
				return "store.path", posflag.FlagVal(flags, f)
			case "dsn":
				return "store.dsn", posflag.FlagVal(flags, f)
			case "backend":
				return "store.backend", posflag.FlagVal(flags, f)
			case "addr":
				return "server.addr", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	cfg.Store.DSN = expandEnvVars(cfg.Store.DSN)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// gateDefaults flattens the built-in gate thresholds into koanf keys.
func gateDefaults() map[string]interface{} {
	d := gate.DefaultConfig()
	return map[string]interface{}{
		"bias_threshold":                       d.BiasThreshold,
		"min_accuracy_high_risk":               d.MinAccuracyHighRisk,
		"min_accuracy_limited_risk":            d.MinAccuracyLimitedRisk,
		"min_f1_high_risk":                     d.MinF1HighRisk,
		"min_f1_limited_risk":                  d.MinF1LimitedRisk,
		"max_risk_assessment_age_days":         d.MaxRiskAssessmentAgeDays,
		"max_risk_assessment_age_limited_days": d.MaxRiskAssessmentAgeLimitedDays,
		"max_security_assessment_age_days":     d.MaxSecurityAssessmentAgeDays,
	}
}

// expandEnvVars expands ${VAR} patterns with environment variable values.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		return match
	})
}
