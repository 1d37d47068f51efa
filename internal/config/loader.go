package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, expands and validates configuration from a YAML file.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(&cfg)
	expandSecrets(&cfg)

	if cfg.VerifyChecksum {
		if err := VerifyConfigChecksum(absPath); err != nil {
			return nil, fmt.Errorf("config integrity check failed: %w", err)
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = DefaultLogLevel
	}
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:8080"
	}
	for i := range cfg.Endpoints {
		ep := &cfg.Endpoints[i]
		if ep.Tolerance == 0 {
			ep.Tolerance = DefaultTolerance
		}
	}
}

// expandSecrets replaces ${ENV_VAR} references in secret values.
func expandSecrets(cfg *Config) {
	expand := func(s string) string {
		return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
			name := envVarPattern.FindStringSubmatch(match)[1]
			return os.Getenv(name)
		})
	}
	for name, val := range cfg.Secrets {
		cfg.Secrets[name] = expand(val)
	}
	for i := range cfg.Endpoints {
		cfg.Endpoints[i].Secret = expand(cfg.Endpoints[i].Secret)
	}
}

func validate(cfg *Config) error {
	if len(cfg.Endpoints) == 0 {
		return fmt.Errorf("no endpoints configured")
	}
	seen := make(map[string]bool)
	for _, ep := range cfg.Endpoints {
		if ep.Path == "" || !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("endpoint path %q must start with /", ep.Path)
		}
		if seen[ep.Path] {
			return fmt.Errorf("duplicate endpoint path %q", ep.Path)
		}
		seen[ep.Path] = true

		if _, err := ep.ResolveSecret(cfg.Secrets); err != nil {
			return err
		}
		if _, err := ParseSize(ep.MaxBodySize); err != nil {
			return fmt.Errorf("endpoint %q: invalid max_body_size %q: %w", ep.Path, ep.MaxBodySize, err)
		}
		if ep.Tolerance < 0 {
			return fmt.Errorf("endpoint %q: tolerance must be positive", ep.Path)
		}
		if ep.MaxSignatures < 0 {
			return fmt.Errorf("endpoint %q: max_signatures must be positive", ep.Path)
		}
	}
	return nil
}

// ResolveSecret returns the endpoint's shared key. SecretRef takes
// precedence over an inline Secret.
func (ep EndpointConfig) ResolveSecret(secrets map[string]string) (string, error) {
	secret := ep.Secret
	if ep.SecretRef != "" {
		resolved, ok := secrets[ep.SecretRef]
		if !ok {
			return "", fmt.Errorf("endpoint %q: secret_ref %q not found in secrets", ep.Path, ep.SecretRef)
		}
		secret = resolved
	}
	if secret == "" {
		return "", fmt.Errorf("endpoint %q: no secret or secret_ref configured", ep.Path)
	}
	return secret, nil
}

// ParseSize parses size strings like "256KB", "1MB" or "262144" to bytes.
// Returns DefaultMaxBodySize for an empty string.
func ParseSize(size string) (int64, error) {
	if size == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)

	switch {
	case strings.HasSuffix(upper, "KB"):
		multiplier = 1024
		upper = strings.TrimSuffix(upper, "KB")
	case strings.HasSuffix(upper, "MB"):
		multiplier = 1024 * 1024
		upper = strings.TrimSuffix(upper, "MB")
	case strings.HasSuffix(upper, "GB"):
		multiplier = 1024 * 1024 * 1024
		upper = strings.TrimSuffix(upper, "GB")
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value: %w", err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}

	result := value * multiplier
	if result < 0 { // overflow
		return 0, fmt.Errorf("size too large")
	}
	return result, nil
}
