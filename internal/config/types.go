package config

import "time"

// Config is the complete sigil configuration.
type Config struct {
	Service   ServiceConfig     `yaml:"service"`
	Listen    string            `yaml:"listen"`
	Storage   StorageConfig     `yaml:"storage"`
	Secrets   map[string]string `yaml:"secrets,omitempty"`
	Endpoints []EndpointConfig  `yaml:"endpoints"`

	// VerifyChecksum requires a valid .checksums manifest next to the
	// config file before the config is accepted.
	VerifyChecksum bool `yaml:"verify_checksum,omitempty"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// StorageConfig defines payload storage settings.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// EndpointConfig defines a single protected webhook endpoint.
type EndpointConfig struct {
	// Path is the URL path for this endpoint (e.g., "/webhook/orders").
	Path string `yaml:"path"`

	// Secret is the shared HMAC key. Supports ${ENV_VAR} expansion.
	Secret string `yaml:"secret,omitempty"`

	// SecretRef names an entry in the top-level secrets map (preferred
	// over an inline Secret).
	SecretRef string `yaml:"secret_ref,omitempty"`

	// Tolerance is the allowed sender/receiver clock skew (default 5m).
	Tolerance time.Duration `yaml:"tolerance,omitempty"`

	// MaxBodySize is the body ceiling, with optional KB/MB/GB suffix
	// (default "256KB").
	MaxBodySize string `yaml:"max_body_size,omitempty"`

	// MaxSignatures caps candidate tokens per signature header (default 8).
	MaxSignatures int `yaml:"max_signatures,omitempty"`
}

// Default policy values, preserved as documented behavior.
const (
	DefaultMaxBodySize = 256 * 1024
	DefaultTolerance   = 5 * time.Minute
	DefaultLogLevel    = "INFO"
)
