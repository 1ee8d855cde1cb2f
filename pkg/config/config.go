// Package config loads service configuration from a YAML file with
// SCLGRAPH_* environment overrides on top. Mains may layer flag
// overrides above both.
package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML can carry human-readable values
// ("30s", "5m"). A bare number is read as seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err == nil {
		parsed, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(parsed)
		return nil
	}
	var n int64
	if err := value.Decode(&n); err != nil {
		return fmt.Errorf("invalid duration %v", value.Value)
	}
	*d = Duration(time.Duration(n) * time.Second)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the full service configuration.
type Config struct {
	Listen  string        `yaml:"listen" validate:"required"`
	Store   StoreConfig   `yaml:"store"`
	Auth    AuthConfig    `yaml:"auth"`
	Session SessionConfig `yaml:"session"`
	Export  ExportConfig  `yaml:"export"`
	Logging LogConfig     `yaml:"logging"`
}

// StoreConfig selects and configures the triple store backend.
type StoreConfig struct {
	Backend string `yaml:"backend" validate:"required,oneof=memory sparql postgres"`
	// Namespace overrides the vocabulary base IRI. Empty means the
	// standard SCL namespace.
	Namespace string         `yaml:"namespace"`
	SPARQL    SPARQLConfig   `yaml:"sparql"`
	Postgres  PostgresConfig `yaml:"postgres"`
}

// SPARQLConfig configures the SPARQL endpoint backend.
type SPARQLConfig struct {
	Endpoint       string   `yaml:"endpoint"`
	Timeout        Duration `yaml:"timeout"`
	MaxConnections int      `yaml:"max_connections"`
	Username       string   `yaml:"username"`
	Password       string   `yaml:"password"`
}

// PostgresConfig configures the PostgreSQL backend.
type PostgresConfig struct {
	URL string `yaml:"url"`
}

// AuthConfig configures boundary authentication. Leaving both the
// secret and the key hashes empty disables it.
type AuthConfig struct {
	JWTSecret    string   `yaml:"jwt_secret"`
	APIKeyHashes []string `yaml:"api_key_hashes"`
}

// Enabled reports whether any credential source is configured.
func (a AuthConfig) Enabled() bool {
	return a.JWTSecret != "" || len(a.APIKeyHashes) > 0
}

// SessionConfig configures server-side tree sessions.
type SessionConfig struct {
	TTL Duration `yaml:"ttl"`
}

// ExportConfig selects the snapshot export sink: a local directory or
// an S3 bucket, not both.
type ExportConfig struct {
	Dir string   `yaml:"dir"`
	S3  S3Config `yaml:"s3"`
}

// S3Config configures the S3 export sink. AccessKey and SecretKey are
// optional; when unset the ambient AWS credential chain is used.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// LogConfig configures the JSON logger.
type LogConfig struct {
	Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
}

// DefaultConfig returns a configuration that serves the built-in demo
// fixture from memory on :8080 with no auth.
func DefaultConfig() Config {
	return Config{
		Listen: ":8080",
		Store: StoreConfig{
			Backend: "memory",
			SPARQL: SPARQLConfig{
				Timeout:        Duration(30 * time.Second),
				MaxConnections: 8,
			},
		},
		Session: SessionConfig{
			TTL: Duration(30 * time.Minute),
		},
		Logging: LogConfig{
			Level: "info",
		},
	}
}
