package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file using strict parsing, then
// applies SCLGRAPH_* environment overrides. An empty path skips the
// file and starts from the defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		file, err := os.Open(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open config: %w", err)
		}
		defer file.Close()

		decoder := yaml.NewDecoder(file)
		decoder.KnownFields(true)
		if err := decoder.Decode(&cfg); err != nil {
			return cfg, fmt.Errorf("YAML syntax error in config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyEnv overrides file values from the environment. Every knob has a
// variable, so a container deployment can run without a config file.
func (c *Config) applyEnv() {
	setString(&c.Listen, "SCLGRAPH_LISTEN")

	setString(&c.Store.Backend, "SCLGRAPH_STORE_BACKEND")
	setString(&c.Store.Namespace, "SCLGRAPH_STORE_NAMESPACE")
	setString(&c.Store.SPARQL.Endpoint, "SCLGRAPH_SPARQL_ENDPOINT")
	setDuration(&c.Store.SPARQL.Timeout, "SCLGRAPH_SPARQL_TIMEOUT")
	setInt(&c.Store.SPARQL.MaxConnections, "SCLGRAPH_SPARQL_MAX_CONNECTIONS")
	setString(&c.Store.SPARQL.Username, "SCLGRAPH_SPARQL_USERNAME")
	setString(&c.Store.SPARQL.Password, "SCLGRAPH_SPARQL_PASSWORD")
	setString(&c.Store.Postgres.URL, "SCLGRAPH_POSTGRES_URL")

	setString(&c.Auth.JWTSecret, "SCLGRAPH_JWT_SECRET")
	if keys := os.Getenv("SCLGRAPH_API_KEY_HASHES"); keys != "" {
		c.Auth.APIKeyHashes = splitAndTrim(keys, ",")
	}

	setDuration(&c.Session.TTL, "SCLGRAPH_SESSION_TTL")

	setString(&c.Export.Dir, "SCLGRAPH_EXPORT_DIR")
	setString(&c.Export.S3.Bucket, "SCLGRAPH_S3_BUCKET")
	setString(&c.Export.S3.Region, "SCLGRAPH_S3_REGION")
	setString(&c.Export.S3.Prefix, "SCLGRAPH_S3_PREFIX")
	setString(&c.Export.S3.AccessKey, "SCLGRAPH_S3_ACCESS_KEY")
	setString(&c.Export.S3.SecretKey, "SCLGRAPH_S3_SECRET_KEY")

	setString(&c.Logging.Level, "SCLGRAPH_LOG_LEVEL")
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			*dst = n
		}
	}
}

func setDuration(dst *Duration, key string) {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			*dst = Duration(d)
		}
	}
}

func splitAndTrim(s, sep string) []string {
	parts := strings.Split(s, sep)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
