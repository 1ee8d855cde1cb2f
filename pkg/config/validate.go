package config

import (
	"fmt"
	"time"

	"github.com/dd0wney/sclgraph/pkg/validation"
)

const minJWTSecretLen = 32

// Validate checks structural constraints via struct tags, then the
// cross-field rules the tags cannot express.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return err
	}

	cv := validation.NewConfigValidator("config")

	cv.When(c.Store.Backend == "sparql", func(cv *validation.ConfigValidator) {
		cv.Required("store.sparql.endpoint", c.Store.SPARQL.Endpoint)
		cv.Positive("store.sparql.max_connections", c.Store.SPARQL.MaxConnections)
		cv.MinDuration("store.sparql.timeout", c.Store.SPARQL.Timeout.Std(), time.Second)
	})

	cv.When(c.Store.Backend == "postgres", func(cv *validation.ConfigValidator) {
		cv.Required("store.postgres.url", c.Store.Postgres.URL)
	})

	cv.When(c.Auth.JWTSecret != "", func(cv *validation.ConfigValidator) {
		cv.Custom("auth.jwt_secret", func() error {
			if len(c.Auth.JWTSecret) < minJWTSecretLen {
				return fmt.Errorf("must be at least %d bytes, got %d", minJWTSecretLen, len(c.Auth.JWTSecret))
			}
			return nil
		})
	})

	cv.MinDuration("session.ttl", c.Session.TTL.Std(), time.Minute)

	cv.Custom("export", func() error {
		if c.Export.Dir != "" && c.Export.S3.Bucket != "" {
			return fmt.Errorf("configure either dir or s3.bucket, not both")
		}
		return nil
	})
	cv.When(c.Export.S3.Bucket != "", func(cv *validation.ConfigValidator) {
		cv.Required("export.s3.region", c.Export.S3.Region)
		cv.Custom("export.s3", func() error {
			if (c.Export.S3.AccessKey == "") != (c.Export.S3.SecretKey == "") {
				return fmt.Errorf("access_key and secret_key must be set together")
			}
			return nil
		})
	})

	return cv.Validate()
}
