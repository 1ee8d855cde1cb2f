package pgstore

import (
	"context"
	"fmt"
)

// migrate creates the triples relation and its indexes. Idempotent, so
// it runs on every start. Loading data is out of scope here: the table
// is populated by whatever pipeline converts configurations to triples.
func (s *Store) migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS triples (
		subject TEXT NOT NULL,
		predicate TEXT NOT NULL,
		object TEXT NOT NULL,
		object_is_iri BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE INDEX IF NOT EXISTS idx_triples_subject_predicate
		ON triples(subject, predicate);
	CREATE INDEX IF NOT EXISTS idx_triples_predicate_object
		ON triples(predicate, object);
	CREATE INDEX IF NOT EXISTS idx_triples_object_iri
		ON triples(object) WHERE object_is_iri;
	`

	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}
