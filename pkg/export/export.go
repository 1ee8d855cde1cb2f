// Package export writes offline copies of navigation state: the loaded
// slice of a session tree, or a complete root listing, JSON-encoded and
// snappy-compressed, to a local directory or an S3 bucket. Exports never
// force new store queries; they serialize what a session already holds.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang/snappy"

	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/treestate"
)

// FormatVersion is stamped into every envelope so readers can reject
// documents written by a future incompatible format.
const FormatVersion = 1

// Document kinds.
const (
	KindTree    = "tree"
	KindListing = "listing"
)

var (
	ErrNothingToExport = errors.New("nothing to export")
	ErrBadName         = errors.New("invalid export name")
	ErrBadDocument     = errors.New("not an export document")
)

// Envelope is the stored document. Exactly one of Tree and Listing is
// set, matching Kind.
type Envelope struct {
	Version   int                 `json:"version"`
	Kind      string              `json:"kind"`
	CreatedAt time.Time           `json:"createdAt"`
	Tree      *treestate.Snapshot `json:"tree,omitempty"`
	Listing   *listing.Result     `json:"listing,omitempty"`
}

// Receipt describes a stored export.
type Receipt struct {
	Name        string `json:"name"`
	Location    string `json:"location"`
	RawBytes    int    `json:"rawBytes"`
	StoredBytes int    `json:"storedBytes"`
}

// Config configures an Exporter. Sink is required; Logger and Metrics
// are optional.
type Config struct {
	Sink    Sink
	Logger  logging.Logger
	Metrics *metrics.Registry
}

// Exporter serializes envelopes and hands them to its sink.
type Exporter struct {
	sink    Sink
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewExporter wires an exporter to a sink.
func NewExporter(cfg Config) *Exporter {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	return &Exporter{
		sink:    cfg.Sink,
		logger:  cfg.Logger.With(logging.Component("export")),
		metrics: cfg.Metrics,
	}
}

// ExportTree stores the loaded slice of a session tree. An empty name
// gets a timestamped one.
func (e *Exporter) ExportTree(ctx context.Context, name string, snap *treestate.Snapshot) (*Receipt, error) {
	if snap == nil {
		return nil, ErrNothingToExport
	}
	return e.store(ctx, name, &Envelope{
		Version:   FormatVersion,
		Kind:      KindTree,
		CreatedAt: time.Now().UTC(),
		Tree:      snap,
	})
}

// ExportListing stores a root listing result.
func (e *Exporter) ExportListing(ctx context.Context, name string, res *listing.Result) (*Receipt, error) {
	if res == nil {
		return nil, ErrNothingToExport
	}
	return e.store(ctx, name, &Envelope{
		Version:   FormatVersion,
		Kind:      KindListing,
		CreatedAt: time.Now().UTC(),
		Listing:   res,
	})
}

func (e *Exporter) store(ctx context.Context, name string, env *Envelope) (*Receipt, error) {
	name, err := exportFileName(name, env.Kind, env.CreatedAt)
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("failed to encode export: %w", err)
	}
	compressed := snappy.Encode(nil, raw)

	location, err := e.sink.Store(ctx, name, compressed)
	if err != nil {
		e.recordExport("error", 0)
		e.logger.Error("Export failed",
			logging.String("sink", e.sink.Name()),
			logging.String("name", name),
			logging.Error(err))
		return nil, err
	}

	e.recordExport("ok", len(compressed))
	e.logger.Info("Export stored",
		logging.String("sink", e.sink.Name()),
		logging.String("name", name),
		logging.String("location", location),
		logging.Int("raw_bytes", len(raw)),
		logging.Int("stored_bytes", len(compressed)))

	return &Receipt{
		Name:        name,
		Location:    location,
		RawBytes:    len(raw),
		StoredBytes: len(compressed),
	}, nil
}

func (e *Exporter) recordExport(status string, size int) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordExport(e.sink.Name(), status, size)
}

// exportFileName validates a caller-supplied name or generates a
// timestamped one. Separators are rejected so a name can never escape
// the sink directory.
func exportFileName(name, kind string, at time.Time) (string, error) {
	if name == "" {
		name = fmt.Sprintf("%s-%s", kind, at.Format("20060102T150405Z"))
	}
	if strings.ContainsAny(name, "/\\") {
		return "", fmt.Errorf("%w: %q must not contain path separators", ErrBadName, name)
	}
	if !strings.HasSuffix(name, ".json.sz") {
		name += ".json.sz"
	}
	return name, nil
}

// Read decodes a stored export document.
func Read(data []byte) (*Envelope, error) {
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadDocument, err)
	}
	if env.Version != FormatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrBadDocument, env.Version)
	}
	return &env, nil
}

// ReadFile reads and decodes an export written by a DirSink.
func ReadFile(path string) (*Envelope, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read export file: %w", err)
	}
	return Read(data)
}
