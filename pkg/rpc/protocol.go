package rpc

import (
	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/schema"
)

// Op selects the operation a request performs.
type Op string

const (
	OpPing   Op = "ping"
	OpExpand Op = "expand"
	OpList   Op = "list"
)

// Error kinds let callers map failures without parsing messages. They
// mirror the engine error taxonomy.
const (
	ErrorKindBadRequest  = "bad_request"
	ErrorKindUnknownKind = "unknown_kind"
	ErrorKindUnavailable = "store_unavailable"
	ErrorKindMalformed   = "malformed_result"
	ErrorKindInternal    = "internal"
)

// Request is one REQ frame. ID and Kind belong to expand; GroupBy and
// Search belong to list; ping carries nothing.
type Request struct {
	Op      Op     `json:"op"`
	ID      string `json:"id,omitempty"`
	Kind    string `json:"kind,omitempty"`
	GroupBy string `json:"groupBy,omitempty"`
	Search  string `json:"search,omitempty"`
}

// Response is one REP frame. On failure OK is false and Error plus
// ErrorKind describe the cause; the payload fields stay empty.
type Response struct {
	OK        bool                        `json:"ok"`
	Error     string                      `json:"error,omitempty"`
	ErrorKind string                      `json:"errorKind,omitempty"`
	Nodes     []explore.Node              `json:"nodes,omitempty"`
	Groups    map[string][]listing.Entity `json:"groups,omitempty"`
	Total     int                         `json:"total,omitempty"`
}

// RemoteError is a failure the server reported. Is lets callers match
// the engine sentinels across the wire.
type RemoteError struct {
	Kind    string
	Message string
}

// Error implements the error interface.
func (e *RemoteError) Error() string {
	return e.Message
}

// Is maps wire error kinds back onto the engine sentinels.
func (e *RemoteError) Is(target error) bool {
	switch e.Kind {
	case ErrorKindUnknownKind:
		return target == schema.ErrUnknownKind
	case ErrorKindUnavailable:
		return target == explore.ErrStoreUnavailable || target == listing.ErrStoreUnavailable
	case ErrorKindMalformed:
		return target == explore.ErrMalformedResult || target == listing.ErrMalformedResult
	case ErrorKindBadRequest:
		return target == listing.ErrBadGroupBy
	}
	return false
}
