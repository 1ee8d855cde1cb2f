package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/listing"
	"github.com/dd0wney/sclgraph/pkg/logging"
	"github.com/dd0wney/sclgraph/pkg/schema"
)

const (
	// DefaultRequestTimeout bounds one operation on the server side.
	DefaultRequestTimeout = 30 * time.Second

	// recvPoll is the REP receive deadline; it bounds how long Stop
	// waits for the serve loop to notice the stop channel.
	recvPoll = 500 * time.Millisecond
)

// ServerConfig carries the RPC server's collaborators. Navigator,
// Listing and Factory are required.
type ServerConfig struct {
	Addr      string
	Navigator *explore.Navigator
	Listing   *listing.Engine
	Factory   SocketFactory
	Logger    logging.Logger
	Timeout   time.Duration
}

// Server answers one request at a time over a REP socket, matching the
// strict alternation the protocol requires. Every request gets exactly
// one response, including failures.
type Server struct {
	addr      string
	navigator *explore.Navigator
	listing   *listing.Engine
	factory   SocketFactory
	logger    logging.Logger
	timeout   time.Duration

	mu      sync.Mutex
	running bool
	sock    ListenSocket
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

// NewServer wires an RPC server from its collaborators.
func NewServer(cfg ServerConfig) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNopLogger()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRequestTimeout
	}
	return &Server{
		addr:      cfg.Addr,
		navigator: cfg.Navigator,
		listing:   cfg.Listing,
		factory:   cfg.Factory,
		logger:    cfg.Logger.With(logging.Component("rpc")),
		timeout:   cfg.Timeout,
		stopCh:    make(chan struct{}),
	}
}

// Start binds the REP socket and serves until Stop.
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("rpc server already running")
	}

	sock, err := s.factory.NewRepSocket()
	if err != nil {
		return fmt.Errorf("failed to create REP socket: %w", err)
	}
	if err := sock.Listen(s.addr); err != nil {
		sock.Close()
		return fmt.Errorf("failed to bind REP socket: %w", err)
	}
	// Short receive deadline so the loop can notice Stop.
	if err := sock.SetRecvDeadline(recvPoll); err != nil {
		sock.Close()
		return fmt.Errorf("failed to set receive deadline: %w", err)
	}

	s.sock = sock
	s.running = true
	s.wg.Add(1)
	go s.serveLoop()

	s.logger.Info("RPC server listening", logging.String("addr", s.addr))
	return nil
}

// Stop shuts the serve loop down and closes the socket.
func (s *Server) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	close(s.stopCh)
	s.wg.Wait()
	s.sock.Close()
	s.logger.Info("RPC server stopped")
}

func (s *Server) serveLoop() {
	defer s.wg.Done()

	for {
		select {
		case <-s.stopCh:
			return
		default:
		}

		data, err := s.sock.Recv()
		if err != nil {
			// Deadline expiry; loop around to check the stop channel.
			continue
		}

		resp := s.handle(data)
		out, err := json.Marshal(resp)
		if err != nil {
			s.logger.Error("Failed to encode response", logging.Error(err))
			out = []byte(`{"ok":false,"error":"internal encoding failure","errorKind":"internal"}`)
		}
		if err := s.sock.Send(out); err != nil {
			s.logger.Error("Failed to send response", logging.Error(err))
		}
	}
}

func (s *Server) handle(data []byte) Response {
	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return errorResponse(ErrorKindBadRequest, fmt.Sprintf("malformed request frame: %v", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	switch req.Op {
	case OpPing:
		return Response{OK: true}
	case OpExpand:
		return s.handleExpand(ctx, req)
	case OpList:
		return s.handleList(ctx, req)
	default:
		return errorResponse(ErrorKindBadRequest, fmt.Sprintf("unsupported op %q", req.Op))
	}
}

func (s *Server) handleExpand(ctx context.Context, req Request) Response {
	if req.ID == "" {
		return errorResponse(ErrorKindBadRequest, "expand requires an id")
	}
	kind, err := schema.ParseKind(req.Kind)
	if err != nil {
		return errorResponse(ErrorKindUnknownKind, err.Error())
	}

	nodes, err := s.navigator.Expand(ctx, req.ID, kind)
	if err != nil {
		return domainErrorResponse(err)
	}
	return Response{OK: true, Nodes: nodes, Total: len(nodes)}
}

func (s *Server) handleList(ctx context.Context, req Request) Response {
	groupBy, err := listing.ParseGroupBy(req.GroupBy)
	if err != nil {
		return errorResponse(ErrorKindBadRequest, err.Error())
	}

	result, err := s.listing.List(ctx, groupBy, req.Search)
	if err != nil {
		return domainErrorResponse(err)
	}
	return Response{OK: true, Groups: result.Groups, Total: result.TotalCount}
}

func errorResponse(kind, message string) Response {
	return Response{OK: false, Error: message, ErrorKind: kind}
}

// domainErrorResponse classifies engine errors into wire error kinds.
func domainErrorResponse(err error) Response {
	switch {
	case errors.Is(err, schema.ErrUnknownKind):
		return errorResponse(ErrorKindUnknownKind, err.Error())
	case errors.Is(err, explore.ErrStoreUnavailable), errors.Is(err, listing.ErrStoreUnavailable):
		return errorResponse(ErrorKindUnavailable, err.Error())
	case errors.Is(err, explore.ErrMalformedResult), errors.Is(err, listing.ErrMalformedResult):
		return errorResponse(ErrorKindMalformed, err.Error())
	default:
		return errorResponse(ErrorKindInternal, err.Error())
	}
}
