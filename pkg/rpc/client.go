package rpc

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/listing"
)

// DefaultClientTimeout bounds one round trip.
const DefaultClientTimeout = 10 * time.Second

// Client is a REQ-side connection. A REQ socket allows one outstanding
// request, so calls serialize behind a mutex; open several clients for
// parallelism.
type Client struct {
	mu   sync.Mutex
	sock DialSocket
}

// Dial connects a client. A zero timeout gets the default.
func Dial(factory SocketFactory, addr string, timeout time.Duration) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultClientTimeout
	}

	sock, err := factory.NewReqSocket()
	if err != nil {
		return nil, fmt.Errorf("failed to create REQ socket: %w", err)
	}
	if err := sock.Dial(addr); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}
	if err := sock.SetSendDeadline(timeout); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to set send deadline: %w", err)
	}
	if err := sock.SetRecvDeadline(timeout); err != nil {
		sock.Close()
		return nil, fmt.Errorf("failed to set receive deadline: %w", err)
	}
	return &Client{sock: sock}, nil
}

// Close releases the socket.
func (c *Client) Close() error {
	return c.sock.Close()
}

// Ping checks that the server answers.
func (c *Client) Ping() error {
	_, err := c.do(Request{Op: OpPing})
	return err
}

// Expand returns the children of a node.
func (c *Client) Expand(id, kind string) ([]explore.Node, error) {
	resp, err := c.do(Request{Op: OpExpand, ID: id, Kind: kind})
	if err != nil {
		return nil, err
	}
	return resp.Nodes, nil
}

// List returns the grouped root listing and its total entity count.
func (c *Client) List(groupBy, search string) (map[string][]listing.Entity, int, error) {
	resp, err := c.do(Request{Op: OpList, GroupBy: groupBy, Search: search})
	if err != nil {
		return nil, 0, err
	}
	return resp.Groups, resp.Total, nil
}

func (c *Client) do(req Request) (*Response, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sock.Send(data); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	raw, err := c.sock.Recv()
	if err != nil {
		return nil, fmt.Errorf("failed to receive response: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	if !resp.OK {
		return nil, &RemoteError{Kind: resp.ErrorKind, Message: resp.Error}
	}
	return &resp, nil
}
