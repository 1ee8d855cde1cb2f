// Package treestate holds the expansion cache for one logical session's
// tree view. The navigation engine stays stateless; a Tree remembers
// which nodes have been expanded so collapse/expand toggles render from
// cache instead of re-querying the store. A Tree belongs to one root
// selection and is discarded, never merged, when the selection changes.
package treestate

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dd0wney/sclgraph/pkg/explore"
	"github.com/dd0wney/sclgraph/pkg/schema"
)

// ErrNodeNotFound marks an expand request for an identifier the tree has
// never seen: not the root and not a child of any loaded node.
var ErrNodeNotFound = errors.New("node not in tree")

// Expander loads the children of a node. *explore.Navigator satisfies it.
type Expander interface {
	Expand(ctx context.Context, parentID string, parentKind schema.Kind) ([]explore.Node, error)
}

// State is the expansion lifecycle of one node.
type State int

const (
	Unrequested State = iota
	InFlight
	Loaded
)

// Tree caches expansions for a single session. Concurrent expands of the
// same node collapse into one store query: the first caller loads, the
// rest wait for its outcome. A failed load leaves the node Unrequested,
// so the previously rendered tree never changes on failure.
type Tree struct {
	mu       sync.Mutex
	root     explore.Node
	nodes    map[string]explore.Node
	children map[string][]explore.Node
	inflight map[string]chan struct{}
}

// NewTree starts an empty cache rooted at the given node.
func NewTree(root explore.Node) *Tree {
	t := &Tree{
		root:     root,
		nodes:    make(map[string]explore.Node),
		children: make(map[string][]explore.Node),
		inflight: make(map[string]chan struct{}),
	}
	t.nodes[root.ID] = root
	return t
}

// Root returns the node the tree was created for.
func (t *Tree) Root() explore.Node {
	return t.root
}

// Node returns a node currently known to the tree.
func (t *Tree) Node(id string) (explore.Node, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	n, ok := t.nodes[id]
	return n, ok
}

// State reports the expansion lifecycle of a node.
func (t *Tree) State(id string) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.children[id]; ok {
		return Loaded
	}
	if _, ok := t.inflight[id]; ok {
		return InFlight
	}
	return Unrequested
}

// Expand returns the children of id, loading them through exp on the
// first call and from cache afterwards. When a load for id is already in
// flight the caller waits for it instead of issuing a duplicate query;
// if that load fails, the waiter retries with its own query.
func (t *Tree) Expand(ctx context.Context, exp Expander, id string) ([]explore.Node, error) {
	for {
		t.mu.Lock()
		node, ok := t.nodes[id]
		if !ok {
			t.mu.Unlock()
			return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
		}
		if cached, ok := t.children[id]; ok {
			out := copyNodes(cached)
			t.mu.Unlock()
			return out, nil
		}
		if ch, ok := t.inflight[id]; ok {
			t.mu.Unlock()
			select {
			case <-ch:
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		ch := make(chan struct{})
		t.inflight[id] = ch
		t.mu.Unlock()

		children, err := exp.Expand(ctx, id, node.Kind)

		t.mu.Lock()
		delete(t.inflight, id)
		close(ch)
		if err != nil {
			t.mu.Unlock()
			return nil, err
		}
		t.installLocked(id, children)
		out := copyNodes(children)
		t.mu.Unlock()
		return out, nil
	}
}

// Refresh discards the cached subtree below id and loads its children
// again. On failure the old children stay visible.
func (t *Tree) Refresh(ctx context.Context, exp Expander, id string) ([]explore.Node, error) {
	t.mu.Lock()
	node, ok := t.nodes[id]
	if !ok {
		t.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	if ch, ok := t.inflight[id]; ok {
		// A load is already running; its result is as fresh as ours
		// would be.
		t.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return t.Expand(ctx, exp, id)
	}
	ch := make(chan struct{})
	t.inflight[id] = ch
	t.mu.Unlock()

	children, err := exp.Expand(ctx, id, node.Kind)

	t.mu.Lock()
	delete(t.inflight, id)
	close(ch)
	if err != nil {
		t.mu.Unlock()
		return nil, err
	}
	t.dropSubtreeLocked(id)
	t.installLocked(id, children)
	out := copyNodes(children)
	t.mu.Unlock()
	return out, nil
}

func (t *Tree) installLocked(id string, children []explore.Node) {
	t.children[id] = children
	for _, c := range children {
		t.nodes[c.ID] = c
	}
}

func (t *Tree) dropSubtreeLocked(id string) {
	children, ok := t.children[id]
	if !ok {
		return
	}
	delete(t.children, id)
	for _, c := range children {
		t.dropSubtreeLocked(c.ID)
		delete(t.nodes, c.ID)
	}
}

// Snapshot is an immutable view of the loaded part of a tree: an arena
// of nodes by identifier plus parent-to-children edges. Mutating the
// tree afterwards never changes an already-taken snapshot.
type Snapshot struct {
	RootID   string                  `json:"rootId"`
	Nodes    map[string]explore.Node `json:"nodes"`
	Children map[string][]string     `json:"children"`
}

// Snapshot copies the current cache contents.
func (t *Tree) Snapshot() *Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := &Snapshot{
		RootID:   t.root.ID,
		Nodes:    make(map[string]explore.Node, len(t.nodes)),
		Children: make(map[string][]string, len(t.children)),
	}
	for id, n := range t.nodes {
		snap.Nodes[id] = n
	}
	for id, kids := range t.children {
		ids := make([]string, len(kids))
		for i, k := range kids {
			ids[i] = k.ID
		}
		snap.Children[id] = ids
	}
	return snap
}

func copyNodes(nodes []explore.Node) []explore.Node {
	out := make([]explore.Node, len(nodes))
	copy(out, nodes)
	return out
}
