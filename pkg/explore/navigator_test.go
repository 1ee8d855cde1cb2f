package explore

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/dd0wney/sclgraph/pkg/metrics"
	"github.com/dd0wney/sclgraph/pkg/schema"
	"github.com/dd0wney/sclgraph/pkg/triplestore"
	"github.com/dd0wney/sclgraph/pkg/triplestore/memstore"
)

// fakeStore scripts Select responses and counts round trips.
type fakeStore struct {
	selects int
	rs      *triplestore.ResultSet
	err     error
}

func (f *fakeStore) Select(ctx context.Context, q triplestore.SelectQuery) (*triplestore.ResultSet, error) {
	f.selects++
	if f.err != nil {
		return nil, f.err
	}
	return f.rs, nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }

func (f *fakeStore) Close() error { return nil }

func TestExpand_UnknownKind(t *testing.T) {
	fake := &fakeStore{}
	nav := NewNavigator(Config{Store: fake})

	_, err := nav.Expand(context.Background(), "http://x#n", schema.Kind("Bay"))
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("err = %v, want ErrUnknownKind", err)
	}

	var ee *ExpandError
	if !errors.As(err, &ee) {
		t.Fatalf("err %T does not unwrap to *ExpandError", err)
	}
	if ee.Op != "expand" || ee.Kind != schema.Kind("Bay") || ee.ID != "http://x#n" {
		t.Errorf("error context = %+v", ee)
	}
	if fake.selects != 0 {
		t.Errorf("store queried %d times for unknown kind, want 0", fake.selects)
	}
}

func TestExpand_LeafSkipsStore(t *testing.T) {
	fake := &fakeStore{}
	nav := NewNavigator(Config{Store: fake})

	leaves := []schema.Kind{
		schema.KindGooseControl,
		schema.KindSampledValueControl,
		schema.KindReportControl,
		schema.KindDataObjectInstance,
		schema.KindExternalReference,
		schema.KindFunctionalConstraint,
	}

	for _, k := range leaves {
		nodes, err := nav.Expand(context.Background(), "http://x#leaf", k)
		if err != nil {
			t.Errorf("%s: unexpected error %v", k, err)
		}
		if nodes == nil || len(nodes) != 0 {
			t.Errorf("%s: nodes = %v, want empty non-nil slice", k, nodes)
		}
	}
	if fake.selects != 0 {
		t.Errorf("store queried %d times for leaf kinds, want 0", fake.selects)
	}
}

func TestExpand_StoreUnavailable(t *testing.T) {
	cause := errors.New("connection refused")
	fake := &fakeStore{err: triplestore.Unavailable("select", "memory", cause)}
	nav := NewNavigator(Config{Store: fake})

	_, err := nav.Expand(context.Background(), "http://x#ied", schema.KindIED)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if !errors.Is(err, cause) {
		t.Errorf("err = %v lost the transport cause", err)
	}
	if !IsRetryable(err) {
		t.Error("store failures must be retryable")
	}
}

func TestExpand_MalformedResult(t *testing.T) {
	fake := &fakeStore{rs: &triplestore.ResultSet{
		Vars: []string{"id", "kind"},
		Rows: []triplestore.Row{{"kind": litv(string(schema.KindAccessPoint))}},
	}}
	nav := NewNavigator(Config{Store: fake})

	_, err := nav.Expand(context.Background(), "http://x#ied", schema.KindIED)
	if !errors.Is(err, ErrMalformedResult) {
		t.Fatalf("err = %v, want ErrMalformedResult", err)
	}
	if IsRetryable(err) {
		t.Error("malformed results must not be retryable")
	}
}

func TestExpand_FixtureWalk(t *testing.T) {
	store := memstore.NewFixture()
	nav := NewNavigator(Config{Store: store, Metrics: metrics.NewRegistry()})
	ctx := context.Background()

	aps, err := nav.Expand(ctx, memstore.FixtureBCU, schema.KindIED)
	if err != nil {
		t.Fatalf("expand IED failed: %v", err)
	}
	if len(aps) != 1 {
		t.Fatalf("got %d access points, want 1", len(aps))
	}
	if aps[0].Label != "PROCESS_AP" || !aps[0].Expandable {
		t.Errorf("access point = %+v, want expandable PROCESS_AP", aps[0])
	}

	servers, err := nav.Expand(ctx, aps[0].ID, aps[0].Kind)
	if err != nil {
		t.Fatalf("expand AccessPoint failed: %v", err)
	}
	if len(servers) != 1 || servers[0].Label != "Server" {
		t.Fatalf("servers = %+v, want one node labeled Server", servers)
	}

	lds, err := nav.Expand(ctx, servers[0].ID, servers[0].Kind)
	if err != nil {
		t.Fatalf("expand Server failed: %v", err)
	}
	if len(lds) != 2 {
		t.Fatalf("got %d logical devices, want 2", len(lds))
	}
	if lds[0].Label != "LDAGSA1 (AgentServerLD)" || lds[1].Label != "LDTM1" {
		t.Errorf("device labels = [%q %q]", lds[0].Label, lds[1].Label)
	}

	lns, err := nav.Expand(ctx, lds[0].ID, lds[0].Kind)
	if err != nil {
		t.Fatalf("expand LogicalDevice failed: %v", err)
	}
	wantLNs := []string{"LPHD0", "PROTPTOC1", "LLN0"}
	var gotLNs []string
	for _, n := range lns {
		gotLNs = append(gotLNs, n.Label)
	}
	if !reflect.DeepEqual(gotLNs, wantLNs) {
		t.Errorf("logical nodes = %v, want %v", gotLNs, wantLNs)
	}
}

func TestExpand_FixtureCategoryOrder(t *testing.T) {
	store := memstore.NewFixture()
	nav := NewNavigator(Config{Store: store})
	ctx := context.Background()

	// Walk down to the LLN0 of the first logical device.
	path := []struct {
		kind  schema.Kind
		label string
	}{
		{schema.KindIED, "PROCESS_AP"},
		{schema.KindAccessPoint, "Server"},
		{schema.KindServer, "LDAGSA1 (AgentServerLD)"},
		{schema.KindLogicalDevice, "LLN0"},
	}

	id := memstore.FixtureBCU
	kind := schema.KindIED
	for _, step := range path {
		nodes, err := nav.Expand(ctx, id, step.kind)
		if err != nil {
			t.Fatalf("expand %s failed: %v", step.kind, err)
		}
		found := false
		for _, n := range nodes {
			if n.Label == step.label {
				id, kind = n.ID, n.Kind
				found = true
				break
			}
		}
		if !found {
			t.Fatalf("no child labeled %q under %s", step.label, step.kind)
		}
	}

	children, err := nav.Expand(ctx, id, kind)
	if err != nil {
		t.Fatalf("expand LLN0 failed: %v", err)
	}

	// Communication children sort ahead of data children.
	want := []string{"gcbTrip", "urcbMeas", "MSVCB01", "Mod", "MeasFlt"}
	var got []string
	for _, n := range children {
		got = append(got, n.Label)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("LLN0 children = %v, want %v", got, want)
	}
}

func TestExpand_FixtureExternalReference(t *testing.T) {
	store := memstore.NewFixture()
	nav := NewNavigator(Config{Store: store})
	ctx := context.Background()

	// The PTOC logical node owns an Inputs block with one external
	// reference whose label is the full signal path.
	var inputs *Node
	id, kind := memstore.FixtureBCU, schema.KindIED
	queue := []Node{{ID: id, Kind: kind, Expandable: true}}
	for len(queue) > 0 && inputs == nil {
		cur := queue[0]
		queue = queue[1:]
		if !cur.Expandable {
			continue
		}
		children, err := nav.Expand(ctx, cur.ID, cur.Kind)
		if err != nil {
			t.Fatalf("expand %s failed: %v", cur.Kind, err)
		}
		for _, c := range children {
			if c.Kind == schema.KindInputs {
				inputs = &c
				break
			}
			queue = append(queue, c)
		}
	}
	if inputs == nil {
		t.Fatal("no Inputs node reachable from the root")
	}

	refs, err := nav.Expand(ctx, inputs.ID, inputs.Kind)
	if err != nil {
		t.Fatalf("expand Inputs failed: %v", err)
	}
	if len(refs) != 1 {
		t.Fatalf("got %d external references, want 1", len(refs))
	}
	if refs[0].Label != "POSTE4BUIS1SCU1/LDTM1/TCTR1/AmpSv/instMag" {
		t.Errorf("label = %q", refs[0].Label)
	}
	if refs[0].Expandable {
		t.Error("external references are terminal")
	}
}

func TestExpand_Idempotent(t *testing.T) {
	store := memstore.NewFixture()
	nav := NewNavigator(Config{Store: store})
	ctx := context.Background()

	first, err := nav.Expand(ctx, memstore.FixtureBCU, schema.KindIED)
	if err != nil {
		t.Fatalf("first expand failed: %v", err)
	}
	second, err := nav.Expand(ctx, memstore.FixtureBCU, schema.KindIED)
	if err != nil {
		t.Fatalf("second expand failed: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("expansions differ:\n%+v\n%+v", first, second)
	}
}

func TestExpand_CancelledContext(t *testing.T) {
	store := memstore.NewFixture()
	nav := NewNavigator(Config{Store: store})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := nav.Expand(ctx, memstore.FixtureBCU, schema.KindIED)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v lost the cancellation cause", err)
	}
}

func TestExpand_NoChildrenIsSuccess(t *testing.T) {
	// An expandable kind whose instance has no matching triples yields
	// an empty list, not an error.
	store := memstore.New()
	nav := NewNavigator(Config{Store: store})

	nodes, err := nav.Expand(context.Background(), "http://x#lonely", schema.KindIED)
	if err != nil {
		t.Fatalf("expand failed: %v", err)
	}
	if len(nodes) != 0 {
		t.Errorf("nodes = %+v, want none", nodes)
	}
}
