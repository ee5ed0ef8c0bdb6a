package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"connectrpc.com/connect"
	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/engine"
	"github.com/yndnr/netverify-go/internal/engine/enginetest"
)

func TestQueryExecutor_InvalidNameMakesNoEngineCall(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	names := []string{
		"traceroute!",
		"",
		"layer3Edges()",
		"__import__",
		"bgp edges",
		"routes;rm",
		"nodeProperties.x",
		"ip-owners",
		"päss",
	}

	for _, name := range names {
		t.Run(fmt.Sprintf("%q", name), func(t *testing.T) {
			before := h.fake.TotalCalls()

			if _, err := h.executor.Execute(ctx, name, domain.Params{}); !errors.Is(err, domain.ErrInvalidQueryName) {
				t.Errorf("Execute() error = %v, want ErrInvalidQueryName", err)
			}
			if _, err := h.executor.Describe(ctx, name); !errors.Is(err, domain.ErrInvalidQueryName) {
				t.Errorf("Describe() error = %v, want ErrInvalidQueryName", err)
			}
			if got := h.fake.TotalCalls(); got != before {
				t.Errorf("engine calls = %d, want %d", got, before)
			}
		})
	}
}

func TestQueryExecutor_InvalidNameReportsInput(t *testing.T) {
	h := newHarness(t)

	_, err := h.executor.Execute(context.Background(), "traceroute!", domain.Params{})
	var de *domain.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("Execute() error = %v, want *DomainError", err)
	}
	if de.Details != `"traceroute!"` {
		t.Errorf("Details = %q, want %q", de.Details, `"traceroute!"`)
	}
}

func TestQueryExecutor_UnknownQuery(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, name := range []string{"noSuchQuery", "Layer3Edges", "x1"} {
		t.Run(name, func(t *testing.T) {
			if _, err := h.executor.Execute(ctx, name, nil); !errors.Is(err, domain.ErrUnknownQuery) {
				t.Errorf("Execute() error = %v, want ErrUnknownQuery", err)
			}
			if _, err := h.executor.Describe(ctx, name); !errors.Is(err, domain.ErrUnknownQuery) {
				t.Errorf("Describe() error = %v, want ErrUnknownQuery", err)
			}
		})
	}
}

func TestQueryExecutor_Execute(t *testing.T) {
	h := newHarness(t)

	got, err := h.executor.Execute(context.Background(), domain.QueryLayer3Edges, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if diff := cmp.Diff(layer3Fixture(), got); diff != "" {
		t.Errorf("Execute() mismatch (-want +got):\n%s", diff)
	}

	reqs := h.fake.QueryRequests()
	if len(reqs) != 1 {
		t.Fatalf("RunQuery requests = %d, want 1", len(reqs))
	}
	if reqs[0].Network != "N1" || reqs[0].Snapshot != "S1" {
		t.Errorf("request target = %s/%s, want N1/S1", reqs[0].Network, reqs[0].Snapshot)
	}
}

func TestQueryExecutor_NoContext(t *testing.T) {
	fake := enginetest.New(t)
	client := fake.Client(t)
	session := NewSessionService(client)
	exec := NewQueryExecutor(client, session)

	_, err := exec.Execute(context.Background(), domain.QueryLayer3Edges, nil)
	if !errors.Is(err, domain.ErrNoActiveNetwork) {
		t.Errorf("Execute() error = %v, want ErrNoActiveNetwork", err)
	}
	if fake.TotalCalls() != 0 {
		t.Errorf("engine calls = %d, want 0", fake.TotalCalls())
	}
}

func TestQueryExecutor_MissingSnapshotIsHard(t *testing.T) {
	h := newHarness(t)

	_, err := h.executor.Execute(context.Background(), domain.QueryLayer3Edges, nil, WithSnapshot("nope"))
	if !errors.Is(err, domain.ErrSnapshotNotFound) {
		t.Errorf("Execute() error = %v, want ErrSnapshotNotFound", err)
	}
	if diags, _ := h.recorder.List(context.Background(), 0); len(diags) != 0 {
		t.Errorf("diagnostics = %d, want 0", len(diags))
	}
}

func TestQueryExecutor_EngineOutageDegrades(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetUnavailable(true)

	got, err := h.executor.Execute(ctx, domain.QueryBGPEdges, domain.Params{})
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if !got.IsEmpty() || len(got.Columns) != 0 {
		t.Errorf("Execute() = %+v, want empty result", got)
	}

	diags, err := h.recorder.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(diags) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(diags))
	}
	d := diags[0]
	if d.Query != domain.QueryBGPEdges || d.Network != "N1" || d.Snapshot != "S1" {
		t.Errorf("diagnostic = %+v, want bgpEdges on N1/S1", d)
	}
	if d.Code != domain.ErrEngineUnavailable.Code {
		t.Errorf("diagnostic code = %q, want %q", d.Code, domain.ErrEngineUnavailable.Code)
	}
}

func TestQueryExecutor_EngineErrorDegrades(t *testing.T) {
	h := newHarness(t)
	h.fake.FailQuery(domain.QueryRoutes, engine.NewError(connect.CodeInternal, "", "batfish exploded"))

	got, err := h.executor.Execute(context.Background(), domain.QueryRoutes, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v, want nil", err)
	}
	if !got.IsEmpty() {
		t.Errorf("Execute() rows = %d, want 0", got.Len())
	}

	diags, _ := h.executor.Diagnostics(context.Background(), 0)
	if len(diags) != 1 || diags[0].Code != domain.ErrEngineError.Code {
		t.Errorf("diagnostics = %+v, want one engine error", diags)
	}
}

func TestQueryExecutor_Cache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := h.executor.Execute(ctx, domain.QueryLayer3Edges, nil); err != nil {
			t.Fatalf("Execute() error = %v", err)
		}
	}
	if got := h.fake.Calls(engine.ProcedureRunQuery); got != 1 {
		t.Errorf("RunQuery calls = %d, want 1", got)
	}

	if _, err := h.executor.Execute(ctx, domain.QueryLayer3Edges, nil, WithoutCache()); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := h.fake.Calls(engine.ProcedureRunQuery); got != 2 {
		t.Errorf("RunQuery calls = %d, want 2", got)
	}

	// Re-creating S1 invalidates its entries.
	if err := h.session.InitSnapshotFromText(ctx, "hostname r1\n", "", "S1", true); err != nil {
		t.Fatalf("InitSnapshotFromText() error = %v", err)
	}
	if _, err := h.executor.Execute(ctx, domain.QueryLayer3Edges, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got := h.fake.Calls(engine.ProcedureRunQuery); got != 3 {
		t.Errorf("RunQuery calls = %d, want 3", got)
	}
}

func TestQueryExecutor_DegradedResultNotCached(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fake.SetUnavailable(true)
	if _, err := h.executor.Execute(ctx, domain.QueryLayer3Edges, nil); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	h.fake.SetUnavailable(false)

	got, err := h.executor.Execute(ctx, domain.QueryLayer3Edges, nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if got.Len() != 3 {
		t.Errorf("Execute() rows = %d, want 3", got.Len())
	}
}

func TestQueryExecutor_ReferenceRequired(t *testing.T) {
	h := newHarness(t)

	_, err := h.executor.Execute(context.Background(), domain.QueryDifferentialReachability, nil)
	if !errors.Is(err, domain.ErrMissingArgument) {
		t.Errorf("Execute() error = %v, want ErrMissingArgument", err)
	}
}

func TestQueryExecutor_Traceroute(t *testing.T) {
	tests := []struct {
		name          string
		bidirectional bool
		wantQuery     string
	}{
		{"unidirectional", false, domain.QueryTraceroute},
		{"bidirectional", true, domain.QueryBidirectionalTraceroute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			req := domain.TraceRequest{
				StartLocation: "nodeA",
				Headers: domain.HeaderConstraints{
					DstIPs:      "10.0.0.1",
					DstPorts:    []string{"22"},
					IPProtocols: []string{"TCP"},
				},
				Bidirectional: tt.bidirectional,
			}

			if _, err := h.executor.Traceroute(context.Background(), req); err != nil {
				t.Fatalf("Traceroute() error = %v", err)
			}

			reqs := h.fake.QueryRequests()
			if len(reqs) != 1 {
				t.Fatalf("RunQuery requests = %d, want 1", len(reqs))
			}
			if reqs[0].Query != tt.wantQuery {
				t.Errorf("query = %q, want %q", reqs[0].Query, tt.wantQuery)
			}
			if reqs[0].Parameters[domain.ParamStartLocation] != "nodeA" {
				t.Errorf("startLocation = %v, want nodeA", reqs[0].Parameters[domain.ParamStartLocation])
			}
			headers, ok := reqs[0].Parameters[domain.ParamHeaders].(map[string]any)
			if !ok {
				t.Fatalf("headers = %T, want object", reqs[0].Parameters[domain.ParamHeaders])
			}
			if headers["dstIps"] != "10.0.0.1" {
				t.Errorf("headers.dstIps = %v, want 10.0.0.1", headers["dstIps"])
			}
		})
	}
}

func TestQueryExecutor_TracerouteValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		params domain.Params
	}{
		{"no start", domain.Params{domain.ParamDstIPs: "10.0.0.1"}},
		{"no destination", domain.Params{domain.ParamStartLocation: "nodeA"}},
		{"bad ports", domain.Params{domain.ParamStartLocation: "nodeA", domain.ParamDstIPs: "10.0.0.1", domain.ParamDstPorts: 22}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.executor.Execute(ctx, domain.QueryTraceroute, tt.params)
			if err == nil {
				t.Fatal("Execute() error = nil, want validation error")
			}
			if domain.IsSoftDegradable(err) {
				t.Errorf("Execute() error = %v, want hard error", err)
			}
		})
	}
	if got := h.fake.Calls(engine.ProcedureRunQuery); got != 0 {
		t.Errorf("RunQuery calls = %d, want 0", got)
	}
}

func TestQueryExecutor_FlatHeaderParams(t *testing.T) {
	h := newHarness(t)

	params := domain.Params{
		domain.ParamStartLocation: "nodeA",
		domain.ParamDstIPs:        "10.0.0.1",
		domain.ParamApplications:  "ssh, dns",
	}
	if _, err := h.executor.Execute(context.Background(), domain.QueryTraceroute, params); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	got := h.fake.QueryRequests()[0].Parameters
	if _, ok := got[domain.ParamDstIPs]; ok {
		t.Error("flat dstIps forwarded, want folded into headers")
	}
	headers := got[domain.ParamHeaders].(map[string]any)
	if diff := cmp.Diff([]any{"ssh", "dns"}, headers["applications"]); diff != "" {
		t.Errorf("headers.applications mismatch (-want +got):\n%s", diff)
	}
}

func TestQueryExecutor_Describe(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.fake.SetDescription(domain.QueryRoutes, "Shows routing tables.")

	got, err := h.executor.Describe(ctx, domain.QueryRoutes)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if got != "Shows routing tables." {
		t.Errorf("Describe() = %q, want %q", got, "Shows routing tables.")
	}

	got, err = h.executor.Describe(ctx, domain.QueryBGPEdges)
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	if want := "Description unavailable for query: bgpEdges"; got != want {
		t.Errorf("Describe() = %q, want %q", got, want)
	}
}

func TestQueryExecutor_ListAvailableQueries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	// Engine queries without a dispatch entry are not offered.
	h.fake.SetQueries([]string{"routes", "vxlanEdges", "bgpEdges"})
	if diff := cmp.Diff([]string{"bgpEdges", "routes"}, h.executor.ListAvailableQueries(ctx)); diff != "" {
		t.Errorf("ListAvailableQueries() mismatch (-want +got):\n%s", diff)
	}

	tests := []struct {
		name    string
		queries []string
		down    bool
	}{
		{"introspection disabled", nil, false},
		{"engine reports none", []string{}, false},
		{"engine reports only unknown queries", []string{"vxlanEdges"}, false},
		{"engine down", []string{"routes"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.fake.SetQueries(tt.queries)
			h.fake.SetUnavailable(tt.down)
			defer h.fake.SetUnavailable(false)

			got := h.executor.ListAvailableQueries(ctx)
			if diff := cmp.Diff(domain.FallbackQueries(), got); diff != "" {
				t.Errorf("ListAvailableQueries() mismatch (-want +got):\n%s", diff)
			}
			if len(got) != 8 {
				t.Errorf("len = %d, want 8", len(got))
			}
		})
	}
}

func TestQueryExecutor_ContextCapturedAtCallTime(t *testing.T) {
	h := newHarness(t)
	h.fake.AddSnapshot("N1", "S2", nil)

	ctx := context.Background()
	captured := h.session.Context()
	if err := h.session.SelectSnapshot(ctx, "S2"); err != nil {
		t.Fatalf("SelectSnapshot() error = %v", err)
	}

	if _, err := h.executor.execute(ctx, captured, domain.QueryLayer3Edges, nil, execOptions{}); err != nil {
		t.Fatalf("execute() error = %v", err)
	}
	if got := h.fake.QueryRequests()[0].Snapshot; got != "S1" {
		t.Errorf("snapshot = %q, want S1", got)
	}
}

func TestCapabilities(t *testing.T) {
	caps := Capabilities()
	if len(caps) == 0 {
		t.Fatal("Capabilities() is empty")
	}
	for i, c := range caps {
		if !domain.IsValidQueryName(c.Name) {
			t.Errorf("capability %q fails the name allow-list", c.Name)
		}
		if i > 0 && caps[i-1].Name >= c.Name {
			t.Errorf("capabilities not sorted at %q", c.Name)
		}
	}
	for _, name := range domain.FallbackQueries() {
		if _, err := lookupCapability(name); err != nil {
			t.Errorf("fallback query %q missing from table", name)
		}
	}
}

func TestQueryExecutor_CancelledIsNotDegraded(t *testing.T) {
	h := newHarness(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := h.executor.Execute(ctx, domain.QueryLayer3Edges, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Execute() error = %v, want context.Canceled", err)
	}

	records, err := h.recorder.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Errorf("diagnostics = %d, want 0", len(records))
	}
	if h.cache.Len() != 0 {
		t.Errorf("cache Len() = %d, want 0", h.cache.Len())
	}
}

func TestQueryExecutor_ListedQueriesAreExecutable(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.fake.SetQueries([]string{"vxlanEdges", domain.QueryRoutes, domain.QueryNodeProperties})
	for _, name := range h.executor.ListAvailableQueries(ctx) {
		if _, err := h.executor.Execute(ctx, name, nil); err != nil {
			t.Errorf("Execute(%q) error = %v", name, err)
		}
	}
}
