// Package enginetest provides an in-memory verification engine served
// over httptest for client, service and command tests.
package enginetest

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"connectrpc.com/connect"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/engine"
)

// Snapshot is the fake engine's view of one snapshot.
type Snapshot struct {
	Base                  string
	Files                 map[string]string
	DeactivatedNodes      []string
	DeactivatedInterfaces []engine.InterfaceMessage
}

// Engine is an in-memory verification engine.
type Engine struct {
	mu sync.Mutex

	networks     map[string]map[string]*Snapshot
	answers      map[string]*domain.Result
	descriptions map[string]string
	queries      []string

	unavailable  bool
	failures     map[string]*connect.Error
	queryFailure map[string]*connect.Error

	calls    map[string]int
	requests []engine.RunQueryRequest
	apiKeys  []string
	reqIDs   []string

	server *httptest.Server
}

// New starts a fake engine and stops it when the test ends.
func New(t testing.TB) *Engine {
	t.Helper()

	e := &Engine{
		networks:     make(map[string]map[string]*Snapshot),
		answers:      make(map[string]*domain.Result),
		descriptions: make(map[string]string),
		failures:     make(map[string]*connect.Error),
		queryFailure: make(map[string]*connect.Error),
		calls:        make(map[string]int),
	}
	e.server = httptest.NewServer(e.Handler())
	t.Cleanup(e.server.Close)
	return e
}

// URL returns the engine base URL.
func (e *Engine) URL() string {
	return e.server.URL
}

// Client returns an engine client bound to the fake.
func (e *Engine) Client(t testing.TB) *engine.Client {
	t.Helper()

	c, err := engine.NewClient(engine.Config{
		Address:    e.server.URL,
		APIKey:     "nvak_test",
		HTTPClient: e.server.Client(),
	})
	if err != nil {
		t.Fatalf("engine.NewClient() error = %v", err)
	}
	return c
}

// ============================================================================
// Fixtures
// ============================================================================

// AddNetwork registers an empty network.
func (e *Engine) AddNetwork(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.networks[name]; !ok {
		e.networks[name] = make(map[string]*Snapshot)
	}
}

// AddSnapshot registers a snapshot with the given input files.
func (e *Engine) AddSnapshot(network, name string, files map[string]string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.networks[network]; !ok {
		e.networks[network] = make(map[string]*Snapshot)
	}
	if files == nil {
		files = make(map[string]string)
	}
	e.networks[network][name] = &Snapshot{Files: files}
}

// Snapshot returns a copy of a stored snapshot.
func (e *Engine) Snapshot(network, name string) (Snapshot, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	snap, ok := e.networks[network][name]
	if !ok {
		return Snapshot{}, false
	}
	out := *snap
	out.Files = make(map[string]string, len(snap.Files))
	for k, v := range snap.Files {
		out.Files[k] = v
	}
	out.DeactivatedNodes = append([]string(nil), snap.DeactivatedNodes...)
	out.DeactivatedInterfaces = append([]engine.InterfaceMessage(nil), snap.DeactivatedInterfaces...)
	return out, true
}

// SetAnswer sets the answer of a query for every snapshot. Rows that
// reference a deactivated node are dropped when the query runs against
// a forked snapshot.
func (e *Engine) SetAnswer(query string, result *domain.Result) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.answers[query] = result.Clone()
}

// SetDescription sets the description of a query.
func (e *Engine) SetDescription(query, text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.descriptions[query] = text
}

// SetQueries sets the names returned by ListQueries. A nil slice makes
// introspection fail.
func (e *Engine) SetQueries(names []string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queries = names
}

// SetUnavailable makes every procedure fail with CodeUnavailable.
func (e *Engine) SetUnavailable(down bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.unavailable = down
}

// Fail makes one procedure fail with err; nil clears the failure.
func (e *Engine) Fail(procedure string, err *connect.Error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err == nil {
		delete(e.failures, procedure)
		return
	}
	e.failures[procedure] = err
}

// FailQuery makes RunQuery fail for one query name.
func (e *Engine) FailQuery(query string, err *connect.Error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.queryFailure[query] = err
}

// Calls returns how many times a procedure was invoked.
func (e *Engine) Calls(procedure string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.calls[procedure]
}

// TotalCalls returns the number of calls across all procedures.
func (e *Engine) TotalCalls() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	total := 0
	for _, n := range e.calls {
		total += n
	}
	return total
}

// QueryRequests returns the RunQuery requests received so far.
func (e *Engine) QueryRequests() []engine.RunQueryRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.RunQueryRequest(nil), e.requests...)
}

// LastAPIKey returns the API key of the most recent call.
func (e *Engine) LastAPIKey() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.apiKeys) == 0 {
		return ""
	}
	return e.apiKeys[len(e.apiKeys)-1]
}

// RequestIDs returns the request ID header of every call, in order.
func (e *Engine) RequestIDs() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.reqIDs...)
}

// ============================================================================
// Handlers
// ============================================================================

// Handler returns the HTTP handler serving all engine procedures.
func (e *Engine) Handler() http.Handler {
	mux := http.NewServeMux()
	opts := []connect.HandlerOption{engine.Codec()}

	mux.Handle(engine.ProcedureListNetworks, connect.NewUnaryHandler(engine.ProcedureListNetworks,
		unary(e, engine.ProcedureListNetworks, e.listNetworks), opts...))
	mux.Handle(engine.ProcedureCreateNetwork, connect.NewUnaryHandler(engine.ProcedureCreateNetwork,
		unary(e, engine.ProcedureCreateNetwork, e.createNetwork), opts...))
	mux.Handle(engine.ProcedureDeleteNetwork, connect.NewUnaryHandler(engine.ProcedureDeleteNetwork,
		unary(e, engine.ProcedureDeleteNetwork, e.deleteNetwork), opts...))
	mux.Handle(engine.ProcedureListSnapshots, connect.NewUnaryHandler(engine.ProcedureListSnapshots,
		unary(e, engine.ProcedureListSnapshots, e.listSnapshots), opts...))
	mux.Handle(engine.ProcedureDeleteSnapshot, connect.NewUnaryHandler(engine.ProcedureDeleteSnapshot,
		unary(e, engine.ProcedureDeleteSnapshot, e.deleteSnapshot), opts...))
	mux.Handle(engine.ProcedureInitSnapshot, connect.NewUnaryHandler(engine.ProcedureInitSnapshot,
		unary(e, engine.ProcedureInitSnapshot, e.initSnapshot), opts...))
	mux.Handle(engine.ProcedureForkSnapshot, connect.NewUnaryHandler(engine.ProcedureForkSnapshot,
		unary(e, engine.ProcedureForkSnapshot, e.forkSnapshot), opts...))
	mux.Handle(engine.ProcedureRunQuery, connect.NewUnaryHandler(engine.ProcedureRunQuery,
		unary(e, engine.ProcedureRunQuery, e.runQuery), opts...))
	mux.Handle(engine.ProcedureDescribeQuery, connect.NewUnaryHandler(engine.ProcedureDescribeQuery,
		unary(e, engine.ProcedureDescribeQuery, e.describeQuery), opts...))
	mux.Handle(engine.ProcedureListQueries, connect.NewUnaryHandler(engine.ProcedureListQueries,
		unary(e, engine.ProcedureListQueries, e.listQueries), opts...))
	mux.Handle(engine.ProcedureGetSnapshotObject, connect.NewUnaryHandler(engine.ProcedureGetSnapshotObject,
		unary(e, engine.ProcedureGetSnapshotObject, e.getSnapshotObject), opts...))

	return mux
}

// unary adapts a state function into a connect handler that counts calls
// and applies injected failures.
func unary[Req, Res any](e *Engine, procedure string, fn func(*Req) (*Res, error)) func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error) {
	return func(_ context.Context, req *connect.Request[Req]) (*connect.Response[Res], error) {
		e.mu.Lock()
		e.calls[procedure]++
		e.apiKeys = append(e.apiKeys, req.Header().Get(engine.HeaderAPIKey))
		e.reqIDs = append(e.reqIDs, req.Header().Get(engine.HeaderRequestID))
		if e.unavailable {
			e.mu.Unlock()
			return nil, engine.NewError(connect.CodeUnavailable, "", "engine is down")
		}
		if err, ok := e.failures[procedure]; ok {
			e.mu.Unlock()
			return nil, err
		}
		res, err := fn(req.Msg)
		e.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return connect.NewResponse(res), nil
	}
}

func networkNotFound(name string) error {
	return engine.NewError(connect.CodeNotFound, engine.ReasonNetwork, "network not found: "+name)
}

func snapshotNotFound(network, name string) error {
	return engine.NewError(connect.CodeNotFound, engine.ReasonSnapshot, "snapshot not found: "+network+"/"+name)
}

// The handlers below run with e.mu held.

func (e *Engine) listNetworks(*engine.Empty) (*engine.ListNetworksResponse, error) {
	names := make([]string, 0, len(e.networks))
	for name := range e.networks {
		names = append(names, name)
	}
	sort.Strings(names)
	return &engine.ListNetworksResponse{Networks: names}, nil
}

func (e *Engine) createNetwork(req *engine.NetworkRequest) (*engine.Empty, error) {
	if _, ok := e.networks[req.Network]; ok {
		return nil, engine.NewError(connect.CodeAlreadyExists, engine.ReasonNetwork, "network exists: "+req.Network)
	}
	e.networks[req.Network] = make(map[string]*Snapshot)
	return &engine.Empty{}, nil
}

func (e *Engine) deleteNetwork(req *engine.NetworkRequest) (*engine.Empty, error) {
	if _, ok := e.networks[req.Network]; !ok {
		return nil, networkNotFound(req.Network)
	}
	delete(e.networks, req.Network)
	return &engine.Empty{}, nil
}

func (e *Engine) listSnapshots(req *engine.NetworkRequest) (*engine.ListSnapshotsResponse, error) {
	snaps, ok := e.networks[req.Network]
	if !ok {
		return nil, networkNotFound(req.Network)
	}
	if len(snaps) == 0 {
		return nil, engine.NewError(connect.CodeFailedPrecondition, engine.ReasonEmptySnapshotList,
			"network has no snapshots: "+req.Network)
	}
	names := make([]string, 0, len(snaps))
	for name := range snaps {
		names = append(names, name)
	}
	sort.Strings(names)
	return &engine.ListSnapshotsResponse{Snapshots: names}, nil
}

func (e *Engine) deleteSnapshot(req *engine.SnapshotRequest) (*engine.Empty, error) {
	snaps, ok := e.networks[req.Network]
	if !ok {
		return nil, networkNotFound(req.Network)
	}
	if _, ok := snaps[req.Snapshot]; !ok {
		return nil, snapshotNotFound(req.Network, req.Snapshot)
	}
	delete(snaps, req.Snapshot)
	return &engine.Empty{}, nil
}

func (e *Engine) initSnapshot(req *engine.InitSnapshotRequest) (*engine.Empty, error) {
	snaps, ok := e.networks[req.Network]
	if !ok {
		// The engine creates networks on first upload.
		snaps = make(map[string]*Snapshot)
		e.networks[req.Network] = snaps
	}
	if _, exists := snaps[req.Snapshot]; exists && !req.Overwrite {
		return nil, engine.NewError(connect.CodeAlreadyExists, engine.ReasonSnapshot, "snapshot exists: "+req.Snapshot)
	}

	files, err := unzip(req.Archive)
	if err != nil {
		return nil, engine.NewError(connect.CodeInvalidArgument, "", "invalid snapshot archive: "+err.Error())
	}
	snaps[req.Snapshot] = &Snapshot{Files: files}
	return &engine.Empty{}, nil
}

func (e *Engine) forkSnapshot(req *engine.ForkSnapshotRequest) (*engine.Empty, error) {
	snaps, ok := e.networks[req.Network]
	if !ok {
		return nil, networkNotFound(req.Network)
	}
	base, ok := snaps[req.BaseSnapshot]
	if !ok {
		return nil, snapshotNotFound(req.Network, req.BaseSnapshot)
	}
	if _, exists := snaps[req.Snapshot]; exists && !req.Overwrite {
		return nil, engine.NewError(connect.CodeAlreadyExists, engine.ReasonSnapshot, "snapshot exists: "+req.Snapshot)
	}

	snaps[req.Snapshot] = &Snapshot{
		Base:                  req.BaseSnapshot,
		Files:                 base.Files,
		DeactivatedNodes:      append(append([]string(nil), base.DeactivatedNodes...), req.DeactivateNodes...),
		DeactivatedInterfaces: append(append([]engine.InterfaceMessage(nil), base.DeactivatedInterfaces...), req.DeactivateInterfaces...),
	}
	return &engine.Empty{}, nil
}

func (e *Engine) runQuery(req *engine.RunQueryRequest) (*engine.RunQueryResponse, error) {
	e.requests = append(e.requests, *req)

	snaps, ok := e.networks[req.Network]
	if !ok {
		return nil, networkNotFound(req.Network)
	}
	snap, ok := snaps[req.Snapshot]
	if !ok {
		return nil, snapshotNotFound(req.Network, req.Snapshot)
	}
	if req.ReferenceSnapshot != "" {
		if _, ok := snaps[req.ReferenceSnapshot]; !ok {
			return nil, snapshotNotFound(req.Network, req.ReferenceSnapshot)
		}
	}
	if err, ok := e.queryFailure[req.Query]; ok {
		return nil, err
	}

	answer, ok := e.answers[req.Query]
	if !ok {
		return &engine.RunQueryResponse{Columns: []string{}, Rows: [][]any{}}, nil
	}

	resp := &engine.RunQueryResponse{Columns: append([]string(nil), answer.Columns...), Rows: [][]any{}}
	for _, row := range answer.Rows {
		if touchesDeactivated(row, snap) {
			continue
		}
		resp.Rows = append(resp.Rows, append([]any(nil), row...))
	}
	return resp, nil
}

func (e *Engine) describeQuery(req *engine.DescribeQueryRequest) (*engine.DescribeQueryResponse, error) {
	text, ok := e.descriptions[req.Query]
	if !ok {
		return nil, engine.NewError(connect.CodeNotFound, engine.ReasonQuery, "no such query: "+req.Query)
	}
	return &engine.DescribeQueryResponse{Description: text}, nil
}

func (e *Engine) listQueries(*engine.Empty) (*engine.ListQueriesResponse, error) {
	if e.queries == nil {
		return nil, engine.NewError(connect.CodeUnimplemented, "", "query introspection disabled")
	}
	return &engine.ListQueriesResponse{Queries: append([]string(nil), e.queries...)}, nil
}

func (e *Engine) getSnapshotObject(req *engine.SnapshotObjectRequest) (*engine.SnapshotObjectResponse, error) {
	snaps, ok := e.networks[req.Network]
	if !ok {
		return nil, networkNotFound(req.Network)
	}
	snap, ok := snaps[req.Snapshot]
	if !ok {
		return nil, snapshotNotFound(req.Network, req.Snapshot)
	}
	text, ok := snap.Files[req.Key]
	if !ok {
		return nil, engine.NewError(connect.CodeNotFound, "", "no such object: "+req.Key)
	}
	return &engine.SnapshotObjectResponse{Text: text}, nil
}

// touchesDeactivated reports whether a row references a deactivated node
// ("node" or "node[iface]") or a deactivated interface ("node[iface]").
func touchesDeactivated(row []any, snap *Snapshot) bool {
	for _, cell := range row {
		s, ok := cell.(string)
		if !ok {
			continue
		}
		for _, node := range snap.DeactivatedNodes {
			if s == node || strings.HasPrefix(s, node+"[") {
				return true
			}
		}
		for _, iface := range snap.DeactivatedInterfaces {
			if s == iface.Hostname+"["+iface.Interface+"]" {
				return true
			}
		}
	}
	return false
}

// unzip reads an archive into a map keyed by path below the top-level folder.
func unzip(data []byte) (map[string]string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	files := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, err
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}

		key := f.Name
		if i := strings.IndexByte(key, '/'); i >= 0 {
			key = key[i+1:]
		}
		files[key] = string(content)
	}
	return files, nil
}
