package engine

import (
	"context"
	"crypto/tls"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/infra/buildinfo"
)

// DefaultTimeout bounds a single engine call.
const DefaultTimeout = 5 * time.Minute

// Config configures an engine client.
type Config struct {
	// Address is the engine endpoint (host:port or URL).
	Address string

	// APIKey authenticates calls; empty disables the header.
	APIKey string

	// Timeout bounds each HTTP exchange. Zero uses DefaultTimeout.
	Timeout time.Duration

	// RateLimit caps calls per second; zero disables limiting.
	RateLimit float64

	// Burst is the limiter burst size (minimum 1).
	Burst int

	// TLSConfig is used for https endpoints.
	TLSConfig *tls.Config

	// HTTPClient overrides the transport (tests use httptest clients).
	HTTPClient connect.HTTPClient

	// Logger receives per-call debug logs.
	Logger *slog.Logger
}

// Client is a typed engine client.
type Client struct {
	baseURL string
	limiter *rate.Limiter

	listNetworks      *connect.Client[Empty, ListNetworksResponse]
	createNetwork     *connect.Client[NetworkRequest, Empty]
	deleteNetwork     *connect.Client[NetworkRequest, Empty]
	listSnapshots     *connect.Client[NetworkRequest, ListSnapshotsResponse]
	deleteSnapshot    *connect.Client[SnapshotRequest, Empty]
	initSnapshot      *connect.Client[InitSnapshotRequest, Empty]
	forkSnapshot      *connect.Client[ForkSnapshotRequest, Empty]
	runQuery          *connect.Client[RunQueryRequest, RunQueryResponse]
	describeQuery     *connect.Client[DescribeQueryRequest, DescribeQueryResponse]
	listQueries       *connect.Client[Empty, ListQueriesResponse]
	getSnapshotObject *connect.Client[SnapshotObjectRequest, SnapshotObjectResponse]
}

// NewClient creates an engine client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, domain.ErrMissingArgument.WithDetails("engine address")
	}

	baseURL := strings.TrimRight(cfg.Address, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		if cfg.TLSConfig != nil {
			baseURL = "https://" + baseURL
		} else {
			baseURL = "http://" + baseURL
		}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.TLSConfig != nil {
			transport.TLSClientConfig = cfg.TLSConfig
		}
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: &userAgentTransport{base: transport},
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	opts := []connect.ClientOption{
		Codec(),
		connect.WithInterceptors(
			NewLoggingInterceptor(cfg.Logger),
			apiKeyInterceptor(cfg.APIKey),
		),
	}

	return &Client{
		baseURL:           baseURL,
		limiter:           limiter,
		listNetworks:      connect.NewClient[Empty, ListNetworksResponse](httpClient, baseURL+ProcedureListNetworks, opts...),
		createNetwork:     connect.NewClient[NetworkRequest, Empty](httpClient, baseURL+ProcedureCreateNetwork, opts...),
		deleteNetwork:     connect.NewClient[NetworkRequest, Empty](httpClient, baseURL+ProcedureDeleteNetwork, opts...),
		listSnapshots:     connect.NewClient[NetworkRequest, ListSnapshotsResponse](httpClient, baseURL+ProcedureListSnapshots, opts...),
		deleteSnapshot:    connect.NewClient[SnapshotRequest, Empty](httpClient, baseURL+ProcedureDeleteSnapshot, opts...),
		initSnapshot:      connect.NewClient[InitSnapshotRequest, Empty](httpClient, baseURL+ProcedureInitSnapshot, opts...),
		forkSnapshot:      connect.NewClient[ForkSnapshotRequest, Empty](httpClient, baseURL+ProcedureForkSnapshot, opts...),
		runQuery:          connect.NewClient[RunQueryRequest, RunQueryResponse](httpClient, baseURL+ProcedureRunQuery, opts...),
		describeQuery:     connect.NewClient[DescribeQueryRequest, DescribeQueryResponse](httpClient, baseURL+ProcedureDescribeQuery, opts...),
		listQueries:       connect.NewClient[Empty, ListQueriesResponse](httpClient, baseURL+ProcedureListQueries, opts...),
		getSnapshotObject: connect.NewClient[SnapshotObjectRequest, SnapshotObjectResponse](httpClient, baseURL+ProcedureGetSnapshotObject, opts...),
	}, nil
}

// BaseURL returns the base URL of the client.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListNetworks returns the names of all networks on the engine.
func (c *Client) ListNetworks(ctx context.Context) ([]string, error) {
	resp, err := call(ctx, c, c.listNetworks, &Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Networks, nil
}

// CreateNetwork creates an empty network.
func (c *Client) CreateNetwork(ctx context.Context, network string) error {
	_, err := call(ctx, c, c.createNetwork, &NetworkRequest{Network: network})
	return err
}

// DeleteNetwork removes a network and all its snapshots.
func (c *Client) DeleteNetwork(ctx context.Context, network string) error {
	_, err := call(ctx, c, c.deleteNetwork, &NetworkRequest{Network: network})
	return err
}

// ListSnapshots returns the snapshot names of a network.
func (c *Client) ListSnapshots(ctx context.Context, network string) ([]string, error) {
	resp, err := call(ctx, c, c.listSnapshots, &NetworkRequest{Network: network})
	if err != nil {
		return nil, err
	}
	return resp.Snapshots, nil
}

// DeleteSnapshot removes one snapshot.
func (c *Client) DeleteSnapshot(ctx context.Context, network, snapshot string) error {
	_, err := call(ctx, c, c.deleteSnapshot, &SnapshotRequest{Network: network, Snapshot: snapshot})
	return err
}

// InitSnapshot uploads a zipped snapshot into a network.
func (c *Client) InitSnapshot(ctx context.Context, network string, in domain.SnapshotInput) error {
	_, err := call(ctx, c, c.initSnapshot, &InitSnapshotRequest{
		Network:   network,
		Snapshot:  in.Name,
		Archive:   in.Archive,
		Overwrite: in.Overwrite,
	})
	return err
}

// ForkSnapshot derives a snapshot with deactivated nodes and interfaces.
func (c *Client) ForkSnapshot(ctx context.Context, network string, spec domain.ForkSpec) error {
	req := &ForkSnapshotRequest{
		Network:         network,
		BaseSnapshot:    spec.BaseSnapshot,
		Snapshot:        spec.Name,
		DeactivateNodes: spec.DeactivateNodes,
		Overwrite:       spec.Overwrite,
	}
	for _, iface := range spec.DeactivateInterfaces {
		req.DeactivateInterfaces = append(req.DeactivateInterfaces, InterfaceMessage{
			Hostname:  iface.Hostname,
			Interface: iface.Interface,
		})
	}
	_, err := call(ctx, c, c.forkSnapshot, req)
	return err
}

// RunQuery runs a named query and returns its tabular answer.
func (c *Client) RunQuery(ctx context.Context, spec domain.QuerySpec) (*domain.Result, error) {
	resp, err := call(ctx, c, c.runQuery, &RunQueryRequest{
		Network:           spec.Network,
		Snapshot:          spec.Snapshot,
		ReferenceSnapshot: spec.ReferenceSnapshot,
		Query:             spec.Query,
		Parameters:        spec.Parameters,
	})
	if err != nil {
		return nil, err
	}

	result := domain.NewResult(resp.Columns...)
	for _, row := range resp.Rows {
		result.AddRow(row...)
	}
	return result, nil
}

// DescribeQuery returns the engine's description of a query.
func (c *Client) DescribeQuery(ctx context.Context, name string) (string, error) {
	resp, err := call(ctx, c, c.describeQuery, &DescribeQueryRequest{Query: name})
	if err != nil {
		return "", err
	}
	return resp.Description, nil
}

// ListQueries returns the query names the engine exposes.
func (c *Client) ListQueries(ctx context.Context) ([]string, error) {
	resp, err := call(ctx, c, c.listQueries, &Empty{})
	if err != nil {
		return nil, err
	}
	return resp.Queries, nil
}

// GetSnapshotObject returns the raw text of one snapshot input file.
func (c *Client) GetSnapshotObject(ctx context.Context, network, snapshot, key string) (string, error) {
	resp, err := call(ctx, c, c.getSnapshotObject, &SnapshotObjectRequest{
		Network:  network,
		Snapshot: snapshot,
		Key:      key,
	})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// call waits for the limiter, performs a unary call and translates errors.
func call[Req, Res any](ctx context.Context, c *Client, client *connect.Client[Req, Res], req *Req) (*Res, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, domain.ErrEngineUnavailable.WithDetails("rate limiter").WithCause(err)
		}
	}

	resp, err := client.CallUnary(ctx, connect.NewRequest(req))
	if err != nil {
		return nil, TranslateError(err)
	}
	return resp.Msg, nil
}

// userAgentTransport sets the client User-Agent.
type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	return t.base.RoundTrip(req)
}
