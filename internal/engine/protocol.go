package engine

// ServiceName is the fully qualified name of the engine RPC service.
const ServiceName = "netverify.engine.v1.EngineService"

// Procedure paths of the engine service.
const (
	ProcedureListNetworks      = "/" + ServiceName + "/ListNetworks"
	ProcedureCreateNetwork     = "/" + ServiceName + "/CreateNetwork"
	ProcedureDeleteNetwork     = "/" + ServiceName + "/DeleteNetwork"
	ProcedureListSnapshots     = "/" + ServiceName + "/ListSnapshots"
	ProcedureDeleteSnapshot    = "/" + ServiceName + "/DeleteSnapshot"
	ProcedureInitSnapshot      = "/" + ServiceName + "/InitSnapshot"
	ProcedureForkSnapshot      = "/" + ServiceName + "/ForkSnapshot"
	ProcedureRunQuery          = "/" + ServiceName + "/RunQuery"
	ProcedureDescribeQuery     = "/" + ServiceName + "/DescribeQuery"
	ProcedureListQueries       = "/" + ServiceName + "/ListQueries"
	ProcedureGetSnapshotObject = "/" + ServiceName + "/GetSnapshotObject"
)

// Headers exchanged with the engine.
const (
	// HeaderAPIKey carries the engine API key.
	HeaderAPIKey = "X-Netverify-Api-Key"

	// HeaderRequestID carries the per-call request ID.
	HeaderRequestID = "X-Request-Id"

	// HeaderErrorReason qualifies an error code (e.g. which resource was not found).
	HeaderErrorReason = "Engine-Error-Reason"
)

// Error reasons carried in HeaderErrorReason.
const (
	ReasonNetwork           = "NETWORK"
	ReasonSnapshot          = "SNAPSHOT"
	ReasonQuery             = "QUERY"
	ReasonEmptySnapshotList = "EMPTY_SNAPSHOT_LIST"
)

// Empty is the message of procedures without payload.
type Empty struct{}

// NetworkRequest targets a network.
type NetworkRequest struct {
	Network string `json:"network"`
}

// SnapshotRequest targets a snapshot of a network.
type SnapshotRequest struct {
	Network  string `json:"network"`
	Snapshot string `json:"snapshot"`
}

// ListNetworksResponse lists network names.
type ListNetworksResponse struct {
	Networks []string `json:"networks"`
}

// ListSnapshotsResponse lists snapshot names of a network.
type ListSnapshotsResponse struct {
	Snapshots []string `json:"snapshots"`
}

// InitSnapshotRequest uploads a zipped snapshot.
type InitSnapshotRequest struct {
	Network   string `json:"network"`
	Snapshot  string `json:"snapshot"`
	Archive   []byte `json:"archive"`
	Overwrite bool   `json:"overwrite"`
}

// InterfaceMessage identifies one interface of one node.
type InterfaceMessage struct {
	Hostname  string `json:"hostname"`
	Interface string `json:"interface"`
}

// ForkSnapshotRequest derives a snapshot from a base snapshot.
type ForkSnapshotRequest struct {
	Network              string             `json:"network"`
	BaseSnapshot         string             `json:"base_snapshot"`
	Snapshot             string             `json:"snapshot"`
	DeactivateNodes      []string           `json:"deactivate_nodes,omitempty"`
	DeactivateInterfaces []InterfaceMessage `json:"deactivate_interfaces,omitempty"`
	Overwrite            bool               `json:"overwrite"`
}

// RunQueryRequest runs a named query against a snapshot.
type RunQueryRequest struct {
	Network           string         `json:"network"`
	Snapshot          string         `json:"snapshot"`
	ReferenceSnapshot string         `json:"reference_snapshot,omitempty"`
	Query             string         `json:"query"`
	Parameters        map[string]any `json:"parameters,omitempty"`
}

// RunQueryResponse is the tabular answer of a query.
type RunQueryResponse struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// DescribeQueryRequest asks for the description of a query.
type DescribeQueryRequest struct {
	Query string `json:"query"`
}

// DescribeQueryResponse holds a human-readable query description.
type DescribeQueryResponse struct {
	Description string `json:"description"`
}

// ListQueriesResponse lists the query names the engine exposes.
type ListQueriesResponse struct {
	Queries []string `json:"queries"`
}

// SnapshotObjectRequest reads one input file of a snapshot.
type SnapshotObjectRequest struct {
	Network  string `json:"network"`
	Snapshot string `json:"snapshot"`
	Key      string `json:"key"`
}

// SnapshotObjectResponse holds the raw file text.
type SnapshotObjectResponse struct {
	Text string `json:"text"`
}
