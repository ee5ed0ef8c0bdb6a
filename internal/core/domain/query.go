package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Well-known query names exposed by the verification engine.
const (
	QueryLayer3Edges               = "layer3Edges"
	QueryOSPFEdges                 = "ospfEdges"
	QueryBGPEdges                  = "bgpEdges"
	QueryIPOwners                  = "ipOwners"
	QueryNodeProperties            = "nodeProperties"
	QueryTraceroute                = "traceroute"
	QueryBidirectionalTraceroute   = "bidirectionalTraceroute"
	QueryReachability              = "reachability"
	QueryCompareFilters            = "compareFilters"
	QueryDifferentialReachability  = "differentialReachability"
	QueryInterfaceProperties       = "interfaceProperties"
	QueryRoutes                    = "routes"
	QueryBGPSessionStatus          = "bgpSessionStatus"
	QueryBGPSessionCompatibility   = "bgpSessionCompatibility"
	QueryOSPFSessionCompatibility  = "ospfSessionCompatibility"
	QueryFilterLineReachability    = "filterLineReachability"
	QuerySearchFilters             = "searchFilters"
	QueryTestFilters               = "testFilters"
	QueryDefinedStructures         = "definedStructures"
	QueryUndefinedReferences       = "undefinedReferences"
	QueryUnusedStructures          = "unusedStructures"
	QueryFileParseStatus           = "fileParseStatus"
	QueryInitIssues                = "initIssues"
	QueryDetectLoops               = "detectLoops"
	QuerySwitchedVLANProperties    = "switchedVlanProperties"
	QueryIPSecSessionStatus        = "ipsecSessionStatus"
	QueryNamedStructures           = "namedStructures"
	QueryEdges                     = "edges"
	QueryLPMRoutes                 = "lpmRoutes"
	QueryMultipathConsistency      = "multipathConsistency"
	QuerySubnetMultipathConsistent = "subnetMultipathConsistency"
)

// Parameter keys shared by several queries.
const (
	ParamStartLocation = "startLocation"
	ParamHeaders       = "headers"
	ParamSrcIPs        = "srcIps"
	ParamDstIPs        = "dstIps"
	ParamSrcPorts      = "srcPorts"
	ParamDstPorts      = "dstPorts"
	ParamApplications  = "applications"
	ParamIPProtocols   = "ipProtocols"
)

// fallbackQueries is returned when the engine cannot be introspected.
var fallbackQueries = []string{
	QueryLayer3Edges,
	QueryOSPFEdges,
	QueryBGPEdges,
	QueryIPOwners,
	QueryNodeProperties,
	QueryTraceroute,
	QueryReachability,
	QueryCompareFilters,
}

// FallbackQueries returns the minimal set of query names assumed to exist
// on every engine: topology, OSPF and BGP edges, IP ownership, node
// properties, traceroute, reachability and filter comparison.
func FallbackQueries() []string {
	return append([]string(nil), fallbackQueries...)
}

// IsValidQueryName reports whether name is a non-empty ASCII alphanumeric
// identifier. Names are never evaluated; this only gates table lookups.
func IsValidQueryName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// ValidateQueryName returns ErrInvalidQueryName if name fails the allow-list.
func ValidateQueryName(name string) error {
	if !IsValidQueryName(name) {
		return ErrInvalidQueryName.WithDetails(strconv.Quote(name))
	}
	return nil
}

// Params is the parameter bag of a query invocation.
type Params map[string]any

// Clone returns a shallow copy of the parameters.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// String returns a string parameter, or "" if absent.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", nil
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case fmt.Stringer:
		return s.String(), nil
	default:
		return "", ErrInvalidParameter.WithDetails(fmt.Sprintf("%s: expected string, got %T", key, v))
	}
}

// StringSlice returns a list parameter. A single string is split on commas.
func (p Params) StringSlice(key string) ([]string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch s := v.(type) {
	case string:
		return splitList(s), nil
	case []string:
		return append([]string(nil), s...), nil
	case []any:
		out := make([]string, 0, len(s))
		for _, item := range s {
			str, ok := item.(string)
			if !ok {
				return nil, ErrInvalidParameter.WithDetails(fmt.Sprintf("%s: expected list of strings, got %T element", key, item))
			}
			out = append(out, str)
		}
		return out, nil
	default:
		return nil, ErrInvalidParameter.WithDetails(fmt.Sprintf("%s: expected list of strings, got %T", key, v))
	}
}

// Bool returns a boolean parameter, accepting strconv.ParseBool spellings.
func (p Params) Bool(key string) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(b)
		if err != nil {
			return false, ErrInvalidParameter.WithDetails(fmt.Sprintf("%s: %q is not a boolean", key, b))
		}
		return parsed, nil
	default:
		return false, ErrInvalidParameter.WithDetails(fmt.Sprintf("%s: expected boolean, got %T", key, v))
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// HeaderConstraints bound the packet headers of a traffic-oriented query.
// Empty fields are unconstrained.
type HeaderConstraints struct {
	SrcIPs       string   `json:"srcIps,omitempty" yaml:"srcIps,omitempty"`
	DstIPs       string   `json:"dstIps,omitempty" yaml:"dstIps,omitempty"`
	SrcPorts     []string `json:"srcPorts,omitempty" yaml:"srcPorts,omitempty"`
	DstPorts     []string `json:"dstPorts,omitempty" yaml:"dstPorts,omitempty"`
	Applications []string `json:"applications,omitempty" yaml:"applications,omitempty"`
	IPProtocols  []string `json:"ipProtocols,omitempty" yaml:"ipProtocols,omitempty"`
}

// IsZero returns true if no constraint is set.
func (h HeaderConstraints) IsZero() bool {
	return h.SrcIPs == "" && h.DstIPs == "" && len(h.SrcPorts) == 0 &&
		len(h.DstPorts) == 0 && len(h.Applications) == 0 && len(h.IPProtocols) == 0
}

// HeaderConstraintsFromParams builds constraints from flat parameter keys.
func HeaderConstraintsFromParams(p Params) (HeaderConstraints, error) {
	var h HeaderConstraints
	var err error

	if h.SrcIPs, err = p.String(ParamSrcIPs); err != nil {
		return h, err
	}
	if h.DstIPs, err = p.String(ParamDstIPs); err != nil {
		return h, err
	}
	if h.SrcPorts, err = p.StringSlice(ParamSrcPorts); err != nil {
		return h, err
	}
	if h.DstPorts, err = p.StringSlice(ParamDstPorts); err != nil {
		return h, err
	}
	if h.Applications, err = p.StringSlice(ParamApplications); err != nil {
		return h, err
	}
	if h.IPProtocols, err = p.StringSlice(ParamIPProtocols); err != nil {
		return h, err
	}
	return h, nil
}

// TraceRequest describes a traceroute-family query.
type TraceRequest struct {
	// StartLocation is the location specifier packets start from.
	StartLocation string

	// Headers constrain the traced flows. DstIPs is required.
	Headers HeaderConstraints

	// Bidirectional traces the forward flow and its return flow.
	Bidirectional bool

	// Snapshot overrides the session's active snapshot when set.
	Snapshot string
}

// Validate checks the required trace fields.
func (r *TraceRequest) Validate() error {
	if r.StartLocation == "" {
		return ErrMissingArgument.WithDetails("start location is required")
	}
	if r.Headers.DstIPs == "" {
		return ErrMissingArgument.WithDetails("destination IP constraint is required")
	}
	return nil
}

// QueryName returns the engine query implementing the trace direction.
func (r *TraceRequest) QueryName() string {
	if r.Bidirectional {
		return QueryBidirectionalTraceroute
	}
	return QueryTraceroute
}

// Params returns the engine parameters for the trace.
func (r *TraceRequest) Params() Params {
	return Params{
		ParamStartLocation: r.StartLocation,
		ParamHeaders:       r.Headers,
	}
}

// QuerySpec is a fully resolved query request sent to the engine.
type QuerySpec struct {
	Network           string `json:"network"`
	Snapshot          string `json:"snapshot"`
	ReferenceSnapshot string `json:"reference_snapshot,omitempty"`
	Query             string `json:"query"`
	Parameters        Params `json:"parameters,omitempty"`
}
