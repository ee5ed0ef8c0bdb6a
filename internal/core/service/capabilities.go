package service

import (
	"fmt"
	"maps"
	"slices"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

// Family groups capabilities for listing and help output.
type Family string

const (
	FamilyTopology     Family = "topology"
	FamilyRouting      Family = "routing"
	FamilyProperties   Family = "properties"
	FamilyFilters      Family = "filters"
	FamilyReachability Family = "reachability"
	FamilyConfig       Family = "config"
	FamilyDifferential Family = "differential"
)

// Capability is one entry of the static query table.
type Capability struct {
	Name   string
	Family Family
	// Summary is a one-line description used when the engine cannot
	// describe the query.
	Summary string
	// NeedsReference marks comparison queries that run against a
	// reference snapshot as well as the subject snapshot.
	NeedsReference bool

	params paramBuilder
}

// paramBuilder turns caller parameters into engine parameters.
type paramBuilder func(p domain.Params) (domain.Params, error)

// passthrough forwards parameters unchanged.
func passthrough(p domain.Params) (domain.Params, error) {
	return p.Clone(), nil
}

// capabilities is the static dispatch table. It is built once and never
// extended at runtime.
var capabilities = buildCapabilities()

func buildCapabilities() map[string]Capability {
	table := make(map[string]Capability)
	add := func(name string, family Family, summary string, opts ...func(*Capability)) {
		c := Capability{Name: name, Family: family, Summary: summary, params: passthrough}
		for _, opt := range opts {
			opt(&c)
		}
		table[name] = c
	}
	withParams := func(b paramBuilder) func(*Capability) {
		return func(c *Capability) { c.params = b }
	}
	withReference := func(c *Capability) { c.NeedsReference = true }

	add(domain.QueryLayer3Edges, FamilyTopology, "Layer 3 edges between interfaces")
	add(domain.QueryEdges, FamilyTopology, "Edges of a given type")
	add(domain.QueryOSPFEdges, FamilyTopology, "OSPF adjacencies")
	add(domain.QueryBGPEdges, FamilyTopology, "BGP peerings")
	add(domain.QueryIPOwners, FamilyTopology, "Owners of IP addresses")

	add(domain.QueryRoutes, FamilyRouting, "Routing table entries")
	add(domain.QueryLPMRoutes, FamilyRouting, "Longest-prefix-match routes for an IP")
	add(domain.QueryBGPSessionStatus, FamilyRouting, "Status of configured BGP sessions")
	add(domain.QueryBGPSessionCompatibility, FamilyRouting, "Compatibility of configured BGP sessions")
	add(domain.QueryOSPFSessionCompatibility, FamilyRouting, "Compatibility of OSPF sessions")
	add(domain.QueryIPSecSessionStatus, FamilyRouting, "Status of IPSec sessions")

	add(domain.QueryNodeProperties, FamilyProperties, "Configuration settings of nodes")
	add(domain.QueryInterfaceProperties, FamilyProperties, "Configuration settings of interfaces")
	add(domain.QuerySwitchedVLANProperties, FamilyProperties, "Switched VLAN membership")

	add(domain.QueryFilterLineReachability, FamilyFilters, "Unreachable filter lines")
	add(domain.QuerySearchFilters, FamilyFilters, "Flows matching filter criteria", withParams(headerParams(false)))
	add(domain.QueryTestFilters, FamilyFilters, "Filter behaviour for a flow", withParams(headerParams(false)))
	add(domain.QueryCompareFilters, FamilyDifferential, "Differences between filters of two snapshots", withReference)

	add(domain.QueryTraceroute, FamilyReachability, "Path of a flow through the network", withParams(traceParams))
	add(domain.QueryBidirectionalTraceroute, FamilyReachability, "Forward and return paths of a flow", withParams(traceParams))
	add(domain.QueryReachability, FamilyReachability, "Flows matching reachability criteria", withParams(headerParams(false)))
	add(domain.QueryDetectLoops, FamilyReachability, "Forwarding loops")
	add(domain.QueryMultipathConsistency, FamilyReachability, "Multipath-inconsistent flows")
	add(domain.QuerySubnetMultipathConsistent, FamilyReachability, "Subnet multipath consistency")
	add(domain.QueryDifferentialReachability, FamilyDifferential, "Flows whose reachability changed between snapshots",
		withParams(headerParams(false)), withReference)

	add(domain.QueryDefinedStructures, FamilyConfig, "Structures defined in configurations")
	add(domain.QueryUndefinedReferences, FamilyConfig, "References to undefined structures")
	add(domain.QueryUnusedStructures, FamilyConfig, "Defined but unused structures")
	add(domain.QueryNamedStructures, FamilyConfig, "Named structures of nodes")
	add(domain.QueryFileParseStatus, FamilyConfig, "Parse status of configuration files")
	add(domain.QueryInitIssues, FamilyConfig, "Issues found while loading the snapshot")

	return table
}

// lookupCapability resolves a query name. The name must already have
// passed domain.ValidateQueryName.
func lookupCapability(name string) (Capability, error) {
	c, ok := capabilities[name]
	if !ok {
		return Capability{}, domain.ErrUnknownQuery.WithDetails(name)
	}
	return c, nil
}

// Capabilities returns the static query table sorted by name.
func Capabilities() []Capability {
	names := slices.Sorted(maps.Keys(capabilities))
	out := make([]Capability, 0, len(names))
	for _, name := range names {
		out = append(out, capabilities[name])
	}
	return out
}

// headerParams folds flat header keys (srcIps, dstIps, ...) into one
// headers constraint. requireDst demands a destination IP constraint.
func headerParams(requireDst bool) paramBuilder {
	return func(p domain.Params) (domain.Params, error) {
		headers, err := headersOf(p)
		if err != nil {
			return nil, err
		}
		if requireDst && headers.DstIPs == "" {
			return nil, domain.ErrMissingArgument.WithDetails("destination IP constraint is required")
		}

		out := make(domain.Params, len(p))
		for k, v := range p {
			switch k {
			case domain.ParamSrcIPs, domain.ParamDstIPs, domain.ParamSrcPorts,
				domain.ParamDstPorts, domain.ParamApplications, domain.ParamIPProtocols:
				continue
			}
			out[k] = v
		}
		if !headers.IsZero() {
			out[domain.ParamHeaders] = headers
		} else {
			delete(out, domain.ParamHeaders)
		}
		return out, nil
	}
}

// traceParams requires a start location and a destination.
func traceParams(p domain.Params) (domain.Params, error) {
	start, err := p.String(domain.ParamStartLocation)
	if err != nil {
		return nil, err
	}
	if start == "" {
		return nil, domain.ErrMissingArgument.WithDetails("start location is required")
	}
	return headerParams(true)(p)
}

// headersOf reads a typed headers value, if present, and overlays flat keys.
func headersOf(p domain.Params) (domain.HeaderConstraints, error) {
	var base domain.HeaderConstraints
	switch h := p[domain.ParamHeaders].(type) {
	case nil:
	case domain.HeaderConstraints:
		base = h
	case *domain.HeaderConstraints:
		if h != nil {
			base = *h
		}
	case map[string]any:
		nested, err := domain.HeaderConstraintsFromParams(domain.Params(h))
		if err != nil {
			return base, err
		}
		base = nested
	case domain.Params:
		nested, err := domain.HeaderConstraintsFromParams(h)
		if err != nil {
			return base, err
		}
		base = nested
	default:
		return base, domain.ErrInvalidParameter.WithDetails(
			fmt.Sprintf("%s: unsupported type %T", domain.ParamHeaders, h))
	}

	flat, err := domain.HeaderConstraintsFromParams(p)
	if err != nil {
		return base, err
	}
	if flat.SrcIPs != "" {
		base.SrcIPs = flat.SrcIPs
	}
	if flat.DstIPs != "" {
		base.DstIPs = flat.DstIPs
	}
	if len(flat.SrcPorts) > 0 {
		base.SrcPorts = flat.SrcPorts
	}
	if len(flat.DstPorts) > 0 {
		base.DstPorts = flat.DstPorts
	}
	if len(flat.Applications) > 0 {
		base.Applications = flat.Applications
	}
	if len(flat.IPProtocols) > 0 {
		base.IPProtocols = flat.IPProtocols
	}
	return base, nil
}
