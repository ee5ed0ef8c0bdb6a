package domain

// Context is the (network, snapshot) pair a session is working against.
//
// Queries that do not name a snapshot explicitly run against the
// session's active Context, captured at call time.
type Context struct {
	Network  string `json:"network" yaml:"network"`
	Snapshot string `json:"snapshot" yaml:"snapshot"`
}

// HasNetwork returns true if a network is selected.
func (c Context) HasNetwork() bool {
	return c.Network != ""
}

// HasSnapshot returns true if a snapshot is selected.
func (c Context) HasSnapshot() bool {
	return c.Snapshot != ""
}

// WithSnapshot returns a copy targeting another snapshot of the same network.
func (c Context) WithSnapshot(snapshot string) Context {
	c.Snapshot = snapshot
	return c
}

// Validate checks that both network and snapshot are selected.
func (c Context) Validate() error {
	if !c.HasNetwork() {
		return ErrNoActiveNetwork
	}
	if !c.HasSnapshot() {
		return ErrNoActiveSnapshot.WithDetails("network: " + c.Network)
	}
	return nil
}

// String returns "network/snapshot", with "-" for unset parts.
func (c Context) String() string {
	network, snapshot := c.Network, c.Snapshot
	if network == "" {
		network = "-"
	}
	if snapshot == "" {
		snapshot = "-"
	}
	return network + "/" + snapshot
}
