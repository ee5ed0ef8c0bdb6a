package domain

import "fmt"

// InterfaceRef identifies one interface of one node.
type InterfaceRef struct {
	Hostname  string `json:"hostname" yaml:"hostname"`
	Interface string `json:"interface" yaml:"interface"`
}

// String returns "hostname[interface]".
func (r InterfaceRef) String() string {
	return fmt.Sprintf("%s[%s]", r.Hostname, r.Interface)
}

// ForkSpec describes a snapshot derived from a base snapshot by
// deactivating whole nodes and/or individual interfaces.
type ForkSpec struct {
	BaseSnapshot         string         `json:"base_snapshot"`
	Name                 string         `json:"snapshot"`
	DeactivateNodes      []string       `json:"deactivate_nodes,omitempty"`
	DeactivateInterfaces []InterfaceRef `json:"deactivate_interfaces,omitempty"`
	Overwrite            bool           `json:"overwrite"`
}

// Validate checks the fork request.
func (s *ForkSpec) Validate() error {
	if s.BaseSnapshot == "" {
		return ErrMissingArgument.WithDetails("base snapshot is required")
	}
	if s.Name == "" {
		return ErrMissingArgument.WithDetails("derived snapshot name is required")
	}
	if s.Name == s.BaseSnapshot {
		return ErrInvalidArgument.WithDetails("derived snapshot must differ from base snapshot")
	}
	for _, ref := range s.DeactivateInterfaces {
		if ref.Hostname == "" || ref.Interface == "" {
			return ErrInvalidArgument.WithDetails("interface reference needs hostname and interface: " + ref.String())
		}
	}
	return nil
}

// SnapshotInput is a packaged snapshot upload.
type SnapshotInput struct {
	// Name is the snapshot name within the network.
	Name string

	// Archive is a zip archive of the snapshot's configuration files.
	Archive []byte

	// Overwrite replaces an existing snapshot of the same name.
	Overwrite bool
}

// Validate checks the snapshot input.
func (in *SnapshotInput) Validate() error {
	if in.Name == "" {
		return ErrMissingArgument.WithDetails("snapshot name is required")
	}
	if len(in.Archive) == 0 {
		return ErrMissingArgument.WithDetails("snapshot archive is empty")
	}
	return nil
}
