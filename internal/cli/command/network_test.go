package command

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

func TestNetwork_CreateListDelete(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("network", "create", "dc1")
	if !strings.Contains(out, "Network dc1 created") {
		t.Errorf("create output = %q", out)
	}
	h.mustRun("network", "create", "dc2")

	out = h.mustRun("--output", "json", "network", "list")
	var names []string
	if err := json.Unmarshal([]byte(out), &names); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", out, err)
	}
	if diff := cmp.Diff([]string{"dc1", "dc2"}, names); diff != "" {
		t.Errorf("network list mismatch (-want +got):\n%s", diff)
	}

	h.mustRun("network", "delete", "dc1")
	out = h.mustRun("network", "list")
	if strings.Contains(out, "dc1") {
		t.Errorf("network list after delete = %q, still contains dc1", out)
	}
}

func TestNetwork_CreateExisting(t *testing.T) {
	h := newHarness(t)
	h.eng.AddNetwork("dc1")

	_, err := h.run("network", "create", "dc1")
	if !errors.Is(err, domain.ErrNetworkExists) {
		t.Errorf("create error = %v, want %v", err, domain.ErrNetworkExists)
	}
}

func TestNetwork_UsePersistsAcrossRuns(t *testing.T) {
	h := newHarness(t)

	h.mustRun("network", "create", "dc1", "--use")

	out := h.mustRun("--output", "json", "context")
	var view contextView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", out, err)
	}
	if view.Network != "dc1" || view.Snapshot != "" {
		t.Errorf("context = %+v, want network dc1 and no snapshot", view)
	}
	if view.Engine != h.eng.URL() {
		t.Errorf("context engine = %q, want %q", view.Engine, h.eng.URL())
	}
}

func TestNetwork_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"use unknown", []string{"network", "use", "nope"}, domain.ErrNetworkNotFound},
		{"use without name", []string{"network", "use"}, domain.ErrMissingArgument},
		{"create extra args", []string{"network", "create", "a", "b"}, domain.ErrInvalidArgument},
		{"delete unknown", []string{"network", "delete", "nope"}, domain.ErrNetworkNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			_, err := h.run(tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("run(%v) error = %v, want %v", tt.args, err, tt.want)
			}
		})
	}
}

func TestNetwork_DeleteActiveClearsContext(t *testing.T) {
	h := newHarness(t)
	h.withSnapshot()

	h.mustRun("network", "delete", "N1")

	out := h.mustRun("--output", "json", "context")
	var view contextView
	if err := json.Unmarshal([]byte(out), &view); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", out, err)
	}
	if view.Network != "" || view.Snapshot != "" {
		t.Errorf("context after delete = %+v, want empty", view)
	}
}

func TestNetwork_EngineUnavailable(t *testing.T) {
	h := newHarness(t)
	h.eng.SetUnavailable(true)

	_, err := h.run("network", "list")
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Errorf("network list error = %v, want %v", err, domain.ErrEngineUnavailable)
	}
}
