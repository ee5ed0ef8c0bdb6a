package command

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yndnr/netverify-go/internal/core/domain"
	"github.com/yndnr/netverify-go/internal/engine/enginetest"
	"github.com/yndnr/netverify-go/internal/storage"
)

// harness runs the CLI against a fake engine. State persists across runs
// in an in-memory store, like the badger directory does across processes.
type harness struct {
	t      *testing.T
	eng    *enginetest.Engine
	store  *storage.BadgerStore
	config string
	stdin  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)

	store, err := storage.OpenBadger(storage.InMemoryConfig(), slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return &harness{
		t:      t,
		eng:    enginetest.New(t),
		store:  store,
		config: filepath.Join(home, ".netverify", "cli.yaml"),
	}
}

// run executes one command line and returns stdout and the error.
func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	out, _, err := h.runAll(args...)
	return out, err
}

// runAll executes one command line and returns stdout, stderr and the error.
func (h *harness) runAll(args ...string) (string, string, error) {
	h.t.Helper()

	var stdout, stderr bytes.Buffer
	argv := append([]string{"netverify-cli", "--config", h.config, "--engine", h.eng.URL()}, args...)
	err := Run(context.Background(), argv,
		WithStateStore(h.store),
		WithWriters(&stdout, &stderr),
		WithReader(strings.NewReader(h.stdin)),
	)
	return stdout.String(), stderr.String(), err
}

// mustRun executes a command line that must succeed.
func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, err := h.run(args...)
	if err != nil {
		h.t.Fatalf("%s: error = %v", strings.Join(args, " "), err)
	}
	return out
}

// withSnapshot creates network N1 with snapshot S1 and activates both.
func (h *harness) withSnapshot() {
	h.t.Helper()
	h.eng.AddSnapshot("N1", "S1", map[string]string{"configs/r1.cfg": "hostname r1\n"})
	h.mustRun("network", "use", "N1")
	h.mustRun("snapshot", "use", "S1")
}

// decodeResult parses JSON output of a query command.
func decodeResult(t *testing.T, out string) domain.Result {
	t.Helper()
	var r domain.Result
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("json.Unmarshal(%q) error = %v", out, err)
	}
	return r
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

// activeContext reads the persisted context.
func (h *harness) activeContext() (domain.Context, error) {
	return storage.NewContextStore(h.store).Load(context.Background())
}
