package tlsroots

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := NewWatcher(filepath.Join(dir, "no.crt"), filepath.Join(dir, "no.key")); err == nil {
		t.Error("NewWatcher() error = nil for missing files")
	}
}

func TestWatcher_ReloadOnChange(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	generateTestCertAndKey(t, certFile, keyFile)

	w, err := NewWatcher(certFile, keyFile, WithDebounce(20*time.Millisecond))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	defer w.Stop()

	first, _ := w.GetClientCertificate(nil)
	w.StartAsync()
	time.Sleep(100 * time.Millisecond)

	generateTestCertAndKey(t, certFile, keyFile)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		current, _ := w.GetClientCertificate(nil)
		if !bytes.Equal(current.Certificate[0], first.Certificate[0]) {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Error("certificate not reloaded within timeout")
}

func TestWatcher_StopIdempotent(t *testing.T) {
	dir := t.TempDir()
	certFile := filepath.Join(dir, "client.crt")
	keyFile := filepath.Join(dir, "client.key")
	generateTestCertAndKey(t, certFile, keyFile)

	w, err := NewWatcher(certFile, keyFile)
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	w.StartAsync()
	w.Stop()
	w.Stop()
}

func TestUniqueDirs(t *testing.T) {
	got := uniqueDirs("/a/x.crt", "/a/x.key", "/b/y.key")
	if len(got) != 2 || got[0] != "/a" || got[1] != "/b" {
		t.Errorf("uniqueDirs() = %v, want [/a /b]", got)
	}
}
