package repl

import (
	"reflect"
	"testing"
)

func TestCompleter_Complete(t *testing.T) {
	c := NewCompleter([]string{
		"network", "network list", "network use",
		"snapshot", "snapshot list", "snapshot fork",
		"query run",
	})

	tests := []struct {
		name   string
		prefix string
		want   []string
	}{
		{"group", "network", []string{"network", "network list", "network use"}},
		{"group with space", "network ", []string{"network list", "network use"}},
		{"extra spaces", "  snapshot   f", []string{"snapshot fork"}},
		{"builtin", "ex", []string{"exit"}},
		{"no match", "backup", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Complete(tt.prefix); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Complete(%q) = %q, want %q", tt.prefix, got, tt.want)
			}
		})
	}
}

func TestCompleter_EmptyPrefixListsAll(t *testing.T) {
	c := NewCompleter([]string{"context", "context"})
	got := c.Complete("")
	want := []string{"context", "exit", "help", "history", "quit"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Complete(\"\") = %q, want %q", got, want)
	}
}
