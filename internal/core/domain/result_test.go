package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestResult_EmptyResult(t *testing.T) {
	r := EmptyResult()
	if !r.IsEmpty() {
		t.Error("EmptyResult should be empty")
	}
	if r.Columns == nil || r.Rows == nil {
		t.Error("EmptyResult should have non-nil columns and rows")
	}

	var nilResult *Result
	if nilResult.Len() != 0 {
		t.Error("Len() on nil result should be 0")
	}
}

func TestResult_Column(t *testing.T) {
	r := NewResult("Interface", "IP")
	r.AddRow("r1[Gi0/0]", "10.0.0.1")
	r.AddRow("r2[Gi0/1]") // short row

	got, ok := r.Column("IP")
	if !ok {
		t.Fatal("Column(IP) not found")
	}
	if diff := cmp.Diff([]any{"10.0.0.1", nil}, got); diff != "" {
		t.Errorf("Column(IP) mismatch (-want +got):\n%s", diff)
	}

	if _, ok := r.Column("Missing"); ok {
		t.Error("Column(Missing) should not be found")
	}
	if r.ColumnIndex("Interface") != 0 {
		t.Errorf("ColumnIndex(Interface) = %d, want 0", r.ColumnIndex("Interface"))
	}
}

func TestResult_Clone(t *testing.T) {
	r := NewResult("A")
	r.AddRow(1)

	c := r.Clone()
	c.Columns[0] = "B"
	c.Rows[0][0] = 2

	if r.Columns[0] != "A" {
		t.Error("Clone should copy columns")
	}
	if r.Rows[0][0] != 1 {
		t.Error("Clone should copy rows")
	}
}

func TestResult_Records(t *testing.T) {
	r := NewResult("Node", "Count")
	r.AddRow("r1", 2)
	r.AddRow("r2")

	want := []map[string]any{
		{"Node": "r1", "Count": 2},
		{"Node": "r2", "Count": nil},
	}
	if diff := cmp.Diff(want, r.Records()); diff != "" {
		t.Errorf("Records() mismatch (-want +got):\n%s", diff)
	}
}

func TestContext_Validate(t *testing.T) {
	tests := []struct {
		name    string
		ctx     Context
		wantErr error
	}{
		{"complete", Context{Network: "N1", Snapshot: "S1"}, nil},
		{"no network", Context{Snapshot: "S1"}, ErrNoActiveNetwork},
		{"no snapshot", Context{Network: "N1"}, ErrNoActiveSnapshot},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ctx.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if GetErrorCode(err) != GetErrorCode(tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestContext_String(t *testing.T) {
	if got := (Context{}).String(); got != "-/-" {
		t.Errorf("String() = %q, want %q", got, "-/-")
	}
	if got := (Context{Network: "N1"}).WithSnapshot("S1").String(); got != "N1/S1" {
		t.Errorf("String() = %q, want %q", got, "N1/S1")
	}
}

func TestForkSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    ForkSpec
		wantErr bool
	}{
		{"valid nodes", ForkSpec{BaseSnapshot: "S1", Name: "S1-down", DeactivateNodes: []string{"nodeA"}}, false},
		{"valid interface", ForkSpec{BaseSnapshot: "S1", Name: "S1-down", DeactivateInterfaces: []InterfaceRef{{"r1", "Gi0/0"}}}, false},
		{"missing base", ForkSpec{Name: "S1-down"}, true},
		{"missing name", ForkSpec{BaseSnapshot: "S1"}, true},
		{"same name", ForkSpec{BaseSnapshot: "S1", Name: "S1"}, true},
		{"half interface", ForkSpec{BaseSnapshot: "S1", Name: "x", DeactivateInterfaces: []InterfaceRef{{Hostname: "r1"}}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
