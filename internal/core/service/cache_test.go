package service

import (
	"testing"

	"github.com/yndnr/netverify-go/internal/core/domain"
)

func testSpec(snapshot, query string, params domain.Params) domain.QuerySpec {
	return domain.QuerySpec{Network: "N1", Snapshot: snapshot, Query: query, Parameters: params}
}

func TestResultCache_GetPut(t *testing.T) {
	c := NewResultCache(8)
	spec := testSpec("S1", domain.QueryRoutes, domain.Params{"nodes": "r1", "vrfs": "default"})

	if _, ok := c.Get(spec); ok {
		t.Fatal("Get() on empty cache = true, want false")
	}

	r := domain.NewResult("Node")
	r.AddRow("r1")
	c.Put(spec, r)

	// Stored results are copies.
	r.Rows[0][0] = "mutated"

	same := testSpec("S1", domain.QueryRoutes, domain.Params{"vrfs": "default", "nodes": "r1"})
	got, ok := c.Get(same)
	if !ok {
		t.Fatal("Get() = false, want true for equal parameters")
	}
	if got.Rows[0][0] != "r1" {
		t.Errorf("cached cell = %v, want r1", got.Rows[0][0])
	}

	got.Rows[0][0] = "mutated"
	again, _ := c.Get(spec)
	if again.Rows[0][0] != "r1" {
		t.Errorf("cached cell after caller mutation = %v, want r1", again.Rows[0][0])
	}
}

func TestResultCache_KeyDistinguishesFields(t *testing.T) {
	c := NewResultCache(8)
	base := testSpec("S1", domain.QueryRoutes, nil)
	c.Put(base, domain.NewResult("Node"))

	variants := []domain.QuerySpec{
		{Network: "N2", Snapshot: "S1", Query: domain.QueryRoutes},
		testSpec("S2", domain.QueryRoutes, nil),
		testSpec("S1", domain.QueryBGPEdges, nil),
		testSpec("S1", domain.QueryRoutes, domain.Params{"nodes": "r1"}),
		{Network: "N1", Snapshot: "S1", ReferenceSnapshot: "S0", Query: domain.QueryRoutes},
	}
	for _, v := range variants {
		if _, ok := c.Get(v); ok {
			t.Errorf("Get(%+v) = true, want false", v)
		}
	}
}

func TestResultCache_Invalidate(t *testing.T) {
	c := NewResultCache(8)
	c.Put(testSpec("S1", domain.QueryRoutes, nil), domain.NewResult())
	c.Put(testSpec("S2", domain.QueryRoutes, nil), domain.NewResult())
	c.Put(domain.QuerySpec{Network: "N1", Snapshot: "S3", ReferenceSnapshot: "S1", Query: domain.QueryCompareFilters}, domain.NewResult())
	c.Put(domain.QuerySpec{Network: "N2", Snapshot: "S1", Query: domain.QueryRoutes}, domain.NewResult())

	if got := c.InvalidateSnapshot("N1", "S1"); got != 2 {
		t.Errorf("InvalidateSnapshot() = %d, want 2", got)
	}
	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if got := c.InvalidateNetwork("N2"); got != 1 {
		t.Errorf("InvalidateNetwork() = %d, want 1", got)
	}
	c.Clear()
	if got := c.Len(); got != 0 {
		t.Errorf("Len() after Clear = %d, want 0", got)
	}
}

func TestResultCache_EvictsOldest(t *testing.T) {
	c := NewResultCache(2)
	first := testSpec("S1", domain.QueryRoutes, nil)
	c.Put(first, domain.NewResult())
	c.Put(testSpec("S2", domain.QueryRoutes, nil), domain.NewResult())
	c.Put(testSpec("S3", domain.QueryRoutes, nil), domain.NewResult())

	if got := c.Len(); got != 2 {
		t.Errorf("Len() = %d, want 2", got)
	}
	if _, ok := c.Get(first); ok {
		t.Error("oldest entry still cached")
	}
}

func TestResultCache_Nil(t *testing.T) {
	var c *ResultCache
	c.Put(testSpec("S1", domain.QueryRoutes, nil), domain.NewResult())
	if _, ok := c.Get(testSpec("S1", domain.QueryRoutes, nil)); ok {
		t.Error("nil cache Get() = true")
	}
	if c.InvalidateSnapshot("N1", "S1") != 0 || c.Len() != 0 {
		t.Error("nil cache not empty")
	}
}

func TestResultCache_UnencodableParamsSkipped(t *testing.T) {
	c := NewResultCache(2)
	spec := testSpec("S1", domain.QueryRoutes, domain.Params{"bad": make(chan int)})
	c.Put(spec, domain.NewResult())
	if c.Len() != 0 {
		t.Errorf("Len() = %d, want 0", c.Len())
	}
}
