package catalog

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRegisterAndListOrdersOldestFirst(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.Register("arr1", "/m/b.json", base.Add(2*time.Hour)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.Register("arr1", "/m/a.json", base); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.Register("arr1", "/m/c.json", base.Add(4*time.Hour)); err != nil {
		t.Fatalf("Register: %v", err)
	}

	recs, err := s.ListByArray("arr1")
	if err != nil {
		t.Fatalf("ListByArray: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 fragments, got %d", len(recs))
	}
	want := []string{"/m/a.json", "/m/b.json", "/m/c.json"}
	for i, rec := range recs {
		if rec.ManifestPath != want[i] {
			t.Errorf("recs[%d].ManifestPath = %q, want %q", i, rec.ManifestPath, want[i])
		}
	}
}

func TestListByArrayIsolatesOtherArrays(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	now := time.Now()
	if _, err := s.Register("arr1", "/m/x.json", now); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := s.Register("arr2", "/m/y.json", now); err != nil {
		t.Fatalf("Register: %v", err)
	}

	recs, err := s.ListByArray("arr1")
	if err != nil {
		t.Fatalf("ListByArray: %v", err)
	}
	if len(recs) != 1 || recs[0].ManifestPath != "/m/x.json" {
		t.Fatalf("expected only arr1's fragment, got %v", recs)
	}
}

func TestDeregisterRemovesFragment(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	id, err := s.Register("arr1", "/m/x.json", time.Now())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Deregister(id); err != nil {
		t.Fatalf("Deregister: %v", err)
	}
	recs, err := s.ListByArray("arr1")
	if err != nil {
		t.Fatalf("ListByArray: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected fragment removed, got %v", recs)
	}
}
