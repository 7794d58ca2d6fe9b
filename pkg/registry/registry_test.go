package registry

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	reg, err := NewRegistry(filepath.Join(t.TempDir(), "data"))
	if err != nil {
		t.Fatalf("Failed to create registry: %v", err)
	}
	t.Cleanup(func() { reg.Close() })
	return reg
}

func TestNewRegistry(t *testing.T) {
	reg := newTestRegistry(t)

	dbFile := filepath.Join(reg.DataDir(), "campus.db")
	if _, err := os.Stat(dbFile); os.IsNotExist(err) {
		t.Error("Expected database file to be created")
	}
}

func TestSessionRoundTrip(t *testing.T) {
	reg := newTestRegistry(t)

	s, err := reg.LastSession()
	if err != nil {
		t.Fatalf("Failed to read session: %v", err)
	}
	if s != nil {
		t.Fatalf("Expected no session, got %+v", s)
	}

	if err := reg.SaveSession("https://portal.example/", "emuster", "tok-1"); err != nil {
		t.Fatalf("Failed to save session: %v", err)
	}
	if err := reg.SaveSession("https://portal.example/", "emuster", "tok-2"); err != nil {
		t.Fatalf("Failed to replace session: %v", err)
	}

	s, err = reg.LastSession()
	if err != nil {
		t.Fatalf("Failed to read session: %v", err)
	}
	if s == nil || s.Token != "tok-2" || s.Username != "emuster" {
		t.Errorf("Expected replaced session, got %+v", s)
	}

	if err := reg.ClearSession(); err != nil {
		t.Fatalf("Failed to clear session: %v", err)
	}
	s, _ = reg.LastSession()
	if s == nil || s.Token != "" || s.Host != "https://portal.example/" {
		t.Errorf("Expected host kept and token cleared, got %+v", s)
	}

	if err := reg.SaveSession("", "x", "y"); err == nil {
		t.Error("Expected error for session without host")
	}
}

func TestSyncTargets(t *testing.T) {
	reg := newTestRegistry(t)
	base := t.TempDir()

	if err := reg.SetSyncTarget("c1", "Analysis", filepath.Join(base, "analysis")); err != nil {
		t.Fatalf("Failed to set target: %v", err)
	}
	if err := reg.SetSyncTarget("c2", "Lineare Algebra", filepath.Join(base, "la")); err != nil {
		t.Fatalf("Failed to set target: %v", err)
	}
	if err := reg.SetSyncTarget("c3", "Relativ", "relative/path"); err == nil {
		t.Error("Expected error for relative path")
	}

	synced := time.Date(2024, time.April, 3, 12, 0, 0, 0, time.UTC)
	if err := reg.MarkSynced("c2", synced); err != nil {
		t.Fatalf("Failed to mark synced: %v", err)
	}
	if err := reg.MarkSynced("unknown", synced); err == nil {
		t.Error("Expected error for unknown target")
	}

	targets, err := reg.ListSyncTargets()
	if err != nil {
		t.Fatalf("Failed to list targets: %v", err)
	}
	if len(targets) != 2 {
		t.Fatalf("Expected 2 targets, got %d", len(targets))
	}
	if targets[0].CourseID != "c2" || targets[0].LastSynced == nil {
		t.Errorf("Expected synced target first, got %+v", targets[0])
	}
	if !targets[0].LastSynced.Equal(synced) {
		t.Errorf("Expected last synced %v, got %v", synced, targets[0].LastSynced)
	}

	// Moving a target keeps its history.
	if err := reg.SetSyncTarget("c2", "Lineare Algebra", filepath.Join(base, "moved")); err != nil {
		t.Fatalf("Failed to move target: %v", err)
	}
	target, err := reg.SyncTarget("c2")
	if err != nil || target == nil {
		t.Fatalf("Failed to get target: %v", err)
	}
	if target.Path != filepath.Join(base, "moved") || target.LastSynced == nil {
		t.Errorf("Expected moved target with history, got %+v", target)
	}

	if err := reg.RemoveSyncTarget("c1"); err != nil {
		t.Fatalf("Failed to remove target: %v", err)
	}
	target, err = reg.SyncTarget("c1")
	if err != nil {
		t.Fatalf("Failed to get removed target: %v", err)
	}
	if target != nil {
		t.Errorf("Expected removed target to be gone, got %+v", target)
	}
}
