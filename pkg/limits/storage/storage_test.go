package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"unblock-hq/corsair/pkg/limits/ratelimit"
)

// backendTest exercises the Backend contract against any implementation.
func backendTest(t *testing.T, b Backend) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().Truncate(time.Millisecond)

	state := ratelimit.State{
		Key:                "user-1",
		WindowStart:        now,
		Count:              7,
		Limited:            true,
		ConsecutiveWindows: 2,
	}

	if err := b.Save(ctx, "proxy", state); err != nil {
		t.Fatalf("Save: %v", err)
	}

	loaded, ok, err := b.Load(ctx, "proxy", "user-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load: state not found")
	}
	if loaded.Count != 7 || !loaded.Limited || loaded.ConsecutiveWindows != 2 {
		t.Errorf("loaded state mismatch: %+v", loaded)
	}
	if !loaded.WindowStart.Equal(state.WindowStart) {
		t.Errorf("window start mismatch: %v != %v", loaded.WindowStart, state.WindowStart)
	}

	// Scopes are isolated.
	if _, ok, _ := b.Load(ctx, "chat", "user-1"); ok {
		t.Error("scope isolation violated")
	}

	// Upsert overwrites.
	state.Count = 9
	if err := b.Save(ctx, "proxy", state); err != nil {
		t.Fatalf("Save (update): %v", err)
	}
	loaded, _, _ = b.Load(ctx, "proxy", "user-1")
	if loaded.Count != 9 {
		t.Errorf("update not applied: count = %d", loaded.Count)
	}

	// List sees the entry.
	states, err := b.List(ctx, "proxy")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(states) != 1 {
		t.Errorf("List returned %d states, want 1", len(states))
	}

	// Cleanup removes stale windows.
	stale := ratelimit.State{Key: "user-2", WindowStart: now.Add(-time.Hour), Count: 1}
	if err := b.Save(ctx, "proxy", stale); err != nil {
		t.Fatalf("Save (stale): %v", err)
	}
	deleted, err := b.Cleanup(ctx, now.Add(-10*time.Minute))
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if deleted != 1 {
		t.Errorf("Cleanup deleted %d, want 1", deleted)
	}
	if _, ok, _ := b.Load(ctx, "proxy", "user-2"); ok {
		t.Error("stale entry survived cleanup")
	}

	// Delete removes by key.
	if err := b.Delete(ctx, "proxy", "user-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := b.Load(ctx, "proxy", "user-1"); ok {
		t.Error("entry survived delete")
	}
}

func TestMemoryBackend(t *testing.T) {
	b := NewMemoryBackend()
	defer b.Close()
	backendTest(t, b)
}

func TestSQLiteBackend(t *testing.T) {
	b, err := NewSQLiteBackend(filepath.Join(t.TempDir(), "limits.db"))
	if err != nil {
		t.Fatalf("NewSQLiteBackend: %v", err)
	}
	defer b.Close()
	backendTest(t, b)
}

func TestSQLiteBackend_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.db")
	ctx := context.Background()

	b, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	state := ratelimit.State{Key: "u1", WindowStart: time.Now(), Count: 3, ConsecutiveWindows: 5}
	if err := b.Save(ctx, "chat", state); err != nil {
		t.Fatal(err)
	}
	b.Close()

	// Escalation state survives a restart.
	b2, err := NewSQLiteBackend(path)
	if err != nil {
		t.Fatal(err)
	}
	defer b2.Close()

	loaded, ok, err := b2.Load(ctx, "chat", "u1")
	if err != nil || !ok {
		t.Fatalf("Load after reopen: ok=%v err=%v", ok, err)
	}
	if loaded.ConsecutiveWindows != 5 {
		t.Errorf("ConsecutiveWindows = %d, want 5", loaded.ConsecutiveWindows)
	}
}
