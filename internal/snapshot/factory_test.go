package snapshot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuildBackendFromDSNMemory(t *testing.T) {
	backend, err := BuildBackendFromDSN("memory://")
	if err != nil {
		t.Fatalf("build backend failed: %v", err)
	}
	if _, ok := backend.(*MemoryBackend); !ok {
		t.Fatalf("expected *MemoryBackend, got %T", backend)
	}
}

func TestBuildBackendFromDSNFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.json")
	for _, dsn := range []string{"file://" + path, path} {
		backend, err := BuildBackendFromDSN(dsn)
		if err != nil {
			t.Fatalf("build backend for %q failed: %v", dsn, err)
		}
		fileBackend, ok := backend.(*JSONFileBackend)
		if !ok {
			t.Fatalf("expected *JSONFileBackend for %q, got %T", dsn, backend)
		}
		if fileBackend.Path != path {
			t.Fatalf("expected path %q, got %q", path, fileBackend.Path)
		}
	}
}

func TestBuildBackendFromDSNSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshot.db")
	backend, err := BuildBackendFromDSN("sqlite://" + path)
	if err != nil {
		t.Fatalf("build backend failed: %v", err)
	}
	sqliteBackend, ok := backend.(*SQLiteBackend)
	if !ok {
		t.Fatalf("expected *SQLiteBackend, got %T", backend)
	}
	if sqliteBackend.path != path {
		t.Fatalf("expected path %q, got %q", path, sqliteBackend.path)
	}
}

func TestBuildBackendFromDSNPostgresAndUnsupported(t *testing.T) {
	backend, err := BuildBackendFromDSN("postgres://localhost/notecheck?sslmode=disable")
	if err != nil {
		t.Fatalf("expected postgres backend to be available, got %v", err)
	}
	if _, ok := backend.(*PostgresBackend); !ok {
		t.Fatalf("expected *PostgresBackend, got %T", backend)
	}
	for _, dsn := range []string{"mysql://localhost/notecheck", "ftp://example.com/snapshot"} {
		if _, err := BuildBackendFromDSN(dsn); err == nil {
			t.Fatalf("expected unsupported scheme error for %q", dsn)
		}
	}
	if _, err := BuildBackendFromDSN("  "); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected empty dsn error, got %v", err)
	}
	if _, err := BuildBackendFromDSN("file://"); !errors.Is(err, ErrInvalidSnapshot) {
		t.Fatalf("expected missing path error, got %v", err)
	}
}

func TestBuildBackendFromDSNKeepsReservedPathCharacters(t *testing.T) {
	root := t.TempDir()
	for _, dir := range []string{"team#1", "50%off", "a b?c"} {
		path := filepath.Join(root, dir, "notecheck", "notes-snapshot.json")
		for _, dsn := range []string{path, "file://" + path} {
			backend, err := BuildBackendFromDSN(dsn)
			if err != nil {
				t.Fatalf("build backend for %q failed: %v", dsn, err)
			}
			fileBackend, ok := backend.(*JSONFileBackend)
			if !ok {
				t.Fatalf("expected *JSONFileBackend for %q, got %T", dsn, backend)
			}
			if fileBackend.Path != path {
				t.Fatalf("expected path %q, got %q", path, fileBackend.Path)
			}
			if err := backend.Save(sampleSnapshot()); err != nil {
				t.Fatalf("save to %q failed: %v", path, err)
			}
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("expected snapshot at %q: %v", path, err)
			}
		}
	}
	backend, err := BuildBackendFromDSN("sqlite://" + filepath.Join(root, "50%off#2", "snapshot.db"))
	if err != nil {
		t.Fatalf("build sqlite backend failed: %v", err)
	}
	if got := backend.(*SQLiteBackend).path; got != filepath.Join(root, "50%off#2", "snapshot.db") {
		t.Fatalf("unexpected sqlite path %q", got)
	}
}

func TestRegisterBackendFactoryOverridesScheme(t *testing.T) {
	custom := NewMemoryBackend()
	RegisterBackendFactory("Custom-Test", func(dsn string) (Backend, error) {
		return custom, nil
	})
	backend, err := BuildBackendFromDSN("custom-test://anything")
	if err != nil {
		t.Fatalf("build backend failed: %v", err)
	}
	if backend != Backend(custom) {
		t.Fatalf("expected registered factory result, got %T", backend)
	}
}
