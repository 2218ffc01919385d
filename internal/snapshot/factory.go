package snapshot

import (
	"fmt"
	"strings"
)

// BuildBackendFromDSN selects a backend by DSN scheme: a bare path or
// file://, memory://, sqlite:// and postgres://. Paths after file:// and
// sqlite:// are taken verbatim, so '#' and '%' need no escaping.
func BuildBackendFromDSN(dsn string) (Backend, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("%w: empty snapshot dsn", ErrInvalidSnapshot)
	}
	rawScheme, rest, hasScheme := strings.Cut(dsn, "://")
	if !hasScheme {
		return NewJSONFileBackend(dsn), nil
	}
	scheme := normalizeScheme(rawScheme)
	if factory, ok := lookupBackendFactory(scheme); ok {
		return factory(dsn)
	}
	switch scheme {
	case "file":
		path, err := dsnPath(rest, dsn)
		if err != nil {
			return nil, err
		}
		return NewJSONFileBackend(path), nil
	case "memory", "mem", "inmem":
		return NewMemoryBackend(), nil
	case "sqlite", "sqlite3":
		path, err := dsnPath(rest, dsn)
		if err != nil {
			return nil, err
		}
		return NewSQLiteBackend(path)
	case "postgres", "postgresql":
		return NewPostgresBackend(dsn)
	default:
		return nil, fmt.Errorf("unsupported snapshot backend scheme: %s", scheme)
	}
}

func dsnPath(rest, raw string) (string, error) {
	path := strings.TrimSpace(rest)
	if path == "" {
		return "", fmt.Errorf("%w: dsn %q has no path", ErrInvalidSnapshot, raw)
	}
	return path, nil
}
