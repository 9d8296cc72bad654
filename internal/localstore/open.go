package localstore

import (
	"context"
	"fmt"
	"io"
)

// Open builds the Storage named by driver ("memory", "file" or "sqlite").
// The returned closer releases the backend and is never nil.
func Open(ctx context.Context, driver, path string) (Storage, io.Closer, error) {
	switch driver {
	case "memory":
		return NewMemory(), nopCloser{}, nil
	case "file":
		f, err := OpenFile(path)
		if err != nil {
			return nil, nil, err
		}
		return f, nopCloser{}, nil
	case "sqlite", "":
		s, err := OpenSQLite(ctx, path)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("localstore: unknown driver %q", driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
