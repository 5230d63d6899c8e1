package adapters

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/modaretail/backend/internal/infrastructure/storage"
)

// fileLocator resolves the newest feed file for a file-based integration,
// from a local drop directory or an object storage bucket.
type fileLocator struct {
	store storage.ObjectStorage
}

// openLatest finds the newest file matching the glob pattern and opens it.
// Returns the reader and the file's name for logging.
func (l fileLocator) openLatest(ctx context.Context, source, dir, bucket, pattern string) (io.ReadCloser, string, error) {
	switch source {
	case "local":
		return l.openLatestLocal(dir, pattern)
	case "s3":
		return l.openLatestObject(ctx, dir, bucket, pattern)
	default:
		return nil, "", fmt.Errorf("unsupported file source %q", source)
	}
}

func (l fileLocator) openLatestLocal(dir, pattern string) (io.ReadCloser, string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, "", fmt.Errorf("cannot read drop directory %q: %w", dir, err)
	}

	var newest string
	var newestTime time.Time
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		matched, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return nil, "", fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
		if !matched {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if newest == "" || info.ModTime().After(newestTime) {
			newest = entry.Name()
			newestTime = info.ModTime()
		}
	}
	if newest == "" {
		return nil, "", fmt.Errorf("no file matching %q in %q", pattern, dir)
	}

	f, err := os.Open(filepath.Join(dir, newest))
	if err != nil {
		return nil, "", fmt.Errorf("cannot open feed file %q: %w", newest, err)
	}
	return f, newest, nil
}

func (l fileLocator) openLatestObject(ctx context.Context, prefix, bucket, pattern string) (io.ReadCloser, string, error) {
	if l.store == nil {
		return nil, "", fmt.Errorf("object storage is not configured")
	}

	objects, err := l.store.List(ctx, bucket, prefix)
	if err != nil {
		return nil, "", fmt.Errorf("cannot list bucket %q: %w", bucket, err)
	}

	var newest string
	var newestTime time.Time
	for _, obj := range objects {
		matched, err := filepath.Match(pattern, path.Base(obj.Key))
		if err != nil {
			return nil, "", fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
		if !matched {
			continue
		}
		if newest == "" || obj.LastModified.After(newestTime) {
			newest = obj.Key
			newestTime = obj.LastModified
		}
	}
	if newest == "" {
		return nil, "", fmt.Errorf("no object matching %q under %q", pattern, prefix)
	}

	r, err := l.store.Get(ctx, bucket, newest)
	if err != nil {
		return nil, "", fmt.Errorf("cannot open object %q: %w", newest, err)
	}
	return r, newest, nil
}
