// Package artifact turns model references from the environment into local files and keeps
// hot reloaded models in sync with the object store.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"lambda-ml/internal/storage"

	"github.com/google/uuid"
)

var ErrArtifactNotFound = errors.New("artifact not found")

// Resolve returns a local path for ref. Plain paths must already exist; s3://bucket/key
// references are downloaded into a fresh directory under tmpDir, keeping the object's base
// name so extension based loaders still work.
func Resolve(ctx context.Context, store storage.Provider, ref, tmpDir string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: empty reference", ErrArtifactNotFound)
	}

	if !storage.IsS3Path(ref) {
		if _, err := os.Stat(ref); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrArtifactNotFound, ref)
			}
			return "", fmt.Errorf("error checking artifact %s: %w", ref, err)
		}
		return ref, nil
	}

	if store == nil {
		return "", fmt.Errorf("no object store configured to resolve %s", ref)
	}

	bucket, key, err := storage.ParseS3Path(ref)
	if err != nil {
		return "", err
	}

	local := filepath.Join(tmpDir, uuid.NewString(), path.Base(key))
	if err := store.DownloadObject(ctx, bucket, key, local); err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return "", fmt.Errorf("%w: %s: %w", ErrArtifactNotFound, ref, err)
		}
		return "", fmt.Errorf("error downloading artifact %s: %w", ref, err)
	}

	slog.Info("artifact downloaded", "ref", ref, "path", local)
	return local, nil
}

// ResolveOptional is Resolve for references that may be left unset.
func ResolveOptional(ctx context.Context, store storage.Provider, ref, tmpDir string) (string, error) {
	if ref == "" {
		return "", nil
	}
	return Resolve(ctx, store, ref, tmpDir)
}
