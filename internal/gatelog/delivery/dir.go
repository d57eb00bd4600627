package delivery

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Dir writes artifacts into a directory.  Every file is written under a
// temporary name and renamed into place, so a failed write never leaves a
// partial artifact under its final name.  Existing files are never
// overwritten: a retried export gets "-1", "-2", ... suffixes instead.
type Dir struct {
	path string
}

func NewDir(path string) (*Dir, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("export dir is required")
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir export dir: %w", err)
	}
	return &Dir{path: path}, nil
}

func (d *Dir) Path() string { return d.path }

func (d *Dir) Deliver(ctx context.Context, a Artifact) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ValidName(a.Name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, a.Name)
	}

	tmp, err := os.CreateTemp(d.path, ".partial-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", a.Name, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(a.Content); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("write %s: %w", a.Name, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return fmt.Errorf("sync %s: %w", a.Name, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close %s: %w", a.Name, err)
	}

	final, err := d.freeName(a.Name)
	if err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, final); err != nil {
		cleanup()
		return fmt.Errorf("rename %s: %w", a.Name, err)
	}
	return nil
}

func (d *Dir) freeName(name string) (string, error) {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(d.path, name)
	for i := 1; ; i++ {
		_, err := os.Lstat(candidate)
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", candidate, err)
		}
		if i > 999 {
			return "", fmt.Errorf("no free name for %s", name)
		}
		candidate = filepath.Join(d.path, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
}
