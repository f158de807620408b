package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// Local is a filesystem-backed Store rooted at a data directory. Objects are
// served back through the API under baseURL, so re-hosted chapter resources
// resolve without knowing the storage layout.
type Local struct {
	root    string
	baseURL string
}

func NewLocal(root, baseURL string) (*Local, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, errors.Wrapf(err, "failed to create blob root: %s", root)
	}
	return &Local{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// fullPath maps a blob key to a filesystem path, refusing keys that would
// escape the root.
func (l *Local) fullPath(path string) (string, error) {
	clean := filepath.Clean("/" + filepath.FromSlash(path))
	full := filepath.Join(l.root, clean)
	if !strings.HasPrefix(full, l.root) {
		return "", errors.Errorf("blob path escapes root: %s", path)
	}
	return full, nil
}

func (l *Local) Get(_ context.Context, path string) ([]byte, error) {
	full, err := l.fullPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

func (l *Local) Put(_ context.Context, path string, data []byte, _ string) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return errors.WithStack(err)
	}

	// Write to a temp name then rename so readers never observe a partial
	// object.
	tmp := full + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.WithStack(err)
	}
	if err := os.Rename(tmp, full); err != nil {
		_ = os.Remove(tmp)
		return errors.WithStack(err)
	}
	return nil
}

func (l *Local) Delete(_ context.Context, path string) error {
	full, err := l.fullPath(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return errors.WithStack(err)
	}
	return nil
}

func (l *Local) DeletePrefix(_ context.Context, prefix string) error {
	full, err := l.fullPath(prefix)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(full); err != nil {
		return errors.WithStack(err)
	}
	return nil
}

func (l *Local) URL(path string) string {
	return l.baseURL + "/" + strings.TrimPrefix(path, "/")
}
