// Package blobstore keeps uploaded files, such as voice notes recorded
// during a showing, and hands back the public URL they are served from.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrExists is returned when an object already exists at the path.
var ErrExists = errors.New("object already exists")

// Store writes objects and returns their public URL.
type Store interface {
	Upload(ctx context.Context, objectPath string, data []byte) (string, error)
	// Stored reports whether link is the URL of an existing object whose
	// path starts with prefix.
	Stored(link, prefix string) bool
}

// FS stores objects under a directory on local disk.
type FS struct {
	root    string
	baseURL string
}

// NewFS creates root if needed. baseURL is where the web server serves
// root from, for example http://localhost:8080/blobs.
func NewFS(root, baseURL string) (*FS, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("creating blob directory %s: %w", root, err)
	}
	return &FS{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root is the directory objects are written under.
func (f *FS) Root() string {
	return f.root
}

// Upload writes data at objectPath. Existing objects are never replaced.
func (f *FS) Upload(ctx context.Context, objectPath string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	clean, err := cleanPath(objectPath)
	if err != nil {
		return "", err
	}

	full := filepath.Join(f.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("creating object directory: %w", err)
	}

	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("%s: %w", clean, ErrExists)
	}
	if err != nil {
		return "", fmt.Errorf("creating object %s: %w", clean, err)
	}
	if _, err := file.Write(data); err != nil {
		_ = file.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("writing object %s: %w", clean, err)
	}
	if err := file.Close(); err != nil {
		return "", fmt.Errorf("closing object %s: %w", clean, err)
	}

	return f.baseURL + "/" + clean, nil
}

// Stored reports whether link was handed out by Upload for an object under
// prefix that is still on disk.
func (f *FS) Stored(link, prefix string) bool {
	rest, ok := strings.CutPrefix(link, f.baseURL+"/")
	if !ok {
		return false
	}
	clean, err := cleanPath(rest)
	if err != nil || clean != rest || !strings.HasPrefix(clean, prefix) {
		return false
	}
	info, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(clean)))
	return err == nil && info.Mode().IsRegular()
}

// cleanPath rejects absolute paths and paths that climb out of the root.
func cleanPath(p string) (string, error) {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	clean := path.Clean(p)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("invalid object path %q", p)
	}
	return clean, nil
}

// VoiceNotePrefix is the path every voice note is stored under.
const VoiceNotePrefix = "voice-notes/"

// VoiceNotePath names a new voice note recording.
func VoiceNotePath(now time.Time) string {
	return fmt.Sprintf(VoiceNotePrefix+"%d-%s.webm", now.UnixMilli(), uuid.NewString()[:8])
}
