// Package artifact resolves and inspects camera-uploaded files on the
// shared filesystem, per spec.md §6's layout:
//
//	{camera}/pictures/{event}_{ts}_a.jpg
//	{camera}/pictures/{event}_{ts}_b.jpg
//	{camera}/thumbs/{event}_{ts}_thumb.jpg
//	{camera}/videos/{event}_{ts}_video.h264
//	{camera}/videos/{event}_{ts}_video.mp4
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Store resolves relative artifact paths against a configured root.
type Store struct {
	Root string
}

func New(root string) *Store {
	return &Store{Root: root}
}

// Resolve turns a relative path stored in the database into an
// absolute filesystem path, rejecting anything that would escape the
// root (the Validation Layer already rejects these on the way in;
// this is the second line of defense at the point of actual I/O).
func (s *Store) Resolve(relPath string) (string, error) {
	if relPath == "" {
		return "", fmt.Errorf("empty artifact path")
	}
	clean := filepath.Clean(relPath)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		return "", fmt.Errorf("artifact path escapes root: %q", relPath)
	}
	return filepath.Join(s.Root, clean), nil
}

// CameraDirs returns the three per-camera directories a worker or
// uploader needs ready before it writes anything.
func (s *Store) CameraDirs(camera string) (pictures, thumbs, videos string) {
	base := filepath.Join(s.Root, camera)
	return filepath.Join(base, "pictures"), filepath.Join(base, "thumbs"), filepath.Join(base, "videos")
}

// EnsureCameraDirs creates the per-camera directory tree if it does
// not already exist; spec.md §6 requires directories to pre-exist, so
// this is called once at camera registration time, not per-event.
func (s *Store) EnsureCameraDirs(camera string) error {
	pictures, thumbs, videos := s.CameraDirs(camera)
	for _, dir := range []string{pictures, thumbs, videos} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("ensure artifact dir %q: %w", dir, err)
		}
	}
	return nil
}

// Info describes what a worker's "guard" step (spec.md §4.5 step 2)
// needs to know about a claimed artifact before touching it.
type Info struct {
	AbsPath string
	Size    int64
	Age     time.Duration
}

// Stat resolves relPath and stats it, returning an error if the path
// escapes the root, the file is missing or unreadable, or it is a
// directory. An empty file is not an error; it reports Size 0.
func (s *Store) Stat(relPath string) (Info, error) {
	abs, err := s.Resolve(relPath)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Info{}, fmt.Errorf("stat artifact %q: %w", relPath, err)
	}
	if fi.IsDir() {
		return Info{}, fmt.Errorf("artifact %q is a directory", relPath)
	}
	return Info{
		AbsPath: abs,
		Size:    fi.Size(),
		Age:     time.Since(fi.ModTime()),
	}, nil
}

// Quiescent reports whether the file is non-empty and has been stable
// on disk for at least minAge, avoiding a race with a still-writing uploader
// (spec.md §4.5 step 2, the "quiescence window").
func (info Info) Quiescent(minAge time.Duration) bool {
	return info.Size > 0 && info.Age >= minAge
}

// DerivedPath swaps a file's extension, used to go from an H.264
// source path to its MP4 sibling (spec.md §4.5.1: "derived... by
// extension change").
func DerivedPath(relPath, newExt string) string {
	ext := filepath.Ext(relPath)
	return strings.TrimSuffix(relPath, ext) + newExt
}

// Remove deletes the file at relPath, used by the Conversion Worker's
// post-commit cleanup of the H.264 source (spec.md §4.5.1).
func (s *Store) Remove(relPath string) error {
	abs, err := s.Resolve(relPath)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove artifact %q: %w", relPath, err)
	}
	return nil
}

// Writable reports whether abs can be opened for writing, used to
// decide whether a produced MP4 is safe to treat as the committed
// output before deleting its H.264 source.
func Writable(abs string) bool {
	f, err := os.OpenFile(abs, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	_ = f.Close()
	return true
}
