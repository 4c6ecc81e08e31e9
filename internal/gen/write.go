package gen

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// WriteResult reports what Write did with one artifact.
type WriteResult struct {
	Path    string
	Changed bool
}

// Write stores artifacts under dir. Every file is staged next to its
// destination first and only renamed into place once all of them were staged.
// If a rename fails, the files already renamed are restored to their previous
// content, or removed when they did not exist, so a failed Write leaves the
// previous outputs in place. Files whose content is unchanged are not
// rewritten.
func Write(dir string, artifacts []Artifact) ([]WriteResult, error) {
	type staged struct {
		tmp, dest string
		previous  []byte
		existed   bool
	}

	var pending []staged
	cleanup := func() {
		for _, s := range pending {
			_ = os.Remove(s.tmp)
		}
	}

	results := make([]WriteResult, 0, len(artifacts))
	for _, a := range artifacts {
		dest := filepath.Join(dir, filepath.FromSlash(a.Path))

		old, err := os.ReadFile(dest) //nolint:gosec // G304: dest is under the output directory
		existed := err == nil
		if existed && bytes.Equal(old, a.Content) {
			results = append(results, WriteResult{Path: dest})
			continue
		}

		if err := os.MkdirAll(filepath.Dir(dest), 0750); err != nil {
			cleanup()
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
		tmp, err := stage(dest, a.Content)
		if err != nil {
			cleanup()
			return nil, err
		}
		pending = append(pending, staged{tmp: tmp, dest: dest, previous: old, existed: existed})
		results = append(results, WriteResult{Path: dest, Changed: true})
	}

	for i, s := range pending {
		if err := os.Rename(s.tmp, s.dest); err != nil {
			var rollbackErr error
			for _, done := range pending[:i] {
				rollbackErr = errors.Join(rollbackErr, restore(done.dest, done.previous, done.existed))
			}
			pending = pending[i:]
			cleanup()
			err = fmt.Errorf("failed to write %s: %w", s.dest, err)
			if rollbackErr != nil {
				return nil, errors.Join(err, fmt.Errorf("failed to restore previous outputs: %w", rollbackErr))
			}
			return nil, err
		}
	}
	return results, nil
}

// restore puts previous back at dest, or removes dest when it did not exist.
func restore(dest string, previous []byte, existed bool) error {
	if !existed {
		if err := os.Remove(dest); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		return nil
	}
	tmp, err := stage(dest, previous)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, dest); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func stage(dest string, content []byte) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*")
	if err != nil {
		return "", fmt.Errorf("failed to stage %s: %w", dest, err)
	}
	if _, err := f.Write(content); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage %s: %w", dest, err)
	}
	if err := f.Chmod(0644); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage %s: %w", dest, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return "", fmt.Errorf("failed to stage %s: %w", dest, err)
	}
	return f.Name(), nil
}
