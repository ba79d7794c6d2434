// Package capture acquires image bytes for registration, either from a
// device camera driven by an external capture command or from files on
// disk when no camera is available.
package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/dengarop/herdbook/internal/imaging"
)

// ErrCameraUnavailable means the capture command is missing or failed to
// produce an image. Callers fall back to file input and must not treat a
// dead registration as the outcome.
var ErrCameraUnavailable = errors.New("camera unavailable")

// Source produces one image per call.
type Source interface {
	Capture(ctx context.Context) ([]byte, error)
}

// FileSource reads images from explicit paths, consumed in order.
type FileSource struct {
	Paths []string
	next  int
}

// Capture reads the next path and screens it before returning.
func (s *FileSource) Capture(ctx context.Context) ([]byte, error) {
	if s.next >= len(s.Paths) {
		return nil, fmt.Errorf("no more image files: %d consumed", s.next)
	}
	path := s.Paths[s.next]
	s.next++

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading image %s: %w", path, err)
	}
	if err := imaging.Screen(data); err != nil {
		return nil, fmt.Errorf("image %s: %w", path, err)
	}
	return data, nil
}

// CommandSource shells out to an external capture command. The command is
// invoked with a temporary output path as its final argument and must
// write one image there.
type CommandSource struct {
	Command string
	Args    []string
}

// Capture runs the capture command once. Any failure to produce a usable
// image maps to ErrCameraUnavailable so callers can offer file input
// instead.
func (s *CommandSource) Capture(ctx context.Context) ([]byte, error) {
	if s.Command == "" {
		return nil, ErrCameraUnavailable
	}
	if _, err := exec.LookPath(s.Command); err != nil {
		return nil, fmt.Errorf("%w: %s not found", ErrCameraUnavailable, s.Command)
	}

	dir, err := os.MkdirTemp("", "herdbook-capture-")
	if err != nil {
		return nil, fmt.Errorf("creating capture dir: %w", err)
	}
	defer os.RemoveAll(dir)

	out := filepath.Join(dir, "frame.jpg")
	args := append(append([]string{}, s.Args...), out)
	cmd := exec.CommandContext(ctx, s.Command, args...)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCameraUnavailable, s.Command, err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		return nil, fmt.Errorf("%w: no frame written", ErrCameraUnavailable)
	}
	if err := imaging.Screen(data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCameraUnavailable, err)
	}
	return data, nil
}
