// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package state

import (
	"context"
	"fmt"
	"os"

	"go.astrophena.name/incidentbot/internal/atomicio"
	"go.astrophena.name/incidentbot/internal/filelock"
)

// File keeps the state in a local file. The file holds exactly the stored
// value, without a trailing newline.
type File struct {
	path string
}

// OpenFile returns a File store at path, creating an empty file if it
// doesn't exist yet. Existing contents are left untouched.
func OpenFile(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	return &File{path: path}, nil
}

// Load implements [Store].
func (f *File) Load(ctx context.Context) (string, error) {
	b, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Save implements [Store].
func (f *File) Save(ctx context.Context, value string) error {
	return atomicio.WriteFile(f.path, []byte(value), 0o644)
}

// Close implements [Store].
func (f *File) Close() error { return nil }

// Lock implements [Locker] with an flock(2) on a file next to the state.
func (f *File) Lock() (filelock.Lock, error) {
	return filelock.Acquire(f.path+".lock", fmt.Sprintf("pid=%d\n", os.Getpid()))
}

var (
	_ Store  = (*File)(nil)
	_ Locker = (*File)(nil)
)
