// © 2024 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package testutil contains common testing helpers.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"golang.org/x/tools/txtar"
)

// UnmarshalJSON parses the JSON data into v, failing the test in case of failure.
func UnmarshalJSON[V any](t *testing.T, b []byte) V {
	t.Helper()
	var v V
	if err := json.Unmarshal(b, &v); err != nil {
		t.Fatal(err)
	}
	return v
}

// AssertEqual compares two values and if they differ, fails the test and
// prints the difference between them.
func AssertEqual(t *testing.T, got, want any, opts ...cmp.Option) {
	t.Helper()
	if diff := cmp.Diff(got, want, opts...); diff != "" {
		t.Fatalf("(-got +want):\n%s", diff)
	}
}

// ReadFile reads the named file, failing the test in case of failure.
func ReadFile(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(name)
	if err != nil {
		t.Fatal(err)
	}
	return b
}

// Run runs a subtest for each file matching the provided glob pattern.
func Run(t *testing.T, glob string, f func(t *testing.T, match string)) {
	matches, err := filepath.Glob(glob)
	if err != nil {
		t.Fatalf("filepath.Glob(%q): %v", glob, err)
	}
	if len(matches) == 0 {
		t.Fatalf("no files match %q", glob)
	}

	for _, match := range matches {
		name := strings.TrimSuffix(filepath.Base(match), filepath.Ext(match))
		t.Run(name, func(t *testing.T) {
			f(t, match)
		})
	}
}

// Archive is a parsed txtar archive with files indexed by name.
type Archive struct {
	Comment string
	Files   map[string][]byte
}

// ParseTxtar reads and parses the txtar archive at path.
func ParseTxtar(t *testing.T, path string) *Archive {
	t.Helper()
	ar := txtar.Parse(ReadFile(t, path))
	a := &Archive{
		Comment: string(ar.Comment),
		Files:   make(map[string][]byte, len(ar.Files)),
	}
	for _, f := range ar.Files {
		a.Files[f.Name] = f.Data
	}
	return a
}

// Has reports whether the archive contains a file called name.
func (a *Archive) Has(name string) bool {
	_, ok := a.Files[name]
	return ok
}

// Line returns the contents of file name with a single trailing newline
// removed. txtar always terminates files with a newline, so this is how
// single-line values are stored.
func (a *Archive) Line(name string) string {
	return strings.TrimSuffix(string(a.Files[name]), "\n")
}
