// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package bottest runs bot commands against fake upstreams and a fake
// Mastodon server.
package bottest

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"go.astrophena.name/incidentbot/internal/bot"
	"go.astrophena.name/incidentbot/internal/cli"
	"go.astrophena.name/incidentbot/internal/testutil"
	"go.astrophena.name/incidentbot/internal/util/syncx"
)

// Fake endpoints and credentials.
const (
	UpstreamURL = "https://status.example.com/upstream"
	MastodonURL = "https://social.example"
	Token       = "s3cr3t-t0ken"

	getUpstream  = "GET status.example.com/upstream"
	postStatuses = "POST social.example/api/v1/statuses"
)

// Post is a status received by the fake Mastodon server.
type Post struct {
	Status     string
	Visibility string
}

func (p Post) String() string { return p.Visibility + " " + p.Status }

// Mux serves the fake upstream and Mastodon endpoints.
type Mux struct {
	mux   *http.ServeMux
	posts *syncx.Protected[[]Post]
}

// NewMux returns a Mux serving upstream at [UpstreamURL] with the given
// status code. A zero code means 200. Mastodon answers posts with
// mastodonCode, or accepts them if it's zero.
func NewMux(t *testing.T, upstream []byte, upstreamCode, mastodonCode int) *Mux {
	m := &Mux{mux: http.NewServeMux(), posts: syncx.Protect[[]Post](nil)}
	m.mux.HandleFunc(getUpstream, func(w http.ResponseWriter, r *http.Request) {
		if upstreamCode != 0 && upstreamCode != http.StatusOK {
			http.Error(w, http.StatusText(upstreamCode), upstreamCode)
			return
		}
		w.Write(upstream)
	})
	m.mux.HandleFunc(postStatuses, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+Token {
			http.Error(w, `{"error":"The access token is invalid"}`, http.StatusUnauthorized)
			return
		}
		if mastodonCode != 0 && mastodonCode != http.StatusOK {
			http.Error(w, `{"error":"Validation failed"}`, mastodonCode)
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("parsing form: %v", err)
		}
		var id int
		m.posts.Access(func(posts []Post) []Post {
			posts = append(posts, Post{
				Status:     r.PostForm.Get("status"),
				Visibility: r.PostForm.Get("visibility"),
			})
			id = len(posts)
			return posts
		})

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"` + strconv.Itoa(id) + `","url":"` + MastodonURL + `/@status/` + strconv.Itoa(id) + `"}`))
	})
	return m
}

// Client returns an HTTP client that sends all requests to m.
func (m *Mux) Client() *http.Client {
	return &http.Client{
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			w := httptest.NewRecorder()
			m.mux.ServeHTTP(w, r)
			return w.Result(), nil
		}),
	}
}

// Posts returns statuses posted so far.
func (m *Mux) Posts() []Post {
	var posts []Post
	m.posts.RAccess(func(p []Post) {
		posts = append(posts, p...)
	})
	return posts
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Env returns environment variables that point a bot of variant v at the
// fake servers and keep its state in dir.
func Env(v bot.Variant, dir string) map[string]string {
	return map[string]string{
		strings.ToUpper(v.URLKey): UpstreamURL,
		"MASTODON_URL":            MastodonURL,
		"MASTODON_TOKEN":          Token,
		"STATE_FILE":              StateFile(v, dir),
	}
}

// StateFile returns the path of the state file used by [Env].
func StateFile(v bot.Variant, dir string) string {
	return filepath.Join(dir, v.Name+".state")
}

// RunScenarios runs a bot of variant v for each txtar archive matching glob.
//
// An archive holds the upstream payload in a file called "upstream". Other
// optional files are:
//
//   - dir/<name>: written to <name> in the temporary directory;
//   - args: command-line arguments, one per line; $DIR expands to a
//     temporary directory;
//   - env: extra environment variables as KEY=VALUE lines;
//   - state: state before the run (no state file if absent);
//   - upstream-status, mastodon-status: HTTP status codes to answer with;
//   - want-error: substring of the expected error;
//   - want-stdout: expected standard output;
//   - want-state: expected state after the run (defaults to the initial one);
//   - want-posts: expected posts, one "<visibility> <status>" per line;
//   - want-file: a path (with $DIR) and substrings it must contain, one
//     per line.
func RunScenarios(t *testing.T, v bot.Variant, glob string) {
	testutil.Run(t, glob, func(t *testing.T, match string) {
		t.Parallel()

		ar := testutil.ParseTxtar(t, match)
		dir := t.TempDir()
		expand := func(s string) string { return strings.ReplaceAll(s, "$DIR", dir) }

		m := NewMux(t, ar.Files["upstream"], atoi(t, ar.Line("upstream-status")), atoi(t, ar.Line("mastodon-status")))

		for name, data := range ar.Files {
			if name, ok := strings.CutPrefix(name, "dir/"); ok {
				if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
					t.Fatal(err)
				}
			}
		}

		statePath := StateFile(v, dir)
		if ar.Has("state") {
			if err := os.WriteFile(statePath, []byte(ar.Line("state")), 0o644); err != nil {
				t.Fatal(err)
			}
		}

		vars := Env(v, dir)
		for _, line := range lines(ar.Line("env")) {
			k, val, _ := strings.Cut(line, "=")
			vars[k] = expand(val)
		}
		var args []string
		for _, arg := range lines(ar.Line("args")) {
			args = append(args, expand(arg))
		}

		var stdout, stderr bytes.Buffer
		env := &cli.Env{
			Args:   args,
			Getenv: func(name string) string { return vars[name] },
			Stdin:  strings.NewReader(""),
			Stdout: &stdout,
			Stderr: &stderr,
		}
		app := &bot.Command{Variant: v, HTTPClient: m.Client()}
		err := cli.Run(cli.WithEnv(context.Background(), env), app)

		if ar.Has("want-error") {
			if err == nil {
				t.Fatalf("must fail with error containing %q", ar.Line("want-error"))
			}
			if want := ar.Line("want-error"); !strings.Contains(err.Error(), want) {
				t.Fatalf("error %q must contain %q", err, want)
			}
			if strings.Contains(err.Error(), Token) {
				t.Fatalf("error %q leaks the access token", err)
			}
		} else if err != nil {
			t.Fatalf("unexpected error: %v\nstderr:\n%s", err, stderr.String())
		}

		if ar.Has("want-stdout") {
			testutil.AssertEqual(t, stdout.String(), string(ar.Files["want-stdout"]))
		}

		wantState := ar.Line("state")
		if ar.Has("want-state") {
			wantState = ar.Line("want-state")
		}
		if b, err := os.ReadFile(statePath); err == nil {
			testutil.AssertEqual(t, string(b), wantState)
		} else if wantState != "" || !os.IsNotExist(err) {
			t.Fatalf("reading state: %v", err)
		}

		var gotPosts []string
		for _, p := range m.Posts() {
			gotPosts = append(gotPosts, p.String())
		}
		testutil.AssertEqual(t, gotPosts, lines(ar.Line("want-posts")))

		if ar.Has("want-file") {
			want := lines(ar.Line("want-file"))
			b := testutil.ReadFile(t, expand(want[0]))
			for _, s := range want[1:] {
				if !strings.Contains(string(b), s) {
					t.Errorf("%s must contain %q, got:\n%s", want[0], s, b)
				}
			}
		}
	})
}

func lines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func atoi(t *testing.T, s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		t.Fatal(err)
	}
	return n
}
