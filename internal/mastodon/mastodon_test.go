// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package mastodon

import (
	"context"
	"errors"
	"flag"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.astrophena.name/incidentbot/internal/incident"
	"go.astrophena.name/incidentbot/internal/testutil"
)

const testToken = "s3cr3t-t0ken"

func TestParseVisibility(t *testing.T) {
	t.Parallel()

	for _, v := range []string{"private", "direct", "unlisted", "public"} {
		got, err := ParseVisibility(v)
		if err != nil {
			t.Fatalf("ParseVisibility(%q): %v", v, err)
		}
		testutil.AssertEqual(t, string(got), v)
	}

	for _, v := range []string{"", "Public", "followers", "unlisted "} {
		if _, err := ParseVisibility(v); !errors.Is(err, ErrInvalidVisibility) {
			t.Fatalf("ParseVisibility(%q): want %v, got %v", v, ErrInvalidVisibility, err)
		}
	}
}

func TestVisibilityFlag(t *testing.T) {
	t.Parallel()

	var v Visibility
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(&v, "visibility", "Post visibility.")

	testutil.AssertEqual(t, v.String(), "unlisted")

	if err := fs.Parse([]string{"-visibility", "public"}); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, v, Public)

	err := fs.Parse([]string{"-visibility", "everyone"})
	if err == nil || !strings.Contains(err.Error(), "invalid visibility") {
		t.Fatalf("want invalid visibility error, got %v", err)
	}
}

type fakeServer struct {
	*httptest.Server
	posted []map[string]string
}

func newFakeServer(t *testing.T, status int) *fakeServer {
	fs := new(fakeServer)
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/statuses", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "The access token is invalid"}`))
			return
		}
		if err := r.ParseForm(); err != nil {
			t.Error(err)
		}
		if status != http.StatusOK {
			w.WriteHeader(status)
			w.Write([]byte(`{"error": "Validation failed: Text character limit of 500 exceeded"}`))
			return
		}
		fs.posted = append(fs.posted, map[string]string{
			"status":     r.PostForm.Get("status"),
			"visibility": r.PostForm.Get("visibility"),
		})
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id": "109", "url": "https://social.example/@status/109", "visibility": "` + r.PostForm.Get("visibility") + `"}`))
	})
	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Close)
	return fs
}

func TestPublish(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t, http.StatusOK)
	p := New(srv.URL, testToken, srv.Client())

	post, err := p.Publish(context.Background(), "New incident: [DB outage](https://status.example.com/incidents/42) (2024-01-01T00:00:00Z)", Public)
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, post, &Post{ID: "109", URL: "https://social.example/@status/109"})
	testutil.AssertEqual(t, srv.posted, []map[string]string{{
		"status":     "New incident: [DB outage](https://status.example.com/incidents/42) (2024-01-01T00:00:00Z)",
		"visibility": "public",
	}})
}

func TestPublishDefaultVisibility(t *testing.T) {
	t.Parallel()

	srv := newFakeServer(t, http.StatusOK)
	if _, err := New(srv.URL, testToken, srv.Client()).Publish(context.Background(), "hello", ""); err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, srv.posted[0]["visibility"], "unlisted")
}

func TestPublishErrors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		token  string
		status int
	}{
		"bad token":      {token: "wrong-token", status: http.StatusOK},
		"rejected":       {token: testToken, status: http.StatusUnprocessableEntity},
		"internal error": {token: testToken, status: http.StatusInternalServerError},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			srv := newFakeServer(t, tc.status)
			_, err := New(srv.URL, tc.token, srv.Client()).Publish(context.Background(), "hello", Unlisted)
			if !errors.Is(err, incident.ErrPublish) {
				t.Fatalf("want %v, got %v", incident.ErrPublish, err)
			}
			if strings.Contains(err.Error(), tc.token) {
				t.Fatalf("error leaks the token: %v", err)
			}
			testutil.AssertEqual(t, len(srv.posted), 0)
		})
	}
}
