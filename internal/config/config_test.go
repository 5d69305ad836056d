// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp/cmpopts"

	"go.astrophena.name/incidentbot/internal/mastodon"
	"go.astrophena.name/incidentbot/internal/testutil"
)

func getenv(vars map[string]string) func(string) string {
	return func(name string) string { return vars[name] }
}

func TestLoad(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		env     map[string]string
		path    string
		want    Config
		wantErr error
	}{
		"env only": {
			env: map[string]string{
				"FEED_URL":       "https://status.example.com/history.rss",
				"MASTODON_URL":   "https://social.example",
				"MASTODON_TOKEN": "env-token",
				"STATE_FILE":     "/tmp/feedtoot.state",
			},
			want: Config{
				FeedURL:       "https://status.example.com/history.rss",
				MastodonURL:   "https://social.example",
				MastodonToken: "env-token",
				StateFile:     "/tmp/feedtoot.state",
			},
		},
		"starlark": {
			env: map[string]string{
				"STATE_DIRECTORY": "/var/lib/incidentbot",
			},
			path: "testdata/bot.star",
			want: Config{
				FeedURL:         "https://status.example.com/history.rss",
				MastodonURL:     "https://social.example",
				MastodonToken:   "fallback-token",
				StateFile:       "/var/lib/incidentbot/test.state",
				Visibility:      "public",
				MessageTemplate: "🔥 {{.Title}} {{.URL}}",
			},
		},
		"starlark reads env": {
			env: map[string]string{
				"TEST_TOKEN": "from-env",
				"STATE_FILE": "/tmp/test.state",
			},
			path: "testdata/bot.star",
			want: Config{
				FeedURL:         "https://status.example.com/history.rss",
				MastodonURL:     "https://social.example",
				MastodonToken:   "from-env",
				StateFile:       "/tmp/test.state",
				Visibility:      "public",
				MessageTemplate: "🔥 {{.Title}} {{.URL}}",
			},
		},
		"yaml": {
			path: "testdata/bot.yaml",
			want: Config{
				StatusAPIURL:  "https://status.example.com/api/v2/incidents.json",
				MastodonURL:   "https://social.example",
				MastodonToken: "yaml-token",
				StateFile:     "/var/lib/incidentbot/statustoot.state",
				Visibility:    "private",
			},
		},
		"env overrides file": {
			env: map[string]string{
				"MASTODON_TOKEN": "env-token",
				"VISIBILITY":     "direct",
			},
			path: "testdata/bot.yaml",
			want: Config{
				StatusAPIURL:  "https://status.example.com/api/v2/incidents.json",
				MastodonURL:   "https://social.example",
				MastodonToken: "env-token",
				StateFile:     "/var/lib/incidentbot/statustoot.state",
				Visibility:    "direct",
			},
		},
		"unknown extension": {
			path:    "testdata/bot.json",
			wantErr: ErrUnknownFormat,
		},
		"missing file": {
			path:    "testdata/nope.yaml",
			wantErr: os.ErrNotExist,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := Load(getenv(tc.env), "test", tc.path)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, *got, tc.want, cmpopts.IgnoreUnexported(Config{}))
		})
	}
}

func TestPostVisibility(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		env      map[string]string
		path     string
		override mastodon.Visibility
		want     mastodon.Visibility
		wantErr  error
	}{
		"default": {
			want: mastodon.Unlisted,
		},
		"from env": {
			env:  map[string]string{"VISIBILITY": "direct"},
			want: mastodon.Direct,
		},
		"override wins": {
			env:      map[string]string{"VISIBILITY": "direct"},
			override: mastodon.Public,
			want:     mastodon.Public,
		},
		"override hides invalid env": {
			env:      map[string]string{"VISIBILITY": "everyone"},
			override: mastodon.Public,
			want:     mastodon.Public,
		},
		"invalid in env": {
			env:     map[string]string{"VISIBILITY": "everyone"},
			wantErr: mastodon.ErrInvalidVisibility,
		},
		"invalid in file": {
			path:    "testdata/badvisibility.yaml",
			wantErr: mastodon.ErrInvalidVisibility,
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			env := map[string]string{"STATE_FILE": "x"}
			for k, v := range tc.env {
				env[k] = v
			}
			c, err := Load(getenv(env), "test", tc.path)
			if err != nil {
				t.Fatal(err)
			}
			got, err := c.PostVisibility(tc.override)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("want %v, got %v", tc.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestLoadInvalidFiles(t *testing.T) {
	t.Parallel()

	for _, path := range []string{
		"testdata/badtype.star",
		"testdata/unknown.yaml",
	} {
		if _, err := Load(getenv(nil), "test", path); err == nil {
			t.Errorf("%s: want error", path)
		}
	}
}

func TestRequire(t *testing.T) {
	t.Parallel()

	c := &Config{FeedURL: "https://status.example.com/history.rss"}
	if err := c.Require("feed_url"); err != nil {
		t.Fatal(err)
	}
	err := c.Require("feed_url", "mastodon_token")
	if !errors.Is(err, ErrMissing) {
		t.Fatalf("want %v, got %v", ErrMissing, err)
	}
	testutil.AssertEqual(t, err.Error(), "missing required setting: mastodon_token (set MASTODON_TOKEN)")
}

func TestDefaultStateFile(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		env  map[string]string
		want string
	}{
		"systemd": {
			env:  map[string]string{"STATE_DIRECTORY": "/var/lib/feedtoot:/var/lib/other", "HOME": "/home/bot"},
			want: "/var/lib/feedtoot/feedtoot.state",
		},
		"xdg": {
			env:  map[string]string{"XDG_STATE_HOME": "/home/bot/.state", "HOME": "/home/bot"},
			want: "/home/bot/.state/incidentbot/feedtoot.state",
		},
		"home": {
			env:  map[string]string{"HOME": "/home/bot"},
			want: "/home/bot/.local/state/incidentbot/feedtoot.state",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := DefaultStateFile(getenv(tc.env), "feedtoot")
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, got, tc.want)
		})
	}
}

func TestEnsureStateDir(t *testing.T) {
	t.Parallel()

	home := t.TempDir()
	c, err := Load(getenv(map[string]string{"HOME": home}), "feedtoot", "")
	if err != nil {
		t.Fatal(err)
	}
	if err := c.EnsureStateDir(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(home, ".local", "state", "incidentbot")); err != nil {
		t.Fatal(err)
	}

	explicit := &Config{StateFile: filepath.Join(t.TempDir(), "missing", "feedtoot.state")}
	if err := explicit.EnsureStateDir(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Dir(explicit.StateFile)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("explicit state directory must not be created, got %v", err)
	}
}
