// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.astrophena.name/incidentbot/internal/incident"
	"go.astrophena.name/incidentbot/internal/mastodon"
	"go.astrophena.name/incidentbot/internal/testutil"
)

type fakeSource struct {
	inc *incident.Incident
	err error
}

func (s fakeSource) Latest(context.Context) (*incident.Incident, error) { return s.inc, s.err }

type memStore struct {
	value   string
	saves   int
	saveErr error
}

func (s *memStore) Load(context.Context) (string, error) { return s.value, nil }

func (s *memStore) Save(_ context.Context, value string) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saves++
	s.value = value
	return nil
}

func (s *memStore) Close() error { return nil }

type post struct {
	status string
	vis    mastodon.Visibility
}

type fakePublisher struct {
	posts []post
	err   error
}

func (p *fakePublisher) Publish(_ context.Context, status string, vis mastodon.Visibility) (*mastodon.Post, error) {
	if p.err != nil {
		return nil, p.err
	}
	p.posts = append(p.posts, post{status, vis})
	return &mastodon.Post{ID: "1", URL: "https://social.example/@status/1"}, nil
}

var (
	rssIncident = &incident.Incident{
		Key:       "42",
		ID:        "42",
		Title:     "DB outage",
		URL:       "https://status.example.com/incidents/42",
		Timestamp: "2024-01-01T00:00:00Z",
	}
	apiIncident = &incident.Incident{
		Key:       "abc : resolved",
		ID:        "abc",
		Title:     "API slow",
		URL:       "https://s.example/abc",
		Timestamp: "2024-02-02",
		Status:    "resolved",
	}
)

func TestRun(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		inc        *incident.Incident
		tmpl       *incident.Template
		state      string
		dryRun     bool
		vis        mastodon.Visibility
		wantResult Result
		wantPosts  []post
		wantState  string
		wantSaves  int
		wantStdout string
	}{
		"rss new incident": {
			inc:        rssIncident,
			tmpl:       incident.FeedTemplate(),
			vis:        mastodon.Unlisted,
			wantResult: Posted,
			wantPosts: []post{{
				status: "New incident: [DB outage](https://status.example.com/incidents/42) (2024-01-01T00:00:00Z)",
				vis:    mastodon.Unlisted,
			}},
			wantState: "42",
			wantSaves: 1,
			wantStdout: "New incident detected (42). Posting.\n" +
				"Posted New incident: [DB outage](https://status.example.com/incidents/42) (2024-01-01T00:00:00Z)\n",
		},
		"rss already posted": {
			inc:        rssIncident,
			tmpl:       incident.FeedTemplate(),
			state:      "42",
			wantResult: Unchanged,
			wantState:  "42",
			wantStdout: "Already posted this incident (42). Exiting.\n",
		},
		"api status changed": {
			inc:        apiIncident,
			tmpl:       incident.StatusTemplate(),
			state:      "abc : investigating",
			vis:        mastodon.Public,
			wantResult: Posted,
			wantPosts: []post{{
				status: "[resolved]: [API slow](https://s.example/abc) (2024-02-02)",
				vis:    mastodon.Public,
			}},
			wantState: "abc : resolved",
			wantSaves: 1,
			wantStdout: "New incident detected (abc : resolved). Posting.\n" +
				"Posted [resolved]: [API slow](https://s.example/abc) (2024-02-02)\n",
		},
		"api same status": {
			inc:        apiIncident,
			tmpl:       incident.StatusTemplate(),
			state:      "abc : resolved",
			wantResult: Unchanged,
			wantState:  "abc : resolved",
			wantStdout: "Already posted this incident (abc : resolved). Exiting.\n",
		},
		"dry run": {
			inc:        rssIncident,
			tmpl:       incident.FeedTemplate(),
			state:      "41",
			dryRun:     true,
			wantResult: DryRun,
			wantState:  "41",
			wantStdout: "New incident detected (42). Posting.\n" +
				"Dry run, would have posted New incident: [DB outage](https://status.example.com/incidents/42) (2024-01-01T00:00:00Z)\n",
		},
		"comparison is exact": {
			inc:        rssIncident,
			tmpl:       incident.FeedTemplate(),
			state:      "42\n",
			vis:        mastodon.Unlisted,
			wantResult: Posted,
			wantPosts: []post{{
				status: "New incident: [DB outage](https://status.example.com/incidents/42) (2024-01-01T00:00:00Z)",
				vis:    mastodon.Unlisted,
			}},
			wantState: "42",
			wantSaves: 1,
			wantStdout: "New incident detected (42). Posting.\n" +
				"Posted New incident: [DB outage](https://status.example.com/incidents/42) (2024-01-01T00:00:00Z)\n",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			st := &memStore{value: tc.state}
			pub := new(fakePublisher)
			var stdout bytes.Buffer
			b := &Bot{
				Source:     fakeSource{inc: tc.inc},
				Store:      st,
				Template:   tc.tmpl,
				Publisher:  pub,
				Visibility: tc.vis,
				DryRun:     tc.dryRun,
				Stdout:     &stdout,
			}

			res, err := b.Run(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, res, tc.wantResult)
			testutil.AssertEqual(t, len(pub.posts), len(tc.wantPosts))
			for i := range tc.wantPosts {
				testutil.AssertEqual(t, pub.posts[i].status, tc.wantPosts[i].status)
				testutil.AssertEqual(t, pub.posts[i].vis, tc.wantPosts[i].vis)
			}
			testutil.AssertEqual(t, st.value, tc.wantState)
			testutil.AssertEqual(t, st.saves, tc.wantSaves)
			testutil.AssertEqual(t, stdout.String(), tc.wantStdout)
		})
	}
}

func TestRunTwice(t *testing.T) {
	t.Parallel()

	st := new(memStore)
	pub := new(fakePublisher)
	b := &Bot{
		Source:    fakeSource{inc: apiIncident},
		Store:     st,
		Template:  incident.StatusTemplate(),
		Publisher: pub,
		Stdout:    new(bytes.Buffer),
	}

	for i, want := range []Result{Posted, Unchanged, Unchanged} {
		res, err := b.Run(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		testutil.AssertEqual(t, res, want)
	}
	testutil.AssertEqual(t, len(pub.posts), 1)
	testutil.AssertEqual(t, st.saves, 1)
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	errSave := errors.New("disk full")

	cases := map[string]struct {
		source    fakeSource
		tmpl      *incident.Template
		pubErr    error
		saveErr   error
		wantErr   error
		wantPosts int
		wantState string
	}{
		"fetch failure": {
			source:    fakeSource{err: incident.ErrFetch},
			wantErr:   incident.ErrFetch,
			wantState: "old",
		},
		"no incidents": {
			source:    fakeSource{err: incident.ErrNoIncidents},
			wantErr:   incident.ErrMalformed,
			wantState: "old",
		},
		"publish failure": {
			source:    fakeSource{inc: rssIncident},
			pubErr:    incident.ErrPublish,
			wantErr:   incident.ErrPublish,
			wantState: "old",
		},
		"save failure": {
			source:    fakeSource{inc: rssIncident},
			saveErr:   errSave,
			wantErr:   errSave,
			wantPosts: 1,
			wantState: "old",
		},
		"template failure": {
			source:    fakeSource{inc: rssIncident},
			tmpl:      mustTemplate(t, "{{.Nope}}"),
			wantState: "old",
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			st := &memStore{value: "old", saveErr: tc.saveErr}
			pub := &fakePublisher{err: tc.pubErr}
			tmpl := tc.tmpl
			if tmpl == nil {
				tmpl = incident.FeedTemplate()
			}
			var stdout bytes.Buffer
			b := &Bot{
				Source:    tc.source,
				Store:     st,
				Template:  tmpl,
				Publisher: pub,
				Stdout:    &stdout,
			}

			_, err := b.Run(context.Background())
			if err == nil {
				t.Fatal("want error")
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			testutil.AssertEqual(t, len(pub.posts), tc.wantPosts)
			testutil.AssertEqual(t, st.value, tc.wantState)
			if tc.pubErr != nil && strings.Contains(stdout.String(), "Posted") {
				t.Errorf("stdout must not report a post, got %q", stdout.String())
			}
		})
	}
}

func mustTemplate(t *testing.T, text string) *incident.Template {
	t.Helper()
	tmpl, err := incident.ParseTemplate("test", text)
	if err != nil {
		t.Fatal(err)
	}
	return tmpl
}

func TestResultString(t *testing.T) {
	t.Parallel()

	testutil.AssertEqual(t, Unchanged.String(), "unchanged")
	testutil.AssertEqual(t, Posted.String(), "posted")
	testutil.AssertEqual(t, DryRun.String(), "dry run")
	testutil.AssertEqual(t, Result(0).String(), "Result(0)")
}
