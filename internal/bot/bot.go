// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package bot implements the pipeline shared by incident bots: fetch the
// latest incident, compare it with the remembered one, post it to Mastodon
// and remember it.
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.astrophena.name/incidentbot/internal/incident"
	"go.astrophena.name/incidentbot/internal/logger"
	"go.astrophena.name/incidentbot/internal/mastodon"
	"go.astrophena.name/incidentbot/internal/state"
)

// ErrAlreadyRunning is returned when another run holds the state lock.
var ErrAlreadyRunning = errors.New("already running")

// Source returns the latest incident from upstream.
type Source interface {
	Latest(ctx context.Context) (*incident.Incident, error)
}

// Publisher posts a status.
type Publisher interface {
	Publish(ctx context.Context, status string, vis mastodon.Visibility) (*mastodon.Post, error)
}

// Result is the outcome of a successful run.
type Result int

// Possible results.
const (
	Unchanged Result = iota + 1 // incident was already posted
	Posted                      // incident was posted and remembered
	DryRun                      // incident is new, but nothing was posted
)

func (r Result) String() string {
	switch r {
	case Unchanged:
		return "unchanged"
	case Posted:
		return "posted"
	case DryRun:
		return "dry run"
	default:
		return fmt.Sprintf("Result(%d)", int(r))
	}
}

// Bot runs the pipeline once.
type Bot struct {
	Source     Source
	Store      state.Store
	Template   *incident.Template
	Publisher  Publisher // not used in dry run
	Visibility mastodon.Visibility
	DryRun     bool
	// Stdout receives progress messages.
	Stdout io.Writer
}

// Run fetches the latest incident and posts it unless it matches the stored
// key. The state is saved only after a successful post, so a failed post is
// retried on the next run.
func (b *Bot) Run(ctx context.Context) (Result, error) {
	log := logger.From(ctx)

	inc, err := b.Source.Latest(ctx)
	if err != nil {
		return 0, err
	}
	log.Debug("fetched latest incident", "key", inc.Key, "title", inc.Title, "url", inc.URL, "timestamp", inc.Timestamp)

	last, err := b.Store.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("loading state: %w", err)
	}
	if last == inc.Key {
		fmt.Fprintf(b.Stdout, "Already posted this incident (%s). Exiting.\n", inc.Key)
		return Unchanged, nil
	}

	msg, err := b.Template.Format(inc)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(b.Stdout, "New incident detected (%s). Posting.\n", inc.Key)

	if b.DryRun {
		fmt.Fprintf(b.Stdout, "Dry run, would have posted %s\n", msg)
		return DryRun, nil
	}

	post, err := b.Publisher.Publish(ctx, msg, b.Visibility)
	if err != nil {
		return 0, err
	}
	fmt.Fprintf(b.Stdout, "Posted %s\n", msg)
	log.Info("posted incident", "key", inc.Key, "id", post.ID, "url", post.URL)

	if err := b.Store.Save(ctx, inc.Key); err != nil {
		return Posted, fmt.Errorf("saving state after posting %s: %w", post.URL, err)
	}
	return Posted, nil
}
