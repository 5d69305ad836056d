// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Feedtoot posts the latest incident from an RSS or Atom feed to Mastodon.

It takes the first entry of the feed, and unless it was already posted,
posts a link to it and remembers the last path segment of the entry link
in a state file. Run it periodically from cron or a systemd timer.

# Usage

	$ FEED_URL=https://status.example.com/history.rss \
	  MASTODON_URL=https://social.example \
	  MASTODON_TOKEN=... \
	  feedtoot [-dry-run] [-visibility unlisted]

# Configuration

Settings are read from environment variables and, optionally, a config file
passed with -config or $CONFIG. Environment variables override the file,
flags override both.

	FEED_URL        feed to watch (feed_url)
	MASTODON_URL    Mastodon server (mastodon_url)
	MASTODON_TOKEN  access token with the write:statuses scope (mastodon_token)
	STATE_FILE      state location (state_file)
	VISIBILITY      post visibility (visibility)

The config file is either Starlark (.star) or YAML (.yaml). In Starlark, env
reads an environment variable:

	feed_url = "https://status.example.com/history.rss"
	mastodon_url = "https://social.example"
	mastodon_token = env("MASTODON_TOKEN")
	message_template = "New incident: [{{.Title}}]({{.URL}}) ({{.Timestamp}})"

The state is kept in $STATE_DIRECTORY/feedtoot.state or
$XDG_STATE_HOME/incidentbot/feedtoot.state by default. It can also be a
redis:// or s3:// URL.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/incidentbot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
