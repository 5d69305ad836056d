// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

/*
Statustoot posts the latest incident from a Statuspage API to Mastodon.

It fetches incidents.json, takes the first incident and posts it with its
status, unless that incident was already posted with the same status.
Every status change (investigating, identified, monitoring, resolved and so
on) is posted once.

# Usage

	$ STATUS_API_URL=https://status.example.com/api/v2/incidents.json \
	  MASTODON_URL=https://social.example \
	  MASTODON_TOKEN=... \
	  statustoot [-dry-run] [-visibility unlisted]

# Configuration

Same as feedtoot, but the upstream is set with STATUS_API_URL
(status_api_url in the config file) and the state defaults to
statustoot.state. The state holds "<id> : <status>" of the last post.
*/
package main

import (
	_ "embed"

	"go.astrophena.name/incidentbot/internal/cli"
)

//go:embed doc.go
var doc []byte

func init() { cli.SetDocComment(doc) }
