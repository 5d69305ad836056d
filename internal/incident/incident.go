// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package incident defines the incident record shared by all sources, the
// errors they report and the templates used to turn an incident into a post.
package incident

import (
	"errors"
	"fmt"
)

// Incident is the latest entry fetched from an upstream source.
type Incident struct {
	// Key is used to decide whether the incident was already posted.
	Key string `json:"key"`
	// ID is the upstream identifier of the incident.
	ID string `json:"id"`
	// Title is the feed entry title or the incident name.
	Title string `json:"title"`
	// URL is the entry link or the incident shortlink.
	URL string `json:"url"`
	// Timestamp is the published or updated time exactly as upstream sent it.
	Timestamp string `json:"timestamp"`

	// Only filled in by status page sources.
	Status    string `json:"status,omitempty"`
	PageID    string `json:"page_id,omitempty"`
	StartedAt string `json:"started_at,omitempty"`
}

// Errors reported by sources and publishers. Callers match them with
// errors.Is; the process exits with a nonzero status for all of them.
var (
	// ErrFetch means the upstream could not be reached or answered with an
	// error status. Trying again later may succeed.
	ErrFetch = errors.New("fetch failed")
	// ErrMalformed means the upstream answered, but the payload could not
	// be understood.
	ErrMalformed = errors.New("malformed upstream payload")
	// ErrNoIncidents means the upstream payload had nothing in it.
	ErrNoIncidents = fmt.Errorf("%w: no incidents", ErrMalformed)
	// ErrPublish means the post was not accepted.
	ErrPublish = errors.New("publish failed")
)
