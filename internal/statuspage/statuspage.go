// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package statuspage fetches the latest incident from a status page JSON API,
// such as Atlassian Statuspage's /api/v2/incidents.json.
package statuspage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.astrophena.name/incidentbot/internal/incident"
	"go.astrophena.name/incidentbot/internal/request"
)

// Incident is a single element of the incidents array. Fields not listed
// here are ignored.
type Incident struct {
	ID        string `json:"id"`
	PageID    string `json:"page_id"`
	Name      string `json:"name"`
	Status    string `json:"status"`
	Shortlink string `json:"shortlink"`
	StartedAt string `json:"started_at"`
	UpdatedAt string `json:"updated_at"`
}

// Response is the body of the incidents endpoint.
type Response struct {
	Incidents []Incident `json:"incidents"`
}

// Source reads incidents from a status page API. Upstream is expected to
// list incidents newest first; the first one is the latest incident.
type Source struct {
	url      string
	name     string // url with credentials hidden
	httpc    *http.Client
	scrubber *strings.Replacer
}

// New returns a Source for the incidents endpoint at url. If httpc is nil,
// [request.DefaultClient] is used.
func New(url string, httpc *http.Client) *Source {
	s := &Source{
		url:      url,
		name:     url,
		httpc:    httpc,
		scrubber: request.URLScrubber(url),
	}
	if s.scrubber != nil {
		s.name = s.scrubber.Replace(url)
	}
	return s
}

// Latest fetches the incidents list and returns its first element.
func (s *Source) Latest(ctx context.Context) (*incident.Incident, error) {
	resp, err := request.Make[Response](ctx, request.Params{
		URL:        s.url,
		Headers:    map[string]string{"Accept": "application/json"},
		HTTPClient: s.httpc,
		Scrubber:   s.scrubber,
	})
	if errors.Is(err, request.ErrDecode) {
		return nil, fmt.Errorf("%w: %w", incident.ErrMalformed, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", incident.ErrFetch, err)
	}
	if len(resp.Incidents) == 0 {
		return nil, fmt.Errorf("%w in %q", incident.ErrNoIncidents, s.name)
	}

	return resp.Incidents[0].Incident(), nil
}

// Key returns the dedup key of the incident. It includes the status, so an
// update of an already posted incident is posted again.
func (i Incident) Key() string { return i.ID + " : " + i.Status }

// Incident converts i to the common incident record.
func (i Incident) Incident() *incident.Incident {
	return &incident.Incident{
		Key:       i.Key(),
		ID:        i.ID,
		Title:     i.Name,
		URL:       i.Shortlink,
		Timestamp: i.UpdatedAt,
		Status:    i.Status,
		PageID:    i.PageID,
		StartedAt: i.StartedAt,
	}
}
