// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package feed fetches the latest incident from an RSS or Atom feed.
package feed

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.astrophena.name/incidentbot/internal/incident"
	"go.astrophena.name/incidentbot/internal/request"

	"github.com/mmcdole/gofeed"
)

// Source reads incidents from a feed. Upstream is expected to list entries
// newest first; the first entry is the latest incident.
type Source struct {
	url      string
	name     string // url with credentials hidden
	httpc    *http.Client
	scrubber *strings.Replacer
	fp       *gofeed.Parser
}

// New returns a Source for the feed at url. If httpc is nil,
// [request.DefaultClient] is used.
func New(url string, httpc *http.Client) *Source {
	s := &Source{
		url:      url,
		name:     url,
		httpc:    httpc,
		scrubber: request.URLScrubber(url),
		fp:       gofeed.NewParser(),
	}
	if s.scrubber != nil {
		s.name = s.scrubber.Replace(url)
	}
	return s
}

// Latest fetches the feed and returns its first entry.
func (s *Source) Latest(ctx context.Context) (*incident.Incident, error) {
	b, err := request.Raw(ctx, request.Params{
		URL: s.url,
		Headers: map[string]string{
			"Accept": "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8",
		},
		HTTPClient: s.httpc,
		Scrubber:   s.scrubber,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", incident.ErrFetch, err)
	}

	feed, err := s.fp.Parse(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: parsing %q: %w", incident.ErrMalformed, s.name, err)
	}
	if len(feed.Items) == 0 {
		return nil, fmt.Errorf("%w in %q", incident.ErrNoIncidents, s.name)
	}

	return fromItem(feed.Items[0]), nil
}

func fromItem(item *gofeed.Item) *incident.Incident {
	key := Key(item.Link)
	return &incident.Incident{
		Key:       key,
		ID:        key,
		Title:     item.Title,
		URL:       item.Link,
		Timestamp: item.Published,
	}
}

// Key returns the last path segment of an entry link, which identifies the
// incident on status pages. A link ending in a slash yields an empty key.
func Key(link string) string {
	return link[strings.LastIndex(link, "/")+1:]
}
