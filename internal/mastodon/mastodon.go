// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package mastodon posts statuses to a Mastodon account.
package mastodon

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.astrophena.name/incidentbot/internal/incident"
	"go.astrophena.name/incidentbot/internal/version"

	gomastodon "github.com/mattn/go-mastodon"
)

// Visibility is the audience of a posted status.
type Visibility string

// Visibilities accepted by Mastodon.
const (
	Private  Visibility = "private" // followers only
	Direct   Visibility = "direct"
	Unlisted Visibility = "unlisted"
	Public   Visibility = "public"
)

// DefaultVisibility is used when nothing else was asked for.
const DefaultVisibility = Unlisted

// ErrInvalidVisibility is returned for visibilities outside of the known set.
var ErrInvalidVisibility = errors.New("invalid visibility")

// Visibilities lists all known visibilities.
var Visibilities = []Visibility{Private, Direct, Unlisted, Public}

// ParseVisibility converts s to a Visibility.
func ParseVisibility(s string) (Visibility, error) {
	for _, v := range Visibilities {
		if string(v) == s {
			return v, nil
		}
	}
	names := make([]string, len(Visibilities))
	for i, v := range Visibilities {
		names[i] = string(v)
	}
	return "", fmt.Errorf("%w %q, want one of %s", ErrInvalidVisibility, s, strings.Join(names, ", "))
}

// String implements the [flag.Value] interface.
func (v *Visibility) String() string {
	if v == nil || *v == "" {
		return string(DefaultVisibility)
	}
	return string(*v)
}

// Set implements the [flag.Value] interface.
func (v *Visibility) Set(s string) error {
	parsed, err := ParseVisibility(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Post is a published status.
type Post struct {
	ID  string
	URL string
}

// Publisher posts statuses on behalf of a single account.
type Publisher struct {
	c        *gomastodon.Client
	scrubber *strings.Replacer
}

// New returns a Publisher for the account that owns token on server. If
// httpc is nil, http.DefaultClient is used.
func New(server, token string, httpc *http.Client) *Publisher {
	c := gomastodon.NewClient(&gomastodon.Config{
		Server:      server,
		AccessToken: token,
	})
	if httpc != nil {
		c.Client = *httpc
	}
	c.UserAgent = version.UserAgent()

	p := &Publisher{c: c}
	if token != "" {
		p.scrubber = strings.NewReplacer(token, "[EXPUNGED]")
	}
	return p
}

// Publish posts status with the given visibility.
func (p *Publisher) Publish(ctx context.Context, status string, vis Visibility) (*Post, error) {
	if vis == "" {
		vis = DefaultVisibility
	}
	st, err := p.c.PostStatus(ctx, &gomastodon.Toot{
		Status:     status,
		Visibility: string(vis),
	})
	if err != nil {
		msg := err.Error()
		if p.scrubber != nil {
			msg = p.scrubber.Replace(msg)
		}
		return nil, fmt.Errorf("%w: %s", incident.ErrPublish, msg)
	}
	return &Post{ID: string(st.ID), URL: st.URL}, nil
}
