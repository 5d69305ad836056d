// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package httplogger provides a http.RoundTripper middleware that logs HTTP
// requests and responses.
package httplogger

import (
	"log/slog"
	"net/http"
	"time"
)

// New returns a http.RoundTripper that logs every request made through t at
// debug level. If t is nil, http.DefaultTransport is used.
func New(t http.RoundTripper, l *slog.Logger) http.RoundTripper {
	if t == nil {
		t = http.DefaultTransport
	}
	return &loggingTransport{transport: t, log: l, now: time.Now}
}

// Wrap returns a copy of c that logs its requests to l.
func Wrap(c *http.Client, l *slog.Logger) *http.Client {
	cc := *c
	cc.Transport = New(c.Transport, l)
	return &cc
}

type loggingTransport struct {
	transport http.RoundTripper
	log       *slog.Logger
	now       func() time.Time
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := t.now()
	// Query strings may carry credentials.
	u := *r.URL
	u.RawQuery = ""
	u.User = nil

	resp, err := t.transport.RoundTrip(r)

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("url", u.String()),
		slog.Duration("duration", t.now().Sub(start)),
	}
	if resp != nil {
		attrs = append(attrs, slog.Int("status", resp.StatusCode))
	}
	if err != nil {
		attrs = append(attrs, slog.Any("error", err))
	}
	t.log.LogAttrs(r.Context(), slog.LevelDebug, "http request", attrs...)

	return resp, err
}
