// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

// Package metrics records statistics about a single bot run and writes them
// in the Prometheus text format for the node_exporter textfile collector.
package metrics

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/prometheus/common/model"
)

// Run outcomes.
const (
	OutcomeUnchanged = "unchanged"
	OutcomePosted    = "posted"
	OutcomeDryRun    = "dry_run"
	OutcomeError     = "error"
)

var outcomes = []string{OutcomeUnchanged, OutcomePosted, OutcomeDryRun, OutcomeError}

// Run collects metrics of one run.
type Run struct {
	name  string
	reg   *prometheus.Registry
	now   func() time.Time
	start time.Time

	lastRun  prometheus.Gauge
	duration prometheus.Gauge
	success  prometheus.Gauge
	outcome  *prometheus.GaugeVec
	lastPost prometheus.Gauge
	hasPost  bool // lastPost is registered
}

// Start begins recording a run of the bot called name.
func Start(name string) *Run {
	return start(name, time.Now)
}

func start(name string, now func() time.Time) *Run {
	labels := prometheus.Labels{"bot": name}
	r := &Run{
		name:  name,
		reg:   prometheus.NewRegistry(),
		now:   now,
		start: now(),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "incidentbot",
			Name:        "last_run_timestamp_seconds",
			Help:        "Unix timestamp of the last run.",
			ConstLabels: labels,
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "incidentbot",
			Name:        "run_duration_seconds",
			Help:        "How long the last run took.",
			ConstLabels: labels,
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "incidentbot",
			Name:        "run_success",
			Help:        "Whether the last run succeeded (1) or failed (0).",
			ConstLabels: labels,
		}),
		outcome: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace:   "incidentbot",
			Name:        "run_outcome",
			Help:        "Outcome of the last run, set to 1 for the current one.",
			ConstLabels: labels,
		}, []string{"outcome"}),
		lastPost: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   "incidentbot",
			Name:        "last_post_timestamp_seconds",
			Help:        "Unix timestamp of the last post to Mastodon.",
			ConstLabels: labels,
		}),
	}
	r.reg.MustRegister(r.lastRun, r.duration, r.success, r.outcome)
	return r
}

// Finish records the outcome of the run.
func (r *Run) Finish(outcome string) {
	end := r.now()
	r.lastRun.Set(float64(r.start.Unix()))
	r.duration.Set(end.Sub(r.start).Seconds())
	if outcome == OutcomeError {
		r.success.Set(0)
	} else {
		r.success.Set(1)
	}
	for _, o := range outcomes {
		v := 0.0
		if o == outcome {
			v = 1
		}
		r.outcome.WithLabelValues(o).Set(v)
	}
	if outcome == OutcomePosted {
		r.setLastPost(float64(end.Unix()))
	}
}

func (r *Run) setLastPost(ts float64) {
	r.lastPost.Set(ts)
	if !r.hasPost {
		r.reg.MustRegister(r.lastPost)
		r.hasPost = true
	}
}

// WriteFile atomically writes collected metrics to path. If this run didn't
// post, the last post timestamp is carried over from the previous contents
// of path.
func (r *Run) WriteFile(path string) error {
	if !r.hasPost {
		if ts, ok := lastPost(path, r.name); ok {
			r.setLastPost(ts)
		}
	}
	return prometheus.WriteToTextfile(path, r.reg)
}

// lastPost reads the last post timestamp of bot from a textfile written by a
// previous run. Missing or unreadable files have none.
func lastPost(path, bot string) (float64, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	p := expfmt.NewTextParser(model.UTF8Validation)
	families, err := p.TextToMetricFamilies(f)
	if err != nil {
		return 0, false
	}
	mf, ok := families["incidentbot_last_post_timestamp_seconds"]
	if !ok {
		return 0, false
	}
	for _, m := range mf.GetMetric() {
		for _, lp := range m.GetLabel() {
			if lp.GetName() == "bot" && lp.GetValue() == bot {
				return m.GetGauge().GetValue(), true
			}
		}
	}
	return 0, false
}
