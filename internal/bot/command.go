// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package bot

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"

	"go.astrophena.name/incidentbot/internal/cli"
	"go.astrophena.name/incidentbot/internal/config"
	"go.astrophena.name/incidentbot/internal/feed"
	"go.astrophena.name/incidentbot/internal/filelock"
	"go.astrophena.name/incidentbot/internal/httplogger"
	"go.astrophena.name/incidentbot/internal/incident"
	"go.astrophena.name/incidentbot/internal/logger"
	"go.astrophena.name/incidentbot/internal/mastodon"
	"go.astrophena.name/incidentbot/internal/metrics"
	"go.astrophena.name/incidentbot/internal/request"
	"go.astrophena.name/incidentbot/internal/state"
	"go.astrophena.name/incidentbot/internal/statuspage"
)

// Variant describes where a bot gets its incidents from.
type Variant struct {
	// Name of the command. Used for the default state file and metrics.
	Name string
	// URLKey is the config setting holding the upstream URL.
	URLKey string
	URL    func(*config.Config) string
	// Template returns the default message template.
	Template  func() *incident.Template
	NewSource func(url string, httpc *http.Client) Source
}

// Known variants.
var (
	// Feed watches an RSS or Atom feed.
	Feed = Variant{
		Name:     "feedtoot",
		URLKey:   "feed_url",
		URL:      func(c *config.Config) string { return c.FeedURL },
		Template: incident.FeedTemplate,
		NewSource: func(url string, httpc *http.Client) Source {
			return feed.New(url, httpc)
		},
	}
	// Status watches a Statuspage incidents API.
	Status = Variant{
		Name:     "statustoot",
		URLKey:   "status_api_url",
		URL:      func(c *config.Config) string { return c.StatusAPIURL },
		Template: incident.StatusTemplate,
		NewSource: func(url string, httpc *http.Client) Source {
			return statuspage.New(url, httpc)
		},
	}
)

// Command is a command-line application running a bot of some variant.
type Command struct {
	Variant Variant
	// HTTPClient is used for all outgoing requests. Defaults to
	// request.DefaultClient.
	HTTPClient *http.Client

	// configuration
	configPath  string
	dryRun      bool
	metricsFile string
	state       string
	verbose     bool
	visibility  mastodon.Visibility
}

// NewCommand returns a Command running a bot of variant v.
func NewCommand(v Variant) *Command {
	return &Command{Variant: v}
}

// Flags implements [cli.HasFlags].
func (c *Command) Flags(fs *flag.FlagSet) {
	fs.BoolVar(&c.dryRun, "d", false, "Alias for -dry-run.")
	fs.BoolVar(&c.dryRun, "dry-run", false, "Post nothing and don't update the state.")
	fs.Var(&c.visibility, "visibility", "Post `visibility`: private, direct, unlisted or public.")
	fs.StringVar(&c.configPath, "config", "", "Read settings from `file` (.star or .yaml). Overrides $CONFIG.")
	fs.StringVar(&c.state, "state", "", "State `location`: a file path, redis:// or s3:// URL. Overrides $STATE_FILE.")
	fs.StringVar(&c.metricsFile, "metrics-file", "", "Write Prometheus metrics of the run to `path`.")
	fs.BoolVar(&c.verbose, "v", false, "Enable debug logging.")
}

// Run implements [cli.App].
func (c *Command) Run(ctx context.Context) (err error) {
	env := cli.GetEnv(ctx)
	if len(env.Args) > 0 {
		return fmt.Errorf("%w: unexpected argument %q", cli.ErrInvalidArgs, env.Args[0])
	}

	// Enable debug logging in dry-run mode.
	l := logger.From(ctx)
	if c.verbose || c.dryRun {
		l.Level.Set(slog.LevelDebug)
	}

	outcome := metrics.OutcomeError
	if c.metricsFile != "" && !c.dryRun {
		run := metrics.Start(c.Variant.Name)
		defer func() {
			run.Finish(outcome)
			if werr := run.WriteFile(c.metricsFile); werr != nil {
				err = errors.Join(err, fmt.Errorf("writing metrics: %w", werr))
			}
		}()
	}

	res, err := c.run(ctx, env)
	if err != nil {
		return err
	}
	switch res {
	case Unchanged:
		outcome = metrics.OutcomeUnchanged
	case Posted:
		outcome = metrics.OutcomePosted
	case DryRun:
		outcome = metrics.OutcomeDryRun
	}
	l.Debug("run finished", "result", res)
	return nil
}

func (c *Command) run(ctx context.Context, env *cli.Env) (Result, error) {
	cfg, err := config.Load(env.Getenv, c.Variant.Name, cmp.Or(c.configPath, env.Getenv("CONFIG")))
	if err != nil {
		return 0, err
	}
	if c.state != "" {
		cfg.SetStateFile(c.state)
	}
	vis, err := cfg.PostVisibility(c.visibility)
	if err != nil {
		return 0, err
	}

	required := []string{c.Variant.URLKey}
	if !c.dryRun {
		required = append(required, "mastodon_url", "mastodon_token")
	}
	if err := cfg.Require(required...); err != nil {
		return 0, err
	}

	tmpl := c.Variant.Template()
	if cfg.MessageTemplate != "" {
		tmpl, err = incident.ParseTemplate(c.Variant.Name, cfg.MessageTemplate)
		if err != nil {
			return 0, err
		}
	}

	httpc := cmp.Or(c.HTTPClient, request.DefaultClient)
	if l := logger.From(ctx); l.Enabled(ctx, slog.LevelDebug) {
		httpc = httplogger.Wrap(httpc, l.Logger)
	}

	if err := cfg.EnsureStateDir(); err != nil {
		return 0, err
	}
	st, err := state.Open(ctx, cfg.StateFile, state.Options{
		Name:       c.Variant.Name,
		Getenv:     env.Getenv,
		HTTPClient: httpc,
	})
	if err != nil {
		return 0, fmt.Errorf("opening state: %w", err)
	}
	defer st.Close()

	if lk, ok := st.(state.Locker); ok {
		lock, err := lk.Lock()
		if errors.Is(err, filelock.ErrAlreadyLocked) {
			return 0, fmt.Errorf("%w: %w", ErrAlreadyRunning, err)
		}
		if err != nil {
			return 0, err
		}
		defer lock.Release()
	}

	b := &Bot{
		Source:     c.Variant.NewSource(c.Variant.URL(cfg), httpc),
		Store:      st,
		Template:   tmpl,
		Visibility: vis,
		DryRun:     c.dryRun,
		Stdout:     env.Stdout,
	}
	if !c.dryRun {
		b.Publisher = mastodon.New(cfg.MastodonURL, cfg.MastodonToken, httpc)
	}
	return b.Run(ctx)
}
