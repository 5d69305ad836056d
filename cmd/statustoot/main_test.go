// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"testing"

	"go.astrophena.name/incidentbot/internal/bot"
	"go.astrophena.name/incidentbot/internal/bot/bottest"
	"go.astrophena.name/incidentbot/internal/cli/clitest"
	"go.astrophena.name/incidentbot/internal/config"
	"go.astrophena.name/incidentbot/internal/state"
)

func TestScenarios(t *testing.T) {
	bottest.RunScenarios(t, bot.Status, "testdata/*.txtar")
}

func TestRun(t *testing.T) {
	clitest.Run(t, func(t *testing.T) *bot.Command {
		return bot.NewCommand(bot.Status)
	}, map[string]clitest.Case[*bot.Command]{
		"missing api url": {
			Setup: func(t *testing.T, env map[string]string) {
				env["FEED_URL"] = bottest.UpstreamURL
				env["STATE_FILE"] = bottest.StateFile(bot.Status, t.TempDir())
			},
			WantErr: config.ErrMissing,
		},
		"unsupported state location": {
			Args: []string{"-dry-run", "-state", "ftp://example.com/statustoot.state"},
			Env: map[string]string{
				"STATUS_API_URL": bottest.UpstreamURL,
			},
			WantErr: state.ErrUnsupported,
		},
		"unknown config format": {
			Args: []string{"-config", "statustoot.toml"},
			Env: map[string]string{
				"STATUS_API_URL": bottest.UpstreamURL,
			},
			WantErr: config.ErrUnknownFormat,
		},
	})
}
