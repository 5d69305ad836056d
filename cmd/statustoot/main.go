// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package main

import (
	"go.astrophena.name/incidentbot/internal/bot"
	"go.astrophena.name/incidentbot/internal/cli"
)

func main() { cli.Main(bot.NewCommand(bot.Status)) }
