// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package config

import (
	"fmt"
	"path/filepath"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
)

// parseStarlark evaluates a Starlark config file. Every known setting is a
// string global:
//
//	mastodon_url = "https://social.example"
//	mastodon_token = env("MASTODON_TOKEN")
//	message_template = "🔥 {{.Title}} {{.URL}}"
//
// Other globals are ignored, so helper variables can be used freely.
func parseStarlark(path string, src []byte, getenv func(string) string) (map[string]string, error) {
	envBuiltin := starlark.NewBuiltin("env", func(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
		var name, def string
		if err := starlark.UnpackArgs(b.Name(), args, kwargs, "name", &name, "default?", &def); err != nil {
			return nil, err
		}
		if v := getenv(name); v != "" {
			return starlark.String(v), nil
		}
		return starlark.String(def), nil
	})

	globals, err := starlark.ExecFileOptions(
		&syntax.FileOptions{
			TopLevelControl: true,
		},
		&starlark.Thread{
			Name:  "config",
			Print: func(*starlark.Thread, string) {},
		},
		filepath.Base(path),
		src,
		starlark.StringDict{
			"env": envBuiltin,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	vals := make(map[string]string)
	for name, val := range globals {
		if !isKnown(name) {
			continue
		}
		s, ok := starlark.AsString(val)
		if !ok {
			return nil, fmt.Errorf("%s: %s must be a string, got %s", path, name, val.Type())
		}
		vals[name] = s
	}
	return vals, nil
}
