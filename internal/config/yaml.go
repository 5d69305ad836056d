// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

func parseYAML(path string, src []byte) (map[string]string, error) {
	vals := make(map[string]string)

	dec := yaml.NewDecoder(bytes.NewReader(src))
	if err := dec.Decode(&vals); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	for key := range vals {
		if !isKnown(key) {
			return nil, fmt.Errorf("%s: unknown setting %q", path, key)
		}
	}
	return vals, nil
}
