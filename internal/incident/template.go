// © 2026 Ilya Mateyko. All rights reserved.
// Use of this source code is governed by the ISC
// license that can be found in the LICENSE.md file.

package incident

import (
	_ "embed"
	"strings"
	"text/template"
)

var (
	//go:embed feed.tmpl
	feedTemplate string
	//go:embed status.tmpl
	statusTemplate string
)

// Template renders an incident into the text of a post.
type Template struct {
	tmpl *template.Template
}

// ParseTemplate parses a text/template executed with an [*Incident] as dot.
func ParseTemplate(name, text string) (*Template, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return nil, err
	}
	return &Template{tmpl: t}, nil
}

// FeedTemplate returns the default template for feed entries.
func FeedTemplate() *Template { return mustParse("feed", feedTemplate) }

// StatusTemplate returns the default template for status page incidents.
func StatusTemplate() *Template { return mustParse("status", statusTemplate) }

func mustParse(name, text string) *Template {
	t, err := ParseTemplate(name, strings.TrimSuffix(text, "\n"))
	if err != nil {
		panic(err)
	}
	return t
}

// Format renders inc. Values are inserted verbatim, without escaping or
// truncation.
func (t *Template) Format(inc *Incident) (string, error) {
	var sb strings.Builder
	if err := t.tmpl.Execute(&sb, inc); err != nil {
		return "", err
	}
	return sb.String(), nil
}
