// Package prompt turns a scene description into the instruction sent to the image model.
package prompt

import "strings"

const header = "You are an AI comic illustrator.\n" +
	"Generate one high-quality comic panel based on the following scene:"

// Rules are appended to every prompt, one per line.
var Rules = []string{
	"consistent character appearance",
	"vibrant anime-comic hybrid style",
	"no text inside the image",
	"cinematic lighting, bold outlines",
}

// Build returns the illustration prompt for scene. The trimmed scene is embedded verbatim.
func Build(scene string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n\n")
	b.WriteString(strings.TrimSpace(scene))
	b.WriteString("\n\nRules:")
	for _, r := range Rules {
		b.WriteString("\n- ")
		b.WriteString(r)
	}
	return b.String()
}
