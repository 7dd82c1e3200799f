// Package assets provides the prompt templates embedded into every binary.
//
// Templates live as text files under prompts/ so they can be edited without
// touching Go code; they are parsed once at start-up.
package assets

import "embed"

//go:embed prompts/*.txt
var promptFS embed.FS
