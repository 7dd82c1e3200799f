package assets

import (
	"bytes"
	_ "embed"
	"strings"
	"text/template"
)

// --- Static prompts ---

// ChatSystemPrompt frames the free-form chat endpoint.
//
//go:embed prompts/chat-system.txt
var ChatSystemPrompt string

// --- Dynamic prompt templates ---

// template.Must panics on a malformed template, so a broken prompt file fails
// at start-up instead of on the first generation.
var (
	levelMetadataTmpl = template.Must(template.ParseFS(promptFS, "prompts/level-metadata.txt"))
	baseImageTmpl     = template.Must(template.ParseFS(promptFS, "prompts/base-image.txt"))
	modifyImageTmpl   = template.Must(template.ParseFS(promptFS, "prompts/modify-image.txt"))
)

// LevelPromptData is injected into the level metadata prompt.
type LevelPromptData struct {
	Theme string
	// Label is the localized difficulty label shown to the model.
	Label    string
	Count    int
	Guidance string
}

// RenderLevelMetadataPrompt asks the text model for a level description.
func RenderLevelMetadataPrompt(data LevelPromptData) string {
	return render(levelMetadataTmpl, data)
}

// RenderBaseImagePrompt wraps the level's base prompt with the image style
// prefix.
func RenderBaseImagePrompt(prompt string) string {
	return render(baseImageTmpl, struct{ Prompt string }{prompt})
}

// RenderModifyImagePrompt wraps the modification instructions with the
// pixel-alignment constraints.
func RenderModifyImagePrompt(instructions string) string {
	return render(modifyImageTmpl, struct{ Instructions string }{instructions})
}

func render(tmpl *template.Template, data any) string {
	var buf bytes.Buffer
	// The templates only reference fields that exist, so Execute cannot fail
	// on well-formed data; whatever was rendered is returned regardless.
	_ = tmpl.Execute(&buf, data)
	return strings.TrimSpace(buf.String())
}
