package gemini

import "google.golang.org/genai"

// levelSchema constrains the metadata response to the level shape.
var levelSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"theme":              {Type: genai.TypeString},
		"basePrompt":         {Type: genai.TypeString},
		"modificationPrompt": {Type: genai.TypeString},
		"differences": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"id":          {Type: genai.TypeString},
					"description": {Type: genai.TypeString},
					"x":           {Type: genai.TypeNumber},
					"y":           {Type: genai.TypeNumber},
				},
				Required: []string{"id", "description", "x", "y"},
			},
		},
	},
	Required: []string{"theme", "basePrompt", "modificationPrompt", "differences"},
}
