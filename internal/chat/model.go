package chat

import "os"

// Gemini Model IDs
//
// | Model Name                  | API Model ID                | Used for                        |
// |-----------------------------|-----------------------------|---------------------------------|
// | Gemini 3 Pro (Preview)      | gemini-3-pro-preview        | level layout and coordinates    |
// | Gemini 3 Flash (Preview)    | gemini-3-flash-preview      | API key validation              |
// | Gemini 2.5 Flash            | gemini-2.5-flash            | chat proxy                      |
// | Gemini 2.5 Flash Image      | gemini-2.5-flash-image      | base and modified images        |
// | Gemini 3 Pro Image          | gemini-3-pro-image-preview  | higher quality image edits      |
const (
	// ModelGemini3ProPreview reasons well about spatial layout, which keeps
	// difference coordinates on their objects.
	ModelGemini3ProPreview = "gemini-3-pro-preview"

	// ModelGemini3FlashPreview is fast and free-tier friendly.
	ModelGemini3FlashPreview = "gemini-3-flash-preview"

	// ModelGemini25Flash is stable, balanced performance.
	ModelGemini25Flash = "gemini-2.5-flash"

	// ModelGemini25FlashImage generates and edits images.
	ModelGemini25FlashImage = "gemini-2.5-flash-image"

	// ModelGemini3ProImage is for advanced image generation/edit.
	ModelGemini3ProImage = "gemini-3-pro-image-preview"
)

// Defaults used when no override is configured.
const (
	DefaultTextModel       = ModelGemini3ProPreview
	DefaultImageModel      = ModelGemini25FlashImage
	DefaultChatModel       = ModelGemini25Flash
	DefaultValidationModel = ModelGemini3FlashPreview
)

// Environment variables that override the defaults.
const (
	EnvTextModel  = "GEMINI_TEXT_MODEL"
	EnvImageModel = "GEMINI_IMAGE_MODEL"
	EnvChatModel  = "GEMINI_CHAT_MODEL"
)

// TextModel returns the model that writes level metadata.
func TextModel() string {
	return modelFromEnv(EnvTextModel, DefaultTextModel)
}

// ImageModel returns the model that draws and edits puzzle images.
func ImageModel() string {
	return modelFromEnv(EnvImageModel, DefaultImageModel)
}

// ChatModel returns the model behind the chat proxy.
func ChatModel() string {
	return modelFromEnv(EnvChatModel, DefaultChatModel)
}

func modelFromEnv(key, fallback string) string {
	if env := os.Getenv(key); env != "" {
		return env
	}
	return fallback
}
