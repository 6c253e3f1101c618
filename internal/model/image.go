package model

// GenerationRequest is the inbound body of POST /generate.
type GenerationRequest struct {
	Text string `json:"text" example:"A cat detective inspecting a rain-soaked alley at night"`
}

// GenerationResult is returned after an image was generated and stored.
// ImageURL is an inline data URI built from the API payload, not re-read from disk.
type GenerationResult struct {
	Status     string `json:"status" example:"success"`
	ImageURL   string `json:"image_url"`
	FilePath   string `json:"file_path" example:"generated/scene_20261019101500123456.png"`
	PromptUsed string `json:"prompt_used"`
}

// ListedImage is a stored image re-encoded for the listing endpoint.
type ListedImage struct {
	FilePath string `json:"file_path"`
	ImageURL string `json:"image_url"`
}

// StatusSuccess marks a completed generation.
const StatusSuccess = "success"

// PNGDataURIPrefix prefixes base64 PNG payloads returned to clients.
const PNGDataURIPrefix = "data:image/png;base64,"

// PNGDataURI wraps a base64 PNG payload as an inline data URI.
func PNGDataURI(b64 string) string {
	return PNGDataURIPrefix + b64
}
