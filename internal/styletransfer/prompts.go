package styletransfer

import (
	"fmt"
	"strings"
)

var prompts = map[string]string{
	"pompadour":    "a photo of the same person with a voluminous pompadour haircut, natural lighting, photorealistic",
	"undercut":     "a photo of the same person with an undercut hairstyle, short sides and longer top, photorealistic",
	"buzz_cut":     "a photo of the same person with a clean buzz cut, photorealistic",
	"quiff":        "a photo of the same person with a textured quiff hairstyle, photorealistic",
	"bob_cut":      "a photo of the same person with a chin length bob cut, photorealistic",
	"long_layered": "a photo of the same person with long layered hair, soft waves, photorealistic",
	"curly":        "a photo of the same person with natural curly hair, photorealistic",
}

// PromptFor returns the generation prompt for a style name. Unknown styles
// get a templated prompt.
func PromptFor(style string) string {
	key := strings.ToLower(strings.TrimSpace(style))
	key = strings.ReplaceAll(key, " ", "_")
	if p, ok := prompts[key]; ok {
		return p
	}
	name := strings.TrimSpace(style)
	if name == "" {
		name = "modern"
	}
	return fmt.Sprintf("a photo of the same person with a %s hairstyle, keep the face unchanged, photorealistic", name)
}
