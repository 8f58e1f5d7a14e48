// Package upstream contains the adapters for the external generation
// and speech services. Both are one-attempt, fail-soft boundaries: the
// orchestrator substitutes a fallback reply or a null audio path when
// they fail, it never surfaces their errors to the caller
package upstream

import (
	"context"

	"github.com/spf13/viper"
)

// FallbackReply is returned to the user when the generation provider
// fails. "I'm sorry, I don't know" in Twi
const FallbackReply = "Mepa wo kyɛw, mennim."

type Generator interface {
	Reply(ctx context.Context, prompt string) (string, error)
}

type Speech interface {
	// Synthesize returns a reference to the generated audio artifact.
	// An empty path with a nil error means the service answered with
	// something that isn't audio
	Synthesize(ctx context.Context, text string) (string, error)
}

// NewGenerator picks the configured generation provider
func NewGenerator() Generator {
	if viper.GetString("generation.provider") == "openai" {
		return NewOpenAI()
	}

	return NewGemini()
}
