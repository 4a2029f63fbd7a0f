package provider

import (
	"context"
	"errors"
	"fmt"

	"github.com/findexa/repscout/config"
	"github.com/findexa/repscout/models"
	gemini_provider "github.com/findexa/repscout/provider/gemini"
	openai_provider "github.com/findexa/repscout/provider/openai"
)

// ErrGeneration marks an oracle call that failed or returned an unparsable
// structure. Fatal to the session that issued it; not retried at this layer.
var ErrGeneration = errors.New("oracle generation failed")

// Oracle is the LLM-backed decision service consumed by the finder and
// extraction pipelines.
type Oracle interface {
	// DecideAction returns the structured navigation decision for one page.
	DecideAction(ctx context.Context, prompt string) (models.NavigationAction, error)
	// GenerateJSON fills out with a structured response to prompt.
	GenerateJSON(ctx context.Context, prompt string, out interface{}) error
	// GenerateWithSearch answers prompt with web-search grounding where the
	// backing provider supports it.
	GenerateWithSearch(ctx context.Context, prompt string) (string, error)
}

// NewOracle creates the configured oracle implementation.
func NewOracle(cfg config.LLMConfig) (Oracle, error) {
	switch cfg.Provider {
	case "gemini":
		return gemini_provider.New(cfg)
	case "openai":
		return openai_provider.New(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
