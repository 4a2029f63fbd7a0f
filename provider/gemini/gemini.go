package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/findexa/repscout/config"
	"github.com/findexa/repscout/models"
	"github.com/findexa/repscout/utils"
	"google.golang.org/genai"
)

var harmCategories = []genai.HarmCategory{
	genai.HarmCategoryCivicIntegrity,
	genai.HarmCategoryDangerousContent,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategoryHarassment,
	genai.HarmCategorySexuallyExplicit,
}

// actionSchema constrains decision responses to the navigation action shape.
var actionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"action": {
			Type:        genai.TypeString,
			Description: "The chosen action to perform",
			Enum:        []string{"done", "visit", "back", "abort"},
		},
		"link": {
			Type:        genai.TypeString,
			Description: "The extracted url pointing to the requested resource (only fill in case of action=done)",
			Nullable:    genai.Ptr(true),
		},
		"link_to_visit": {
			Type:        genai.TypeString,
			Description: "The url to visit next (only fill in case of action=visit)",
			Nullable:    genai.Ptr(true),
		},
		"reference_year": {
			Type:        genai.TypeString,
			Description: "The reference date of the requested resource as YYYY-MM-DD (only fill in case of action=done)",
			Nullable:    genai.Ptr(true),
		},
		"error": {
			Type:        genai.TypeString,
			Description: "Error message to fill in case of abort action",
			Nullable:    genai.Ptr(true),
		},
		"note": {
			Type:        genai.TypeString,
			Description: "Brief message summarizing the contents of the visited page (only fill in case of action=back)",
			Nullable:    genai.Ptr(true),
		},
	},
	Required: []string{"action"},
}

// Client is the Gemini-backed oracle.
type Client struct {
	cfg    config.LLMConfig
	client *genai.Client
}

func New(cfg config.LLMConfig) (*Client, error) {
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key not configured (llm.api_key or GEMINI_API_KEY)")
	}
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return &Client{cfg: cfg, client: client}, nil
}

func (c *Client) baseConfig() *genai.GenerateContentConfig {
	settings := make([]*genai.SafetySetting, 0, len(harmCategories))
	for _, category := range harmCategories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThresholdBlockNone,
		})
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:    genai.Ptr(float32(c.cfg.Temperature)),
		SafetySettings: settings,
	}
	if c.cfg.ThinkingBudget > 0 {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: genai.Ptr(c.cfg.ThinkingBudget)}
	}
	return cfg
}

func (c *Client) DecideAction(ctx context.Context, prompt string) (models.NavigationAction, error) {
	gcfg := c.baseConfig()
	gcfg.ResponseMIMEType = "application/json"
	gcfg.ResponseSchema = actionSchema

	result, err := c.client.Models.GenerateContent(ctx, c.model(), genai.Text(prompt), gcfg)
	if err != nil {
		return models.NavigationAction{}, fmt.Errorf("gemini generation failed: %w", err)
	}
	var action models.NavigationAction
	if err := json.Unmarshal([]byte(utils.FirstJSON(result.Text())), &action); err != nil {
		return models.NavigationAction{}, fmt.Errorf("gemini returned unparsable action: %w", err)
	}
	return action, nil
}

func (c *Client) GenerateJSON(ctx context.Context, prompt string, out interface{}) error {
	gcfg := c.baseConfig()
	gcfg.ResponseMIMEType = "application/json"

	result, err := c.client.Models.GenerateContent(ctx, c.model(), genai.Text(prompt), gcfg)
	if err != nil {
		return fmt.Errorf("gemini generation failed: %w", err)
	}
	if err := json.Unmarshal([]byte(utils.FirstJSON(result.Text())), out); err != nil {
		return fmt.Errorf("gemini returned unparsable structure: %w", err)
	}
	return nil
}

func (c *Client) GenerateWithSearch(ctx context.Context, prompt string) (string, error) {
	gcfg := c.baseConfig()
	gcfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}

	model := c.cfg.SearchModel
	if model == "" {
		model = c.model()
	}
	result, err := c.client.Models.GenerateContent(ctx, model, genai.Text(prompt), gcfg)
	if err != nil {
		return "", fmt.Errorf("gemini search generation failed: %w", err)
	}
	return result.Text(), nil
}

func (c *Client) model() string {
	if c.cfg.Model != "" {
		return c.cfg.Model
	}
	return "gemini-2.5-pro-preview-03-25"
}
