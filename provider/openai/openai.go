package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/findexa/repscout/config"
	"github.com/findexa/repscout/models"
	"github.com/findexa/repscout/utils"
)

// Client is an OpenAI-backed oracle. It has no search grounding;
// GenerateWithSearch degrades to a plain completion.
type Client struct {
	cfg    config.LLMConfig
	client *http.Client
}

func New(cfg config.LLMConfig) *Client {
	return &Client{cfg: cfg, client: &http.Client{Timeout: cfg.Timeout}}
}

func (c *Client) DecideAction(ctx context.Context, prompt string) (models.NavigationAction, error) {
	raw, err := c.complete(ctx, prompt+"\n\nReturn ONLY strict JSON matching the action shape described above.")
	if err != nil {
		return models.NavigationAction{}, err
	}
	var action models.NavigationAction
	if err := json.Unmarshal([]byte(utils.FirstJSON(raw)), &action); err != nil {
		return models.NavigationAction{}, fmt.Errorf("openai returned unparsable action: %w", err)
	}
	return action, nil
}

func (c *Client) GenerateJSON(ctx context.Context, prompt string, out interface{}) error {
	raw, err := c.complete(ctx, prompt+"\n\nReturn ONLY strict JSON.")
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(utils.FirstJSON(raw)), out); err != nil {
		return fmt.Errorf("openai returned unparsable structure: %w", err)
	}
	return nil
}

func (c *Client) GenerateWithSearch(ctx context.Context, prompt string) (string, error) {
	return c.complete(ctx, prompt)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	apiKey := c.cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not configured")
	}

	type chatMsg struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	}
	type chatReq struct {
		Model       string    `json:"model"`
		Messages    []chatMsg `json:"messages"`
		Temperature float64   `json:"temperature,omitempty"`
	}

	body, err := json.Marshal(chatReq{
		Model:       c.cfg.Model,
		Messages:    []chatMsg{{Role: "user", Content: prompt}},
		Temperature: c.cfg.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("marshal: %w", err)
	}

	baseURL := c.cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	req, err := http.NewRequestWithContext(ctx, "POST", baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai request failed: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("openai response read failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openai returned %d: %s", resp.StatusCode, payload)
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", fmt.Errorf("openai response unmarshal failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}
