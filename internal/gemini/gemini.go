// Package gemini generates synthetic but realistic news titles used to
// seed the vector index for a new subcategory.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultModel = "gemini-1.5-flash"

const titlePrompt = `You are an expert dummy but realistic data generator in the field of AI. You will be given an
AI related topic. Generate %d news titles which resemble the given AI topic. Give diverse news titles.

Topic:
%s

Output Format:
{
    "titles": ["title1", "title2", ...]
}
The output should be the given json format. No any extra text. No explanation. No markdown format.
Just a parsable json string.`

type Client struct {
	client *genai.Client
	model  string
}

func NewClient(ctx context.Context, apiKey string) (*Client, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &Client{client: client, model: defaultModel}, nil
}

func (c *Client) Close() {
	if c.client != nil {
		c.client.Close()
	}
}

// GenerateNewsTitles asks the model for count titles about the topic.
func (c *Client) GenerateNewsTitles(ctx context.Context, topic string, count int) ([]string, error) {
	if count <= 0 {
		count = 3
	}
	prompt := fmt.Sprintf(titlePrompt, count, topic)

	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	raw := collectText(resp)
	if raw == "" {
		return nil, fmt.Errorf("empty response from Gemini")
	}

	titles, err := parseTitlesJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("parse generated titles: %w", err)
	}
	return titles, nil
}

// collectText joins all text parts of the first candidate.
func collectText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		break
	}
	return b.String()
}

// parseTitlesJSON decodes the {"titles": [...]} document. Models
// sometimes wrap output in a code fence despite instructions, so fences
// are stripped before decoding.
func parseTitlesJSON(raw string) ([]string, error) {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
		raw = strings.TrimSpace(raw)
	}

	var decoded struct {
		Titles []string `json:"titles"`
	}
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		return nil, err
	}
	if len(decoded.Titles) == 0 {
		return nil, fmt.Errorf("no titles in response")
	}

	titles := make([]string, 0, len(decoded.Titles))
	for _, t := range decoded.Titles {
		if t = strings.TrimSpace(t); t != "" {
			titles = append(titles, t)
		}
	}
	if len(titles) == 0 {
		return nil, fmt.Errorf("only blank titles in response")
	}
	return titles, nil
}
