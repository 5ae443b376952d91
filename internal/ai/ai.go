/*
Package ai asks Gemini for a short digest of the announcements a run
collected.
*/
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/shanehull/regscraper/internal/types"
)

// Highlight is one noteworthy observation of the digest.
type Highlight struct {
	Category string `json:"category"`
	Details  string `json:"details"`
}

// Digest is the structured model answer.
type Digest struct {
	Summary    []string    `json:"summary"`
	Highlights []Highlight `json:"highlights"`
}

// Client wraps a Gemini client bound to one model.
type Client struct {
	genai *genai.Client
	model string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{genai: client, model: model}, nil
}

// Digest summarises anns. An empty list yields an empty digest without a call.
func (c *Client) Digest(ctx context.Context, anns []types.Announcement) (*Digest, error) {
	if len(anns) == 0 {
		return &Digest{}, nil
	}

	userContent := &genai.Content{
		Parts: []*genai.Part{
			{Text: buildPrompt(anns, maxListed)},
		},
		Role: "user",
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, []*genai.Content{userContent}, &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: systemInstruction}}},
		ResponseMIMEType:  "application/json",
		ResponseSchema:    responseSchema(),
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API call failed: %w", err)
	}

	return parseDigest(resp.Text())
}

func parseDigest(text string) (*Digest, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	var digest Digest
	if err := json.Unmarshal([]byte(text), &digest); err != nil {
		return nil, fmt.Errorf("failed to unmarshal gemini JSON response: %w. Raw text: %s", err, text)
	}
	return &digest, nil
}

func responseSchema() *genai.Schema {
	highlightSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"category": {Type: genai.TypeString, Description: "One of the defined highlight categories."},
			"details":  {Type: genai.TypeString, Description: "The companies and courts concerned, with counts."},
		},
		Required: []string{"category", "details"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary": {
				Type:        genai.TypeArray,
				Items:       &genai.Schema{Type: genai.TypeString},
				Description: "3-5 concise bullet points summarising the day's register activity.",
			},
			"highlights": {
				Type:        genai.TypeArray,
				Items:       highlightSchema,
				Description: "Specific announcements worth a closer look.",
			},
		},
		Required: []string{"summary", "highlights"},
	}
}
