// Package llm asks an OpenAI-compatible provider to draft a transform plan
// from a natural-language goal. The provider is optional; callers fall back
// to local synthesis when no client is configured or the provider output is
// unusable.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go-transform-pipeline/internal/config"
	"go-transform-pipeline/internal/transform"

	"github.com/rs/zerolog/log"
)

// PlanSource produces a transform plan for a goal, or reports that it cannot.
type PlanSource interface {
	TryGetPlan(ctx context.Context, goal, recordPath string, sample *transform.Row) (*transform.Plan, bool, error)
}

// Client is a chat-completions PlanSource.
type Client struct {
	cfg    config.LLMConfig
	client *http.Client
}

// NewClient returns a configured client, or nil when the provider is
// disabled or has no API key. A nil *Client is a valid "no provider" state.
func NewClient(cfg config.LLMConfig) *Client {
	if !cfg.Enabled || strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}
	return &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

const systemPrompt = `You translate a user's goal into a flat-table transform plan.
Respond with a single JSON object, no prose, matching this shape:
{"planVersion":"1.0","source":{"recordPath":"<given>"},"steps":[...]}
Allowed steps: select {fields:[{from,as}]}, filter {where}, compute
{compute:[{as,expr}]}, sort {by,dir}, groupBy {keys} (must be immediately
followed by aggregate), aggregate {metrics:[{as,fn,field}]} with fn one of
sum|count|avg|min|max, limit {n}. Filter conditions use
{op:eq|neq|gt|gte|lt|lte|and|or|not, left/right:{field}|{value}, conds, cond}.
Only reference fields present in the sample record.`

// TryGetPlan asks the provider for a plan. The returned bool reports whether
// a valid plan was obtained; provider or validation failures come back as a
// non-nil error with ok=false so the caller can fall back.
func (c *Client) TryGetPlan(ctx context.Context, goal, recordPath string, sample *transform.Row) (*transform.Plan, bool, error) {
	if c == nil {
		return nil, false, nil
	}

	sampleJSON, err := json.Marshal(sample)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode sample record: %w", err)
	}

	user := fmt.Sprintf("Goal: %s\nRecord path: %s\nSample record: %s", goal, recordPath, sampleJSON)
	body, err := json.Marshal(chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: user},
		},
		Temperature:    0,
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return nil, false, err
	}

	url := strings.TrimSuffix(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("plan provider request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read provider response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, false, fmt.Errorf("plan provider returned HTTP %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, false, fmt.Errorf("failed to decode provider response: %w", err)
	}
	if parsed.Error != nil {
		return nil, false, fmt.Errorf("plan provider error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, false, fmt.Errorf("plan provider returned no choices")
	}

	content := stripFences(parsed.Choices[0].Message.Content)
	plan, err := transform.ParseExternalPlan([]byte(content))
	if err != nil {
		log.Warn().Err(err).Msg("provider plan rejected")
		return nil, false, fmt.Errorf("provider plan rejected: %w", err)
	}
	return plan, true, nil
}

// stripFences removes a surrounding markdown code fence, which some models
// emit even when asked for bare JSON.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
