// Package ai talks to an OpenAI-compatible chat completion endpoint to rank
// catalog entries against a free-text query and to write short book summaries.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

type Config struct {
	APIKey  string        `yaml:"apiKey" json:"-" envconfig:"AI_API_KEY"`
	BaseURL string        `yaml:"baseURL" envconfig:"AI_BASE_URL" default:"https://generativelanguage.googleapis.com/v1beta/openai"`
	Model   string        `yaml:"model" envconfig:"AI_MODEL" default:"gemini-2.5-flash"`
	Timeout time.Duration `yaml:"timeout" envconfig:"AI_TIMEOUT" default:"60s"`
}

var (
	ErrUnconfigured = errors.New("AI service is not configured")
	ErrBadResponse  = errors.New("AI service returned an unreadable response")
)

type BookInfo struct {
	Title       string
	Author      string
	Genre       string
	Description *string
}

type CatalogEntry struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Author          string  `json:"author"`
	Genre           string  `json:"genre"`
	Description     *string `json:"description,omitempty"`
	PublicationYear *int    `json:"publicationYear,omitempty"`
	AvailableCopies int     `json:"availableCopies"`
}

type Match struct {
	BookID         string  `json:"bookId"`
	MatchReason    string  `json:"matchReason"`
	RelevanceScore float64 `json:"relevanceScore"`
}

type Client struct {
	api   *openai.Client
	model string
}

// New returns ErrUnconfigured when no API key is set; callers treat that as "feature off".
func New(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrUnconfigured
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = time.Minute
	}
	apiCfg.HTTPClient = &http.Client{Timeout: timeout}
	return &Client{
		api:   openai.NewClientWithConfig(apiCfg),
		model: cfg.Model,
	}, nil
}

const summaryPrompt = `You are a helpful librarian. Generate a concise, engaging summary (2-3 paragraphs) for the following book. Focus on themes, writing style, and who would enjoy it. Do not include spoilers.

Title: %s
Author: %s
Genre: %s
%s
Summary:`

func (c *Client) Summarize(ctx context.Context, book BookInfo) (string, error) {
	desc := ""
	if book.Description != nil && *book.Description != "" {
		desc = "Description: " + *book.Description
	}
	out, err := c.complete(ctx, fmt.Sprintf(summaryPrompt, book.Title, book.Author, book.Genre, desc))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

const searchPrompt = `You are a library search assistant. Given the catalog below (JSON) and a reader's request, pick the books that match the request best.
Reply with ONLY a JSON array, at most 10 items, ordered by relevance, each item shaped as
{"bookId": "<id from the catalog>", "matchReason": "<one sentence>", "relevanceScore": <number between 0 and 1>}.
Reply with [] when nothing matches.

Catalog:
%s

Request: %s`

func (c *Client) Search(ctx context.Context, query string, catalog []CatalogEntry) ([]Match, error) {
	data, err := json.Marshal(catalog)
	if err != nil {
		return nil, err
	}
	out, err := c.complete(ctx, fmt.Sprintf(searchPrompt, data, query))
	if err != nil {
		return nil, err
	}
	return ParseMatches(out)
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", errors.Wrap(err, "CreateChatCompletion")
	}
	if len(resp.Choices) == 0 {
		return "", ErrBadResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// ParseMatches pulls the JSON array out of a model reply, tolerating markdown fences
// and surrounding prose.
func ParseMatches(content string) ([]Match, error) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end < start {
		return nil, ErrBadResponse
	}
	var matches []Match
	if err := json.Unmarshal([]byte(content[start:end+1]), &matches); err != nil {
		return nil, errors.Wrap(ErrBadResponse, err.Error())
	}
	return matches, nil
}
