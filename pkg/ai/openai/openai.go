package openai

import (
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultModel = "gpt-4o-mini"

// Client generates structured JSON through an OpenAI-compatible chat
// completions endpoint.
type Client struct {
	chat  *openai.Client
	model string
}

type Params struct {
	APIKey string
	// BaseURL points at an alternative OpenAI-compatible endpoint. Empty
	// means the official API.
	BaseURL string
	Model   string
}

func New(params Params) (*Client, error) {
	if params.APIKey == "" {
		return nil, fmt.Errorf("openai api key not configured")
	}

	options := []option.RequestOption{option.WithAPIKey(params.APIKey)}
	if params.BaseURL != "" {
		options = append(options, option.WithBaseURL(params.BaseURL))
	}
	chat := openai.NewClient(options...)

	model := params.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{chat: &chat, model: model}, nil
}

// Provider implements ai.Client.
func (c *Client) Provider() string {
	return "openai"
}
