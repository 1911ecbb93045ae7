package gemini

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/inkgraph/backend/pkg/ai"
)

const defaultModel = "gemini-1.5-flash"

// Client generates structured JSON through the Gemini API. The underlying
// SDK client is created lazily on first use and reused for the process
// lifetime; a failed creation is retried on the next call.
type Client struct {
	apiKey string
	model  string

	mu     sync.Mutex
	client *genai.Client
}

type Params struct {
	APIKey string
	// Model overrides the default generation model.
	Model string
}

func New(params Params) *Client {
	model := params.Model
	if model == "" {
		model = defaultModel
	}
	return &Client{apiKey: params.APIKey, model: model}
}

// Provider implements ai.Client.
func (c *Client) Provider() string {
	return "gemini"
}

func (c *Client) sdk(ctx context.Context) (*genai.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		return c.client, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("gemini api key not configured")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	c.client = client
	return client, nil
}

// GenerateStructured implements ai.Client. Gemini takes no response schema
// parameter here; JSON output is enforced through the response MIME type and
// the schema is described in the prompt by the caller.
func (c *Client) GenerateStructured(
	ctx context.Context,
	name string,
	description string,
	system string,
	prompt string,
	out any,
	opts ...ai.GenerateOption,
) error {
	client, err := c.sdk(ctx)
	if err != nil {
		return err
	}

	options := ai.GenerateOptions{
		Model:       c.model,
		Temperature: 0.2,
	}
	for _, o := range opts {
		o(&options)
	}

	model := client.GenerativeModel(options.Model)
	model.SetTemperature(float32(options.Temperature))
	model.SetTopP(0.95)
	model.ResponseMIMEType = "application/json"
	if system != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(system)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("gemini generation: %w", err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("empty response from %s", options.Model)
	}
	return ai.UnmarshalFlexible(text, out)
}

func responseText(resp *genai.GenerateContentResponse) string {
	var out strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				out.WriteString(string(text))
			}
		}
		// Only the first candidate with content is used.
		break
	}
	return out.String()
}
