package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	. "github.com/roelfdiedericks/azsh/internal/logging"
	"github.com/roelfdiedericks/azsh/internal/tokens"
	"github.com/roelfdiedericks/azsh/internal/types"
)

// AnthropicConfig configures the Anthropic provider.
type AnthropicConfig struct {
	APIKey        string
	Model         string
	MaxTokens     int
	PromptCaching bool
}

// AnthropicProvider implements Provider against Anthropic's Claude API with
// streaming, native tool calling, and optional prompt caching.
type AnthropicProvider struct {
	client        *anthropic.Client
	model         string
	maxTokens     int
	promptCaching bool
}

// NewAnthropicProvider creates the provider. The API key is required.
func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, ErrUnavailable{Provider: "anthropic", Reason: "API key not configured (set ANTHROPIC_API_KEY)"}
	}

	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))

	L_debug("anthropic provider created", "model", cfg.Model, "maxTokens", maxTokens, "promptCaching", cfg.PromptCaching)

	return &AnthropicProvider{
		client:        &client,
		model:         cfg.Model,
		maxTokens:     maxTokens,
		promptCaching: cfg.PromptCaching,
	}, nil
}

// Name returns the provider name
func (p *AnthropicProvider) Name() string {
	return "anthropic"
}

// Model returns the configured model name
func (p *AnthropicProvider) Model() string {
	return p.model
}

// IsAvailable returns true if the provider is configured and ready
func (p *AnthropicProvider) IsAvailable() bool {
	return p != nil && p.client != nil && p.model != ""
}

// ContextTokens returns the model's context window size in tokens.
// Standard context is 200k for all current Claude models.
func (p *AnthropicProvider) ContextTokens() int {
	return 200000
}

// MaxTokens returns the current output limit
func (p *AnthropicProvider) MaxTokens() int {
	return p.maxTokens
}

// StreamMessage sends the conversation to the model and streams the response.
// onDelta is called for each text chunk received.
func (p *AnthropicProvider) StreamMessage(
	ctx context.Context,
	messages []types.Message,
	toolDefs []types.ToolDefinition,
	systemPrompt string,
	onDelta func(delta string),
) (*Response, error) {
	anthropicMessages := convertMessages(messages)
	anthropicTools := convertTools(toolDefs)

	// Cap max_tokens so input + output fits the context window
	estimator := tokens.Get()
	estimatedInput := estimator.Count(systemPrompt)
	for _, m := range messages {
		estimatedInput += estimator.Count(m.Content) + 4
	}
	maxTokens := tokens.CapMaxTokens(p.maxTokens, p.ContextTokens(), estimatedInput)

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(maxTokens),
		Messages:  anthropicMessages,
	}

	if systemPrompt != "" {
		block := anthropic.TextBlockParam{Text: systemPrompt}
		if p.promptCaching {
			// The system prompt is stable across turns and benefits from caching
			block.CacheControl = anthropic.NewCacheControlEphemeralParam()
		}
		params.System = []anthropic.TextBlockParam{block}
	}

	if len(anthropicTools) > 0 {
		params.Tools = anthropicTools
	}

	L_debug("llm: request started", "model", p.model, "messages", len(messages), "tools", len(toolDefs))

	stream := p.client.Messages.NewStreaming(ctx, params)

	response := &Response{}
	message := anthropic.Message{}

	for stream.Next() {
		event := stream.Current()

		if err := message.Accumulate(event); err != nil {
			return nil, fmt.Errorf("accumulate error: %w", err)
		}

		switch eventVariant := event.AsAny().(type) {
		case anthropic.ContentBlockDeltaEvent:
			if deltaVariant, ok := eventVariant.Delta.AsAny().(anthropic.TextDelta); ok {
				if onDelta != nil {
					onDelta(deltaVariant.Text)
				}
				response.Text += deltaVariant.Text
			}
		}
	}

	if err := stream.Err(); err != nil {
		L_error("llm: stream error", "error", err)
		return nil, fmt.Errorf("stream error: %w", err)
	}

	response.StopReason = string(message.StopReason)
	response.InputTokens = int(message.Usage.InputTokens)
	response.OutputTokens = int(message.Usage.OutputTokens)

	for _, block := range message.Content {
		if variant, ok := block.AsAny().(anthropic.ToolUseBlock); ok {
			response.ToolUseID = variant.ID
			response.ToolName = variant.Name
			inputBytes, _ := json.Marshal(variant.Input)
			response.ToolInput = inputBytes
			L_debug("llm: tool use", "tool", variant.Name, "id", variant.ID)
		}
	}

	L_debug("llm: request completed",
		"stopReason", response.StopReason,
		"inputTokens", response.InputTokens,
		"outputTokens", response.OutputTokens)

	return response, nil
}

// convertMessages converts session messages to Anthropic format. tool_use and
// tool_result messages pair up via ToolUseID.
func convertMessages(messages []types.Message) []anthropic.MessageParam {
	var result []anthropic.MessageParam

	for _, msg := range messages {
		switch msg.Role {
		case "user":
			if msg.Content == "" {
				continue
			}
			result = append(result, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))

		case "assistant":
			if msg.Content == "" {
				continue
			}
			result = append(result, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))

		case "tool_use":
			var input map[string]any
			json.Unmarshal(msg.ToolInput, &input)
			result = append(result, anthropic.NewAssistantMessage(
				anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    msg.ToolUseID,
						Name:  msg.ToolName,
						Input: input,
					},
				},
			))

		case "tool_result":
			content := msg.Content
			if content == "" {
				content = "[empty result]"
			}
			result = append(result, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(msg.ToolUseID, content, false),
			))
		}
	}

	return result
}

// convertTools converts our tool definitions to Anthropic format
func convertTools(defs []types.ToolDefinition) []anthropic.ToolUnionParam {
	result := make([]anthropic.ToolUnionParam, 0, len(defs))

	for _, def := range defs {
		var properties any
		if props, ok := def.InputSchema["properties"]; ok {
			properties = props
		}

		result = append(result, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        def.Name,
				Description: anthropic.String(def.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: properties},
			},
		})
	}

	return result
}
