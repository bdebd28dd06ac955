package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/johanneskirmayr/CarMem/internal/domain"
)

const DefaultChatModel = openai.GPT4o

// OpenAIClient implements domain.LLMClient over the OpenAI chat completions
// API with function calling. Both capabilities run at temperature 0.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = DefaultChatModel
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

func (c *OpenAIClient) ExtractPreferences(ctx context.Context, req domain.ExtractionRequest) (map[string]any, error) {
	system := fmt.Sprintf(extractionSystemPrompt, req.UserName, req.FunctionName, req.CustomInstructions)
	if req.RetryNote != "" {
		system += "\n" + req.RetryNote
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(extractionHumanPrompt, req.Conversation, req.UserName)},
		},
		Functions: []openai.FunctionDefinition{{
			Name:        req.FunctionName,
			Description: req.FunctionDescription,
			Parameters:  req.Parameters,
		}},
		FunctionCall: openai.FunctionCall{Name: req.FunctionName},
	})
	if err != nil {
		return nil, fmt.Errorf("extraction completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("extraction completion returned no choices")
	}
	call := resp.Choices[0].Message.FunctionCall
	if call == nil {
		return nil, fmt.Errorf("extraction completion returned no function call")
	}

	var out map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &out); err != nil {
		return nil, fmt.Errorf("decode extraction arguments: %w", err)
	}
	return out, nil
}

func (c *OpenAIClient) DecideMaintenance(ctx context.Context, req domain.MaintenanceRequest) (*domain.ToolCall, error) {
	var system string
	switch req.Policy {
	case domain.MultiplePossible:
		system = maintenanceSystemMP
	case domain.MultipleNotPossible:
		system = maintenanceSystemMNP
	default:
		return nil, fmt.Errorf("unknown cardinality policy: %q", req.Policy)
	}
	if req.Retry {
		system = maintenanceRetryPrefix + system
	}

	existing, err := json.Marshal(req.Existing)
	if err != nil {
		return nil, fmt.Errorf("marshal existing preferences: %w", err)
	}
	incoming, err := json.Marshal(req.Incoming)
	if err != nil {
		return nil, fmt.Errorf("marshal incoming preference: %w", err)
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf(maintenanceHumanPrompt, existing, incoming)},
			{Role: openai.ChatMessageRoleUser, Content: maintenanceInstructionPrompt},
		},
		Tools: maintenanceTools(req.Policy),
	})
	if err != nil {
		return nil, fmt.Errorf("maintenance completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("maintenance completion returned no choices")
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return nil, nil
	}
	return &domain.ToolCall{
		Name:      calls[0].Function.Name,
		Arguments: json.RawMessage(calls[0].Function.Arguments),
	}, nil
}

// maintenanceTools returns the tool definitions for the policy's legal
// action set: append/pass/update under MP, pass/update under MNP.
func maintenanceTools(policy domain.Cardinality) []openai.Tool {
	attributeField := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}

	appendTool := openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        string(domain.ActionAppend),
			Description: appendToolDescription,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"incoming_preference": attributeField("the attribute of the incoming preference"),
				},
				"required": []string{"incoming_preference"},
			},
		},
	}
	passTool := openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        string(domain.ActionPass),
			Description: passToolDescription,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to_pass_incoming_preference":     attributeField("the attribute of the incoming preference"),
					"pk_of_equal_existing_preference": attributeField("the primary key (pk) of the existing preference that is equal to the incoming preference attribute"),
				},
				"required": []string{"to_pass_incoming_preference", "pk_of_equal_existing_preference"},
			},
		},
	}
	updateTool := openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        string(domain.ActionUpdate),
			Description: updateToolDescription,
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"to_insert_incoming_preference":       attributeField("the attribute of the incoming preference"),
					"pk_of_to_delete_existing_preference": attributeField("the primary key (pk) of existing preference that should be deleted"),
				},
				"required": []string{"to_insert_incoming_preference", "pk_of_to_delete_existing_preference"},
			},
		},
	}

	if policy == domain.MultipleNotPossible {
		return []openai.Tool{passTool, updateTool}
	}
	return []openai.Tool{appendTool, passTool, updateTool}
}
