package llm

import (
	"context"

	"github.com/johanneskirmayr/CarMem/internal/domain"
)

// MockClient is a configurable LLM client for testing.
// Queue per-call responses in the *Responses slices (consumed in order); when
// a queue is empty the single *Response field is returned.
type MockClient struct {
	ExtractResponse  map[string]any
	ExtractResponses []map[string]any
	ExtractError     error

	DecideResponse  *domain.ToolCall
	DecideResponses []*domain.ToolCall
	DecideError     error

	// Call tracking for assertions
	ExtractCalls []domain.ExtractionRequest
	DecideCalls  []domain.MaintenanceRequest
}

func NewMockClient() *MockClient {
	return &MockClient{ExtractResponse: map[string]any{}}
}

func (c *MockClient) ExtractPreferences(ctx context.Context, req domain.ExtractionRequest) (map[string]any, error) {
	c.ExtractCalls = append(c.ExtractCalls, req)
	if c.ExtractError != nil {
		return nil, c.ExtractError
	}
	if len(c.ExtractResponses) > 0 {
		resp := c.ExtractResponses[0]
		c.ExtractResponses = c.ExtractResponses[1:]
		return resp, nil
	}
	return c.ExtractResponse, nil
}

func (c *MockClient) DecideMaintenance(ctx context.Context, req domain.MaintenanceRequest) (*domain.ToolCall, error) {
	c.DecideCalls = append(c.DecideCalls, req)
	if c.DecideError != nil {
		return nil, c.DecideError
	}
	if len(c.DecideResponses) > 0 {
		resp := c.DecideResponses[0]
		c.DecideResponses = c.DecideResponses[1:]
		return resp, nil
	}
	return c.DecideResponse, nil
}
