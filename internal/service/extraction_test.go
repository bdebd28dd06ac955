package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/johanneskirmayr/CarMem/internal/llm"
	"github.com/johanneskirmayr/CarMem/internal/taxonomy"
)

func validExtraction() map[string]any {
	return map[string]any{
		"points_of_interest": map[string]any{
			"restaurant": map[string]any{
				"favourite_cuisine": []any{
					map[string]any{
						"user_sentence_preference_revealed": "I love Italian food.",
						"user_preference":                   "Italian",
					},
				},
			},
		},
	}
}

func invalidExtraction() map[string]any {
	// Subcategory placed under the wrong main category.
	return map[string]any{
		"points_of_interest": map[string]any{
			"music": map[string]any{},
		},
	}
}

const conversation = "User john-0001: I love Italian food.\nAssistant: Noted!"

func TestExtractValidFirstTry(t *testing.T) {
	client := llm.NewMockClient()
	client.ExtractResponse = validExtraction()
	svc := NewExtractionService(client, zap.NewNop())

	result, err := svc.Extract(context.Background(), "john-0001", conversation, taxonomy.Default())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.ValidAtTry != 1 {
		t.Errorf("valid at try %d, want 1", result.ValidAtTry)
	}
	if len(result.Preferences) != 1 || result.Preferences[0].Attribute != "Italian" {
		t.Errorf("preferences = %+v", result.Preferences)
	}
	if len(client.ExtractCalls) != 1 {
		t.Fatalf("expected 1 extraction call, got %d", len(client.ExtractCalls))
	}
	req := client.ExtractCalls[0]
	if req.FunctionName != ExtractionFunctionName || req.RetryNote != "" {
		t.Errorf("unexpected request: %+v", req)
	}
	if req.UserName != "john-0001" || req.Conversation != conversation {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestExtractValidOnRetry(t *testing.T) {
	client := llm.NewMockClient()
	client.ExtractResponses = []map[string]any{invalidExtraction(), validExtraction()}
	svc := NewExtractionService(client, zap.NewNop())

	result, err := svc.Extract(context.Background(), "john-0001", conversation, taxonomy.Default())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.ValidAtTry != 2 {
		t.Errorf("valid at try %d, want 2", result.ValidAtTry)
	}
	if len(result.Preferences) != 1 {
		t.Errorf("expected 1 preference, got %d", len(result.Preferences))
	}
	if len(client.ExtractCalls) != 2 {
		t.Fatalf("expected 2 extraction calls, got %d", len(client.ExtractCalls))
	}
	note := client.ExtractCalls[1].RetryNote
	if !strings.Contains(note, "Errors from previous try") ||
		!strings.Contains(note, "different parent category") {
		t.Errorf("retry note missing failing output or validation error: %q", note)
	}
}

func TestExtractInvalidTwice(t *testing.T) {
	client := llm.NewMockClient()
	first := invalidExtraction()
	client.ExtractResponses = []map[string]any{first, {"still": "wrong"}}
	svc := NewExtractionService(client, zap.NewNop())

	result, err := svc.Extract(context.Background(), "john-0001", conversation, taxonomy.Default())
	if err != nil {
		t.Fatalf("double validation failure must not be an error: %v", err)
	}
	if result.ValidAtTry != 0 {
		t.Errorf("valid at try %d, want 0", result.ValidAtTry)
	}
	if len(result.Preferences) != 0 {
		t.Errorf("expected no preferences, got %+v", result.Preferences)
	}
	// The reported raw output is the first attempt's, not the retry's.
	if _, ok := result.Raw["points_of_interest"]; !ok {
		t.Errorf("raw output is not the first attempt's: %v", result.Raw)
	}
	if len(client.ExtractCalls) != 2 {
		t.Fatalf("expected exactly 2 extraction calls, got %d", len(client.ExtractCalls))
	}
}

func TestExtractEmptyOutputIsValid(t *testing.T) {
	client := llm.NewMockClient()
	svc := NewExtractionService(client, zap.NewNop())

	result, err := svc.Extract(context.Background(), "john-0001", conversation, taxonomy.Default())
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if result.ValidAtTry != 1 || len(result.Preferences) != 0 {
		t.Errorf("empty output should be valid with no preferences: %+v", result)
	}
}

func TestExtractTransportError(t *testing.T) {
	client := llm.NewMockClient()
	client.ExtractError = errors.New("connection refused")
	svc := NewExtractionService(client, zap.NewNop())

	if _, err := svc.Extract(context.Background(), "john-0001", conversation, taxonomy.Default()); err == nil {
		t.Error("expected transport error to propagate")
	}
}

func TestExtractAgainstNarrowedSchema(t *testing.T) {
	narrowed, err := taxonomy.Default().WithoutSubcategory("points_of_interest", "restaurant")
	if err != nil {
		t.Fatal(err)
	}
	client := llm.NewMockClient()
	client.ExtractResponses = []map[string]any{validExtraction(), validExtraction()}
	svc := NewExtractionService(client, zap.NewNop())

	result, err := svc.Extract(context.Background(), "john-0001", conversation, narrowed)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// Output uses the removed subcategory, so both attempts fail.
	if result.ValidAtTry != 0 {
		t.Errorf("valid at try %d, want 0", result.ValidAtTry)
	}
}
