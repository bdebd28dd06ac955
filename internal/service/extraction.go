package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/johanneskirmayr/CarMem/internal/domain"
	"github.com/johanneskirmayr/CarMem/internal/taxonomy"
)

// Extraction function exposed to the model.
const (
	ExtractionFunctionName        = "extract_user_preferences"
	ExtractionFunctionDescription = "A function that extracts long-term personal preferences of the user in the categories 'Points of Interest', 'Navigation and Routing', 'Vehicle Settings and Comfort', 'Entertainment and Media' and its specified subcategories. It ignores preferences that don't fit into the categories. Don't generate new categories"
	ExtractionCustomInstructions  = "Only extract long-term user preferences, no temporal desires in the current situation. It is better to not extract any preference than to extract temporal wishes."
)

// ExtractionResult reports one extraction run.
type ExtractionResult struct {
	// Preferences are the flattened records of the accepted output; empty
	// when both attempts failed validation.
	Preferences []domain.Preference
	// Raw is the unvalidated function output: the accepted attempt's, or
	// the first attempt's when both attempts failed.
	Raw map[string]any
	// Valid is the null-stripped accepted output; nil when both attempts
	// failed.
	Valid map[string]any
	// ValidAtTry is 1 or 2 for the attempt that passed validation, 0 when
	// both failed.
	ValidAtTry int
}

// ExtractionService runs schema-filtered preference extraction with a single
// bounded validation retry.
type ExtractionService struct {
	llm    domain.LLMClient
	logger *zap.Logger
}

func NewExtractionService(llm domain.LLMClient, logger *zap.Logger) *ExtractionService {
	return &ExtractionService{llm: llm, logger: logger}
}

func (s *ExtractionService) request(userName, conversation string, schema *taxonomy.Schema, retryNote string) domain.ExtractionRequest {
	return domain.ExtractionRequest{
		UserName:            userName,
		Conversation:        conversation,
		FunctionName:        ExtractionFunctionName,
		FunctionDescription: ExtractionFunctionDescription,
		CustomInstructions:  ExtractionCustomInstructions,
		Parameters:          schema.FunctionParameters(),
		RetryNote:           retryNote,
	}
}

func retryNote(firstOutput map[string]any, validationErr error) string {
	return fmt.Sprintf(
		"\n# Errors from previous try:\n Your previous call did not produce a valid output format "+
			"(possible reasons: category was skipped, non-existing key, subcategory corresponds to different parent category): %v. "+
			"This failed because of the validation error:\n%v"+
			"Please correct the error and extract the same preference in the correct format.",
		firstOutput, validationErr)
}

// Extract runs the extraction function against the conversation and validates
// the output against the schema. An invalid output triggers exactly one
// retry whose instructions carry the failing output and the validation error.
// When the retry fails too, the result has no preferences and reports the
// first attempt's raw output; this is not an error for the caller.
func (s *ExtractionService) Extract(ctx context.Context, userName, conversation string, schema *taxonomy.Schema) (*ExtractionResult, error) {
	first, err := s.llm.ExtractPreferences(ctx, s.request(userName, conversation, schema, ""))
	if err != nil {
		return nil, fmt.Errorf("extraction attempt: %w", err)
	}

	firstErr := taxonomy.Validate(first, schema)
	if firstErr == nil {
		return s.accept(first, userName, 1), nil
	}
	s.logger.Info("extraction output invalid, retrying",
		zap.String("user", userName),
		zap.String("validation_error", firstErr.Error()))

	second, err := s.llm.ExtractPreferences(ctx,
		s.request(userName, conversation, schema, retryNote(first, firstErr)))
	if err != nil {
		return nil, fmt.Errorf("extraction retry: %w", err)
	}

	secondErr := taxonomy.Validate(second, schema)
	if secondErr == nil {
		return s.accept(second, userName, 2), nil
	}
	s.logger.Error("extraction output invalid after retry",
		zap.String("user", userName),
		zap.String("first_error", firstErr.Error()),
		zap.String("second_error", secondErr.Error()))

	return &ExtractionResult{Raw: first, ValidAtTry: 0}, nil
}

func (s *ExtractionService) accept(raw map[string]any, userName string, try int) *ExtractionResult {
	valid := taxonomy.StripNulls(raw)
	return &ExtractionResult{
		Preferences: taxonomy.Flatten(valid, userName),
		Raw:         raw,
		Valid:       valid,
		ValidAtTry:  try,
	}
}
