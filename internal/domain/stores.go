package domain

import "context"

// PreferenceStore is the narrow adapter over the vector-indexed preference
// collection: point insert, delete by key, bucket-scoped query, and
// nearest-neighbor search.
type PreferenceStore interface {
	Insert(ctx context.Context, p *Preference) error
	Delete(ctx context.Context, pk string) error
	QueryBucket(ctx context.Context, key BucketKey) ([]Preference, error)
	Search(ctx context.Context, vector []float32, key BucketKey, limit int) ([]PreferenceWithScore, error)
}

// EmbeddingClient produces the fixed-dimension embedding of a text.
type EmbeddingClient interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ExtractionRequest is one call against the LLM extraction capability.
type ExtractionRequest struct {
	UserName            string
	Conversation        string
	FunctionName        string
	FunctionDescription string
	CustomInstructions  string
	// Parameters is the JSON-schema parameter tree of the extraction
	// function, built from the (possibly narrowed) taxonomy descriptor.
	Parameters map[string]any
	// RetryNote is appended to the system instructions on the single
	// bounded retry; empty on the first attempt.
	RetryNote string
}

// ExistingSummary is the view of a stored preference shown to the
// maintenance classifier.
type ExistingSummary struct {
	PK             string `json:"pk"`
	DetailCategory string `json:"detail_category"`
	Text           string `json:"text"`
	Attribute      string `json:"attribute"`
}

// IncomingSummary is the view of the incoming preference shown to the
// maintenance classifier.
type IncomingSummary struct {
	DetailCategory string `json:"detail_category"`
	Text           string `json:"text"`
	Attribute      string `json:"attribute"`
}

// MaintenanceRequest is one call against the LLM maintenance classifier.
type MaintenanceRequest struct {
	Incoming IncomingSummary
	Existing []ExistingSummary
	Policy   Cardinality
	// Retry marks the amended second attempt after a response without a
	// tool call.
	Retry bool
}

// LLMClient is the request/response contract with the language model. The
// model's output is unconstrained; callers validate and decode it.
type LLMClient interface {
	// ExtractPreferences returns the raw function-call arguments of the
	// extraction function as a nested map, unvalidated.
	ExtractPreferences(ctx context.Context, req ExtractionRequest) (map[string]any, error)
	// DecideMaintenance returns the first tool call of the classifier
	// response, or nil when the response contains no tool call.
	DecideMaintenance(ctx context.Context, req MaintenanceRequest) (*ToolCall, error)
}
