package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ActionName is the wire name of a maintenance function exposed to the LLM.
type ActionName string

const (
	ActionInsert ActionName = "insert_preference"
	ActionPass   ActionName = "pass_preference"
	ActionUpdate ActionName = "update_preference"
	ActionAppend ActionName = "append_preference"
)

// Label returns the numeric evaluation label for the action, or -1 for an
// unknown action.
func (a ActionName) Label() int {
	switch a {
	case ActionInsert:
		return 0
	case ActionPass:
		return 1
	case ActionUpdate:
		return 2
	case ActionAppend:
		return 3
	}
	return -1
}

// ToolCall is one function call produced by the maintenance classifier,
// before decoding.
type ToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

// Action is the closed set of decoded maintenance actions. The classifier
// response is decoded exactly once into this union; anything else is
// rejected, never guessed.
type Action interface {
	Name() ActionName
}

// InsertAction persists an incoming preference into an empty bucket. It is
// never produced by the classifier; the engine short-circuits to it.
type InsertAction struct{}

func (InsertAction) Name() ActionName { return ActionInsert }

// AppendAction adds the incoming preference next to the existing ones.
type AppendAction struct {
	IncomingAttribute string
}

func (AppendAction) Name() ActionName { return ActionAppend }

// PassAction discards the incoming preference because an equal one already
// exists; EqualPK names that existing record.
type PassAction struct {
	IncomingAttribute string
	EqualPK           string
}

func (PassAction) Name() ActionName { return ActionPass }

// UpdateAction replaces the existing record named by DeletePK with the
// incoming preference.
type UpdateAction struct {
	IncomingAttribute string
	DeletePK          string
}

func (UpdateAction) Name() ActionName { return ActionUpdate }

var (
	// ErrUnknownTool means the classifier named a function outside the
	// closed action set.
	ErrUnknownTool = errors.New("unknown maintenance tool")
	// ErrIllegalAction means the named action exists but is not in the
	// legal set for the bucket's cardinality policy.
	ErrIllegalAction = errors.New("action not in legal set")
)

type appendArgs struct {
	IncomingPreference string `json:"incoming_preference"`
}

type passArgs struct {
	ToPassIncomingPreference    string `json:"to_pass_incoming_preference"`
	PKOfEqualExistingPreference string `json:"pk_of_equal_existing_preference"`
}

type updateArgs struct {
	ToInsertIncomingPreference     string `json:"to_insert_incoming_preference"`
	PKOfToDeleteExistingPreference string `json:"pk_of_to_delete_existing_preference"`
}

// DecodeAction decodes a raw tool call into the action union, enforcing the
// legal action set. Unrecognized tool names and actions outside the legal set
// are errors.
func DecodeAction(tc ToolCall, legal []ActionName) (Action, error) {
	name := ActionName(tc.Name)
	switch name {
	case ActionAppend, ActionPass, ActionUpdate:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownTool, tc.Name)
	}

	allowed := false
	for _, l := range legal {
		if l == name {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %q", ErrIllegalAction, tc.Name)
	}

	switch name {
	case ActionAppend:
		var args appendArgs
		if err := json.Unmarshal(tc.Arguments, &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return AppendAction{IncomingAttribute: args.IncomingPreference}, nil
	case ActionPass:
		var args passArgs
		if err := json.Unmarshal(tc.Arguments, &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return PassAction{
			IncomingAttribute: args.ToPassIncomingPreference,
			EqualPK:           args.PKOfEqualExistingPreference,
		}, nil
	default:
		var args updateArgs
		if err := json.Unmarshal(tc.Arguments, &args); err != nil {
			return nil, fmt.Errorf("decode %s arguments: %w", name, err)
		}
		return UpdateAction{
			IncomingAttribute: args.ToInsertIncomingPreference,
			DeletePK:          args.PKOfToDeleteExistingPreference,
		}, nil
	}
}
