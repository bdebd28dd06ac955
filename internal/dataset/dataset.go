// Package dataset reads and writes the JSONL conversation dataset: one user
// per line, each with a batch of extraction conversations and their
// maintenance follow-up questions.
package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/johanneskirmayr/CarMem/internal/taxonomy"
)

// Turn is one conversation turn: a single-key map from speaker ("USER" or
// the assistant) to the utterance.
type Turn map[string]string

// Speaker key of user turns.
const SpeakerUser = "USER"

// MaintenanceQuestions are the follow-up utterances probing the maintenance
// engine after a conversation's preference was stored.
type MaintenanceQuestions struct {
	QuestionEqualPreference     string `json:"question_equal_preference"`
	QuestionNegatePreference    string `json:"question_negate_preference"`
	QuestionDifferentPreference string `json:"question_different_preference"`
	DifferentAttribute          string `json:"different_attribute"`
}

// Conversation is one datapoint: the ground-truth preference, the generated
// conversation revealing it, and optional annotations.
type Conversation struct {
	// UserPreference is the semicolon-delimited ground truth:
	// "main; sub; detail; attribute", in display labels.
	UserPreference         string                `json:"user_preference"`
	ExtractionConversation []Turn                `json:"extraction_conversation"`
	MaintenanceQuestions   *MaintenanceQuestions `json:"maintenance_questions,omitempty"`

	PreferenceStringInConversation  bool `json:"preference_string_in_conversation,omitempty"`
	PreferenceStringInUserSentences bool `json:"preference_string_in_user_sentences,omitempty"`
}

// UserRecord is one dataset line: one synthetic user with their
// conversations.
type UserRecord struct {
	UserUUID string         `json:"user_uuid"`
	Data     []Conversation `json:"data"`
}

// Username derives the short user name from the record's UUID.
func (r *UserRecord) Username() (string, error) {
	id, err := uuid.Parse(r.UserUUID)
	if err != nil {
		return "", fmt.Errorf("parse user uuid: %w", err)
	}
	hex := strings.ReplaceAll(id.String(), "-", "")
	return "john-" + hex[:4], nil
}

// GroundTruth is the parsed ground-truth preference with internal category
// keys.
type GroundTruth struct {
	MainCategory   string
	Subcategory    string
	DetailCategory string
	Attribute      string
}

// ParsePreference parses the "main; sub; detail; attribute" ground-truth
// string and resolves the category parts to internal taxonomy keys. A
// category outside the taxonomy is an error.
func ParsePreference(s string) (GroundTruth, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 4 {
		return GroundTruth{}, fmt.Errorf("malformed preference string %q: expected 4 parts, got %d", s, len(parts))
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	main, err := taxonomy.InternalKey(parts[0], taxonomy.LevelMain)
	if err != nil {
		return GroundTruth{}, err
	}
	sub, err := taxonomy.InternalKey(parts[1], taxonomy.LevelSub)
	if err != nil {
		return GroundTruth{}, err
	}
	detail, err := taxonomy.InternalKey(parts[2], taxonomy.LevelDetail)
	if err != nil {
		return GroundTruth{}, err
	}
	return GroundTruth{
		MainCategory:   main,
		Subcategory:    sub,
		DetailCategory: detail,
		Attribute:      parts[3],
	}, nil
}

// Stringify renders a conversation the way the extraction prompt expects it:
// user turns prefixed with the user name, assistant turns plain.
func Stringify(conversation []Turn, username string) string {
	var lines []string
	for _, turn := range conversation {
		for speaker, utterance := range turn {
			if speaker == SpeakerUser {
				lines = append(lines, fmt.Sprintf("User %s: %s", username, utterance))
			} else {
				lines = append(lines, fmt.Sprintf("Voice Assistant: %s", utterance))
			}
		}
	}
	return strings.Join(lines, "\n")
}

// ReadUsers loads every user record from a JSONL file.
func ReadUsers(path string) ([]UserRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer func() { _ = f.Close() }()

	var records []UserRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var record UserRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("decode dataset line %d: %w", lineNo, err)
		}
		records = append(records, record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	return records, nil
}

// AppendLine writes one JSON value as a line to the file, creating it when
// missing. Output files of batch runs grow line by line so a failed run keeps
// its finished users.
func AppendLine(path string, v any) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer func() { _ = f.Close() }()

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output line: %w", err)
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write output line: %w", err)
	}
	return nil
}

// MarkPreferenceStrings annotates each conversation with whether the
// ground-truth attribute literally appears in the conversation, and whether
// it appears in the user turns alone (the even-indexed turns).
func MarkPreferenceStrings(record *UserRecord) {
	for i := range record.Data {
		conv := &record.Data[i]
		parts := strings.Split(conv.UserPreference, ";")
		attribute := strings.ToLower(strings.TrimSpace(parts[len(parts)-1]))

		var all, userOnly []string
		for j, turn := range conv.ExtractionConversation {
			for _, utterance := range turn {
				all = append(all, utterance)
				if j%2 == 0 {
					userOnly = append(userOnly, utterance)
				}
			}
		}
		conv.PreferenceStringInConversation = strings.Contains(strings.ToLower(strings.Join(all, " ")), attribute)
		conv.PreferenceStringInUserSentences = strings.Contains(strings.ToLower(strings.Join(userOnly, " ")), attribute)
	}
}
