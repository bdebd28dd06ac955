package taxonomy

import (
	"fmt"
	"strings"
)

// Schema is the descriptor tree handed to the extraction function: the
// taxonomy plus the per-node descriptions and example sets the model sees.
// Schemas are values; narrowing operations return deep copies and never touch
// the canonical tree.
type Schema struct {
	Mains []MainNode
}

// MainNode is a main category branch of the descriptor.
type MainNode struct {
	Key         string
	Title       string
	Description string
	Subs        []SubNode
}

// SubNode is a subcategory branch of the descriptor.
type SubNode struct {
	Key         string
	Label       string
	Description string
	Details     []DetailNode
}

// DetailNode is a leaf of the descriptor.
type DetailNode struct {
	Key         string
	Description string
	Examples    []string
}

func quoteJoin(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = "'" + k + "'"
	}
	return strings.Join(quoted, ", ")
}

// Default builds the full descriptor from the canonical taxonomy table.
func Default() *Schema {
	s := &Schema{}
	for _, m := range Mains() {
		subKeys := []string{}
		mainNode := MainNode{Key: m.Key, Title: m.Title}
		for _, sub := range SubsOf(m.Key) {
			subKeys = append(subKeys, sub.Key)
			detailKeys := []string{}
			subNode := SubNode{Key: sub.Key, Label: sub.Label}
			for _, d := range DetailsOf(sub.Key) {
				detailKeys = append(detailKeys, d.Key)
				subNode.Details = append(subNode.Details, DetailNode{
					Key:         d.Key,
					Description: fmt.Sprintf("The user's preference in the topic '%s'.%s", d.Topic, d.Note),
					Examples:    append([]string(nil), d.Examples...),
				})
			}
			subNode.Description = fmt.Sprintf(
				"The user's preferences in the category '%s'. This includes preferences in the topics %s.",
				sub.Label, quoteJoin(detailKeys))
			mainNode.Subs = append(mainNode.Subs, subNode)
		}
		mainNode.Description = fmt.Sprintf(
			"The user's preferences in the category '%s'. This includes preferences in the topics %s.",
			m.Label, quoteJoin(subKeys))
		s.Mains = append(s.Mains, mainNode)
	}
	return s
}

// Clone returns a deep copy of the descriptor.
func (s *Schema) Clone() *Schema {
	out := &Schema{Mains: make([]MainNode, len(s.Mains))}
	for i, m := range s.Mains {
		cm := m
		cm.Subs = make([]SubNode, len(m.Subs))
		for j, sub := range m.Subs {
			cs := sub
			cs.Details = make([]DetailNode, len(sub.Details))
			for k, d := range sub.Details {
				cd := d
				cd.Examples = append([]string(nil), d.Examples...)
				cs.Details[k] = cd
			}
			cm.Subs[j] = cs
		}
		out.Mains[i] = cm
	}
	return out
}

// NormalizeAttribute reduces a ground-truth attribute to the form used in the
// example lists of a few detail categories whose dataset attributes carry
// extra annotation.
func NormalizeAttribute(detailKey, attribute string) string {
	switch detailKey {
	case "preferred_temperature",
		"willingness_to_pay_extra_for_green_fuel",
		"willingness_to_take_longer_route_to_avoid_traffic":
		return strings.TrimSpace(strings.SplitN(attribute, " ", 2)[0])
	case "distance_willing_to_walk_from_parking_to_destination":
		return strings.TrimSpace(strings.SplitN(attribute, "(", 2)[0])
	}
	return attribute
}

// WithoutValue returns a deep copy of the descriptor with one example
// attribute removed from the named detail category (leave-one-out
// evaluation). The attribute is normalized first. A detail category or
// attribute not present in the descriptor is an error.
func (s *Schema) WithoutValue(detailKey, attribute string) (*Schema, error) {
	attribute = NormalizeAttribute(detailKey, attribute)
	out := s.Clone()
	for i := range out.Mains {
		for j := range out.Mains[i].Subs {
			for k := range out.Mains[i].Subs[j].Details {
				d := &out.Mains[i].Subs[j].Details[k]
				if d.Key != detailKey {
					continue
				}
				for n, ex := range d.Examples {
					if ex == attribute {
						d.Examples = append(d.Examples[:n], d.Examples[n+1:]...)
						return out, nil
					}
				}
				return nil, fmt.Errorf("attribute %q not an example of %q", attribute, detailKey)
			}
		}
	}
	return nil, fmt.Errorf("unknown detail category: %q", detailKey)
}

// WithoutSubcategory returns a deep copy of the descriptor with one
// subcategory branch removed and the enclosing main category description
// scrubbed of the removed key (out-of-schema evaluation).
func (s *Schema) WithoutSubcategory(mainKey, subKey string) (*Schema, error) {
	out := s.Clone()
	for i := range out.Mains {
		m := &out.Mains[i]
		if m.Key != mainKey {
			continue
		}
		for j := range m.Subs {
			if m.Subs[j].Key != subKey {
				continue
			}
			m.Subs = append(m.Subs[:j], m.Subs[j+1:]...)
			m.Description = strings.ReplaceAll(m.Description, "'"+subKey+"'", "")
			return out, nil
		}
		return nil, fmt.Errorf("subcategory %q not under main category %q", subKey, mainKey)
	}
	return nil, fmt.Errorf("unknown main category: %q", mainKey)
}

// FunctionParameters renders the descriptor as the JSON-schema parameter tree
// of the extraction function. Every object level forbids extra fields.
func (s *Schema) FunctionParameters() map[string]any {
	outputFormat := func() map[string]any {
		return map[string]any{
			"type":                 "object",
			"additionalProperties": false,
			"properties": map[string]any{
				"user_sentence_preference_revealed": map[string]any{
					"type":        "string",
					"description": "user sentence (exclude username) where the user revealed the preference, must be from user sentences, must include the 'user_preference'",
				},
				"user_preference": map[string]any{
					"type":        "string",
					"description": "The preference of the user, must be included in the 'user_sentence_preference_revealed'",
				},
			},
		}
	}

	mains := map[string]any{}
	for _, m := range s.Mains {
		subsProps := map[string]any{}
		for _, sub := range m.Subs {
			detailProps := map[string]any{
				"no_or_other_preferences": map[string]any{
					"type": "string",
					"description": fmt.Sprintf(
						"Put here 'No' if there is no preference in the conversation for the category '%s', or put here a preference that does not fit into the other categories.",
						sub.Label),
				},
			}
			for _, d := range sub.Details {
				detailProps[d.Key] = map[string]any{
					"type":        "array",
					"description": d.Description,
					"examples":    append([]string(nil), d.Examples...),
					"items":       outputFormat(),
				}
			}
			subsProps[sub.Key] = map[string]any{
				"type":                 "object",
				"description":          sub.Description,
				"additionalProperties": false,
				"properties":           detailProps,
			}
		}
		mains[m.Key] = map[string]any{
			"type":                 "object",
			"title":                m.Title,
			"description":          m.Description,
			"additionalProperties": false,
			"properties":           subsProps,
		}
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           mains,
	}
}
