package taxonomy

import (
	"fmt"

	"github.com/johanneskirmayr/CarMem/internal/domain"
)

// ValidationError reports why a raw extraction output does not fit the
// descriptor. Its text is fed back to the model on the retry attempt, so it
// names the offending key and the reason.
type ValidationError struct {
	Path   string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Reason)
}

func invalid(path, format string, args ...any) error {
	return &ValidationError{Path: path, Reason: fmt.Sprintf(format, args...)}
}

// Validate checks a raw extraction output against the descriptor: unknown
// keys at any level are errors, a subcategory must sit under its own main
// category, and detail category payloads must be lists of
// {user_sentence_preference_revealed, user_preference} objects. Null values
// are accepted everywhere; strip them afterwards with StripNulls. An empty
// output is valid.
func Validate(raw map[string]any, s *Schema) error {
	mainNodes := map[string]*MainNode{}
	subParent := map[string]string{}
	for i := range s.Mains {
		mainNodes[s.Mains[i].Key] = &s.Mains[i]
		for j := range s.Mains[i].Subs {
			subParent[s.Mains[i].Subs[j].Key] = s.Mains[i].Key
		}
	}

	for mainKey, mainVal := range raw {
		m, ok := mainNodes[mainKey]
		if !ok {
			if parent, isSub := subParent[mainKey]; isSub {
				return invalid(mainKey, "subcategory used as main category, belongs under %q", parent)
			}
			return invalid(mainKey, "non-existing key")
		}
		if mainVal == nil {
			continue
		}
		mainMap, ok := mainVal.(map[string]any)
		if !ok {
			return invalid(mainKey, "main category must be an object")
		}

		subNodes := map[string]*SubNode{}
		for j := range m.Subs {
			subNodes[m.Subs[j].Key] = &m.Subs[j]
		}
		for subKey, subVal := range mainMap {
			sub, ok := subNodes[subKey]
			if !ok {
				if parent, isSub := subParent[subKey]; isSub {
					return invalid(fmt.Sprintf("%s.%s", mainKey, subKey),
						"subcategory corresponds to different parent category %q", parent)
				}
				return invalid(fmt.Sprintf("%s.%s", mainKey, subKey), "non-existing key")
			}
			if subVal == nil {
				continue
			}
			subMap, ok := subVal.(map[string]any)
			if !ok {
				return invalid(fmt.Sprintf("%s.%s", mainKey, subKey), "subcategory must be an object")
			}
			if err := validateSub(mainKey, sub, subMap); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateSub(mainKey string, sub *SubNode, subMap map[string]any) error {
	detailNodes := map[string]bool{}
	for _, d := range sub.Details {
		detailNodes[d.Key] = true
	}
	for detailKey, detailVal := range subMap {
		path := fmt.Sprintf("%s.%s.%s", mainKey, sub.Key, detailKey)
		if detailKey == "no_or_other_preferences" {
			if detailVal == nil {
				continue
			}
			if _, ok := detailVal.(string); !ok {
				return invalid(path, "must be a string")
			}
			continue
		}
		if !detailNodes[detailKey] {
			return invalid(path, "non-existing key")
		}
		if detailVal == nil {
			continue
		}
		items, ok := detailVal.([]any)
		if !ok {
			return invalid(path, "detail category must be a list")
		}
		for i, item := range items {
			if item == nil {
				continue
			}
			obj, ok := item.(map[string]any)
			if !ok {
				return invalid(fmt.Sprintf("%s[%d]", path, i), "entry must be an object")
			}
			for field, v := range obj {
				switch field {
				case "user_sentence_preference_revealed", "user_preference":
					if v == nil {
						continue
					}
					if _, ok := v.(string); !ok {
						return invalid(fmt.Sprintf("%s[%d].%s", path, i, field), "must be a string")
					}
				default:
					return invalid(fmt.Sprintf("%s[%d].%s", path, i, field), "non-existing key")
				}
			}
		}
	}
	return nil
}

// StripNulls removes null-valued fields recursively from a validated output.
// Empty containers left behind by the stripping are removed as well.
func StripNulls(raw map[string]any) map[string]any {
	out := map[string]any{}
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
			continue
		case map[string]any:
			stripped := StripNulls(val)
			if len(stripped) > 0 {
				out[k] = stripped
			}
		case []any:
			items := make([]any, 0, len(val))
			for _, item := range val {
				switch it := item.(type) {
				case nil:
					continue
				case map[string]any:
					stripped := StripNulls(it)
					if len(stripped) > 0 {
						items = append(items, stripped)
					}
				default:
					items = append(items, it)
				}
			}
			if len(items) > 0 {
				out[k] = items
			}
		default:
			out[k] = val
		}
	}
	return out
}

// Flatten turns a validated, null-stripped extraction output into incoming
// preference records. The no_or_other_preferences marker fields are not
// preferences and are skipped.
func Flatten(validated map[string]any, userName string) []domain.Preference {
	var prefs []domain.Preference
	for mainKey, mainVal := range validated {
		mainMap, ok := mainVal.(map[string]any)
		if !ok {
			continue
		}
		for subKey, subVal := range mainMap {
			subMap, ok := subVal.(map[string]any)
			if !ok {
				continue
			}
			for detailKey, detailVal := range subMap {
				if detailKey == "no_or_other_preferences" {
					continue
				}
				items, ok := detailVal.([]any)
				if !ok {
					continue
				}
				for _, item := range items {
					obj, ok := item.(map[string]any)
					if !ok {
						continue
					}
					attribute, _ := obj["user_preference"].(string)
					text, _ := obj["user_sentence_preference_revealed"].(string)
					if attribute == "" && text == "" {
						continue
					}
					prefs = append(prefs, domain.Preference{
						UserName:       userName,
						MainCategory:   mainKey,
						Subcategory:    subKey,
						DetailCategory: detailKey,
						Attribute:      attribute,
						Text:           text,
					})
				}
			}
		}
	}
	return prefs
}
