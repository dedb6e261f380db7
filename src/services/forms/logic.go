package forms

import (
	"strings"

	"formhive-backend/src/models"
)

// FieldState is the effective visibility/required state of one targeted
// field after conditional rules are applied.
type FieldState struct {
	Visible      bool   `json:"visible"`
	Required     bool   `json:"required"` // forced by an active require rule
	SkipToStepID string `json:"skipToStepId,omitempty"`
}

// EvaluateRules resolves conditional rules against the current answers and
// returns the effective state per targeted field. Rules apply in array
// order; later rules override earlier ones for the same target.
func EvaluateRules(rules []models.ConditionalRule, answers map[string]interface{}) map[string]FieldState {
	states := make(map[string]FieldState)

	for _, rule := range rules {
		if len(rule.Conditions) == 0 {
			continue
		}

		// an omitted or unknown operator means AND
		isOr := rule.LogicOperator == models.LogicOr
		active := !isOr
		for _, cond := range rule.Conditions {
			met := evaluateCondition(cond, answers[cond.FieldID])
			if isOr {
				if met {
					active = true
					break
				}
			} else if !met {
				active = false
				break
			}
		}

		state, seen := states[rule.TargetFieldID]
		if !seen {
			state = FieldState{Visible: true}
		}

		switch rule.Action {
		case models.ActionShow:
			state.Visible = active
		case models.ActionHide:
			state.Visible = !active
		case models.ActionRequire:
			// only forces required while the rule is active
			state.Required = active
		case models.ActionSkipTo:
			if active {
				state.SkipToStepID = rule.SkipToStepID
			} else if seen {
				state.SkipToStepID = ""
			}
		}
		states[rule.TargetFieldID] = state
	}

	return states
}

func evaluateCondition(cond models.Condition, answer interface{}) bool {
	switch cond.Operator {
	case models.OpIsEmpty:
		return IsEmptyValue(answer)
	case models.OpIsNotEmpty:
		return !IsEmptyValue(answer)
	case models.OpEquals:
		return valuesEqual(answer, cond.Value)
	case models.OpNotEquals:
		return !valuesEqual(answer, cond.Value)
	case models.OpContains:
		return valueContains(answer, cond.Value)
	case models.OpNotContains:
		return !valueContains(answer, cond.Value)
	case models.OpGreaterThan:
		a, okA := ToNumber(answer)
		b, okB := ToNumber(cond.Value)
		return okA && okB && a > b
	case models.OpLessThan:
		a, okA := ToNumber(answer)
		b, okB := ToNumber(cond.Value)
		return okA && okB && a < b
	}
	return false
}

func valuesEqual(answer, want interface{}) bool {
	if a, okA := ToNumber(answer); okA {
		if b, okB := ToNumber(want); okB {
			return a == b
		}
	}
	return ToString(answer) == ToString(want)
}

func valueContains(answer, want interface{}) bool {
	needle := ToString(want)
	switch v := answer.(type) {
	case []interface{}:
		for _, item := range v {
			if ToString(item) == needle {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if item == needle {
				return true
			}
		}
		return false
	default:
		return strings.Contains(ToString(answer), needle)
	}
}

// IsFieldVisible reports the effective visibility of a field. Fields never
// targeted by a rule are visible.
func IsFieldVisible(states map[string]FieldState, fieldID string) bool {
	state, ok := states[fieldID]
	if !ok {
		return true
	}
	return state.Visible
}

// IsFieldRequired reports the effective required flag of a field. A hidden
// field is never required, whatever its own flag says.
func IsFieldRequired(field models.FieldSchema, states map[string]FieldState) bool {
	state, ok := states[field.ID]
	if ok && !state.Visible {
		return false
	}
	if ok && state.Required {
		return true
	}
	return field.Required
}
