package forms

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"formhive-backend/src/models"
)

// ValidationResult is the outcome of checking one field value.
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// Shared value-format patterns. The analyzer reuses these for column type
// detection so detection and validation agree on what "looks like" an email.
var (
	EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	PhonePattern = regexp.MustCompile(`^\+?[0-9][0-9\s().-]{6,19}$`)
	URLPattern   = regexp.MustCompile(`^(https?://)?[A-Za-z0-9][A-Za-z0-9_-]*(\.[A-Za-z0-9_-]+)+(:\d+)?(/\S*)?$`)
)

// ValidateField evaluates a field's validation rules against a candidate
// value, in rule order. The first failing rule's message is returned.
// Required-ness is checked implicitly before declared rules, and an optional
// field with an empty value is always valid.
func ValidateField(field models.FieldSchema, value interface{}) ValidationResult {
	if IsEmptyValue(value) {
		if field.Required {
			return ValidationResult{Valid: false, Message: fmt.Sprintf("%s is required", field.Label)}
		}
		// optional field, no other rule applies when empty
		return ValidationResult{Valid: true}
	}

	for _, rule := range field.Validation {
		if msg, ok := checkRule(rule, value); !ok {
			return ValidationResult{Valid: false, Message: msg}
		}
	}
	return ValidationResult{Valid: true}
}

func checkRule(rule models.ValidationRule, value interface{}) (string, bool) {
	switch rule.Type {
	case models.RuleRequired:
		if IsEmptyValue(value) {
			return ruleMessage(rule, "this field is required"), false
		}

	case models.RuleMinLength:
		min := int(ruleNumber(rule))
		if len(strings.TrimSpace(ToString(value))) < min {
			return ruleMessage(rule, fmt.Sprintf("must be at least %d characters", min)), false
		}

	case models.RuleMaxLength:
		max := int(ruleNumber(rule))
		if len(strings.TrimSpace(ToString(value))) > max {
			return ruleMessage(rule, fmt.Sprintf("must be at most %d characters", max)), false
		}

	case models.RuleMinValue:
		n, ok := ToNumber(value)
		if !ok || n < ruleNumber(rule) {
			return ruleMessage(rule, fmt.Sprintf("must be at least %v", ruleNumber(rule))), false
		}

	case models.RuleMaxValue:
		n, ok := ToNumber(value)
		if !ok || n > ruleNumber(rule) {
			return ruleMessage(rule, fmt.Sprintf("must be at most %v", ruleNumber(rule))), false
		}

	case models.RuleRegex:
		pattern, err := regexp.Compile(ToString(rule.Value))
		if err != nil {
			// unusable pattern declared by the editor, skip rather than reject
			return "", true
		}
		if !pattern.MatchString(ToString(value)) {
			return ruleMessage(rule, "invalid format"), false
		}

	case models.RuleEmailFormat:
		if !EmailPattern.MatchString(strings.TrimSpace(ToString(value))) {
			return ruleMessage(rule, "invalid email address"), false
		}

	case models.RulePhoneFormat:
		if !PhonePattern.MatchString(strings.TrimSpace(ToString(value))) {
			return ruleMessage(rule, "invalid phone number"), false
		}

	case models.RuleURLFormat:
		if !URLPattern.MatchString(strings.TrimSpace(ToString(value))) {
			return ruleMessage(rule, "invalid URL"), false
		}

	case models.RuleCustom:
		// custom rules are evaluated by the renderer, not by this engine
	}
	return "", true
}

func ruleMessage(rule models.ValidationRule, fallback string) string {
	if rule.Message != "" {
		return rule.Message
	}
	return fallback
}

func ruleNumber(rule models.ValidationRule) float64 {
	n, _ := ToNumber(rule.Value)
	return n
}

// IsEmptyValue reports whether a candidate answer counts as "not answered":
// nil, empty/whitespace string, empty array or map, and false for booleans.
func IsEmptyValue(value interface{}) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case bool:
		return !v
	case []interface{}:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]interface{}:
		return len(v) == 0
	}
	return false
}

// ToNumber coerces a value to float64.
func ToNumber(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return n, true
	}
	return 0, false
}

// ToString renders a value the way it would appear in a text input.
func ToString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}
