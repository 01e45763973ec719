package validation

import (
	"fmt"
	"net"
	"slices"
	"strconv"
	"strings"
	"time"
)

type Violations struct {
	Errors map[string][]error
}

func (violations Violations) IsEmpty() bool {
	return len(violations.Errors) == 0
}

// Fields returns the names of the invalid attributes in sorted order.
func (violations Violations) Fields() []string {
	fields := make([]string, 0, len(violations.Errors))
	for field := range violations.Errors {
		fields = append(fields, field)
	}
	slices.Sort(fields)
	return fields
}

// ValidateMap checks every attribute in data against its rules. Rules are
// written as "name" or "name:argument", e.g. "required", "max:255" or
// "in:text,json".
func ValidateMap(data map[string]any, rules map[string][]string) Violations {
	var violations Violations
	violations.Errors = make(map[string][]error)

	for attributeName, attributeValue := range data {
		attributeRules, attributeRulesExists := rules[attributeName]
		if !attributeRulesExists {
			violations.Errors[attributeName] = append(violations.Errors[attributeName], fmt.Errorf("validation: no rules found :: %s", attributeName))
			continue
		}

		var errorCollection []error
		for _, attributeRule := range attributeRules {
			if err := validate(attributeRule, attributeName, attributeValue); err != nil {
				errorCollection = append(errorCollection, err)
			}
		}

		if len(errorCollection) != 0 {
			violations.Errors[attributeName] = errorCollection
		}
	}

	return violations
}

func validate(rule string, name string, value any) error {
	rule, argument, _ := strings.Cut(rule, ":")

	switch rule {
	case "required":
		{
			err := fmt.Errorf("%s is required", name)

			switch v := value.(type) {
			case nil:
				{
					return err
				}
			case string:
				{
					if v == "" {
						return err
					}
				}
			case []any:
				{
					if len(v) == 0 {
						return err
					}
				}
			}
		}
	case "min", "max":
		{
			limit, err := strconv.ParseFloat(argument, 64)
			if err != nil {
				return fmt.Errorf("invalid validation rule argument :: %s:%s", rule, argument)
			}

			size, ok := sizeOf(value)
			if !ok {
				return fmt.Errorf("%s has no size", name)
			}

			if rule == "min" && size < limit {
				return fmt.Errorf("%s must be at least %s", name, argument)
			}
			if rule == "max" && size > limit {
				return fmt.Errorf("%s must be at most %s", name, argument)
			}
		}
	case "in":
		{
			options := strings.Split(argument, ",")
			if !slices.Contains(options, fmt.Sprint(value)) {
				return fmt.Errorf("%s must be one of %s", name, argument)
			}
		}
	case "hostport":
		{
			v, ok := value.(string)
			if !ok {
				return fmt.Errorf("%s must be a string", name)
			}
			if _, _, err := net.SplitHostPort(v); err != nil {
				return fmt.Errorf("%s must be host:port :: %w", name, err)
			}
		}
	default:
		{
			return fmt.Errorf("invalid validation rule :: %s", rule)
		}
	}

	return nil
}

// sizeOf is the length of strings and slices and the magnitude of numbers.
// Durations are measured in seconds.
func sizeOf(value any) (float64, bool) {
	switch v := value.(type) {
	case string:
		return float64(len(v)), true
	case []any:
		return float64(len(v)), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case float64:
		return v, true
	case time.Duration:
		return v.Seconds(), true
	}

	return 0, false
}
