package config

import (
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/dataorch/pipeliner/pkg/errors"
)

// ValidateConfig runs struct-tag validation over cfg and maps the first
// failure into a ValidationError with a YAML-ish dotted field path.
func ValidateConfig(cfg *Config) error {
	if err := validatorInstance().Struct(cfg); err != nil {
		verrs, ok := err.(validator.ValidationErrors)
		if !ok || len(verrs) == 0 {
			return apperrors.NewValidationError("", err.Error(), err)
		}
		first := verrs[0]
		return apperrors.NewValidationError(yamlishFieldName(first.Namespace()), describeTag(first), err)
	}
	return nil
}

// yamlishFieldName converts a validator namespace like
// "Config.Triples[0].Source.ID" into a dotted path resembling the YAML
// layout: "triples[0].source.id".
func yamlishFieldName(namespace string) string {
	parts := strings.SplitN(namespace, ".", 2)
	if len(parts) < 2 {
		return strings.ToLower(namespace)
	}
	return strings.ToLower(parts[1])
}

func describeTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field is required"
	case "duration":
		return "invalid compound duration string"
	case "iana_timezone":
		return "not a recognized IANA timezone name"
	case "min":
		return "value below minimum " + fe.Param()
	case "gt":
		return "value must be greater than " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	default:
		return "failed validation rule " + fe.Tag()
	}
}
