package api

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validatorOnce sync.Once
	validateInst  *validator.Validate

	stepNamePattern    = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)
	subStepNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
)

// Validator returns the shared validator, with field names reported by
// their yaml or mapstructure tag.
func Validator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			for _, tag := range []string{"yaml", "mapstructure"} {
				name, _, _ := strings.Cut(field.Tag.Get(tag), ",")
				if name != "" && name != "-" {
					return name
				}
			}
			return field.Name
		})

		_ = v.RegisterValidation("step_name", func(fl validator.FieldLevel) bool {
			return stepNamePattern.MatchString(fl.Field().String())
		})
		_ = v.RegisterValidation("sub_step_name", func(fl validator.FieldLevel) bool {
			return subStepNamePattern.MatchString(fl.Field().String())
		})

		validateInst = v
	})
	return validateInst
}

// ValidateStruct runs the shared validator and flattens its errors into a
// readable message.
func ValidateStruct(s any) error {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		msgs = append(msgs, fieldErrorMessage(fe))
	}
	return errors.New(strings.Join(msgs, "; "))
}

func fieldErrorMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param())
	case "step_name", "sub_step_name":
		return fmt.Sprintf("%s %q is not a valid name", fe.Field(), fe.Value())
	default:
		return fmt.Sprintf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if len(c.Steps) == 0 {
		return fmt.Errorf("configuration has no steps")
	}

	steps := make([]string, 0, len(c.Steps))
	for step := range c.Steps {
		steps = append(steps, step)
	}
	sort.Strings(steps)

	for _, step := range steps {
		if err := Validator().Var(step, "step_name"); err != nil {
			return fmt.Errorf("step %q: not a valid step name", step)
		}

		subSteps := c.Steps[step]
		if len(subSteps) == 0 {
			return fmt.Errorf("step %q: no sub-steps", step)
		}

		names := make(map[string]int)
		for i, s := range subSteps {
			if err := ValidateStruct(s); err != nil {
				return fmt.Errorf("step %q: sub-step %d: %w", step, i, err)
			}
			if prev, exists := names[s.Name]; exists {
				return fmt.Errorf("step %q: sub-step %d: duplicate sub-step name %q (first defined at sub-step %d)", step, i, s.Name, prev)
			}
			names[s.Name] = i
		}
	}

	return nil
}
