package domain

import (
	"errors"
	"math"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// userDocument and exerciseDocument mirror the stored document shapes so
// required paths are checked before anything reaches the store.
type userDocument struct {
	Username string `json:"username" validate:"required"`
}

type exerciseDocument struct {
	Description string   `json:"description" validate:"required"`
	Duration    *float64 `json:"duration" validate:"required"`
}

var exercisePaths = []string{"description", "duration", "date"}

func validateUser(username string) error {
	return toValidationError("User", validate.Struct(userDocument{Username: username}), nil, []string{"username"})
}

// buildExercise casts and validates raw input into an Exercise ready to insert.
func buildExercise(input CreateExerciseInput, now time.Time) (Exercise, error) {
	casts := make(map[string]error)
	doc := exerciseDocument{Description: input.Description}

	if raw := strings.TrimSpace(input.Duration); raw != "" {
		duration, err := parseNumber(raw, "duration")
		if err != nil {
			casts["duration"] = err
		} else {
			doc.Duration = &duration
		}
	}

	date, err := ResolveDate(input.Date, now)
	if err != nil {
		casts["date"] = err
	}

	if err := toValidationError("Exercise", validate.Struct(doc), casts, exercisePaths); err != nil {
		return Exercise{}, err
	}

	return Exercise{
		UserID:      input.UserID,
		Description: doc.Description,
		Duration:    *doc.Duration,
		Date:        date,
	}, nil
}

func toValidationError(model string, err error, casts map[string]error, order []string) error {
	failed := make(map[string]string, len(casts))
	for path, castErr := range casts {
		failed[path] = castErr.Error()
	}

	if err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			if _, ok := failed[fe.Field()]; ok {
				continue
			}
			failed[fe.Field()] = requiredMessage(fe.Field())
		}
	}

	if len(failed) == 0 {
		return nil
	}

	out := &ValidationError{Model: model}
	for _, path := range order {
		if msg, ok := failed[path]; ok {
			out.Fields = append(out.Fields, FieldError{Path: path, Message: msg})
		}
	}
	return out
}

func parseNumber(raw, path string) (float64, error) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, &CastError{Kind: "Number", Value: raw, Path: path}
	}
	return value, nil
}

// parseLimit reads a result cap. Empty means no cap; zero also means no cap,
// matching document-store semantics.
func parseLimit(raw string) (int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(value)
	if err != nil || limit < 0 {
		return 0, &CastError{Kind: "Number", Value: raw, Path: "limit"}
	}
	return limit, nil
}
