package api

import (
	"bytes"
	"encoding/json"

	"example.com/exercisetracker/internal/domain"
)

// CreateUserRequest is accepted as a form or JSON body.
type CreateUserRequest struct {
	Username string `json:"username" form:"username"`
}

// CreateExerciseRequest is accepted as a form or JSON body. Duration and Date
// stay raw so the domain layer can report cast failures.
type CreateExerciseRequest struct {
	Description string     `json:"description" form:"description"`
	Duration    flexString `json:"duration" form:"duration"`
	Date        flexString `json:"date" form:"date"`
}

// flexString holds a scalar body field verbatim, whether it arrived as a form
// value, a JSON string or a JSON number.
type flexString string

func (f *flexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexString(s)
		return nil
	}
	*f = flexString(data)
	return nil
}

func (f *flexString) UnmarshalParam(param string) error {
	*f = flexString(param)
	return nil
}

// UserView is the wire form of a user.
type UserView struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// CreatedExerciseView is returned after an exercise is stored.
type CreatedExerciseView struct {
	Username    string  `json:"username"`
	ID          string  `json:"_id"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Date        string  `json:"date"`
}

// ExerciseView is one element of an exercise listing. It carries no id.
type ExerciseView struct {
	Username    string  `json:"username"`
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Date        string  `json:"date"`
}

// LogEntryView is one element of a resolved log.
type LogEntryView struct {
	Description string  `json:"description"`
	Duration    float64 `json:"duration"`
	Date        string  `json:"date"`
}

// LogView is the log of a user whose name could be resolved.
type LogView struct {
	ID       string         `json:"_id"`
	Username string         `json:"username"`
	Count    int            `json:"count"`
	Log      []LogEntryView `json:"log"`
}

// DegradedLogView is returned when no exercise in the log has a resolvable
// owner. Username is always null and Log holds the stored documents as is.
type DegradedLogView struct {
	ID       string             `json:"_id"`
	Username *string            `json:"username"`
	Log      []ExerciseDocument `json:"log"`
}

// ExerciseDocument is an exercise as stored, with its unresolved owner
// reference rendered as null.
type ExerciseDocument struct {
	ID          string    `json:"_id"`
	User        *UserView `json:"user"`
	Description string    `json:"description"`
	Duration    float64   `json:"duration"`
	Date        string    `json:"date"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toUserView(user domain.User) UserView {
	return UserView{ID: user.ID, Username: user.Username}
}

func toCreatedExerciseView(exercise domain.LoggedExercise) CreatedExerciseView {
	return CreatedExerciseView{
		Username:    exercise.Username,
		ID:          exercise.ID,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        domain.ToCalendarString(exercise.Date),
	}
}

func toExerciseView(exercise domain.LoggedExercise) ExerciseView {
	return ExerciseView{
		Username:    exercise.Username,
		Description: exercise.Description,
		Duration:    exercise.Duration,
		Date:        domain.ToCalendarString(exercise.Date),
	}
}

func toLogResponse(log domain.Log) interface{} {
	if !log.Resolved {
		docs := make([]ExerciseDocument, 0, len(log.Exercises))
		for _, exercise := range log.Exercises {
			docs = append(docs, ExerciseDocument{
				ID:          exercise.ID,
				Description: exercise.Description,
				Duration:    exercise.Duration,
				Date:        domain.ToISOString(exercise.Date),
			})
		}
		return DegradedLogView{ID: log.UserID, Log: docs}
	}

	entries := make([]LogEntryView, 0, len(log.Exercises))
	for _, exercise := range log.Exercises {
		entries = append(entries, LogEntryView{
			Description: exercise.Description,
			Duration:    exercise.Duration,
			Date:        domain.ToCalendarString(exercise.Date),
		})
	}
	return LogView{
		ID:       log.UserID,
		Username: log.Username,
		Count:    len(entries),
		Log:      entries,
	}
}
