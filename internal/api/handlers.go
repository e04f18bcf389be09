// Package api exposes HTTP handlers for the exercise tracker.
package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"example.com/exercisetracker/internal/domain"
)

// Handler coordinates HTTP requests with the domain service.
type Handler struct {
	service *domain.Service
}

// NewHandler builds a Handler.
func NewHandler(service *domain.Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes wires endpoints to the router.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.healthz)

	users := e.Group("/api/users")
	users.POST("", h.createUser)
	users.GET("", h.listUsers)
	users.POST("/:id/exercises", h.createExercise)
	users.GET("/:id/exercises", h.listExercises)
	users.GET("/:id/logs", h.exerciseLog)
}

// healthz reports whether the store answers a ping.
func (h *Handler) healthz(c echo.Context) error {
	if err := h.service.Ping(c.Request().Context()); err != nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, err.Error())
	}
	return c.String(http.StatusOK, "ok")
}

func (h *Handler) createUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	user, err := h.service.UpsertUser(c.Request().Context(), req.Username)
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, toUserView(user))
}

func (h *Handler) listUsers(c echo.Context) error {
	users, err := h.service.ListUsers(c.Request().Context())
	if err != nil {
		return err
	}

	resp := make([]UserView, 0, len(users))
	for _, user := range users {
		resp = append(resp, toUserView(user))
	}
	return writeJSON(c, http.StatusOK, resp)
}

func (h *Handler) createExercise(c echo.Context) error {
	var req CreateExerciseRequest
	if err := c.Bind(&req); err != nil {
		return bindError(err)
	}

	exercise, err := h.service.CreateExercise(c.Request().Context(), domain.CreateExerciseInput{
		UserID:      c.Param("id"),
		Description: req.Description,
		Duration:    string(req.Duration),
		Date:        string(req.Date),
	})
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, toCreatedExerciseView(exercise))
}

func (h *Handler) listExercises(c echo.Context) error {
	exercises, err := h.service.ListExercises(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}

	resp := make([]ExerciseView, 0, len(exercises))
	for _, exercise := range exercises {
		resp = append(resp, toExerciseView(exercise))
	}
	return writeJSON(c, http.StatusOK, resp)
}

func (h *Handler) exerciseLog(c echo.Context) error {
	log, err := h.service.ExerciseLog(c.Request().Context(), c.Param("id"), domain.LogFilter{
		From:  c.QueryParam("from"),
		To:    c.QueryParam("to"),
		Limit: c.QueryParam("limit"),
	})
	if err != nil {
		return err
	}
	return writeJSON(c, http.StatusOK, toLogResponse(log))
}

func writeJSON(c echo.Context, status int, payload interface{}) error {
	return c.JSON(status, payload)
}

func writeError(c echo.Context, status int, message string) error {
	return c.JSON(status, errorResponse{Error: message})
}

// bindError reports a body decoding failure as a server error.
func bindError(err error) error {
	return &domain.StoreError{Op: "bind", Err: errors.New(errorMessage(err))}
}

// errorMessage extracts the client-facing text of err.
func errorMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if msg, ok := he.Message.(string); ok && msg != "" {
			return msg
		}
		if he.Message != nil {
			return fmt.Sprint(he.Message)
		}
		if he.Internal != nil {
			return he.Internal.Error()
		}
		return http.StatusText(he.Code)
	}
	return err.Error()
}

// errorStatus maps err to its response status. Router errors keep their own
// status; everything else is a 500.
func errorStatus(err error) int {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code
	}
	return http.StatusInternalServerError
}

// HandleError is installed as the router's error handler.
func HandleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status := errorStatus(err)
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = writeError(c, status, errorMessage(err))
}
