package liferay

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-fleetform/pkg/validation"
)

const (
	textCodeTransport = "LIFERAY_TRANSPORT_FAILED"
	textCodeCanceled  = "LIFERAY_REQUEST_CANCELED"
	textCodeTimeout   = "LIFERAY_REQUEST_TIMEOUT"
)

// Problem is a non-2xx response decoded from the headless problem body.
type Problem struct {
	Status int
	Code   string
	Title  string
	Type   string
	Detail string
	Errors []validation.FieldMessage
	Body   string
}

func (p *Problem) Error() string {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = http.StatusText(p.Status)
	}
	if p.Type != "" {
		return fmt.Sprintf("liferay: %d %s: %s", p.Status, p.Type, title)
	}
	return fmt.Sprintf("liferay: %d %s", p.Status, title)
}

// Conflict reports a name or key collision.
func (p *Problem) Conflict() bool {
	if p.Status == http.StatusConflict {
		return true
	}
	return strings.Contains(p.Type, "DuplicateFileEntryException") ||
		strings.Contains(p.Title, "DuplicateFileEntryException") ||
		strings.Contains(p.Body, "DuplicateFileEntryException")
}

// ValidationError is a rejected write carrying per-field entries.
type ValidationError struct {
	Problem *Problem
	Entries []validation.FieldMessage
}

func (e *ValidationError) Error() string {
	if len(e.Entries) == 0 {
		return "liferay: validation failed: " + e.Problem.Title
	}
	return fmt.Sprintf("liferay: validation failed: %d field error(s)", len(e.Entries))
}

func (e *ValidationError) Unwrap() error {
	return e.Problem
}

// IsNotFound reports whether err is a 404 problem.
func IsNotFound(err error) bool {
	var problem *Problem
	return errors.As(err, &problem) && problem.Status == http.StatusNotFound
}

type problemBody struct {
	Status json.RawMessage `json:"status"`
	Title  string          `json:"title"`
	Type   string          `json:"type"`
	Detail string          `json:"detail"`
	Errors []struct {
		Field        string `json:"field"`
		PropertyPath string `json:"propertyPath"`
		Name         string `json:"name"`
		Message      string `json:"message"`
	} `json:"errors"`
}

func decodeProblem(status int, data []byte) error {
	problem := &Problem{Status: status, Body: strings.TrimSpace(string(data))}
	var body problemBody
	if err := json.Unmarshal(data, &body); err == nil {
		problem.Title = body.Title
		problem.Type = body.Type
		problem.Detail = body.Detail
		problem.Code = statusCode(body.Status)
		for _, entry := range body.Errors {
			field := firstNonEmpty(entry.Field, entry.PropertyPath, entry.Name)
			problem.Errors = append(problem.Errors, validation.FieldMessage{Field: field, Message: entry.Message})
		}
	}
	if problem.Title == "" && problem.Detail != "" {
		problem.Title = problem.Detail
	}
	if len(problem.Errors) > 0 || strings.Contains(problem.Type, "ValidationException") {
		return &ValidationError{Problem: problem, Entries: problem.Errors}
	}
	return problem
}

func statusCode(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	var number int
	if err := json.Unmarshal(raw, &number); err == nil {
		return strconv.Itoa(number)
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

func wrapTransportError(err error) error {
	return goerrors.Wrap(err, goerrors.CategoryCommand, "liferay request failed").
		WithTextCode(textCodeTransport)
}

func wrapContextError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return goerrors.Wrap(err, goerrors.CategoryCommand, "liferay request deadline exceeded").
			WithTextCode(textCodeTimeout)
	default:
		return goerrors.Wrap(err, goerrors.CategoryCommand, "liferay request cancelled").
			WithTextCode(textCodeCanceled)
	}
}
