package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// UnknownErrorMessage is returned to callers whenever internal detail must not leak.
const UnknownErrorMessage = "An unknown error has occurred , Please contact your customer care"

type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError describes rejected input. Fields maps a parameter name to its reason.
type ValidationError struct {
	Field  string
	Msg    string
	Fields map[string]string
	Err    error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "invalid " + strings.Join(keys, ", ")
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// ConfigurationError means the server is wired wrong; retrying the request cannot help.
type ConfigurationError struct {
	Msg string
}

func (e ConfigurationError) Error() string {
	if e.Msg == "" {
		return "improperly configured"
	}
	return "improperly configured: " + e.Msg
}

// RemoteError is a non-200 answer from an outbound API call.
type RemoteError struct {
	API        string
	StatusCode int
	Err        error
}

func (e RemoteError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("remote api %s returned status %d", e.API, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("remote api %s: %v", e.API, e.Err)
	}
	return fmt.Sprintf("remote api %s failed", e.API)
}

func (e RemoteError) Unwrap() error { return e.Err }

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsConfiguration(err error) bool {
	var target ConfigurationError
	return errors.As(err, &target)
}

func IsRemote(err error) bool {
	var target RemoteError
	return errors.As(err, &target)
}
