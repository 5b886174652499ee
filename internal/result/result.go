// Package result defines the success value returned by the orchestrators.
// Failures are *apperr.Error values carrying the same message and status shape.
package result

import "net/http"

// Success is the machine-readable kind of every Result.
const Success = "success"

// Result is a completed operation: a message for the caller, the HTTP
// equivalent status and the typed payload.
type Result[T any] struct {
	Message string
	Status  int
	Data    T
}

// Kind returns the machine-readable result kind.
func (r *Result[T]) Kind() string {
	return Success
}

// OK returns a 200 result.
func OK[T any](message string, data T) *Result[T] {
	return &Result[T]{Message: message, Status: http.StatusOK, Data: data}
}

// Created returns a 201 result.
func Created[T any](message string, data T) *Result[T] {
	return &Result[T]{Message: message, Status: http.StatusCreated, Data: data}
}

// Empty is the payload of operations that return no data.
type Empty struct{}
