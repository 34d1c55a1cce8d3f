// Package save submits captured documents to the remote save endpoint.
package save

import (
	"context"
	"errors"
	"fmt"
)

// Request is the JSON body posted to the save endpoint.
type Request struct {
	Image    string  `json:"image" doc:"JPEG data URI"`
	Title    string  `json:"title" doc:"Document title"`
	FolderID *string `json:"folder_id" doc:"Target folder, null for the root"`
}

// Result is the JSON body the save endpoint answers with.
type Result struct {
	Success     bool   `json:"success"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Saver hands a captured image to whatever persists it.
type Saver interface {
	Save(ctx context.Context, req Request) (Result, error)
}

// SaverFunc adapts a function to Saver.
type SaverFunc func(ctx context.Context, req Request) (Result, error)

// Save implements Saver.
func (f SaverFunc) Save(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

var (
	// ErrSaveTransport covers network failures and unreadable responses.
	ErrSaveTransport = errors.New("could not reach the save service")
	// ErrSaveRejected is matched by every *RejectedError.
	ErrSaveRejected = errors.New("save rejected")
)

// RejectedError is returned when the endpoint answers success=false.
type RejectedError struct {
	Reason     string
	StatusCode int
}

func (e *RejectedError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("save rejected (status %d)", e.StatusCode)
	}
	return e.Reason
}

// Is reports whether target is ErrSaveRejected.
func (e *RejectedError) Is(target error) bool {
	return target == ErrSaveRejected
}
