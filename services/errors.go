package services

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrProviderUnavailable = errors.New("provider unavailable: OPENAI_API_KEY is not configured")
	ErrResponseParse       = errors.New("failed to parse AI response")
	ErrStreamAborted       = errors.New("provider stream aborted")
	ErrStreamClosed        = errors.New("provider stream closed")
	ErrSearchUnavailable   = errors.New("search unavailable: TAVILY_API_KEY is not configured")
	ErrSearchFailed        = errors.New("web search failed")

	ErrEmptyDescription     = errors.New("scholarship_description is required")
	ErrEmptyAnswer          = errors.New("answer is empty")
	ErrSessionNotStarted    = errors.New("session has not started")
	ErrSessionStarted       = errors.New("session already started")
	ErrCycleInFlight        = errors.New("a writing cycle is already in progress")
	ErrEditWhileStreaming   = errors.New("essay cannot be edited while the co-writer is writing")
	ErrSessionNotFound      = errors.New("session not found")
	ErrUnsupportedFormat    = errors.New("unsupported export format")
	ErrAnalysisUnavailable  = errors.New("no strategy analysis for this session")
	ErrEmptyScholarshipName = errors.New("scholarship_name is required")
)

// ProviderHTTPError is returned when the provider answers with a non-2xx status.
type ProviderHTTPError struct {
	StatusCode int
	Body       string
}

func (e *ProviderHTTPError) Error() string {
	return fmt.Sprintf("OpenAI API error: %d", e.StatusCode)
}

// StreamDecodeError describes one malformed SSE record. It is logged and skipped, never surfaced.
type StreamDecodeError struct {
	Record string
	Err    error
}

func (e *StreamDecodeError) Error() string {
	return fmt.Sprintf("malformed stream record %q: %v", e.Record, e.Err)
}

func (e *StreamDecodeError) Unwrap() error { return e.Err }

type ClipboardError struct {
	Err error
}

func (e *ClipboardError) Error() string { return "failed to copy to clipboard: " + e.Err.Error() }

func (e *ClipboardError) Unwrap() error { return e.Err }

type NoticeKind string

const (
	NoticeProviderUnavailable NoticeKind = "provider_unavailable"
	NoticeProviderHTTP        NoticeKind = "provider_http_error"
	NoticeResponseParse       NoticeKind = "response_parse_error"
	NoticeClipboard           NoticeKind = "clipboard_error"
	NoticeTimeout             NoticeKind = "timeout"
	NoticeCancelled           NoticeKind = "cancelled"
	NoticeFailure             NoticeKind = "failure"
)

// Notice is a transient, user-visible notification (the browser renders it as a toast).
type Notice struct {
	Kind    NoticeKind `json:"kind"`
	Message string     `json:"message"`
}

// NoticeFor maps an error to the notification shown to the user. Stream decode errors are
// not user-visible and yield ok=false.
func NoticeFor(err error) (Notice, bool) {
	var (
		httpErr *ProviderHTTPError
		decErr  *StreamDecodeError
		clipErr *ClipboardError
	)
	switch {
	case err == nil, errors.As(err, &decErr):
		return Notice{}, false
	case errors.Is(err, ErrProviderUnavailable):
		return Notice{Kind: NoticeProviderUnavailable, Message: "The writing assistant is not configured."}, true
	case errors.As(err, &httpErr):
		return Notice{Kind: NoticeProviderHTTP, Message: "Failed to continue writing. Please try again."}, true
	case errors.Is(err, ErrResponseParse):
		return Notice{Kind: NoticeResponseParse, Message: "Failed to parse AI response. Please try again."}, true
	case errors.As(err, &clipErr):
		return Notice{Kind: NoticeClipboard, Message: "Failed to copy to clipboard"}, true
	case errors.Is(err, context.DeadlineExceeded):
		return Notice{Kind: NoticeTimeout, Message: "The writing assistant took too long. Please try again."}, true
	case errors.Is(err, context.Canceled):
		return Notice{Kind: NoticeCancelled, Message: "Writing was stopped."}, true
	default:
		return Notice{Kind: NoticeFailure, Message: "Failed to continue writing. Please try again."}, true
	}
}
