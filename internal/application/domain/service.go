package domain

import (
	"context"
	"errors"
)

// TransitionRequest carries one lifecycle action against one application.
// ActorID is the authenticated identity invoking the action; validation of
// the credential itself happens upstream.
type TransitionRequest struct {
	Action        Action
	ApplicationID string
	ActorID       string
	Message       string
	Attachment    *Attachment
}

// NotificationOutcome mirrors the dispatcher result without importing it,
// keeping this package free of a dependency cycle.
type NotificationOutcome struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

type TransitionResponse struct {
	Application  Application         `json:"application"`
	Notification NotificationOutcome `json:"notification"`
}

type Service interface {
	Transition(ctx context.Context, req TransitionRequest) (TransitionResponse, error)
}

var (
	ErrInvalidID     = errors.New("invalid_id")
	ErrInvalidActor  = errors.New("invalid_actor")
	ErrNotFound      = errors.New("application_not_found")
	ErrForbidden     = errors.New("forbidden")
	ErrNotCancelled  = errors.New("a candidatura não está cancelada")
	ErrConflict      = errors.New("transition_conflict")
	ErrPersistence   = errors.New("persistence_error")
	ErrEventNotFound = errors.New("application_event_missing")
)
