package domain

import "errors"

// Error kinds. Every specific error below unwraps to exactly one of these so
// callers can branch on the category with errors.Is.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrPrecondition = errors.New("precondition failed")
	ErrCollision    = errors.New("collision")
)

// Error is a domain error tagged with its kind and a stable code that
// transports hand to clients.
type Error struct {
	Kind error
	Code string
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

// Unwrap returns the kind so errors.Is(err, ErrPrecondition) holds.
func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// CodeOf returns the code of the first *Error in err's chain, or "" if there
// is none.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// Domain errors
var (
	ErrEmptyDisplayName       = newError(ErrValidation, "INVALID_NAME", "display name cannot be empty")
	ErrEmptyWord              = newError(ErrValidation, "INVALID_WORD", "word cannot be empty")
	ErrEmptyCategory          = newError(ErrValidation, "INVALID_CATEGORY", "category cannot be empty")
	ErrInvalidDuration        = newError(ErrValidation, "INVALID_DURATION", "duration must be a positive number of minutes")
	ErrInvalidVariant         = newError(ErrValidation, "INVALID_VARIANT", "unknown round variant")
	ErrQuestionMasterRequired = newError(ErrValidation, "QUESTION_MASTER_REQUIRED", "question master is required for this variant")
	ErrInvalidReport          = newError(ErrValidation, "INVALID_REPORT", "unknown report kind")

	ErrSessionNotFound     = newError(ErrNotFound, "SESSION_NOT_FOUND", "session not found")
	ErrParticipantNotFound = newError(ErrNotFound, "PARTICIPANT_NOT_FOUND", "participant not found")
	ErrAccessCodeNotFound  = newError(ErrNotFound, "INVALID_CODE", "invalid access code")

	ErrInsufficientPlayers = newError(ErrPrecondition, "NOT_ENOUGH_PLAYERS", "at least 2 participants are required")
	ErrRoundNotInProgress  = newError(ErrPrecondition, "ROUND_NOT_IN_PROGRESS", "no round in progress")
	ErrAlreadyPaused       = newError(ErrPrecondition, "ALREADY_PAUSED", "timer already paused")
	ErrNotPaused           = newError(ErrPrecondition, "NOT_PAUSED", "timer is not paused")
	ErrClockNotReady       = newError(ErrPrecondition, "CLOCK_NOT_READY", "clock not synchronized yet")
	ErrSessionFull         = newError(ErrPrecondition, "SESSION_FULL", "session is full")
	ErrInvalidTransition   = newError(ErrPrecondition, "INVALID_TRANSITION", "invalid phase transition")

	ErrCodeCollision   = newError(ErrCollision, "CODE_COLLISION", "failed to generate unique access code")
	ErrAccessCodeInUse = newError(ErrCollision, "CODE_IN_USE", "access code already in use")
)
