// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package service enforces the vote and chat rules on top of the repositories.
package service

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/danielhkuo/heartvote/db"
	"github.com/danielhkuo/heartvote/repository"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrTeamNotFound           = errors.New("team not found")
	ErrDuplicateVote          = errors.New("already voted")
	ErrVotingClosed           = errors.New("voting is closed for this team")
	ErrTransientWriteConflict = errors.New("transient write conflict")
	ErrStoreUnavailable       = errors.New("store unavailable")
)

// ValidationError carries a message safe to show the caller.
// errors.Is(err, ErrValidation) reports true for it.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func invalid(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

func tooLong(s string, max int) bool {
	return utf8.RuneCountInString(s) > max
}

// storeError translates storage sentinels into the service's own.
func storeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return ErrTeamNotFound
	case errors.Is(err, db.ErrUniqueViolation):
		return fmt.Errorf("%w: %w", ErrDuplicateVote, err)
	case errors.Is(err, db.ErrTransient):
		return fmt.Errorf("%w: %w", ErrTransientWriteConflict, err)
	case errors.Is(err, db.ErrUnavailable):
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return err
}
