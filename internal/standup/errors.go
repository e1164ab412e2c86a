package standup

import (
	"errors"
	"fmt"

	"standup-bot/internal/models"
	"standup-bot/internal/utils"
)

var (
	// ErrInvalidFormat reports malformed time, id or command input.
	ErrInvalidFormat = utils.ErrInvalidFormat

	ErrEmptyUpdate      = errors.New("update text is empty")
	ErrEmptySection     = errors.New("section has no tasks")
	ErrTooLong          = errors.New("input too long")
	ErrNoSpreadsheet    = errors.New("no spreadsheet configured")
	ErrExportFailed     = errors.New("spreadsheet export failed")
	ErrUnreachable      = errors.New("group unreachable")
	ErrPermissionDenied = errors.New("permission denied")
	ErrPostFailed       = errors.New("posting to group failed")
	ErrNoTargetGroup    = errors.New("no target group selected")
	ErrNoDraft          = errors.New("no update in progress")
	ErrGroupNotFound    = errors.New("group not found")
)

// TooLongError carries the measured and allowed length of a rejected draft answer.
type TooLongError struct {
	Field  models.Field
	Length int
	Limit  int
}

func (e *TooLongError) Error() string {
	return fmt.Sprintf("%s: %d characters, limit %d", e.Field, e.Length, e.Limit)
}

// Is makes errors.Is(err, ErrTooLong) hold.
func (e *TooLongError) Is(target error) bool { return target == ErrTooLong }
