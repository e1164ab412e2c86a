package models

// DraftState is the top-level state of a draft.
type DraftState string

const (
	StateCollectingYesterday DraftState = "collecting_yesterday"
	StateCollectingToday     DraftState = "collecting_today"
)

// Field is the half of a task currently being collected.
type Field string

const (
	FieldWhat Field = "what"
	FieldWhy  Field = "why"
)
