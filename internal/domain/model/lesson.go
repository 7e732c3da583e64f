package model

import "time"

type LessonStatus string

const (
	LessonStatusScheduled LessonStatus = "scheduled"
	LessonStatusCompleted LessonStatus = "completed"
	LessonStatusCancelled LessonStatus = "cancelled"
)

// Lesson is the timing input to the cancellation policy. The settlement layer
// never mutates lessons beyond cancellation bookkeeping.
type Lesson struct {
	ID        string // UUID
	TrainerID string // UUID
	Price     int64  // integer currency units
	StartAt   time.Time
	Status    LessonStatus
}
