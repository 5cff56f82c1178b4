// Package events carries participation domain events to the live stream and
// to Kafka.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	TypeParticipationUpdated = "participation.updated"
	TypeQuizGraded           = "quiz.graded"
)

type Event struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	StudentID  string         `json:"student_id"`
	ActivityID string         `json:"activity_id,omitempty"`
	SkillID    string         `json:"skill_id,omitempty"`
	Reason     string         `json:"reason,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

// ParticipationUpdated tells open pages for studentID to re-fetch.
func ParticipationUpdated(studentID, activityID, reason string) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeParticipationUpdated,
		StudentID:  studentID,
		ActivityID: activityID,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
}

func QuizGraded(studentID, skillID string, score int, passed bool) Event {
	return Event{
		ID:         uuid.NewString(),
		Type:       TypeQuizGraded,
		StudentID:  studentID,
		SkillID:    skillID,
		OccurredAt: time.Now().UTC(),
		Data:       map[string]any{"score": score, "passed": passed},
	}
}

type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type PublisherFunc func(ctx context.Context, ev Event) error

func (f PublisherFunc) Publish(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Fanout publishes to every publisher and joins their errors.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Discard drops every event.
var Discard Publisher = PublisherFunc(func(context.Context, Event) error { return nil })
