// Package records defines the contract with the portal's system of record.
// The service reads participation and skills through a Source and asks it to
// perform every mutation.
package records

import (
	"context"
	"time"

	"backend-skillpath/internal/participation"
	"backend-skillpath/internal/skills"
)

type CatalogKind string

const (
	CatalogRequired CatalogKind = "required"
	CatalogOptional CatalogKind = "optional"
)

type ConfirmRequest struct {
	StudentID  string    `json:"studentId"`
	ActivityID string    `json:"activityId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	QRCode     string    `json:"qrCode,omitempty"`
	ClientTime time.Time `json:"currentTime"`
}

type ConfirmResponse struct {
	Success     bool       `json:"success"`
	Message     string     `json:"message"`
	ConfirmedAt *time.Time `json:"confirmedAt,omitempty"`
}

type SurveyRequest struct {
	StudentID  string         `json:"studentId"`
	ActivityID string         `json:"activityId"`
	Ratings    map[string]int `json:"ratings"`
	Comment    string         `json:"comment,omitempty"`
}

type Certificate struct {
	CertificateID string    `json:"certificateId"`
	StudentID     string    `json:"studentId"`
	ActivityID    string    `json:"activityId"`
	ActivityName  string    `json:"activityName,omitempty"`
	IssuedAt      time.Time `json:"issuedAt"`
}

// AnswerKey maps question ids to their correct answer for one skill quiz.
type AnswerKey struct {
	SkillID string            `json:"skillId"`
	Answers map[string]string `json:"answers"`
}

type Attempt struct {
	AttemptID      string            `json:"attemptId"`
	StudentID      string            `json:"studentId"`
	SkillID        string            `json:"skillId"`
	Answers        map[string]string `json:"answers"`
	Score          int               `json:"score"`
	CorrectAnswers int               `json:"correctAnswers"`
	TotalQuestions int               `json:"totalQuestions"`
	Passed         bool              `json:"isPassed"`
	SubmittedAt    time.Time         `json:"submittedAt"`
}

// Source is implemented by the portal REST client and by the Postgres store.
type Source interface {
	ActivitiesForStudent(ctx context.Context, studentID string) ([]participation.Record, error)
	SkillsCatalog(ctx context.Context, yearLevel int, kind CatalogKind) ([]skills.Definition, error)
	CompletedSkills(ctx context.Context, studentID string) ([]skills.Completed, error)
	ConfirmAttendance(ctx context.Context, req ConfirmRequest) (ConfirmResponse, error)
	SubmitSurvey(ctx context.Context, req SurveyRequest) error
	// IssueCertificate returns the existing certificate when one was already issued.
	IssueCertificate(ctx context.Context, studentID, activityID string) (Certificate, error)
	QuizAnswerKey(ctx context.Context, skillID string) (AnswerKey, error)
	// RecordQuizAttempt stores the attempt. A passed attempt also records the
	// completed skill, keeping the highest score.
	RecordQuizAttempt(ctx context.Context, attempt Attempt) error
}

type tokenKey struct{}

// WithToken attaches the caller's bearer token so sources can forward it.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
