// Package store is the records.Source backed directly by the portal Postgres
// schema.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"backend-skillpath/internal/apperr"
	"backend-skillpath/internal/db"
	"backend-skillpath/internal/participation"
	"backend-skillpath/internal/records"
	"backend-skillpath/internal/skills"
)

type Store struct {
	db       db.Querier
	now      func() time.Time
	defaults skills.Defaults
}

type Option func(*Store)

// WithSkillDefaults sets the threshold and pass mark for skill rows that
// leave them null.
func WithSkillDefaults(d skills.Defaults) Option {
	return func(s *Store) {
		s.defaults = d.OrStandard()
	}
}

func New(db db.Querier, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now, defaults: skills.StandardDefaults}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ records.Source = (*Store)(nil)

func (s *Store) ActivitiesForStudent(ctx context.Context, studentID string) ([]participation.Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT p.student_id, p.activity_id, COALESCE(a.name, ''), a.start_date_time, a.end_date_time,
		       COALESCE(l.location_id, ''), COALESCE(l.name, ''),
		       ST_Y(l.location::geometry), ST_X(l.location::geometry), l.radius_m,
		       COALESCE(a.skill_id, ''), COALESCE(a.skill_category, ''), COALESCE(a.plo, '{}'), COALESCE(a.qr_code, ''),
		       COALESCE(p.is_confirmed, false), COALESCE(p.survey_completed, false),
		       COALESCE(p.quiz_completed, false), COALESCE(p.certificate_claimed, false), p.confirmed_at
		FROM activity_participations p
		LEFT JOIN activities a ON a.activity_id = p.activity_id
		LEFT JOIN locations l ON l.location_id = a.location_id
		WHERE p.student_id = $1
		ORDER BY a.start_date_time NULLS LAST
	`, studentID)
	if err != nil {
		return nil, apperr.Transient("activities", err)
	}
	defer rows.Close()

	var out []participation.Record
	for rows.Next() {
		var r participation.Record
		if err := rows.Scan(
			&r.StudentID, &r.ActivityID, &r.Name, &r.Start, &r.End,
			&r.Location.ID, &r.Location.Name, &r.Location.Lat, &r.Location.Lng, &r.Location.RadiusMeters,
			&r.SkillID, &r.SkillCategory, &r.PLOs, &r.QRCode,
			&r.IsConfirmed, &r.SurveyCompleted, &r.QuizCompleted, &r.CertificateClaimed, &r.ConfirmedAt,
		); err != nil {
			return nil, apperr.DataShape("activities", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient("activities", err)
	}
	return out, nil
}

func (s *Store) SkillsCatalog(ctx context.Context, yearLevel int, kind records.CatalogKind) ([]skills.Definition, error) {
	query := `
		SELECT skill_id, name, COALESCE(description, ''), COALESCE(category, ''), COALESCE(subcategory, ''),
		       COALESCE(year_level, 0), is_required, COALESCE(required_activities, $1), COALESCE(passing_score, $2)
		FROM skills
		WHERE NOT is_required
		ORDER BY skill_id
	`
	args := []any{s.defaults.RequiredActivities, s.defaults.PassingScore}
	if kind == records.CatalogRequired {
		query = `
		SELECT skill_id, name, COALESCE(description, ''), COALESCE(category, ''), COALESCE(subcategory, ''),
		       COALESCE(year_level, 0), is_required, COALESCE(required_activities, $1), COALESCE(passing_score, $2)
		FROM skills
		WHERE is_required AND year_level = $3
		ORDER BY skill_id
	`
		args = append(args, yearLevel)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperr.Transient("skills", err)
	}
	defer rows.Close()

	var out []skills.Definition
	for rows.Next() {
		var d skills.Definition
		if err := rows.Scan(&d.ID, &d.Name, &d.Description, &d.Category, &d.Subcategory,
			&d.YearLevel, &d.IsRequired, &d.RequiredActivities, &d.PassingScore); err != nil {
			return nil, apperr.DataShape("skills", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient("skills", err)
	}
	return out, nil
}

func (s *Store) CompletedSkills(ctx context.Context, studentID string) ([]skills.Completed, error) {
	rows, err := s.db.Query(ctx, `
		SELECT student_id, skill_id, completed_date, COALESCE(final_score, 0)
		FROM completed_skills
		WHERE student_id = $1
	`, studentID)
	if err != nil {
		return nil, apperr.Transient("completed skills", err)
	}
	defer rows.Close()

	var out []skills.Completed
	for rows.Next() {
		var c skills.Completed
		if err := rows.Scan(&c.StudentID, &c.SkillID, &c.CompletedDate, &c.FinalScore); err != nil {
			return nil, apperr.DataShape("completed skills", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Transient("completed skills", err)
	}
	return out, nil
}

// ConfirmAttendance applies the server-side rules: the student is registered,
// not yet confirmed, the activity is running and any QR code matches.
// Refusals come back as an unsuccessful response rather than an error.
func (s *Store) ConfirmAttendance(ctx context.Context, req records.ConfirmRequest) (records.ConfirmResponse, error) {
	var (
		confirmed  bool
		start, end *time.Time
		qrCode     string
	)
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(p.is_confirmed, false), a.start_date_time, a.end_date_time, COALESCE(a.qr_code, '')
		FROM activity_participations p
		JOIN activities a ON a.activity_id = p.activity_id
		WHERE p.student_id = $1 AND p.activity_id = $2
	`, req.StudentID, req.ActivityID).Scan(&confirmed, &start, &end, &qrCode)
	if errors.Is(err, pgx.ErrNoRows) {
		return records.ConfirmResponse{Message: "student is not registered for this activity"}, nil
	}
	if err != nil {
		return records.ConfirmResponse{}, apperr.Transient("confirm attendance", err)
	}

	now := s.now()
	switch {
	case confirmed:
		return records.ConfirmResponse{Message: "attendance already confirmed"}, nil
	case start != nil && now.Before(*start):
		return records.ConfirmResponse{Message: "activity has not started yet"}, nil
	case end != nil && now.After(*end):
		return records.ConfirmResponse{Message: "activity has already ended"}, nil
	case req.QRCode != "" && req.QRCode != qrCode:
		return records.ConfirmResponse{Message: "check-in code does not match this activity"}, nil
	}

	tag, err := s.db.Exec(ctx, `
		UPDATE activity_participations
		SET is_confirmed = true, confirm_method = 'geo', confirmed_at = $3, confirm_lat = $4, confirm_lon = $5
		WHERE student_id = $1 AND activity_id = $2 AND NOT COALESCE(is_confirmed, false)
	`, req.StudentID, req.ActivityID, now, req.Latitude, req.Longitude)
	if err != nil {
		return records.ConfirmResponse{}, apperr.Transient("confirm attendance", err)
	}
	if tag.RowsAffected() == 0 {
		return records.ConfirmResponse{Message: "attendance already confirmed"}, nil
	}
	return records.ConfirmResponse{Success: true, Message: "attendance confirmed", ConfirmedAt: &now}, nil
}

func (s *Store) SubmitSurvey(ctx context.Context, req records.SurveyRequest) error {
	ratings, err := json.Marshal(req.Ratings)
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	tag, err := s.db.Exec(ctx, `
		WITH upd AS (
			UPDATE activity_participations
			SET survey_completed = true, survey_completed_at = $3
			WHERE student_id = $1 AND activity_id = $2
			  AND COALESCE(is_confirmed, false) AND NOT COALESCE(survey_completed, false)
			RETURNING student_id
		)
		INSERT INTO assessments (assessment_id, student_id, activity_id, ratings, comment, submitted_at)
		SELECT $4, $1, $2, $5, $6, $3 FROM upd
	`, req.StudentID, req.ActivityID, s.now(), uuid.NewString(), ratings, req.Comment)
	if err != nil {
		return apperr.Transient("submit survey", err)
	}
	if tag.RowsAffected() == 0 {
		return &apperr.ConfirmationRejectedError{Message: "survey is not open for this activity"}
	}
	return nil
}

func (s *Store) IssueCertificate(ctx context.Context, studentID, activityID string) (records.Certificate, error) {
	cert := records.Certificate{StudentID: studentID, ActivityID: activityID}
	err := s.db.QueryRow(ctx, `
		SELECT COALESCE(a.name, '')
		FROM activity_participations p
		JOIN activities a ON a.activity_id = p.activity_id
		WHERE p.student_id = $1 AND p.activity_id = $2
		  AND COALESCE(p.is_confirmed, false) AND COALESCE(p.survey_completed, false)
	`, studentID, activityID).Scan(&cert.ActivityName)
	if errors.Is(err, pgx.ErrNoRows) {
		return records.Certificate{}, &apperr.ConfirmationRejectedError{Message: "certificate requires a confirmed attendance and a submitted survey"}
	}
	if err != nil {
		return records.Certificate{}, apperr.Transient("issue certificate", err)
	}

	// On conflict the no-op update makes RETURNING yield the existing row.
	err = s.db.QueryRow(ctx, `
		INSERT INTO certificates (certificate_id, student_id, activity_id, issued_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, activity_id) DO UPDATE SET student_id = EXCLUDED.student_id
		RETURNING certificate_id, issued_at
	`, uuid.NewString(), studentID, activityID, s.now()).Scan(&cert.CertificateID, &cert.IssuedAt)
	if err != nil {
		return records.Certificate{}, apperr.Transient("issue certificate", err)
	}

	if _, err := s.db.Exec(ctx, `
		UPDATE activity_participations
		SET certificate_claimed = true, certificate_claimed_at = COALESCE(certificate_claimed_at, $3)
		WHERE student_id = $1 AND activity_id = $2
	`, studentID, activityID, cert.IssuedAt); err != nil {
		return records.Certificate{}, apperr.Transient("issue certificate", err)
	}
	return cert, nil
}

func (s *Store) QuizAnswerKey(ctx context.Context, skillID string) (records.AnswerKey, error) {
	rows, err := s.db.Query(ctx, `
		SELECT question_id, correct_answer
		FROM quiz_questions
		WHERE skill_id = $1
	`, skillID)
	if err != nil {
		return records.AnswerKey{}, apperr.Transient("quiz answer key", err)
	}
	defer rows.Close()

	key := records.AnswerKey{SkillID: skillID, Answers: map[string]string{}}
	for rows.Next() {
		var id, answer string
		if err := rows.Scan(&id, &answer); err != nil {
			return records.AnswerKey{}, apperr.DataShape("quiz answer key", err)
		}
		key.Answers[id] = answer
	}
	if err := rows.Err(); err != nil {
		return records.AnswerKey{}, apperr.Transient("quiz answer key", err)
	}
	return key, nil
}

func (s *Store) RecordQuizAttempt(ctx context.Context, attempt records.Attempt) error {
	answers, err := json.Marshal(attempt.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	err = db.InTx(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO quiz_attempts (attempt_id, student_id, skill_id, answers, score, correct_answers, total_questions, is_passed, submitted_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		`, attempt.AttemptID, attempt.StudentID, attempt.SkillID, answers, attempt.Score,
			attempt.CorrectAnswers, attempt.TotalQuestions, attempt.Passed, attempt.SubmittedAt); err != nil {
			return err
		}
		if !attempt.Passed {
			return nil
		}
		_, err := tx.Exec(ctx, `
			INSERT INTO completed_skills (student_id, skill_id, completed_date, final_score)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (student_id, skill_id) DO UPDATE
			SET final_score = EXCLUDED.final_score, completed_date = EXCLUDED.completed_date
			WHERE completed_skills.final_score < EXCLUDED.final_score
		`, attempt.StudentID, attempt.SkillID, attempt.SubmittedAt, attempt.Score)
		return err
	})
	if err != nil {
		return apperr.Transient("record quiz attempt", err)
	}
	return nil
}
