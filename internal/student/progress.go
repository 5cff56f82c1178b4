package student

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"backend-skillpath/internal/events"
	"backend-skillpath/internal/participation"
	"backend-skillpath/internal/quiz"
	"backend-skillpath/internal/records"
	"backend-skillpath/internal/skills"
)

// Skills builds the student's skill report. The participation list, both
// catalogs and the completed skills load concurrently, and aggregation starts
// only after all four are in. Any failed load fails the report.
func (s *Service) Skills(ctx context.Context, studentID string, yearLevel int) (skills.Report, error) {
	var (
		list      []participation.Record
		required  []skills.Definition
		optional  []skills.Definition
		completed []skills.Completed
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		list, err = s.source.ActivitiesForStudent(gctx, studentID)
		return err
	})
	g.Go(func() (err error) {
		required, err = s.source.SkillsCatalog(gctx, yearLevel, records.CatalogRequired)
		return err
	})
	g.Go(func() (err error) {
		optional, err = s.source.SkillsCatalog(gctx, yearLevel, records.CatalogOptional)
		return err
	})
	g.Go(func() (err error) {
		completed, err = s.source.CompletedSkills(gctx, studentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return skills.Report{}, err
	}

	catalog := make([]skills.Definition, 0, len(required)+len(optional))
	for _, d := range required {
		d.IsRequired = true
		catalog = append(catalog, d)
	}
	for _, d := range optional {
		if d.IsRequired {
			continue
		}
		catalog = append(catalog, d)
	}
	return s.aggregator.BuildReport(list, catalog, completed), nil
}

type QuizResult struct {
	AttemptID string `json:"attemptId"`
	SkillID   string `json:"skillId"`
	quiz.Grade
	SubmittedAt time.Time `json:"submittedAt"`
}

// SubmitQuiz grades a quiz for a skill whose quiz is unlocked and records the
// attempt. A passing attempt completes the skill.
func (s *Service) SubmitQuiz(ctx context.Context, studentID, skillID string, yearLevel int, answers map[string]string) (QuizResult, error) {
	if len(answers) == 0 {
		return QuizResult{}, fmt.Errorf("%w: answers required", ErrInvalidInput)
	}

	report, err := s.Skills(ctx, studentID, yearLevel)
	if err != nil {
		return QuizResult{}, err
	}
	progress, ok := report.Find(skillID)
	if !ok {
		return QuizResult{}, ErrSkillNotFound
	}
	if err := quiz.Unlocked(progress); err != nil {
		return QuizResult{}, err
	}

	key, err := s.source.QuizAnswerKey(ctx, skillID)
	if err != nil {
		return QuizResult{}, err
	}
	grade, err := quiz.Score(key.Answers, answers, progress.Skill.PassMark())
	if err != nil {
		return QuizResult{}, err
	}

	attempt := records.Attempt{
		AttemptID:      uuid.NewString(),
		StudentID:      studentID,
		SkillID:        skillID,
		Answers:        answers,
		Score:          grade.Score,
		CorrectAnswers: grade.CorrectAnswers,
		TotalQuestions: grade.TotalQuestions,
		Passed:         grade.Passed,
		SubmittedAt:    s.now().UTC(),
	}
	if err := s.source.RecordQuizAttempt(ctx, attempt); err != nil {
		return QuizResult{}, err
	}

	s.onQuiz(grade.Passed)
	s.notify(ctx, events.QuizGraded(studentID, skillID, grade.Score, grade.Passed))
	return QuizResult{
		AttemptID:   attempt.AttemptID,
		SkillID:     skillID,
		Grade:       grade,
		SubmittedAt: attempt.SubmittedAt,
	}, nil
}
