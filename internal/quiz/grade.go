// Package quiz grades skill quiz submissions against the answer key.
package quiz

import (
	"errors"
	"strings"
	"unicode/utf8"

	"backend-skillpath/internal/skills"
)

var (
	ErrQuizLocked     = errors.New("quiz is not available for this skill yet")
	ErrEmptyAnswerKey = errors.New("quiz has no questions")
)

type Grade struct {
	Score          int  `json:"score"`
	CorrectAnswers int  `json:"correctAnswers"`
	TotalQuestions int  `json:"totalQuestions"`
	PassingScore   int  `json:"passingScore"`
	Passed         bool `json:"isPassed"`
}

// Unlocked reports whether the student may take the quiz: the skill is quiz
// ready, or already passed and being retaken.
func Unlocked(p skills.Progress) error {
	if !p.QuizAvailable() {
		return ErrQuizLocked
	}
	return nil
}

// Score grades answers question by question. An answer counts when its first
// letter matches the key, ignoring case, so "b) Teamwork" matches "B".
// Unanswered questions count as wrong.
func Score(key map[string]string, answers map[string]string, passingScore int) (Grade, error) {
	if len(key) == 0 {
		return Grade{}, ErrEmptyAnswerKey
	}
	if passingScore <= 0 {
		passingScore = skills.DefaultPassingScore
	}

	correct := 0
	for questionID, want := range key {
		if matches(answers[questionID], want) {
			correct++
		}
	}

	score := correct * 100 / len(key)
	return Grade{
		Score:          score,
		CorrectAnswers: correct,
		TotalQuestions: len(key),
		PassingScore:   passingScore,
		Passed:         score >= passingScore,
	}, nil
}

func matches(selected, want string) bool {
	selected = strings.TrimSpace(selected)
	want = strings.TrimSpace(want)
	if selected == "" || want == "" {
		return false
	}
	r, _ := utf8.DecodeRuneInString(selected)
	return strings.EqualFold(string(r), want)
}
