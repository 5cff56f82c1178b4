package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"

	"backend-skillpath/internal/apperr"
	"backend-skillpath/internal/records"
)

func ptr[T any](v T) *T { return &v }

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

var activityColumns = []string{
	"student_id", "activity_id", "name", "start_date_time", "end_date_time",
	"location_id", "location_name", "lat", "lng", "radius_m",
	"skill_id", "skill_category", "plo", "qr_code",
	"is_confirmed", "survey_completed", "quiz_completed", "certificate_claimed", "confirmed_at",
}

func TestActivitiesForStudent(t *testing.T) {
	mock := newMock(t)
	st := New(mock)

	start := time.Date(2025, 1, 10, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM activity_participations p`).
		WithArgs("6612345678").
		WillReturnRows(pgxmock.NewRows(activityColumns).
			AddRow("6612345678", "A1", "Volunteer day", ptr(start), ptr(start.Add(3*time.Hour)),
				"L1", "Main hall", ptr(13.7563), ptr(100.5018), ptr(150.0),
				"skill002", "soft", []string{"PLO1"}, "ACT001QR4T25X",
				true, true, false, false, ptr(start.Add(time.Hour))).
			AddRow("6612345678", "A2", "", (*time.Time)(nil), (*time.Time)(nil),
				"", "", (*float64)(nil), (*float64)(nil), (*float64)(nil),
				"", "", []string{}, "",
				false, false, false, false, (*time.Time)(nil)))

	got, err := st.ActivitiesForStudent(context.Background(), "6612345678")
	if err != nil {
		t.Fatalf("activities: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if _, ok := got[0].Location.Center(); !ok || got[0].Location.Radius(200) != 150 {
		t.Fatalf("expected geofence on first record, got %+v", got[0].Location)
	}
	if got[1].Start != nil {
		t.Fatalf("expected unknown start on second record")
	}
	if _, ok := got[1].Location.Center(); ok {
		t.Fatalf("expected no center on second record")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestActivitiesQueryErrorIsTransient(t *testing.T) {
	mock := newMock(t)
	st := New(mock)

	mock.ExpectQuery(`FROM activity_participations p`).
		WithArgs("s1").
		WillReturnError(errors.New("connection refused"))

	_, err := st.ActivitiesForStudent(context.Background(), "s1")
	var transient *apperr.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected transient error, got %v", err)
	}
}

func TestSkillsCatalogRequiredFiltersYear(t *testing.T) {
	mock := newMock(t)
	st := New(mock)

	mock.ExpectQuery(`WHERE is_required AND year_level = \$3`).
		WithArgs(3, 70, 2).
		WillReturnRows(pgxmock.NewRows([]string{"skill_id", "name", "description", "category", "subcategory", "year_level", "is_required", "required_activities", "passing_score"}).
			AddRow("skill001", "Communication", "", "soft", "", 2, true, 3, 70))

	got, err := st.SkillsCatalog(context.Background(), 2, records.CatalogRequired)
	if err != nil {
		t.Fatalf("skills: %v", err)
	}
	if len(got) != 1 || !got[0].IsRequired || got[0].YearLevel != 2 {
		t.Fatalf("unexpected catalog %+v", got)
	}

	mock.ExpectQuery(`WHERE NOT is_required`).
		WithArgs(3, 70).
		WillReturnRows(pgxmock.NewRows([]string{"skill_id", "name", "description", "category", "subcategory", "year_level", "is_required", "required_activities", "passing_score"}))

	optional, err := st.SkillsCatalog(context.Background(), 2, records.CatalogOptional)
	if err != nil || len(optional) != 0 {
		t.Fatalf("optional skills: %v %+v", err, optional)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCompletedSkills(t *testing.T) {
	mock := newMock(t)
	st := New(mock)

	mock.ExpectQuery(`FROM completed_skills`).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"student_id", "skill_id", "completed_date", "final_score"}).
			AddRow("s1", "skill001", ptr(time.Now()), 90))

	got, err := st.CompletedSkills(context.Background(), "s1")
	if err != nil || len(got) != 1 || got[0].FinalScore != 90 {
		t.Fatalf("completed skills: %v %+v", err, got)
	}
}

func confirmRow(confirmed bool, start, end time.Time, qr string) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"is_confirmed", "start", "end", "qr_code"}).
		AddRow(confirmed, ptr(start), ptr(end), qr)
}

func TestConfirmAttendance(t *testing.T) {
	mock := newMock(t)
	st := New(mock)
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }

	mock.ExpectQuery(`SELECT COALESCE\(p.is_confirmed, false\), a.start_date_time`).
		WithArgs("s1", "A1").
		WillReturnRows(confirmRow(false, now.Add(-time.Hour), now.Add(time.Hour), "ACT001QR4T25X"))
	mock.ExpectExec(`UPDATE activity_participations`).
		WithArgs("s1", "A1", now, 13.757, 100.502).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	res, err := st.ConfirmAttendance(context.Background(), records.ConfirmRequest{
		StudentID: "s1", ActivityID: "A1", Latitude: 13.757, Longitude: 100.502, QRCode: "ACT001QR4T25X",
	})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if !res.Success || res.ConfirmedAt == nil || !res.ConfirmedAt.Equal(now) {
		t.Fatalf("unexpected response %+v", res)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmAttendanceRefusals(t *testing.T) {
	now := time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
	cases := []struct {
		name string
		rows *pgxmock.Rows
		qr   string
		want string
	}{
		{"already confirmed", confirmRow(true, now.Add(-time.Hour), now.Add(time.Hour), ""), "", "attendance already confirmed"},
		{"not started", confirmRow(false, now.Add(time.Hour), now.Add(2*time.Hour), ""), "", "activity has not started yet"},
		{"ended", confirmRow(false, now.Add(-2*time.Hour), now.Add(-time.Hour), ""), "", "activity has already ended"},
		{"wrong code", confirmRow(false, now.Add(-time.Hour), now.Add(time.Hour), "ACT001QR4T25X"), "ACT002QR4T25X", "check-in code does not match this activity"},
	}
	for _, tc := range cases {
		mock := newMock(t)
		st := New(mock)
		st.now = func() time.Time { return now }

		mock.ExpectQuery(`SELECT COALESCE\(p.is_confirmed, false\)`).
			WithArgs("s1", "A1").
			WillReturnRows(tc.rows)

		res, err := st.ConfirmAttendance(context.Background(), records.ConfirmRequest{StudentID: "s1", ActivityID: "A1", QRCode: tc.qr})
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
		if res.Success || res.Message != tc.want {
			t.Fatalf("%s: unexpected response %+v", tc.name, res)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Fatalf("%s: unmet expectations: %v", tc.name, err)
		}
	}
}

func TestSubmitSurveyRequiresConfirmation(t *testing.T) {
	mock := newMock(t)
	st := New(mock)

	mock.ExpectExec(`INSERT INTO assessments`).
		WithArgs("s1", "A1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "great").
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	err := st.SubmitSurvey(context.Background(), records.SurveyRequest{StudentID: "s1", ActivityID: "A1", Ratings: map[string]int{"organization": 5}, Comment: "great"})
	var rejected *apperr.ConfirmationRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected rejection, got %v", err)
	}

	mock.ExpectExec(`INSERT INTO assessments`).
		WithArgs("s1", "A1", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), "").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	if err := st.SubmitSurvey(context.Background(), records.SurveyRequest{StudentID: "s1", ActivityID: "A1"}); err != nil {
		t.Fatalf("submit survey: %v", err)
	}
}

func TestIssueCertificateIsIdempotent(t *testing.T) {
	mock := newMock(t)
	st := New(mock)
	issued := time.Date(2025, 1, 11, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 2; i++ {
		mock.ExpectQuery(`SELECT COALESCE\(a.name, ''\)`).
			WithArgs("s1", "A1").
			WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("Volunteer day"))
		mock.ExpectQuery(`INSERT INTO certificates`).
			WithArgs(pgxmock.AnyArg(), "s1", "A1", pgxmock.AnyArg()).
			WillReturnRows(pgxmock.NewRows([]string{"certificate_id", "issued_at"}).AddRow("C1", issued))
		mock.ExpectExec(`SET certificate_claimed = true`).
			WithArgs("s1", "A1", issued).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	}

	first, err := st.IssueCertificate(context.Background(), "s1", "A1")
	if err != nil {
		t.Fatalf("first issue: %v", err)
	}
	second, err := st.IssueCertificate(context.Background(), "s1", "A1")
	if err != nil {
		t.Fatalf("second issue: %v", err)
	}
	if first.CertificateID != second.CertificateID || first.ActivityName != "Volunteer day" {
		t.Fatalf("expected the same certificate, got %+v and %+v", first, second)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestIssueCertificateNotEligible(t *testing.T) {
	mock := newMock(t)
	st := New(mock)

	mock.ExpectQuery(`SELECT COALESCE\(a.name, ''\)`).
		WithArgs("s1", "A1").
		WillReturnRows(pgxmock.NewRows([]string{"name"}))

	_, err := st.IssueCertificate(context.Background(), "s1", "A1")
	var rejected *apperr.ConfirmationRejectedError
	if !errors.As(err, &rejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
}

func TestQuizAnswerKeyAndAttempt(t *testing.T) {
	mock := newMock(t)
	st := New(mock)

	mock.ExpectQuery(`FROM quiz_questions`).
		WithArgs("skill001").
		WillReturnRows(pgxmock.NewRows([]string{"question_id", "correct_answer"}).
			AddRow("q1", "a").AddRow("q2", "c"))

	key, err := st.QuizAnswerKey(context.Background(), "skill001")
	if err != nil || len(key.Answers) != 2 {
		t.Fatalf("answer key: %v %+v", err, key)
	}

	submitted := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO quiz_attempts`).
		WithArgs("att-1", "s1", "skill001", pgxmock.AnyArg(), 100, 2, 2, true, submitted).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO completed_skills`).
		WithArgs("s1", "skill001", submitted, 100).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err = st.RecordQuizAttempt(context.Background(), records.Attempt{
		AttemptID: "att-1", StudentID: "s1", SkillID: "skill001", Answers: key.Answers,
		Score: 100, CorrectAnswers: 2, TotalQuestions: 2, Passed: true, SubmittedAt: submitted,
	})
	if err != nil {
		t.Fatalf("record attempt: %v", err)
	}

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO quiz_attempts`).
		WithArgs("att-2", "s1", "skill001", pgxmock.AnyArg(), 50, 1, 2, false, submitted).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()
	if err := st.RecordQuizAttempt(context.Background(), records.Attempt{
		AttemptID: "att-2", StudentID: "s1", SkillID: "skill001",
		Score: 50, CorrectAnswers: 1, TotalQuestions: 2, SubmittedAt: submitted,
	}); err != nil {
		t.Fatalf("record failed attempt: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestRecordQuizAttemptRollsBack(t *testing.T) {
	mock := newMock(t)
	st := New(mock)

	submitted := time.Now()
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO quiz_attempts`).
		WithArgs("att-3", "s1", "skill001", pgxmock.AnyArg(), 100, 2, 2, true, submitted).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO completed_skills`).
		WithArgs("s1", "skill001", submitted, 100).
		WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := st.RecordQuizAttempt(context.Background(), records.Attempt{
		AttemptID: "att-3", StudentID: "s1", SkillID: "skill001", Answers: map[string]string{"q1": "a"},
		Score: 100, CorrectAnswers: 2, TotalQuestions: 2, Passed: true, SubmittedAt: submitted,
	})
	var transient *apperr.TransientError
	if !errors.As(err, &transient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
