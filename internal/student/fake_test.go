package student

import (
	"context"
	"sync"
	"time"

	"backend-skillpath/internal/participation"
	"backend-skillpath/internal/records"
	"backend-skillpath/internal/skills"
)

var testNow = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

func clock() time.Time { return testNow }

func ptr[T any](v T) *T { return &v }

func at(hour int, day int) *time.Time {
	t := time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
	return &t
}

type fakeSource struct {
	mu sync.Mutex

	records   []participation.Record
	required  []skills.Definition
	optional  []skills.Definition
	completed []skills.Completed
	key       records.AnswerKey

	activitiesErr error
	catalogErr    error
	confirmErr    error
	confirmResp   records.ConfirmResponse

	confirms  []records.ConfirmRequest
	surveys   []records.SurveyRequest
	certCalls int
	attempts  []records.Attempt
	tokens    []string
}

func newFakeSource() *fakeSource {
	center := participation.Location{Lat: ptr(13.7563), Lng: ptr(100.5018), RadiusMeters: ptr(100.0)}
	return &fakeSource{
		records: []participation.Record{
			{StudentID: "6612345678", ActivityID: "ACT001", Name: "Design sprint", Start: at(9, 10), End: at(12, 10), Location: center, SkillID: "skill002"},
			{StudentID: "6612345678", ActivityID: "ACT002", Name: "Hackathon", Start: at(9, 1), End: at(17, 1), Location: center, SkillID: "skill002", IsConfirmed: true},
			{StudentID: "6612345678", ActivityID: "ACT003", Name: "Public speaking", Start: at(9, 2), End: at(12, 2), Location: center, SkillID: "skill001", IsConfirmed: true, SurveyCompleted: true},
			{StudentID: "6612345678", ActivityID: "ACT004", Name: "Career fair", Start: at(9, 20), End: at(17, 20), Location: center, SkillID: "skill002"},
			{StudentID: "6612345678", ActivityID: "ACT005", Name: "Team retreat", Start: at(9, 3), End: at(17, 3), Location: center, SkillID: "skill002", IsConfirmed: true, SurveyCompleted: true},
		},
		required: []skills.Definition{
			{ID: "skill001", Name: "Communication", YearLevel: 1, IsRequired: true, RequiredActivities: 1, PassingScore: 70},
			{ID: "skill002", Name: "Teamwork", YearLevel: 1, IsRequired: true, RequiredActivities: 3, PassingScore: 70},
		},
		optional: []skills.Definition{
			{ID: "skill010", Name: "Photography"},
		},
		key:         records.AnswerKey{SkillID: "skill001", Answers: map[string]string{"q1": "a", "q2": "b"}},
		confirmResp: records.ConfirmResponse{Success: true, Message: "Attendance confirmed"},
	}
}

func (f *fakeSource) ActivitiesForStudent(ctx context.Context, studentID string) ([]participation.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, records.TokenFrom(ctx))
	if f.activitiesErr != nil {
		return nil, f.activitiesErr
	}
	return append([]participation.Record(nil), f.records...), nil
}

func (f *fakeSource) SkillsCatalog(ctx context.Context, yearLevel int, kind records.CatalogKind) ([]skills.Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.catalogErr != nil {
		return nil, f.catalogErr
	}
	if kind == records.CatalogRequired {
		var out []skills.Definition
		for _, d := range f.required {
			if d.YearLevel == yearLevel {
				out = append(out, d)
			}
		}
		return out, nil
	}
	return f.optional, nil
}

func (f *fakeSource) CompletedSkills(ctx context.Context, studentID string) ([]skills.Completed, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed, nil
}

func (f *fakeSource) ConfirmAttendance(ctx context.Context, req records.ConfirmRequest) (records.ConfirmResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirms = append(f.confirms, req)
	if f.confirmErr != nil {
		return records.ConfirmResponse{}, f.confirmErr
	}
	return f.confirmResp, nil
}

func (f *fakeSource) SubmitSurvey(ctx context.Context, req records.SurveyRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.surveys = append(f.surveys, req)
	return nil
}

func (f *fakeSource) IssueCertificate(ctx context.Context, studentID, activityID string) (records.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.certCalls++
	return records.Certificate{CertificateID: "cert-1", StudentID: studentID, ActivityID: activityID, IssuedAt: testNow}, nil
}

func (f *fakeSource) QuizAnswerKey(ctx context.Context, skillID string) (records.AnswerKey, error) {
	return f.key, nil
}

func (f *fakeSource) RecordQuizAttempt(ctx context.Context, attempt records.Attempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, attempt)
	return nil
}
