package student

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"backend-skillpath/internal/action"
	"backend-skillpath/internal/attendance"
	"backend-skillpath/internal/events"
	"backend-skillpath/internal/records"
	"backend-skillpath/internal/shared/geo"
)

// RatingKeys are the survey questions every submission must answer.
var RatingKeys = []string{
	"overall_satisfaction",
	"content_quality",
	"instructor_quality",
	"organization",
	"recommendation",
}

type ConfirmInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	QRCode    string   `json:"qrCode"`
}

type SurveyInput struct {
	Ratings map[string]int `json:"ratings"`
	Comment string         `json:"comment"`
}

// locator returns the coordinates the client measured, or a locator that
// fails when they were not sent.
func (in ConfirmInput) locator() attendance.Locator {
	if in.Latitude == nil || in.Longitude == nil {
		return attendance.LocatorFunc(func(context.Context) (geo.Point, error) {
			return geo.Point{}, attendance.ErrLocationUnavailable
		})
	}
	return attendance.StaticLocator(geo.Point{Lat: *in.Latitude, Lng: *in.Longitude})
}

// surveyRatings holds one field per entry of RatingKeys. An absent key decodes
// to zero and fails required.
type surveyRatings struct {
	OverallSatisfaction int `json:"overall_satisfaction" validate:"required,min=1,max=5"`
	ContentQuality      int `json:"content_quality" validate:"required,min=1,max=5"`
	InstructorQuality   int `json:"instructor_quality" validate:"required,min=1,max=5"`
	Organization        int `json:"organization" validate:"required,min=1,max=5"`
	Recommendation      int `json:"recommendation" validate:"required,min=1,max=5"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	return v
}

// ValidateRatings requires every rating key with a value from 1 to 5.
func ValidateRatings(ratings map[string]int) error {
	err := validate.Struct(surveyRatings{
		OverallSatisfaction: ratings["overall_satisfaction"],
		ContentQuality:      ratings["content_quality"],
		InstructorQuality:   ratings["instructor_quality"],
		Organization:        ratings["organization"],
		Recommendation:      ratings["recommendation"],
	})
	var fields validator.ValidationErrors
	if !errors.As(err, &fields) {
		return err
	}
	names := make([]string, 0, len(fields))
	for _, fe := range fields {
		names = append(names, fe.Field())
	}
	sort.Strings(names)
	return fmt.Errorf("%w: %s must be between 1 and 5", ErrInvalidInput, strings.Join(names, ", "))
}

func decodeBody(body []byte, dst any) error {
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return nil
}

func (s *Service) handleConfirm(ctx context.Context, req action.Request) (action.Outcome, error) {
	var in ConfirmInput
	if err := decodeBody(req.Body, &in); err != nil {
		return action.Outcome{}, err
	}
	res, err := s.confirmer.Confirm(ctx, attendance.Request{
		StudentID: req.StudentID,
		Activity:  req.Record.Activity(),
		QRCode:    in.QRCode,
	}, in.locator())
	if err != nil {
		return action.Outcome{}, err
	}
	return action.Outcome{Message: res.Message, Data: res, Refresh: true}, nil
}

func (s *Service) handleSurvey(ctx context.Context, req action.Request) (action.Outcome, error) {
	var in SurveyInput
	if err := decodeBody(req.Body, &in); err != nil {
		return action.Outcome{}, err
	}
	if err := ValidateRatings(in.Ratings); err != nil {
		return action.Outcome{}, err
	}
	err := s.source.SubmitSurvey(ctx, records.SurveyRequest{
		StudentID:  req.StudentID,
		ActivityID: req.Record.ActivityID,
		Ratings:    in.Ratings,
		Comment:    strings.TrimSpace(in.Comment),
	})
	if err != nil {
		return action.Outcome{}, err
	}
	s.notify(ctx, events.ParticipationUpdated(req.StudentID, req.Record.ActivityID, "survey_submitted"))
	return action.Outcome{Message: "Survey submitted", Refresh: true}, nil
}

func (s *Service) handleCertificate(ctx context.Context, req action.Request) (action.Outcome, error) {
	cert, err := s.source.IssueCertificate(ctx, req.StudentID, req.Record.ActivityID)
	if err != nil {
		return action.Outcome{}, err
	}
	if !req.Record.CertificateClaimed {
		s.notify(ctx, events.ParticipationUpdated(req.StudentID, req.Record.ActivityID, "certificate_issued"))
	}
	return action.Outcome{Message: "Certificate issued", Data: cert, Refresh: !req.Record.CertificateClaimed}, nil
}
