package portalapi

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"backend-skillpath/internal/lifecycle"
	"backend-skillpath/internal/participation"
	"backend-skillpath/internal/skills"
)

// flag decodes only a JSON true as true. Anything else, including "true" as a
// string, is false.
type flag bool

func (f *flag) UnmarshalJSON(b []byte) error {
	*f = flag(bytes.Equal(bytes.TrimSpace(b), []byte("true")))
	return nil
}

// number accepts JSON numbers and numeric strings. Absent, null or
// unparsable values decode to nil.
type number struct {
	v *float64
}

func (n *number) UnmarshalJSON(b []byte) error {
	n.v = nil
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if b[0] == '"' {
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
	} else {
		s = string(b)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return nil
	}
	n.v = &f
	return nil
}

func (n number) int(fallback int) int {
	if n.v == nil {
		return fallback
	}
	return int(*n.v)
}

// text accepts strings and numbers, so ids sent as numbers survive.
type text string

func (t *text) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*t = text(s)
		return nil
	}
	*t = text(b)
	return nil
}

// tags accepts a list of strings or a single comma separated string.
type tags []string

func (t *tags) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*t = list
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil && s != "" {
		for _, part := range strings.Split(s, ",") {
			if part = strings.TrimSpace(part); part != "" {
				*t = append(*t, part)
			}
		}
	}
	return nil
}

type activityWire struct {
	ActivityID           text   `json:"activityId"`
	StudentID            text   `json:"studentId"`
	Name                 string `json:"name"`
	StartDateTime        string `json:"startDateTime"`
	EndDateTime          string `json:"endDateTime"`
	Location             string `json:"location"`
	LocationID           text   `json:"locationId"`
	LocationName         string `json:"locationName"`
	LocationLatitude     number `json:"locationLatitude"`
	LocationLongitude    number `json:"locationLongitude"`
	LocationRadiusMeters number `json:"locationRadiusMeters"`
	SkillID              text   `json:"skillId"`
	SkillCategory        string `json:"skillCategory"`
	PLO                  tags   `json:"plo"`
	QRCode               string `json:"qrCode"`
	IsConfirmed          flag   `json:"isConfirmed"`
	SurveyCompleted      flag   `json:"surveyCompleted"`
	QuizCompleted        flag   `json:"quizCompleted"`
	CertificateClaimed   flag   `json:"certificateClaimed"`
	ConfirmedAt          string `json:"confirmedAt"`
}

func (w activityWire) record(loc *time.Location) participation.Record {
	name := w.LocationName
	if name == "" {
		name = w.Location
	}
	return participation.Record{
		StudentID:  string(w.StudentID),
		ActivityID: string(w.ActivityID),
		Name:       w.Name,
		Start:      lifecycle.ParseTimestampIn(w.StartDateTime, loc),
		End:        lifecycle.ParseTimestampIn(w.EndDateTime, loc),
		Location: participation.Location{
			ID:           string(w.LocationID),
			Name:         name,
			Lat:          w.LocationLatitude.v,
			Lng:          w.LocationLongitude.v,
			RadiusMeters: w.LocationRadiusMeters.v,
		},
		SkillID:            string(w.SkillID),
		SkillCategory:      w.SkillCategory,
		PLOs:               w.PLO,
		IsConfirmed:        bool(w.IsConfirmed),
		SurveyCompleted:    bool(w.SurveyCompleted),
		QuizCompleted:      bool(w.QuizCompleted),
		CertificateClaimed: bool(w.CertificateClaimed),
		ConfirmedAt:        lifecycle.ParseTimestampIn(w.ConfirmedAt, loc),
		QRCode:             w.QRCode,
	}
}

type skillWire struct {
	SkillID            text   `json:"skillId"`
	Name               string `json:"name"`
	Description        string `json:"description"`
	Category           string `json:"category"`
	Subcategory        string `json:"subcategory"`
	YearLevel          number `json:"yearLevel"`
	IsRequired         flag   `json:"isRequired"`
	RequiredActivities number `json:"requiredActivities"`
	PassingScore       number `json:"passingScore"`
}

func (w skillWire) definition(defaults skills.Defaults) skills.Definition {
	return skills.Definition{
		ID:                 string(w.SkillID),
		Name:               w.Name,
		Description:        w.Description,
		Category:           w.Category,
		Subcategory:        w.Subcategory,
		YearLevel:          w.YearLevel.int(0),
		IsRequired:         bool(w.IsRequired),
		RequiredActivities: w.RequiredActivities.int(defaults.RequiredActivities),
		PassingScore:       w.PassingScore.int(defaults.PassingScore),
	}
}

type completedWire struct {
	StudentID     text   `json:"studentId"`
	SkillID       text   `json:"skillId"`
	CompletedDate string `json:"completedDate"`
	FinalScore    number `json:"finalScore"`
	// legacy tables capitalize the score column
	LegacyScore number `json:"FinalScore"`
}

func (w completedWire) completed(loc *time.Location) skills.Completed {
	score := w.FinalScore
	if score.v == nil {
		score = w.LegacyScore
	}
	return skills.Completed{
		StudentID:     string(w.StudentID),
		SkillID:       string(w.SkillID),
		CompletedDate: lifecycle.ParseTimestampIn(w.CompletedDate, loc),
		FinalScore:    score.int(0),
	}
}

type questionWire struct {
	QuestionID    text   `json:"questionId"`
	CorrectAnswer string `json:"correctAnswer"`
}

func parseIn(s string, loc *time.Location) *time.Time {
	return lifecycle.ParseTimestampIn(s, loc)
}
