// Package action resolves the user-facing action for a participation record.
package action

import (
	"time"

	"backend-skillpath/internal/lifecycle"
	"backend-skillpath/internal/participation"
)

type Kind string

const (
	None        Kind = "NONE"
	Confirm     Kind = "CONFIRM"
	Survey      Kind = "SURVEY"
	Certificate Kind = "CERTIFICATE"
)

func ParseKind(s string) (Kind, bool) {
	switch k := Kind(s); k {
	case None, Confirm, Survey, Certificate:
		return k, true
	}
	return "", false
}

// Reason codes, stable across label translations.
const (
	ReasonRegistered         = "registered"
	ReasonAwaitingEnd        = "awaiting_end"
	ReasonConfirmationClosed = "confirmation_closed"
	ReasonConfirm            = "confirm"
	ReasonSurvey             = "survey"
	ReasonCertificate        = "certificate"
)

type Action struct {
	Kind    Kind   `json:"kind"`
	Enabled bool   `json:"enabled"`
	Label   string `json:"label"`
	Reason  string `json:"reason"`
}

var (
	registered         = Action{Kind: None, Label: "Registered", Reason: ReasonRegistered}
	awaitingEnd        = Action{Kind: None, Label: "Confirmed, awaiting end", Reason: ReasonAwaitingEnd}
	confirmationClosed = Action{Kind: None, Label: "Confirmation window closed", Reason: ReasonConfirmationClosed}
	confirmAttendance  = Action{Kind: Confirm, Enabled: true, Label: "Confirm attendance", Reason: ReasonConfirm}
	completeSurvey     = Action{Kind: Survey, Enabled: true, Label: "Complete survey", Reason: ReasonSurvey}
	getCertificate     = Action{Kind: Certificate, Enabled: true, Label: "Get certificate", Reason: ReasonCertificate}
)

// Resolve maps a phase and the participation flags to an action.
// An ended activity that was never confirmed cannot be confirmed afterwards.
func Resolve(phase lifecycle.Phase, isConfirmed, surveyCompleted bool) Action {
	switch phase {
	case lifecycle.Upcoming:
		return registered
	case lifecycle.InProgress:
		if !isConfirmed {
			return confirmAttendance
		}
		return awaitingEnd
	default:
		if !isConfirmed {
			return confirmationClosed
		}
		if !surveyCompleted {
			return completeSurvey
		}
		return getCertificate
	}
}

// ResolveRecord classifies r at now and resolves its action. Flags that
// require confirmation are ignored on unconfirmed records.
func ResolveRecord(now time.Time, r participation.Record) (lifecycle.Phase, Action) {
	r = r.Sanitized()
	phase := lifecycle.Classify(now, r.Start, r.End)
	return phase, Resolve(phase, r.IsConfirmed, r.SurveyCompleted)
}
