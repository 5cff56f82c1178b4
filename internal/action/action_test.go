package action

import (
	"testing"
	"time"

	"backend-skillpath/internal/lifecycle"
	"backend-skillpath/internal/participation"

	"github.com/stretchr/testify/require"
)

func TestResolveTable(t *testing.T) {
	cases := []struct {
		phase     lifecycle.Phase
		confirmed bool
		surveyed  bool
		kind      Kind
		enabled   bool
		reason    string
	}{
		{lifecycle.Upcoming, false, false, None, false, ReasonRegistered},
		{lifecycle.Upcoming, true, true, None, false, ReasonRegistered},
		{lifecycle.InProgress, false, false, Confirm, true, ReasonConfirm},
		{lifecycle.InProgress, false, true, Confirm, true, ReasonConfirm},
		{lifecycle.InProgress, true, false, None, false, ReasonAwaitingEnd},
		{lifecycle.InProgress, true, true, None, false, ReasonAwaitingEnd},
		{lifecycle.Ended, false, false, None, false, ReasonConfirmationClosed},
		{lifecycle.Ended, true, false, Survey, true, ReasonSurvey},
		{lifecycle.Ended, true, true, Certificate, true, ReasonCertificate},
	}
	for _, tc := range cases {
		got := Resolve(tc.phase, tc.confirmed, tc.surveyed)
		require.Equal(t, tc.kind, got.Kind, "%s confirmed=%v surveyed=%v", tc.phase, tc.confirmed, tc.surveyed)
		require.Equal(t, tc.enabled, got.Enabled)
		require.Equal(t, tc.reason, got.Reason)
		require.NotEmpty(t, got.Label)
	}
}

func TestResolveEndedUnconfirmedAlwaysClosed(t *testing.T) {
	for _, surveyed := range []bool{false, true} {
		got := Resolve(lifecycle.Ended, false, surveyed)
		require.False(t, got.Enabled)
		require.Equal(t, None, got.Kind)
		require.Equal(t, ReasonConfirmationClosed, got.Reason)
	}
}

func TestResolveRecordFailsClosed(t *testing.T) {
	now := time.Date(2024, 1, 1, 13, 0, 0, 0, time.UTC)
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

	// survey flag without confirmation must not unlock the certificate
	phase, act := ResolveRecord(now, participation.Record{Start: &start, End: &end, SurveyCompleted: true})
	require.Equal(t, lifecycle.Ended, phase)
	require.Equal(t, ReasonConfirmationClosed, act.Reason)

	_, act = ResolveRecord(now, participation.Record{Start: &start, End: &end, IsConfirmed: true, SurveyCompleted: true})
	require.Equal(t, Certificate, act.Kind)
}

func TestResolveRecordRecomputesOverTime(t *testing.T) {
	start := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	r := participation.Record{Start: &start, End: &end}

	_, before := ResolveRecord(start.Add(-time.Minute), r)
	_, during := ResolveRecord(start.Add(time.Hour), r)
	_, after := ResolveRecord(end.Add(time.Minute), r)

	require.Equal(t, ReasonRegistered, before.Reason)
	require.Equal(t, Confirm, during.Kind)
	require.Equal(t, ReasonConfirmationClosed, after.Reason)
}

func TestParseKind(t *testing.T) {
	k, ok := ParseKind("SURVEY")
	require.True(t, ok)
	require.Equal(t, Survey, k)

	_, ok = ParseKind("QUIZ")
	require.False(t, ok)
}
