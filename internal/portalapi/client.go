// Package portalapi is the records.Source backed by the portal REST API.
package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"backend-skillpath/internal/apperr"
	"backend-skillpath/internal/participation"
	"backend-skillpath/internal/records"
	"backend-skillpath/internal/skills"
)

const defaultTimeout = 10 * time.Second

type Client struct {
	baseURL  string
	http     *http.Client
	logger   *log.Logger
	loc      *time.Location
	defaults skills.Defaults
	onSkip   func(source string)
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithLocation sets the zone used for timestamps that carry none.
func WithLocation(loc *time.Location) Option {
	return func(c *Client) {
		c.loc = loc
	}
}

// WithSkillDefaults sets the threshold and pass mark for skills the portal
// sends without them.
func WithSkillDefaults(d skills.Defaults) Option {
	return func(c *Client) {
		c.defaults = d.OrStandard()
	}
}

// WithSkipHook is called with the payload name for every record dropped
// during decoding.
func WithSkipHook(fn func(source string)) Option {
	return func(c *Client) {
		c.onSkip = fn
	}
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		logger:   log.New(log.Writer(), "[portalapi] ", log.LstdFlags),
		loc:      time.UTC,
		defaults: skills.StandardDefaults,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ records.Source = (*Client)(nil)

type response struct {
	status int
	body   []byte
}

func (r response) ok() bool { return r.status >= 200 && r.status < 300 }

// do performs one request. Transport failures and 5xx statuses come back as
// TransientError; other statuses are returned for the caller to interpret.
func (c *Client) do(ctx context.Context, op, method, path string, in any) (response, error) {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return response{}, fmt.Errorf("%s: encode request: %w", op, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return response{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := records.TokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return response{}, apperr.Transient(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return response{}, apperr.Transient(op, err)
	}
	if resp.StatusCode >= 500 {
		return response{}, apperr.Transient(op, fmt.Errorf("status %d", resp.StatusCode))
	}
	return response{status: resp.StatusCode, body: raw}, nil
}

// payload unwraps a successful response body, translating gateway statuses
// embedded in the envelope.
func (c *Client) payload(op string, r response) (json.RawMessage, error) {
	if !r.ok() {
		return nil, upstreamError(op, r.status, r.body)
	}
	p, err := Unwrap(r.body)
	if err != nil {
		var gw *GatewayError
		if errors.As(err, &gw) {
			if gw.StatusCode >= 500 {
				return nil, apperr.Transient(op, err)
			}
			return nil, upstreamError(op, gw.StatusCode, gw.Payload)
		}
		return nil, apperr.DataShape(op, err)
	}
	return p, nil
}

func (c *Client) list(ctx context.Context, op, path string) ([]json.RawMessage, error) {
	r, err := c.do(ctx, op, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	if !r.ok() {
		return nil, upstreamError(op, r.status, r.body)
	}
	items, err := unwrapList(r.body)
	if err != nil {
		var gw *GatewayError
		if errors.As(err, &gw) {
			if gw.StatusCode >= 500 {
				return nil, apperr.Transient(op, err)
			}
			return nil, upstreamError(op, gw.StatusCode, gw.Payload)
		}
		return nil, apperr.DataShape(op, err)
	}
	return items, nil
}

func (c *Client) skip(source string, err error) {
	c.logger.Printf("skip malformed %s record: %v", source, err)
	if c.onSkip != nil {
		c.onSkip(source)
	}
}

func (c *Client) ActivitiesForStudent(ctx context.Context, studentID string) ([]participation.Record, error) {
	items, err := c.list(ctx, "activities", "/students/"+url.PathEscape(studentID)+"/activities")
	if err != nil {
		return nil, err
	}
	out := make([]participation.Record, 0, len(items))
	for _, item := range items {
		var w activityWire
		if err := json.Unmarshal(item, &w); err != nil {
			c.skip("activities", err)
			continue
		}
		r := w.record(c.loc)
		if r.StudentID == "" {
			r.StudentID = studentID
		}
		out = append(out, r)
	}
	return out, nil
}

func (c *Client) SkillsCatalog(ctx context.Context, yearLevel int, kind records.CatalogKind) ([]skills.Definition, error) {
	path := "/skills/all"
	if kind == records.CatalogRequired {
		path = "/requiredSkills/" + strconv.Itoa(yearLevel)
	}
	items, err := c.list(ctx, "skills", path)
	if err != nil && kind == records.CatalogOptional && ctx.Err() == nil {
		items, err = c.fallbackOptional(ctx, yearLevel, err)
	}
	if err != nil {
		return nil, err
	}
	out := make([]skills.Definition, 0, len(items))
	for _, item := range items {
		var w skillWire
		if err := json.Unmarshal(item, &w); err != nil {
			c.skip("skills", err)
			continue
		}
		d := w.definition(c.defaults)
		switch kind {
		case records.CatalogRequired:
			d.IsRequired = true
		case records.CatalogOptional:
			if d.IsRequired {
				continue
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// fallbackOptional reads the year's required list when the full catalog is
// unavailable. Entries there that are not flagged required are the optional
// ones. The original error is returned when the fallback fails too.
func (c *Client) fallbackOptional(ctx context.Context, yearLevel int, cause error) ([]json.RawMessage, error) {
	c.logger.Printf("skills catalog unavailable, falling back to year %d list: %v", yearLevel, cause)
	items, err := c.list(ctx, "skills", "/requiredSkills/"+strconv.Itoa(yearLevel))
	if err != nil {
		return nil, cause
	}
	return items, nil
}

func (c *Client) CompletedSkills(ctx context.Context, studentID string) ([]skills.Completed, error) {
	items, err := c.list(ctx, "completed skills", "/students/"+url.PathEscape(studentID)+"/skills")
	if err != nil {
		return nil, err
	}
	out := make([]skills.Completed, 0, len(items))
	for _, item := range items {
		var w completedWire
		if err := json.Unmarshal(item, &w); err != nil {
			c.skip("completed skills", err)
			continue
		}
		done := w.completed(c.loc)
		if done.SkillID == "" {
			c.skip("completed skills", errors.New("missing skillId"))
			continue
		}
		out = append(out, done)
	}
	return out, nil
}

type confirmWire struct {
	Success     flag   `json:"success"`
	Message     string `json:"message"`
	ConfirmedAt string `json:"confirmedAt"`
}

// ConfirmAttendance returns ConfirmationRejectedError for any refusal the
// portal explains, keeping its message verbatim.
func (c *Client) ConfirmAttendance(ctx context.Context, req records.ConfirmRequest) (records.ConfirmResponse, error) {
	const op = "confirm attendance"
	r, err := c.do(ctx, op, http.MethodPost, "/activities/confirm-location", req)
	if err != nil {
		return records.ConfirmResponse{}, err
	}

	p, err := Unwrap(r.body)
	var gw *GatewayError
	switch {
	case errors.As(err, &gw):
		if gw.StatusCode >= 500 {
			return records.ConfirmResponse{}, apperr.Transient(op, err)
		}
		return records.ConfirmResponse{}, &apperr.ConfirmationRejectedError{Message: message(gw.Payload), StatusCode: gw.StatusCode}
	case err != nil && !r.ok():
		return records.ConfirmResponse{}, &apperr.ConfirmationRejectedError{Message: strings.TrimSpace(string(r.body)), StatusCode: r.status}
	case err != nil:
		return records.ConfirmResponse{}, apperr.DataShape(op, err)
	}

	var w confirmWire
	if err := json.Unmarshal(p, &w); err != nil {
		return records.ConfirmResponse{}, apperr.DataShape(op, err)
	}
	if !r.ok() || !bool(w.Success) {
		return records.ConfirmResponse{}, &apperr.ConfirmationRejectedError{Message: w.Message, StatusCode: r.status}
	}
	return records.ConfirmResponse{
		Success:     true,
		Message:     w.Message,
		ConfirmedAt: parseIn(w.ConfirmedAt, c.loc),
	}, nil
}

func (c *Client) SubmitSurvey(ctx context.Context, req records.SurveyRequest) error {
	const op = "submit survey"
	r, err := c.do(ctx, op, http.MethodPost, "/activities/"+url.PathEscape(req.ActivityID)+"/assessment", req)
	if err != nil {
		return err
	}
	_, err = c.payload(op, r)
	if err != nil && errors.Is(err, errEmptyPayload) {
		return nil
	}
	return err
}

// certificateResult is the portal's issue response. The certificate may also
// arrive bare, without the success wrapper.
type certificateResult struct {
	Success     *flag           `json:"success"`
	Message     string          `json:"message"`
	Certificate json.RawMessage `json:"certificate"`
}

type certificateWire struct {
	CertificateID text   `json:"certificateId"`
	StudentID     text   `json:"studentId"`
	ActivityID    text   `json:"activityId"`
	ActivityName  string `json:"activityName"`
	IssuedAt      string `json:"issuedAt"`
}

func (c *Client) IssueCertificate(ctx context.Context, studentID, activityID string) (records.Certificate, error) {
	const op = "issue certificate"
	in := map[string]string{"studentId": studentID, "activityId": activityID}
	r, err := c.do(ctx, op, http.MethodPost, "/certificates", in)
	if err != nil {
		return records.Certificate{}, err
	}
	p, err := c.payload(op, r)
	if err != nil {
		return records.Certificate{}, err
	}
	var res certificateResult
	if err := json.Unmarshal(p, &res); err != nil {
		return records.Certificate{}, apperr.DataShape(op, err)
	}
	if res.Success != nil && !bool(*res.Success) {
		return records.Certificate{}, &apperr.ConfirmationRejectedError{Message: res.Message, StatusCode: r.status}
	}
	if len(res.Certificate) > 0 {
		p = res.Certificate
	}
	var w certificateWire
	if err := json.Unmarshal(p, &w); err != nil {
		return records.Certificate{}, apperr.DataShape(op, err)
	}
	if w.CertificateID == "" {
		return records.Certificate{}, apperr.DataShape(op, errors.New("missing certificateId"))
	}
	cert := records.Certificate{
		CertificateID: string(w.CertificateID),
		StudentID:     string(w.StudentID),
		ActivityID:    string(w.ActivityID),
		ActivityName:  w.ActivityName,
	}
	if issued := parseIn(w.IssuedAt, c.loc); issued != nil {
		cert.IssuedAt = *issued
	}
	if cert.StudentID == "" {
		cert.StudentID = studentID
	}
	if cert.ActivityID == "" {
		cert.ActivityID = activityID
	}
	return cert, nil
}

func (c *Client) QuizAnswerKey(ctx context.Context, skillID string) (records.AnswerKey, error) {
	items, err := c.list(ctx, "quiz answer key", "/quiz/answer-key/"+url.PathEscape(skillID))
	if err != nil {
		return records.AnswerKey{}, err
	}
	key := records.AnswerKey{SkillID: skillID, Answers: make(map[string]string, len(items))}
	for _, item := range items {
		var w questionWire
		if err := json.Unmarshal(item, &w); err != nil {
			c.skip("quiz answer key", err)
			continue
		}
		if w.QuestionID == "" {
			c.skip("quiz answer key", errors.New("missing questionId"))
			continue
		}
		key.Answers[string(w.QuestionID)] = w.CorrectAnswer
	}
	return key, nil
}

func (c *Client) RecordQuizAttempt(ctx context.Context, attempt records.Attempt) error {
	const op = "record quiz attempt"
	r, err := c.do(ctx, op, http.MethodPost, "/quiz/attempts", attempt)
	if err != nil {
		return err
	}
	if _, err := c.payload(op, r); err != nil && !errors.Is(err, errEmptyPayload) {
		return err
	}
	return nil
}

func upstreamError(op string, status int, body []byte) error {
	return &apperr.UpstreamError{Op: op, StatusCode: status, Message: message(body)}
}

// message extracts a human readable message from an error payload.
func message(body []byte) string {
	var obj struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(body, &obj) == nil {
		if obj.Message != "" {
			return obj.Message
		}
		if obj.Error != "" {
			return obj.Error
		}
	}
	return strings.TrimSpace(string(body))
}
