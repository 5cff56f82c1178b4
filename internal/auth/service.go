package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"backend-skillpath/internal/session"
)

const (
	RoleStudent = "student"
	RoleAdvisor = "advisor"
)

var (
	ErrInvalidToken   = errors.New("token invalid")
	ErrSessionExpired = errors.New("session expired")
)

// Claims are issued by the portal login. ID (jti) keys the redis session.
type Claims struct {
	StudentID string `json:"student_id"`
	Role      string `json:"role"`
	Name      string `json:"name,omitempty"`
	YearLevel int    `json:"year_level,omitempty"`
	jwt.RegisteredClaims
}

type SessionStore interface {
	Get(ctx context.Context, id string) (session.Session, error)
	Delete(ctx context.Context, id string) error
}

type Service struct {
	secret   []byte
	sessions SessionStore
}

// NewService builds the token verifier. sessions may be nil, in which case
// tokens are trusted until they expire.
func NewService(secret string, sessions SessionStore) *Service {
	return &Service{secret: []byte(secret), sessions: sessions}
}

// Sign issues an HS256 token for claims. The portal login owns issuance in
// production; this is used by tooling and tests.
func Sign(secret string, claims Claims, ttl time.Duration) (string, error) {
	now := time.Now()
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
	claims.IssuedAt = jwt.NewNumericDate(now)
	claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}

func (s *Service) parseToken(token string) (*Claims, error) {
	parsed, err := parseMiddlewareClaimsFn(token, &Claims{}, func(_ *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify parses token and, when a session store is configured, requires a
// live session, filling claims the token left out.
func (s *Service) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := s.parseToken(token)
	if err != nil {
		return nil, err
	}
	if claims.Role == "" {
		claims.Role = RoleStudent
	}
	if s.sessions == nil || claims.ID == "" {
		return claims, nil
	}

	sess, err := s.sessions.Get(ctx, claims.ID)
	if errors.Is(err, session.ErrNotFound) {
		return nil, ErrSessionExpired
	}
	if err != nil {
		return nil, err
	}
	if sess.StudentID != "" && sess.StudentID != claims.StudentID {
		return nil, fmt.Errorf("%w: session belongs to another student", ErrInvalidToken)
	}
	if claims.YearLevel == 0 {
		claims.YearLevel = sess.YearLevel
	}
	if claims.Name == "" {
		claims.Name = sess.Name
	}
	return claims, nil
}

// Logout revokes the session behind the token.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if s.sessions == nil || claims.ID == "" {
		return nil
	}
	return s.sessions.Delete(ctx, claims.ID)
}
