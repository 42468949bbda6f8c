// Package auth implements login, session lookup and role checks for the
// fixed user set the server is configured with.
//
// There is no user registration: users come from configuration (or a built-in
// demo pair when none are configured) and carry one of two roles, student or
// instructor. Logging in issues an opaque random token that the browser sends
// back as a bearer token; sessions live until logout.
//
// Session storage is behind the [Store] interface with an in-memory default
// ([MemStore]) and an optional Redis backend ([RedisStore]) for deployments
// where sessions should survive a restart.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is the authorization role attached to a user and their sessions.
type Role string

const (
	// RoleStudent may chat, transcribe and read lessons.
	RoleStudent Role = "student"

	// RoleInstructor may additionally create, update and delete lessons.
	RoleInstructor Role = "instructor"
)

var (
	// ErrInvalidCredentials is returned by [Service.Login] when the username is
	// unknown or the password does not match. The two cases are deliberately
	// indistinguishable.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrInvalidSession is returned by [Service.Authenticate] for a token with
	// no live session.
	ErrInvalidSession = errors.New("invalid or expired session")

	// ErrForbidden is returned by [Service.Authorize] when the session's role
	// does not match the required role. Roles are compared exactly; there is
	// no hierarchy.
	ErrForbidden = errors.New("insufficient role")

	// ErrSessionNotFound is returned by [Store] lookups for an unknown token.
	ErrSessionNotFound = errors.New("session not found")
)

// User is a configured account. PasswordHash is a bcrypt hash.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
}

// Session is a live login, keyed by its opaque token.
type Session struct {
	Token     string    `json:"-"`
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Role      Role      `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

// Store persists sessions keyed by token.
// Implementations must be safe for concurrent use.
type Store interface {
	// Put stores a session under its token, replacing any existing one.
	Put(ctx context.Context, sess Session) error

	// Get retrieves a session by token. Returns [ErrSessionNotFound] if no
	// session exists for the token.
	Get(ctx context.Context, token string) (*Session, error)

	// Delete removes a session by token. Deleting an absent token is not an
	// error; logout is idempotent.
	Delete(ctx context.Context, token string) error

	// Count reports the number of live sessions. Backends with server-side
	// expiry (Redis TTL) count only the sessions still present.
	Count(ctx context.Context) (int, error)
}

// Service performs credential checks and session management against a fixed
// user set.
type Service struct {
	users    map[string]User // keyed by username
	sessions Store
}

// NewService creates a Service over the given users and session store.
// If users is empty the built-in demo accounts from [DefaultUsers] are used.
func NewService(users []User, sessions Store) *Service {
	if len(users) == 0 {
		users = DefaultUsers()
	}
	byName := make(map[string]User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &Service{users: byName, sessions: sessions}
}

// DefaultUsers returns the built-in demo accounts used when no users are
// configured: instructor/teach123 and student/learn123. Hashes are computed at
// startup so no plaintext password lives in the binary's config path.
func DefaultUsers() []User {
	return []User{
		{ID: "u-instructor", Username: "instructor", PasswordHash: mustHash("teach123"), Role: RoleInstructor},
		{ID: "u-student", Username: "student", PasswordHash: mustHash("learn123"), Role: RoleStudent},
	}
}

func mustHash(password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("auth: hash default password: %v", err))
	}
	return string(h)
}

// HashPassword returns a bcrypt hash of password, for building [User] values
// from plaintext config entries.
func HashPassword(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth: hash password: %w", err)
	}
	return string(h), nil
}

// Login checks the credentials against the fixed user set and, on success,
// creates and stores a new session. The returned token is 32 hex characters
// from crypto/rand.
func (s *Service) Login(ctx context.Context, username, password string) (*Session, error) {
	u, ok := s.users[username]
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}
	sess := Session{
		Token:     token,
		UserID:    u.ID,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return nil, fmt.Errorf("auth: store session: %w", err)
	}
	return &sess, nil
}

// Authenticate resolves a bearer token to its session. It is a pure lookup;
// it never refreshes or extends anything.
func (s *Service) Authenticate(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrInvalidSession
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, ErrSessionNotFound) {
			return nil, ErrInvalidSession
		}
		return nil, fmt.Errorf("auth: lookup session: %w", err)
	}
	return sess, nil
}

// Authorize checks that the session carries exactly the required role.
func (s *Service) Authorize(sess *Session, required Role) error {
	if sess == nil || sess.Role != required {
		return ErrForbidden
	}
	return nil
}

// Logout deletes the session for the token. Unknown tokens are a no-op.
func (s *Service) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Delete(ctx, token); err != nil {
		return fmt.Errorf("auth: delete session: %w", err)
	}
	return nil
}

// ActiveSessions reports the number of live sessions in the store, feeding
// the sessions gauge. Deriving the count from the store keeps it honest when
// sessions expire server-side or are seeded outside the login flow.
func (s *Service) ActiveSessions(ctx context.Context) (int, error) {
	return s.sessions.Count(ctx)
}

// SeedInstructorToken installs a pre-known instructor session, used for
// deployments that authenticate automation with a static token from the
// environment instead of a login round trip.
func (s *Service) SeedInstructorToken(ctx context.Context, token string) error {
	if token == "" {
		return errors.New("auth: static token must not be empty")
	}
	sess := Session{
		Token:     token,
		UserID:    "u-static",
		Username:  "instructor",
		Role:      RoleInstructor,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.sessions.Put(ctx, sess); err != nil {
		return fmt.Errorf("auth: seed static token: %w", err)
	}
	return nil
}

// newToken returns 16 random bytes hex-encoded (32 characters).
func newToken() (string, error) {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("auth: generate token: %w", err)
	}
	return hex.EncodeToString(buf[:]), nil
}
