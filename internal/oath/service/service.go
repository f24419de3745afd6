package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks IdentityStore,SessionStore,AuditPublisher,Lockout

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"owndrob/internal/oath/device"
	"owndrob/internal/oath/models"
	dErrors "owndrob/pkg/domain-errors"
	"owndrob/pkg/platform/audit"
	"owndrob/pkg/platform/sentinel"
	"owndrob/pkg/requestcontext"
)

const defaultSessionTTL = 24 * time.Hour

// dummyHash is compared against when the nickname is unknown so both failure
// paths cost one bcrypt comparison.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("owndrob-dummy-pin"), bcrypt.DefaultCost)

type IdentityStore interface {
	Create(ctx context.Context, identity *models.Identity) error
	FindByNickname(ctx context.Context, nickname string) (*models.Identity, error)
}

type SessionStore interface {
	Create(ctx context.Context, session *models.Session) error
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Delete(ctx context.Context, id string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Lockout throttles repeated sign-in failures.
type Lockout interface {
	Check(ctx context.Context, nickname, clientIP string) error
	RecordFailure(ctx context.Context, nickname, clientIP string) error
	Clear(ctx context.Context, nickname, clientIP string) error
}

// Service manages nickname/PIN identities and their opaque sessions.
type Service struct {
	identities     IdentityStore
	sessions       SessionStore
	logger         *slog.Logger
	auditPublisher AuditPublisher
	lockout        Lockout
	sessionTTL     time.Duration
	bcryptCost     int
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.sessionTTL = ttl
		}
	}
}

func WithLockout(l Lockout) Option {
	return func(s *Service) {
		s.lockout = l
	}
}

// WithBcryptCost lowers the hashing cost in tests.
func WithBcryptCost(cost int) Option {
	return func(s *Service) {
		s.bcryptCost = cost
	}
}

func New(identities IdentityStore, sessions SessionStore, opts ...Option) (*Service, error) {
	if identities == nil {
		return nil, errors.New("identity store is required")
	}
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	s := &Service{
		identities: identities,
		sessions:   sessions,
		logger:     slog.Default(),
		sessionTTL: defaultSessionTTL,
		bcryptCost: bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Signup creates an identity. Nicknames and public keys are unique.
func (s *Service) Signup(ctx context.Context, req models.Signup) (*models.Profile, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.PIN), s.bcryptCost)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash pin")
	}
	identity := &models.Identity{
		Nickname:     req.Nickname,
		PINHash:      string(hash),
		RecoveryHash: req.RecoveryHash,
		PublicKey:    req.PublicKey,
		PrivateKey:   req.PrivateKey,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.identities.Create(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return nil, dErrors.New(dErrors.CodeConflict, "nickname or public key already registered")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
	}

	s.logger.InfoContext(ctx, "identity created",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"nickname", identity.Nickname,
	)
	s.emit(ctx, audit.EventIdentityCreated, identity.Nickname, "")
	profile := identity.Profile()
	return &profile, nil
}

// Signin verifies the PIN and opens a session. Unknown nickname and wrong PIN
// are indistinguishable to the caller.
func (s *Service) Signin(ctx context.Context, nickname, pin, userAgent string) (*models.Session, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" || pin == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Missing nickname or PIN.")
	}
	clientIP := requestcontext.ClientIP(ctx)
	if s.lockout != nil {
		if err := s.lockout.Check(ctx, nickname, clientIP); err != nil {
			return nil, err
		}
	}

	identity, err := s.identities.FindByNickname(ctx, nickname)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	hash := dummyHash
	if identity != nil {
		hash = []byte(identity.PINHash)
	}
	if bcrypt.CompareHashAndPassword(hash, []byte(pin)) != nil || identity == nil {
		s.logger.WarnContext(ctx, "signin failed",
			"log_type", "audit",
			"request_id", requestcontext.RequestID(ctx),
			"nickname", nickname,
		)
		s.emit(ctx, audit.EventSigninFailed, nickname, "invalid_credentials")
		if s.lockout != nil {
			if err := s.lockout.RecordFailure(ctx, nickname, clientIP); err != nil {
				s.logger.ErrorContext(ctx, "record signin failure", "error", err)
			}
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "Invalid credentials.")
	}
	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, nickname, clientIP); err != nil {
			s.logger.WarnContext(ctx, "clear signin lockout", "error", err)
		}
	}

	now := requestcontext.Now(ctx)
	session := &models.Session{
		ID:        uuid.NewString(),
		Nickname:  identity.Nickname,
		Client:    device.ParseUserAgent(userAgent),
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create session")
	}

	s.logger.InfoContext(ctx, "session created",
		"log_type", "audit",
		"request_id", requestcontext.RequestID(ctx),
		"nickname", identity.Nickname,
		"client", session.Client,
	)
	s.emit(ctx, audit.EventSessionCreated, identity.Nickname, "")
	return session, nil
}

// ResolveSession returns the nickname owning token.
func (s *Service) ResolveSession(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", dErrors.New(dErrors.CodeUnauthorized, "Not authenticated")
	}
	session, err := s.sessions.FindByID(ctx, token)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "Invalid session")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load session")
	}
	if session.Expired(requestcontext.Now(ctx)) {
		return "", dErrors.New(dErrors.CodeUnauthorized, "Invalid session")
	}
	return session.Nickname, nil
}

// SessionUser returns the profile behind a session token.
func (s *Service) SessionUser(ctx context.Context, token string) (*models.Profile, error) {
	nickname, err := s.ResolveSession(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.LookupUser(ctx, nickname)
}

func (s *Service) LookupUser(ctx context.Context, nickname string) (*models.Profile, error) {
	nickname = strings.TrimSpace(nickname)
	if nickname == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Missing nickname")
	}
	identity, err := s.identities.FindByNickname(ctx, nickname)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity")
	}
	profile := identity.Profile()
	return &profile, nil
}

// Logout ends the session. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	nickname, _ := s.ResolveSession(ctx, token)
	if err := s.sessions.Delete(ctx, token); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to end session")
	}
	if nickname != "" {
		s.emit(ctx, audit.EventSessionEnded, nickname, "")
	}
	return nil
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, subject, reason string) {
	if s.auditPublisher == nil {
		return
	}
	event := audit.NewEvent(action, subject, requestcontext.Now(ctx))
	event.Reason = reason
	event.RequestID = requestcontext.RequestID(ctx)
	audit.Emit(ctx, s.auditPublisher, s.logger, event)
}
