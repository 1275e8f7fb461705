package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

// Error marker carried by a refreshed token whose account has disappeared.
const SessionErrorAccountUnavailable = "AccountUnavailable"

type authUserRepository interface {
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// AuthService provides the authentication use cases: credential
// verification, session issuance, refresh and password changes.
type AuthService struct {
	repo      authUserRepository
	passwords PasswordHasher
	tokens    *TokenIssuer
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, passwords PasswordHasher, tokens *TokenIssuer, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &AuthService{repo: repo, passwords: passwords, tokens: tokens, validator: validate, logger: logger, metrics: metrics}
}

// Authenticate verifies a username-or-email and password pair. Unknown
// accounts and wrong passwords produce the same error after the same amount
// of hashing work.
func (s *AuthService) Authenticate(ctx context.Context, req models.LoginRequest) (*models.Identity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "username and password are required")
	}

	user, err := s.repo.FindByLogin(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			_ = s.passwords.Compare(s.passwords.DummyHash(), req.Password)
			return nil, appErrors.ErrInvalidCredentials
		}
		s.logger.Error("credential lookup failed", zap.Error(err))
		return nil, appErrors.Internal(err, "failed to verify credentials")
	}

	if err := s.passwords.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, appErrors.ErrInvalidCredentials
	}

	identity := models.IdentityFromUser(user)
	return &identity, nil
}

// Login authenticates the request and issues a session token.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if s.tokens.Sealed() {
		if err := s.validator.Struct(req); err != nil {
			return nil, validationError(err, "username and password are required")
		}
		s.metrics.RecordLogin(LoginUnavailable)
		s.logger.Error("sign-in rejected: session signing secret is not configured")
		return nil, appErrors.ErrAuthUnavailable
	}

	identity, err := s.Authenticate(ctx, req)
	if err != nil {
		s.recordLoginFailure(ctx, req, err)
		return nil, err
	}

	token, expiresAt, err := s.tokens.Issue(*identity)
	if err != nil {
		s.metrics.RecordLogin(LoginError)
		return nil, appErrors.Internal(err, "failed to issue session")
	}

	s.metrics.RecordLogin(LoginSuccess)
	s.audit(ctx, identity.ID, models.AuditActionLogin, map[string]string{"status": "success"}, req.IP, req.UserAgent)

	return &models.LoginResponse{Token: token, ExpiresAt: expiresAt, User: *identity}, nil
}

// Logout records the end of a session. Tokens are stateless, so the caller
// clears the cookie.
func (s *AuthService) Logout(ctx context.Context, session *models.Session, ip, userAgent string) {
	if !session.Authenticated() {
		return
	}
	s.audit(ctx, session.User.ID, models.AuditActionLogout, map[string]string{"status": "logout"}, ip, userAgent)
}

// RefreshSession re-signs the token of a session older than the refresh
// cadence. The account is re-read so that role and profile changes take
// effect; an account that no longer exists gets an error token instead.
func (s *AuthService) RefreshSession(ctx context.Context, session *models.Session) (string, time.Time, error) {
	if !session.Authenticated() {
		return "", time.Time{}, appErrors.ErrUnauthorized
	}

	id, err := strconv.ParseInt(session.User.ID, 10, 64)
	if err != nil {
		return s.tokens.IssueError(SessionErrorAccountUnavailable)
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.tokens.IssueError(SessionErrorAccountUnavailable)
		}
		return "", time.Time{}, appErrors.Internal(err, "failed to refresh session")
	}

	s.metrics.RecordSession("refreshed")
	return s.tokens.Issue(models.IdentityFromUser(user))
}

// NeedsRefresh reports whether the session's token should be re-signed.
func (s *AuthService) NeedsRefresh(session *models.Session) bool {
	return s.tokens.NeedsRefresh(session)
}

// Hydrate rebuilds the session carried by raw.
func (s *AuthService) Hydrate(raw string) (*models.Session, error) {
	session, err := s.tokens.Hydrate(raw)
	if err != nil {
		return nil, err
	}
	switch {
	case session.IsError():
		s.metrics.RecordSession("error")
	case session.Degraded():
		s.metrics.RecordSession("degraded")
		s.logger.Warn("session hydrated with fallback claims", zap.Strings("fallbacks", session.Fallbacks), zap.String("user_id", session.User.ID))
	default:
		s.metrics.RecordSession("valid")
	}
	return session, nil
}

// Me returns the stored account behind an authenticated session.
func (s *AuthService) Me(ctx context.Context, session *models.Session) (*models.User, error) {
	id, err := sessionUserID(session)
	if err != nil {
		return nil, err
	}
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// ChangePassword changes the password of the session's account.
func (s *AuthService) ChangePassword(ctx context.Context, session *models.Session, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return validationError(err, "invalid change password payload")
	}

	user, err := s.Me(ctx, session)
	if err != nil {
		return err
	}

	if err := s.passwords.Compare(user.PasswordHash, req.OldPassword); err != nil {
		return appErrors.Validation("current password is incorrect")
	}

	newHash, err := s.passwords.Hash(req.NewPassword)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, user.ID, newHash, time.Now().UTC()); err != nil {
		return appErrors.Internal(err, "failed to update password")
	}

	s.audit(ctx, session.User.ID, models.AuditActionPasswordChange, map[string]string{"status": "changed"}, "", "")
	return nil
}

func (s *AuthService) recordLoginFailure(ctx context.Context, req models.LoginRequest, err error) {
	if !errors.Is(err, appErrors.ErrInvalidCredentials) {
		s.metrics.RecordLogin(LoginError)
		return
	}
	s.metrics.RecordLogin(LoginFailure)
	s.audit(ctx, "", models.AuditActionLoginFailed, map[string]string{"login": req.Username}, req.IP, req.UserAgent)
}

func (s *AuthService) audit(ctx context.Context, userID, action string, payload interface{}, ip, userAgent string) {
	entry := &models.AuditLog{
		Action:    action,
		Resource:  "auth",
		IPAddress: ip,
		UserAgent: userAgent,
	}
	if id, err := strconv.ParseInt(userID, 10, 64); err == nil {
		entry.UserID = &id
		entry.ResourceID = &userID
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			entry.Payload = raw
		}
	}
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func sessionUserID(session *models.Session) (int64, error) {
	if !session.Authenticated() {
		return 0, appErrors.ErrUnauthorized
	}
	id, ok := models.ParseID(session.User.ID)
	if !ok {
		return 0, appErrors.Clone(appErrors.ErrUnauthorized, "session does not identify a user")
	}
	return id, nil
}
