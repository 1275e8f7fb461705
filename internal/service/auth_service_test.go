package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
)

const testSecret = "test-secret-for-sessions"

type mockAuthRepo struct {
	users             map[string]*models.User
	findErr           error
	updatePasswordErr error
	updatedHash       string
	auditLogs         []*models.AuditLog
}

func newMockAuthRepo(users ...*models.User) *mockAuthRepo {
	repo := &mockAuthRepo{users: map[string]*models.User{}}
	for _, u := range users {
		repo.users[u.Username] = u
	}
	return repo
}

func (m *mockAuthRepo) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.Username == login || u.Email == login {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	for _, u := range m.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	m.updatedHash = passwordHash
	return nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

// countingHasher records every comparison and the hash it was made against.
type countingHasher struct {
	inner    *BcryptHasher
	compares int
	hashes   []string
}

func (h *countingHasher) Hash(plain string) (string, error) { return h.inner.Hash(plain) }

func (h *countingHasher) Compare(hash, plain string) error {
	h.compares++
	h.hashes = append(h.hashes, hash)
	return h.inner.Compare(hash, plain)
}

func (h *countingHasher) DummyHash() string { return h.inner.DummyHash() }

func newTestHasher(t *testing.T) *BcryptHasher {
	t.Helper()
	h, err := NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)
	return h
}

func seededAdmin(t *testing.T, hasher PasswordHasher) *models.User {
	t.Helper()
	hash, err := hasher.Hash("password")
	require.NoError(t, err)
	return &models.User{ID: 1, Username: "admin", Email: "admin@edutrack.com", PasswordHash: hash, FullName: "Administrateur", Role: models.RoleAdmin}
}

func newTestAuthService(repo *mockAuthRepo, hasher PasswordHasher, secret string) *AuthService {
	tokens := NewTokenIssuer(TokenConfig{Secret: secret, Issuer: "edutrack", Expiration: 24 * time.Hour, RefreshAfter: time.Hour})
	return NewAuthService(repo, hasher, tokens, validator.New(), zap.NewNop(), nil)
}

func TestLoginSeededAdmin(t *testing.T) {
	hasher := newTestHasher(t)
	repo := newMockAuthRepo(seededAdmin(t, hasher))
	svc := newTestAuthService(repo, hasher, testSecret)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "password", IP: "127.0.0.1"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.Equal(t, "1", resp.User.ID)
	assert.Equal(t, "Administrateur", resp.User.Name)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)

	session, err := svc.Hydrate(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", session.User.Username)
	assert.Equal(t, models.RoleAdmin, session.User.Role)

	_, err = svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "wrong"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidCredentials)
}

func TestLoginByEmail(t *testing.T) {
	hasher := newTestHasher(t)
	svc := newTestAuthService(newMockAuthRepo(seededAdmin(t, hasher)), hasher, testSecret)

	resp, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin@edutrack.com", Password: "password"})
	require.NoError(t, err)
	assert.Equal(t, "admin", resp.User.Username)
}

func TestAuthenticateUnknownAndWrongPasswordAreIndistinguishable(t *testing.T) {
	inner := newTestHasher(t)
	hasher := &countingHasher{inner: inner}
	svc := newTestAuthService(newMockAuthRepo(seededAdmin(t, inner)), hasher, testSecret)

	_, wrongErr := svc.Authenticate(context.Background(), models.LoginRequest{Username: "admin", Password: "wrong"})
	wrongCompares := hasher.compares

	_, unknownErr := svc.Authenticate(context.Background(), models.LoginRequest{Username: "nobody", Password: "wrong"})
	unknownCompares := hasher.compares - wrongCompares

	require.Error(t, wrongErr)
	require.Error(t, unknownErr)
	assert.Equal(t, appErrors.FromError(wrongErr), appErrors.FromError(unknownErr))
	assert.Equal(t, 1, wrongCompares)
	assert.Equal(t, 1, unknownCompares)
	assert.Equal(t, inner.DummyHash(), hasher.hashes[1])

	cost, err := HashCost(hasher.hashes[1])
	require.NoError(t, err)
	assert.Equal(t, inner.Cost(), cost)
}

func TestAuthenticateRejectsMissingFieldsBeforeLookup(t *testing.T) {
	inner := newTestHasher(t)
	hasher := &countingHasher{inner: inner}
	repo := newMockAuthRepo()
	repo.findErr = errors.New("must not be called")
	svc := newTestAuthService(repo, hasher, testSecret)

	for _, req := range []models.LoginRequest{{Username: "admin"}, {Password: "password"}, {}} {
		_, err := svc.Authenticate(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
	assert.Zero(t, hasher.compares)
}

func TestAuthenticateStorageFailureIsInternal(t *testing.T) {
	repo := newMockAuthRepo()
	repo.findErr = errors.New("connection refused")
	svc := newTestAuthService(repo, newTestHasher(t), testSecret)

	_, err := svc.Authenticate(context.Background(), models.LoginRequest{Username: "admin", Password: "password"})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.NotContains(t, appErr.Message, "connection refused")
}

func TestLoginWithSealedIssuerFailsClosed(t *testing.T) {
	hasher := newTestHasher(t)
	repo := newMockAuthRepo(seededAdmin(t, hasher))
	svc := newTestAuthService(repo, hasher, "")

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "password"})
	assert.ErrorIs(t, err, appErrors.ErrAuthUnavailable)
	assert.Empty(t, repo.auditLogs)

	_, err = svc.Hydrate("anything")
	assert.Error(t, err)
}

func TestLoginFailureIsAudited(t *testing.T) {
	hasher := newTestHasher(t)
	repo := newMockAuthRepo(seededAdmin(t, hasher))
	svc := newTestAuthService(repo, hasher, testSecret)

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "nope"})
	require.Error(t, err)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLoginFailed, repo.auditLogs[0].Action)
	assert.Nil(t, repo.auditLogs[0].UserID)
}

func TestRefreshSessionReloadsAccount(t *testing.T) {
	hasher := newTestHasher(t)
	admin := seededAdmin(t, hasher)
	repo := newMockAuthRepo(admin)
	svc := newTestAuthService(repo, hasher, testSecret)

	session := &models.Session{User: models.Identity{ID: "1", Username: "admin", Role: models.RoleTeacher}}
	admin.FullName = "Directrice"

	token, _, err := svc.RefreshSession(context.Background(), session)
	require.NoError(t, err)
	refreshed, err := svc.Hydrate(token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, refreshed.User.Role)
	assert.Equal(t, "Directrice", refreshed.User.Name)
}

func TestRefreshSessionMissingAccountYieldsErrorSession(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo(), newTestHasher(t), testSecret)

	token, expiresAt, err := svc.RefreshSession(context.Background(), &models.Session{User: models.Identity{ID: "42", Role: models.RoleAdmin}})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(ErrorSessionTTL), expiresAt, 5*time.Second)

	session, err := svc.Hydrate(token)
	require.NoError(t, err)
	assert.True(t, session.IsError())
	assert.Equal(t, SessionErrorAccountUnavailable, session.Error)
	assert.False(t, session.HasRole(models.RoleAdmin, models.RoleTeacher))
}

func TestChangePassword(t *testing.T) {
	hasher := newTestHasher(t)
	repo := newMockAuthRepo(seededAdmin(t, hasher))
	svc := newTestAuthService(repo, hasher, testSecret)
	session := &models.Session{User: models.Identity{ID: "1", Username: "admin", Role: models.RoleAdmin}}

	err := svc.ChangePassword(context.Background(), session, models.ChangePasswordRequest{OldPassword: "wrong", NewPassword: "new-password"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), session, models.ChangePasswordRequest{OldPassword: "password", NewPassword: "short"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.ChangePassword(context.Background(), session, models.ChangePasswordRequest{OldPassword: "password", NewPassword: "new-password"}))
	assert.NoError(t, hasher.Compare(repo.updatedHash, "new-password"))
}

func TestChangePasswordRequiresSession(t *testing.T) {
	svc := newTestAuthService(newMockAuthRepo(), newTestHasher(t), testSecret)
	err := svc.ChangePassword(context.Background(), &models.Session{Error: "RefreshAccessTokenError"}, models.ChangePasswordRequest{OldPassword: "a", NewPassword: "bbbbbbbb"})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}
