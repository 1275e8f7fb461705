package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
	"github.com/noah-isme/edutrack-api/pkg/storage"
)

type mockUserRepo struct {
	users       map[int64]*models.User
	createErr   error
	listErr     error
	tableExists bool
	auditLogs   []*models.AuditLog
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	repo := &mockUserRepo{users: map[int64]*models.User{}, tableExists: true}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	var users []models.User
	for _, u := range m.users {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		users = append(users, *u)
	}
	return users, len(users), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*models.User, error) {
	if user, ok := m.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == login || u.Email == login {
			copy := *u
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = int64(len(m.users) + 1)
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *mockUserRepo) UpdatePasswordByUsername(ctx context.Context, username, passwordHash string, updatedAt time.Time) error {
	for _, u := range m.users {
		if u.Username == username {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockUserRepo) UpdatePicture(ctx context.Context, id int64, ref string, updatedAt time.Time) error {
	u, ok := m.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.ProfilePicture = &ref
	return nil
}

func (m *mockUserRepo) TableExists(ctx context.Context) (bool, error) {
	return m.tableExists, nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newTestUserService(t *testing.T, repo *mockUserRepo) (*UserService, *storage.LocalStorage) {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir(), 1024)
	require.NoError(t, err)
	hasher, err := NewBcryptHasher(4)
	require.NoError(t, err)
	svc := NewUserService(UserServiceParams{
		Repo:      repo,
		Passwords: hasher,
		Pictures:  store,
		Signer:    storage.NewSignedURLSigner("picture-secret", time.Hour),
		Logger:    zap.NewNop(),
	})
	return svc, store
}

func adminSession(id string) *models.Session {
	return &models.Session{User: models.Identity{ID: id, Username: "admin", Role: models.RoleAdmin}}
}

func TestUserServiceSeedAdminIsIdempotent(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestUserService(t, repo)

	created, err := svc.SeedAdmin(context.Background(), "password")
	require.NoError(t, err)
	assert.True(t, created)

	admin, err := repo.FindByLogin(context.Background(), AdminEmail)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	require.NoError(t, svc.passwords.Compare(admin.PasswordHash, "password"))

	created, err = svc.SeedAdmin(context.Background(), "password")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Len(t, repo.users, 1)
}

func TestUserServiceSeedAdminRace(t *testing.T) {
	repo := newMockUserRepo()
	repo.createErr = &pq.Error{Code: "23505"}
	svc, _ := newTestUserService(t, repo)

	created, err := svc.SeedAdmin(context.Background(), "password")
	require.NoError(t, err)
	assert.False(t, created)
}

func TestUserServiceResetPassword(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: 1, Username: "admin", PasswordHash: "old"})
	svc, _ := newTestUserService(t, repo)

	require.NoError(t, svc.ResetPassword(context.Background(), "admin", "new-password"))
	assert.NoError(t, svc.passwords.Compare(repo.users[1].PasswordHash, "new-password"))

	err := svc.ResetPassword(context.Background(), "ghost", "new-password")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	err = svc.ResetPassword(context.Background(), "admin", "short")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestUserServiceCheckAccounts(t *testing.T) {
	repo := newMockUserRepo()
	svc, _ := newTestUserService(t, repo)

	report, err := svc.CheckAccounts(context.Background())
	require.NoError(t, err)
	assert.True(t, report.UsersTable)
	assert.False(t, report.AdminExists)

	_, err = svc.SeedAdmin(context.Background(), "password")
	require.NoError(t, err)
	report, err = svc.CheckAccounts(context.Background())
	require.NoError(t, err)
	assert.True(t, report.AdminExists)
	assert.True(t, report.AdminHashValid)
	assert.Equal(t, 4, report.AdminHashCost)

	repo.tableExists = false
	report, err = svc.CheckAccounts(context.Background())
	require.NoError(t, err)
	assert.False(t, report.UsersTable)
}

func TestUserServiceUpdatePictureRoundTrip(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: 1, Username: "admin", Role: models.RoleAdmin})
	svc, _ := newTestUserService(t, repo)

	link, err := svc.UpdatePicture(context.Background(), adminSession("1"), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.URL, PicturePathPrefix))
	require.NotNil(t, repo.users[1].ProfilePicture)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionPictureUpdate, repo.auditLogs[0].Action)

	file, err := svc.OpenPicture(strings.TrimPrefix(link.URL, PicturePathPrefix))
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, pngHeader, data)

	_, err = svc.OpenPicture("forged.token.value.sig")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestUserServiceUpdatePictureReplacesPrevious(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: 1, Username: "admin"})
	svc, store := newTestUserService(t, repo)

	_, err := svc.UpdatePicture(context.Background(), adminSession("1"), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	first := *repo.users[1].ProfilePicture

	_, err = svc.UpdatePicture(context.Background(), adminSession("1"), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.NotEqual(t, first, *repo.users[1].ProfilePicture)

	_, err = store.Open(first)
	assert.Error(t, err)
}

func TestUserServiceUpdatePictureRejectsInput(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: 1, Username: "admin"})
	svc, _ := newTestUserService(t, repo)

	_, err := svc.UpdatePicture(context.Background(), adminSession("1"), strings.NewReader("plain text, not an image"))
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	large := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 2048)...)
	_, err = svc.UpdatePicture(context.Background(), adminSession("1"), bytes.NewReader(large))
	assert.ErrorIs(t, err, appErrors.ErrPayloadTooLarge)

	_, err = svc.UpdatePicture(context.Background(), &models.Session{Error: "Expired"}, bytes.NewReader(pngHeader))
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Nil(t, repo.users[1].ProfilePicture)
}

func TestUserServiceList(t *testing.T) {
	repo := newMockUserRepo(
		&models.User{ID: 1, Username: "admin", Role: models.RoleAdmin},
		&models.User{ID: 2, Username: "prof", Role: models.RoleTeacher},
	)
	svc, _ := newTestUserService(t, repo)

	role := models.RoleTeacher
	users, pg, err := svc.List(context.Background(), models.UserFilter{Role: &role})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "prof", users[0].Username)
	assert.Equal(t, 1, pg.TotalCount)

	bogus := models.UserRole("student")
	_, _, err = svc.List(context.Background(), models.UserFilter{Role: &bogus})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
