package service

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/pkg/database"
	appErrors "github.com/noah-isme/edutrack-api/pkg/errors"
	"github.com/noah-isme/edutrack-api/pkg/storage"
)

// Seeded administrator account.
const (
	AdminUsername = "admin"
	AdminEmail    = "admin@edutrack.com"
	AdminFullName = "Administrator"
)

// PicturePathPrefix is the public route serving signed profile pictures.
const PicturePathPrefix = "/static/pictures/"

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id int64) (*models.User, error)
	FindByLogin(ctx context.Context, login string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	UpdatePasswordByUsername(ctx context.Context, username, passwordHash string, updatedAt time.Time) error
	UpdatePicture(ctx context.Context, id int64, ref string, updatedAt time.Time) error
	TableExists(ctx context.Context) (bool, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type pictureStore interface {
	Save(ext string, r io.Reader) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type pictureSigner interface {
	Generate(owner, name string) (string, time.Time, error)
	Parse(token string) (owner, name string, err error)
}

var pictureTypes = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// PictureLink is a time limited URL to a stored profile picture.
type PictureLink struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AccountCheck reports the state of the users table and the seeded admin.
type AccountCheck struct {
	UsersTable     bool `json:"users_table"`
	AdminExists    bool `json:"admin_exists"`
	AdminHashValid bool `json:"admin_hash_valid"`
	AdminHashCost  int  `json:"admin_hash_cost,omitempty"`
}

// UserService handles account listing, profile pictures and bootstrap.
type UserService struct {
	repo      userRepository
	passwords PasswordHasher
	pictures  pictureStore
	signer    pictureSigner
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// UserServiceParams groups constructor dependencies.
type UserServiceParams struct {
	Repo      userRepository
	Passwords PasswordHasher
	Pictures  pictureStore
	Signer    pictureSigner
	Validator *validator.Validate
	Logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(params UserServiceParams) *UserService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	validate := params.Validator
	if validate == nil {
		validate = NewValidator()
	}
	return &UserService{
		repo:      params.Repo,
		passwords: params.Passwords,
		pictures:  params.Pictures,
		signer:    params.Signer,
		validator: validate,
		logger:    logger,
		now:       time.Now,
	}
}

// List returns paginated users and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	if filter.Role != nil && !filter.Role.Valid() {
		return nil, nil, appErrors.Validation("role must be one of: admin, teacher")
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Internal(err, "failed to list users")
	}
	return users, pagination(filter.Page, filter.PageSize, total), nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to load user")
	}
	return user, nil
}

// UpdatePicture stores an uploaded image for the session's user and records
// it as their profile picture. The previous file is removed afterwards.
func (s *UserService) UpdatePicture(ctx context.Context, session *models.Session, r io.Reader) (*PictureLink, error) {
	userID, err := sessionUserID(session)
	if err != nil {
		return nil, err
	}
	if s.pictures == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "picture storage is not configured")
	}
	user, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	buffered := bufio.NewReaderSize(r, 512)
	head, err := buffered.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, appErrors.Validation("picture could not be read")
	}
	ext, ok := pictureTypes[http.DetectContentType(head)]
	if !ok {
		return nil, appErrors.Validation("picture must be a png, jpeg, gif or webp image")
	}

	name, err := s.pictures.Save(ext, buffered)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "picture is too large")
		}
		return nil, appErrors.Internal(err, "failed to store picture")
	}
	if err := s.repo.UpdatePicture(ctx, userID, name, s.now().UTC()); err != nil {
		_ = s.pictures.Delete(name)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Internal(err, "failed to update picture")
	}
	if user.ProfilePicture != nil && *user.ProfilePicture != "" {
		if err := s.pictures.Delete(*user.ProfilePicture); err != nil {
			s.logger.Warn("failed to remove previous picture", zap.Int64("user_id", userID), zap.Error(err))
		}
	}

	payload, _ := json.Marshal(map[string]string{"picture": name})
	id := strconv.FormatInt(userID, 10)
	if err := s.repo.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionPictureUpdate,
		Resource:   "users",
		ResourceID: &id,
		Payload:    payload,
	}); err != nil {
		s.logger.Warn("failed to record picture audit log", zap.Error(err))
	}

	return s.PictureLink(id, name)
}

// PictureLink signs a URL for a stored picture owned by owner.
func (s *UserService) PictureLink(owner, name string) (*PictureLink, error) {
	if s.signer == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "picture links are not configured")
	}
	token, expiresAt, err := s.signer.Generate(owner, name)
	if err != nil {
		return nil, appErrors.Internal(err, "failed to sign picture link")
	}
	return &PictureLink{URL: PicturePathPrefix + token, ExpiresAt: expiresAt}, nil
}

// OpenPicture resolves a signed token to the stored file. Bad or expired
// tokens read as not found.
func (s *UserService) OpenPicture(token string) (*os.File, error) {
	if s.signer == nil || s.pictures == nil {
		return nil, appErrors.ErrNotFound
	}
	_, name, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "picture not found")
	}
	file, err := s.pictures.Open(name)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "picture not found")
	}
	return file, nil
}

// SeedAdmin creates the administrator account when it is missing. It
// reports whether an account was created.
func (s *UserService) SeedAdmin(ctx context.Context, password string) (bool, error) {
	if password == "" {
		return false, errors.New("admin password is empty")
	}
	if _, err := s.repo.FindByLogin(ctx, AdminUsername); err == nil {
		return false, nil
	} else if !errors.Is(err, sql.ErrNoRows) {
		return false, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return false, err
	}
	admin := &models.User{
		Username:     AdminUsername,
		Email:        AdminEmail,
		PasswordHash: hash,
		FullName:     AdminFullName,
		Role:         models.RoleAdmin,
	}
	if err := s.repo.Create(ctx, admin); err != nil {
		if database.IsUniqueViolation(err) {
			return false, nil
		}
		return false, err
	}
	s.logger.Info("seeded administrator account", zap.String("username", AdminUsername))
	return true, nil
}

// ResetPassword overwrites the password of username.
func (s *UserService) ResetPassword(ctx context.Context, username, password string) error {
	if len(password) < 8 || len(password) > 72 {
		return appErrors.Validation("password must be between 8 and 72 characters")
	}
	hash, err := s.passwords.Hash(password)
	if err != nil {
		return appErrors.Internal(err, "failed to hash password")
	}
	if err := s.repo.UpdatePasswordByUsername(ctx, username, hash, s.now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Internal(err, "failed to update password")
	}
	return nil
}

// CheckAccounts inspects the users table and the administrator hash.
func (s *UserService) CheckAccounts(ctx context.Context) (*AccountCheck, error) {
	report := &AccountCheck{}
	exists, err := s.repo.TableExists(ctx)
	if err != nil {
		return nil, err
	}
	report.UsersTable = exists
	if !exists {
		return report, nil
	}

	admin, err := s.repo.FindByLogin(ctx, AdminUsername)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return report, nil
		}
		return nil, err
	}
	report.AdminExists = true
	if cost, err := HashCost(admin.PasswordHash); err == nil {
		report.AdminHashValid = true
		report.AdminHashCost = cost
	}
	return report, nil
}
