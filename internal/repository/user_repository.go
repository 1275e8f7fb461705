package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const userColumns = `id, username, email, password_hash, full_name, role, profile_picture, created_at, updated_at`

// UserRepository provides database access for user accounts.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new instance of UserRepository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByLogin returns the user whose username or e-mail exactly equals login.
// A username match wins over another account's e-mail.
func (r *UserRepository) FindByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1
        ORDER BY (username = $1) DESC, id ASC LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, login); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by login: %w", err)
	}
	return &user, nil
}

// FindByID returns a user by identifier.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("find user by id: %w", err)
	}
	return &user, nil
}

// List returns users based on filters with total count.
func (r *UserRepository) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	w := &where{}
	if filter.Role != nil {
		w.add("role = ?", *filter.Role)
	}
	if filter.Search != "" {
		w.add("(LOWER(username) LIKE ? OR LOWER(email) LIKE ? OR LOWER(full_name) LIKE ?)", "%"+strings.ToLower(filter.Search)+"%")
	}
	base := "FROM users WHERE " + w.String()

	allowedSorts := map[string]bool{
		"username":   true,
		"email":      true,
		"full_name":  true,
		"created_at": true,
	}
	sortBy := filter.SortBy
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
	}
	_, size, offset := paginate(filter.Page, filter.PageSize)

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", userColumns, base, sortBy, sortOrder(filter.SortOrder), size, offset)
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, listQuery, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	return users, total, nil
}

// Create inserts a new user and fills in the generated id and timestamps.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	const query = `INSERT INTO users (username, email, password_hash, full_name, role, profile_picture)
VALUES (:username, :email, :password_hash, :full_name, :role, :profile_picture)
RETURNING id, created_at, updated_at`
	if err := insertReturning(ctx, r.db, query, user, &user.ID, &user.CreatedAt, &user.UpdatedAt); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

// UpdatePassword updates the stored password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireAffected(res)
}

// UpdatePasswordByUsername resets the hash of the named account.
func (r *UserRepository) UpdatePasswordByUsername(ctx context.Context, username, passwordHash string, updatedAt time.Time) error {
	const query = `UPDATE users SET password_hash = $2, updated_at = $3 WHERE username = $1`
	res, err := r.db.ExecContext(ctx, query, username, passwordHash, updatedAt)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}
	return requireAffected(res)
}

// UpdatePicture stores the profile picture reference of a user.
func (r *UserRepository) UpdatePicture(ctx context.Context, id int64, ref string, updatedAt time.Time) error {
	const query = `UPDATE users SET profile_picture = $2, updated_at = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, ref, updatedAt)
	if err != nil {
		return fmt.Errorf("update profile picture: %w", err)
	}
	return requireAffected(res)
}

// TableExists reports whether the users table has been created.
func (r *UserRepository) TableExists(ctx context.Context) (bool, error) {
	var exists bool
	if err := r.db.GetContext(ctx, &exists, `SELECT to_regclass('public.users') IS NOT NULL`); err != nil {
		return false, fmt.Errorf("check users table: %w", err)
	}
	return exists, nil
}

// CreateAuditLog stores an audit log entry.
func (r *UserRepository) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	if len(log.Payload) == 0 {
		log.Payload = []byte("{}")
	}
	const query = `INSERT INTO audit_logs (user_id, action, resource, resource_id, payload, ip_address, user_agent, created_at)
VALUES (:user_id, :action, :resource, :resource_id, :payload, :ip_address, :user_agent, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, log); err != nil {
		return fmt.Errorf("create audit log: %w", err)
	}
	return nil
}
