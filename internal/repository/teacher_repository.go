package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const teacherColumns = `id, user_id, first_name, last_name, email, phone, speciality, hire_date, status, created_at, updated_at`

// TeacherRepository handles persistence for teachers.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// List returns teachers matching filters. Without an explicit status only
// active teachers are listed.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	w := &where{}
	status := models.TeacherStatusActive
	if filter.Status != nil {
		status = *filter.Status
	}
	w.add("status = ?", status)
	if filter.Search != "" {
		w.add("(LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(email) LIKE ? OR LOWER(speciality) LIKE ?)", "%"+strings.ToLower(filter.Search)+"%")
	}
	base := "FROM teachers WHERE " + w.String()

	allowedSorts := map[string]string{
		"last_name":  "last_name",
		"email":      "email",
		"hire_date":  "hire_date",
		"created_at": "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	order := sortOrder(filter.SortOrder)
	if !ok {
		column, order = "last_name, first_name", "ASC"
	}
	_, size, offset := paginate(filter.Page, filter.PageSize)

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", teacherColumns, base, column, order, size, offset)
	var teachers []models.Teacher
	if err := r.db.SelectContext(ctx, &teachers, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) "+base, w.args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher by ID regardless of status.
func (r *TeacherRepository) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	var teacher models.Teacher
	if err := r.db.GetContext(ctx, &teacher, "SELECT "+teacherColumns+" FROM teachers WHERE id = $1", id); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("find teacher: %w", err)
	}
	return &teacher, nil
}

// Create inserts a teacher.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) error {
	const query = `INSERT INTO teachers (user_id, first_name, last_name, email, phone, speciality, hire_date, status)
        VALUES (:user_id, :first_name, :last_name, :email, :phone, :speciality, :hire_date, :status)
        RETURNING id, created_at, updated_at`
	if err := insertReturning(ctx, r.db, query, teacher, &teacher.ID, &teacher.CreatedAt, &teacher.UpdatedAt); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}
	return nil
}

// Update modifies a teacher record.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) error {
	const query = `UPDATE teachers SET user_id = :user_id, first_name = :first_name, last_name = :last_name, email = :email,
        phone = :phone, speciality = :speciality, hire_date = :hire_date, status = :status, updated_at = NOW()
        WHERE id = :id
        RETURNING updated_at`
	if err := insertReturning(ctx, r.db, query, teacher, &teacher.UpdatedAt); err != nil {
		if isNoRows(err) {
			return err
		}
		return fmt.Errorf("update teacher: %w", err)
	}
	return nil
}

// Deactivate marks a teacher inactive. Teachers are never physically deleted.
func (r *TeacherRepository) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE teachers SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.TeacherStatusInactive)
	if err != nil {
		return fmt.Errorf("deactivate teacher: %w", err)
	}
	return requireAffected(res)
}
