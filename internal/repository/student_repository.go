package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const studentSelect = `SELECT s.id, s.first_name, s.last_name, s.email, s.phone, s.birth_date, s.address,
        s.parent_name, s.parent_phone, s.parent_email, s.class_id, s.profile_picture, s.enrollment_date,
        s.status, s.created_at, s.updated_at, c.name AS class_name
        FROM students s LEFT JOIN classes c ON c.id = s.class_id`

// StudentRepository manages persistence for student records.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// List returns students matching the provided filters. Without an explicit
// status only active students are listed.
func (r *StudentRepository) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	w := &where{}
	status := models.StudentStatusActive
	if filter.Status != nil {
		status = *filter.Status
	}
	w.add("s.status = ?", status)
	if filter.ClassID != nil {
		w.add("s.class_id = ?", *filter.ClassID)
	}
	if filter.Search != "" {
		w.add("(LOWER(s.first_name) LIKE ? OR LOWER(s.last_name) LIKE ? OR LOWER(s.email) LIKE ?)", "%"+strings.ToLower(filter.Search)+"%")
	}

	allowedSorts := map[string]string{
		"last_name":       "s.last_name",
		"first_name":      "s.first_name",
		"enrollment_date": "s.enrollment_date",
		"created_at":      "s.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	order := sortOrder(filter.SortOrder)
	if !ok {
		column, order = "s.last_name, s.first_name", "ASC"
	}
	_, size, offset := paginate(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d", studentSelect, w.String(), column, order, size, offset)
	var students []models.StudentDetail
	if err := r.db.SelectContext(ctx, &students, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list students: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM students s WHERE "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count students: %w", err)
	}
	return students, total, nil
}

// FindByID fetches a student by ID regardless of status.
func (r *StudentRepository) FindByID(ctx context.Context, id int64) (*models.StudentDetail, error) {
	var detail models.StudentDetail
	if err := r.db.GetContext(ctx, &detail, studentSelect+" WHERE s.id = $1", id); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &detail, nil
}

// Create inserts a new student record.
func (r *StudentRepository) Create(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (first_name, last_name, email, phone, birth_date, address, parent_name,
        parent_phone, parent_email, class_id, enrollment_date, status)
        VALUES (:first_name, :last_name, :email, :phone, :birth_date, :address, :parent_name,
        :parent_phone, :parent_email, :class_id, :enrollment_date, :status)
        RETURNING id, created_at, updated_at`
	if err := insertReturning(ctx, r.db, query, student, &student.ID, &student.CreatedAt, &student.UpdatedAt); err != nil {
		return fmt.Errorf("create student: %w", err)
	}
	return nil
}

// Update modifies an existing student.
func (r *StudentRepository) Update(ctx context.Context, student *models.Student) error {
	const query = `UPDATE students SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone,
        birth_date = :birth_date, address = :address, parent_name = :parent_name, parent_phone = :parent_phone,
        parent_email = :parent_email, class_id = :class_id, enrollment_date = :enrollment_date, status = :status,
        updated_at = NOW()
        WHERE id = :id
        RETURNING updated_at`
	if err := insertReturning(ctx, r.db, query, student, &student.UpdatedAt); err != nil {
		if isNoRows(err) {
			return err
		}
		return fmt.Errorf("update student: %w", err)
	}
	return nil
}

// Deactivate marks a student as inactive. Students are never physically deleted.
func (r *StudentRepository) Deactivate(ctx context.Context, id int64) error {
	const query = `UPDATE students SET status = $2, updated_at = NOW() WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, models.StudentStatusInactive)
	if err != nil {
		return fmt.Errorf("deactivate student: %w", err)
	}
	return requireAffected(res)
}
