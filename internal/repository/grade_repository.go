package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const gradeSelect = `SELECT g.id, g.student_id, g.course_id, g.grade_value, g.max_grade, g.grade_type, g.comment,
        g.date_recorded, g.created_at, g.updated_at,
        s.first_name || ' ' || s.last_name AS student_name, sub.name AS subject_name, c.name AS class_name
        FROM grades g
        JOIN students s ON s.id = g.student_id
        JOIN courses co ON co.id = g.course_id
        JOIN subjects sub ON sub.id = co.subject_id
        JOIN classes c ON c.id = co.class_id`

// GradeRepository handles persistence for grades.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository constructs a GradeRepository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// List returns grades with joined student, subject and class names.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, int, error) {
	w := &where{}
	if filter.StudentID != nil {
		w.add("g.student_id = ?", *filter.StudentID)
	}
	if filter.CourseID != nil {
		w.add("g.course_id = ?", *filter.CourseID)
	}
	if filter.Type != nil {
		w.add("g.grade_type = ?", *filter.Type)
	}
	_, size, offset := paginate(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s WHERE %s ORDER BY g.date_recorded DESC, g.id DESC LIMIT %d OFFSET %d", gradeSelect, w.String(), size, offset)
	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list grades: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM grades g WHERE "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count grades: %w", err)
	}
	return grades, total, nil
}

// FindByID returns a grade detail by ID.
func (r *GradeRepository) FindByID(ctx context.Context, id int64) (*models.GradeDetail, error) {
	var grade models.GradeDetail
	if err := r.db.GetContext(ctx, &grade, gradeSelect+" WHERE g.id = $1", id); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("find grade: %w", err)
	}
	return &grade, nil
}

// Create inserts a grade.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	const query = `INSERT INTO grades (student_id, course_id, grade_value, max_grade, grade_type, comment, date_recorded)
        VALUES (:student_id, :course_id, :grade_value, :max_grade, :grade_type, :comment, :date_recorded)
        RETURNING id, created_at, updated_at`
	if err := insertReturning(ctx, r.db, query, grade, &grade.ID, &grade.CreatedAt, &grade.UpdatedAt); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Update modifies a grade.
func (r *GradeRepository) Update(ctx context.Context, grade *models.Grade) error {
	const query = `UPDATE grades SET student_id = :student_id, course_id = :course_id, grade_value = :grade_value,
        max_grade = :max_grade, grade_type = :grade_type, comment = :comment, date_recorded = :date_recorded,
        updated_at = NOW()
        WHERE id = :id
        RETURNING created_at, updated_at`
	if err := insertReturning(ctx, r.db, query, grade, &grade.CreatedAt, &grade.UpdatedAt); err != nil {
		if isNoRows(err) {
			return err
		}
		return fmt.Errorf("update grade: %w", err)
	}
	return nil
}

// Delete physically removes a grade.
func (r *GradeRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	return requireAffected(res)
}
