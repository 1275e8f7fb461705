package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const courseSelect = `SELECT co.id, co.subject_id, co.teacher_id, co.class_id, co.semester, co.year, co.created_at, co.updated_at,
        sub.name AS subject_name, t.first_name || ' ' || t.last_name AS teacher_name, c.name AS class_name
        FROM courses co
        JOIN subjects sub ON sub.id = co.subject_id
        JOIN teachers t ON t.id = co.teacher_id
        JOIN classes c ON c.id = co.class_id`

// CourseRepository handles persistence for courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses with their joined display names.
func (r *CourseRepository) List(ctx context.Context, filter models.CourseFilter) ([]models.CourseDetail, int, error) {
	w := &where{}
	if filter.ClassID != nil {
		w.add("co.class_id = ?", *filter.ClassID)
	}
	if filter.TeacherID != nil {
		w.add("co.teacher_id = ?", *filter.TeacherID)
	}
	if filter.SubjectID != nil {
		w.add("co.subject_id = ?", *filter.SubjectID)
	}
	if filter.Year != nil {
		w.add("co.year = ?", *filter.Year)
	}
	_, size, offset := paginate(filter.Page, filter.PageSize)

	query := fmt.Sprintf("%s WHERE %s ORDER BY co.year DESC, co.semester ASC, sub.name ASC LIMIT %d OFFSET %d", courseSelect, w.String(), size, offset)
	var courses []models.CourseDetail
	if err := r.db.SelectContext(ctx, &courses, query, w.args...); err != nil {
		return nil, 0, fmt.Errorf("list courses: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM courses co WHERE "+w.String(), w.args...); err != nil {
		return nil, 0, fmt.Errorf("count courses: %w", err)
	}
	return courses, total, nil
}

// FindByID returns a course detail by ID.
func (r *CourseRepository) FindByID(ctx context.Context, id int64) (*models.CourseDetail, error) {
	var course models.CourseDetail
	if err := r.db.GetContext(ctx, &course, courseSelect+" WHERE co.id = $1", id); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	return &course, nil
}

// Create inserts a course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	const query = `INSERT INTO courses (subject_id, teacher_id, class_id, semester, year)
        VALUES (:subject_id, :teacher_id, :class_id, :semester, :year)
        RETURNING id, created_at, updated_at`
	if err := insertReturning(ctx, r.db, query, course, &course.ID, &course.CreatedAt, &course.UpdatedAt); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update modifies a course.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	const query = `UPDATE courses SET subject_id = :subject_id, teacher_id = :teacher_id, class_id = :class_id,
        semester = :semester, year = :year, updated_at = NOW()
        WHERE id = :id
        RETURNING created_at, updated_at`
	if err := insertReturning(ctx, r.db, query, course, &course.CreatedAt, &course.UpdatedAt); err != nil {
		if isNoRows(err) {
			return err
		}
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// Delete physically removes a course. Courses that still have grades are
// protected by the grades foreign key.
func (r *CourseRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete course: %w", err)
	}
	return requireAffected(res)
}
