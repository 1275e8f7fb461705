package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edutrack-api/internal/models"
)

const classDetailSelect = `SELECT c.id, c.name, c.level, c.description, c.created_at, c.updated_at,
        COUNT(s.id) AS student_count
        FROM classes c
        LEFT JOIN students s ON s.class_id = c.id AND s.status = 'active'`

// ClassRepository handles persistence for classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs a ClassRepository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// List returns every class with its active student count.
func (r *ClassRepository) List(ctx context.Context) ([]models.ClassDetail, error) {
	query := classDetailSelect + ` GROUP BY c.id ORDER BY c.name ASC`
	var classes []models.ClassDetail
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// FindByID returns a class detail by ID.
func (r *ClassRepository) FindByID(ctx context.Context, id int64) (*models.ClassDetail, error) {
	query := classDetailSelect + ` WHERE c.id = $1 GROUP BY c.id`
	var class models.ClassDetail
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		if isNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("find class: %w", err)
	}
	return &class, nil
}

// Create inserts a new class.
func (r *ClassRepository) Create(ctx context.Context, class *models.Class) error {
	const query = `INSERT INTO classes (name, level, description) VALUES (:name, :level, :description)
        RETURNING id, created_at, updated_at`
	if err := insertReturning(ctx, r.db, query, class, &class.ID, &class.CreatedAt, &class.UpdatedAt); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}
