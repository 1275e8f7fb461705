package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/models"
)

func TestClassListCountsActiveStudents(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewClassRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "level", "description", "created_at", "updated_at", "student_count"}).
		AddRow(1, "6ème A", "Collège", "Classe de sixième A", now, now, 24).
		AddRow(2, "Terminale S", "Lycée", "", now, now, 0)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN students s ON s.class_id = c.id AND s.status = 'active' GROUP BY c.id ORDER BY c.name ASC")).
		WillReturnRows(rows)

	classes, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, classes, 2)
	assert.Equal(t, 24, classes[0].StudentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClassAndSubjectCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO classes").
		WithArgs("2nde B", "Lycée", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(8, now, now))
	class := &models.Class{Name: "2nde B", Level: "Lycée"}
	require.NoError(t, NewClassRepository(db).Create(context.Background(), class))
	assert.Equal(t, int64(8), class.ID)

	mock.ExpectQuery("INSERT INTO subjects").
		WithArgs("Philosophie", "PHILO", "").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(8, now, now))
	subject := &models.Subject{Name: "Philosophie", Code: "PHILO"}
	require.NoError(t, NewSubjectRepository(db).Create(context.Background(), subject))
	assert.Equal(t, int64(8), subject.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
