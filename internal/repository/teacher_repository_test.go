package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edutrack-api/internal/models"
	"github.com/noah-isme/edutrack-api/pkg/database"
)

func TestTeacherList(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "first_name", "last_name", "email", "phone", "speciality", "hire_date", "status", "created_at", "updated_at"}).
		AddRow(1, nil, "Claire", "Bernard", "claire@example.com", nil, "Mathématiques", now, "active", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM teachers WHERE status = $1 ORDER BY last_name, first_name ASC LIMIT 20 OFFSET 0")).
		WithArgs(models.TeacherStatusActive).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM teachers WHERE status = $1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	teachers, total, err := repo.List(context.Background(), models.TeacherFilter{})
	require.NoError(t, err)
	require.Len(t, teachers, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Mathématiques", *teachers[0].Speciality)
}

func TestTeacherCreateDuplicateEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery("INSERT INTO teachers").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "teachers_email_key"})

	err := repo.Create(context.Background(), &models.Teacher{FirstName: "A", LastName: "B", Email: "dup@example.com", HireDate: models.NewDate(time.Now()), Status: models.TeacherStatusActive})
	require.Error(t, err)
	assert.True(t, database.IsUniqueViolation(err))
}

func TestTeacherDeactivate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("UPDATE teachers SET status").
		WithArgs(int64(4), models.TeacherStatusInactive).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Deactivate(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
