package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDashboardRepository(db)

	mock.ExpectQuery(`AVG\(grade_value / max_grade \* 20\)`).
		WillReturnRows(sqlmock.NewRows([]string{"active_students", "active_teachers", "classes", "courses", "average_grade"}).
			AddRow(120, 14, 7, 30, 12.75))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, stats.ActiveStudents)
	assert.Equal(t, 12.75, stats.AverageGrade)
	assert.NoError(t, mock.ExpectationsWereMet())
}
