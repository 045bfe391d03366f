package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/ttb-planner-api/internal/models"
)

var selectionRowColumns = []string{"id", "user_id", "name", "semester", "items", "created_at", "updated_at"}

func TestSelectionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO selections").
		WithArgs(sqlmock.AnyArg(), "user-1", "Fall plan", "20259", []byte(`[{"course_code":"CSC108H1","option_number":1}]`), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewSelectionRepository(db)
	selection := &models.Selection{
		UserID:   "user-1",
		Name:     "Fall plan",
		Semester: "20259",
		Items:    []models.SelectionItem{{CourseCode: "CSC108H1", OptionNumber: 1}},
	}
	require.NoError(t, repo.Create(context.Background(), selection))
	assert.NotEmpty(t, selection.ID)
	assert.False(t, selection.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSelectionRepositoryFindByIDDecodesItems(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, name, semester, items").
		WithArgs("sel-1").
		WillReturnRows(sqlmock.NewRows(selectionRowColumns).
			AddRow("sel-1", "user-1", "Fall plan", "20259", []byte(`[{"course_code":"MAT137Y1","option_number":0}]`), now, now))

	repo := NewSelectionRepository(db)
	selection, err := repo.FindByID(context.Background(), "sel-1")
	require.NoError(t, err)
	require.Len(t, selection.Items, 1)
	assert.Equal(t, "MAT137Y1", selection.Items[0].CourseCode)
}

func TestSelectionRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery("SELECT id, user_id").WithArgs("missing").WillReturnError(sql.ErrNoRows)

	repo := NewSelectionRepository(db)
	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSelectionRepositoryListByUser(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT id, user_id, name, semester, items").
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows(selectionRowColumns).
			AddRow("sel-2", "user-1", "B", "20261", []byte(`[]`), now, now).
			AddRow("sel-1", "user-1", "A", "20259", []byte(`[{"course_code":"CSC108H1","option_number":0}]`), now, now))

	repo := NewSelectionRepository(db)
	selections, err := repo.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, selections, 2)
	assert.Empty(t, selections[0].Items)
	assert.Len(t, selections[1].Items, 1)
}

func TestSelectionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM selections").WithArgs("sel-1").WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewSelectionRepository(db)
	require.NoError(t, repo.Delete(context.Background(), "sel-1"))
}
