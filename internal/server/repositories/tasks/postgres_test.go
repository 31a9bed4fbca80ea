package tasks

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskhub/internal/common"
	"github.com/dmitrijs2005/taskhub/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskCols = []string{"id", "project_id", "title", "description", "status", "assignee", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet expectations: %v", err)
		}
	})
	return NewPostgresRepository(db), mock, db
}

func TestCreate(t *testing.T) {
	q := `(?s)INSERT\s+INTO\s+tasks\s*\(project_id,\s*title,\s*description,\s*status,\s*assignee\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5\)\s*RETURNING\s+id`

	t.Run("success", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		now := time.Now()
		mock.ExpectQuery(q).WithArgs("p1", "Write docs", "", "todo", "bob").
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow("t1", "p1", "Write docs", "", "todo", "bob", now, now))

		got, err := repo.Create(context.Background(), &models.Task{ProjectID: "p1", Title: "Write docs", Status: models.StatusTodo, Assignee: "bob"})
		require.NoError(t, err)
		assert.Equal(t, "t1", got.ID)
		assert.Equal(t, models.StatusTodo, got.Status)
		assert.NotNil(t, got.Attachments)
	})

	t.Run("project vanished", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("p1", "x", "", "todo", "").WillReturnError(&pgconn.PgError{Code: "23503"})
		_, err := repo.Create(context.Background(), &models.Task{ProjectID: "p1", Title: "x", Status: models.StatusTodo})
		require.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestGet(t *testing.T) {
	q := `SELECT\s+id,.*FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+project_id\s*=\s*\$2`

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		now := time.Now()
		mock.ExpectQuery(q).WithArgs("t1", "p1").
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow("t1", "p1", "A", "", "done", "", now, now))
		got, err := repo.Get(context.Background(), "p1", "t1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusDone, got.Status)
	})

	t.Run("other project", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("t1", "p2").WillReturnError(sql.ErrNoRows)
		_, err := repo.Get(context.Background(), "p2", "t1")
		require.ErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestListByProject(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`FROM\s+tasks\s+WHERE\s+project_id\s*=\s*\$1\s+ORDER\s+BY\s+created_at`).WithArgs("p1").
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("t1", "p1", "A", "", "todo", "", now, now).
			AddRow("t2", "p1", "B", "", "in-progress", "", now, now))

	got, err := repo.ListByProject(context.Background(), "p1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, models.StatusInProgress, got[1].Status)
}

func TestListByProject_Empty(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+tasks`).WithArgs("p1").WillReturnRows(sqlmock.NewRows(taskCols))

	got, err := repo.ListByProject(context.Background(), "p1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestUpdate(t *testing.T) {
	q := `(?s)UPDATE\s+tasks\s+SET.*WHERE\s+id\s*=\s*\$1\s+AND\s+project_id\s*=\s*\$2\s+RETURNING`
	done := models.StatusDone
	title := "Renamed"

	t.Run("success", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		now := time.Now()
		mock.ExpectQuery(q).WithArgs("t1", "p1", "Renamed", nil, nil, "done").
			WillReturnRows(sqlmock.NewRows(taskCols).AddRow("t1", "p1", "Renamed", "", "done", "", now, now))

		got, err := repo.Update(context.Background(), "p1", "t1", Patch{Title: &title, Status: &done})
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("t1", "p1", nil, nil, nil, nil).WillReturnError(sql.ErrNoRows)
		_, err := repo.Update(context.Background(), "p1", "t1", Patch{})
		require.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs("t1", "p1", nil, nil, nil, nil).WillReturnError(errors.New("boom"))
		_, err := repo.Update(context.Background(), "p1", "t1", Patch{})
		require.Error(t, err)
		require.NotErrorIs(t, err, common.ErrorNotFound)
	})
}

func TestDelete(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `DELETE\s+FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1\s+AND\s+project_id\s*=\s*\$2`
	mock.ExpectExec(q).WithArgs("t1", "p1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q).WithArgs("t1", "p1").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Delete(context.Background(), "p1", "t1"))
	require.ErrorIs(t, repo.Delete(context.Background(), "p1", "t1"), common.ErrorNotFound)
}
