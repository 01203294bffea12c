package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/mkt-backoffice-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReturnRepositoryCreateAndGet(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReturnRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO return_cases")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	ret := &models.ReturnCase{ShopID: "shop-1"}
	require.NoError(t, repo.Create(context.Background(), ret))
	require.NotEmpty(t, ret.ID)
	require.Equal(t, models.ReturnStatusReported, ret.Status)

	rows := sqlmock.NewRows([]string{"id", "shop_id", "status", "category", "picked_at", "approved_by", "resolution", "created_at", "updated_at"}).
		AddRow(ret.ID, "shop-1", "reported", nil, nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, shop_id, status")).
		WithArgs(ret.ID).
		WillReturnRows(rows)

	found, err := repo.GetByID(context.Background(), ret.ID)
	require.NoError(t, err)
	require.Equal(t, ret.ID, found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReturnRepository(db)
	rows := sqlmock.NewRows([]string{"id", "shop_id", "status", "category", "picked_at", "approved_by", "resolution", "created_at", "updated_at"}).
		AddRow("ret-1", "shop-1", "received", "electronics", nil, nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, shop_id, status")).
		WithArgs("shop-1", "received", "electronics").
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ReturnFilter{
		ShopID:   "shop-1",
		Status:   []models.ReturnStatus{models.ReturnStatusReceived},
		Category: "electronics",
	})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "ret-1", list[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnRepositoryUpdateStatusCAS(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReturnRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE return_cases SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatusCAS(context.Background(), UpdateStatusParams{
		ID:       "ret-1",
		Expected: models.ReturnStatusReported,
		Target:   models.ReturnStatusPickedUp,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnRepositoryUpdateStatusCASStale(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReturnRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE return_cases SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatusCAS(context.Background(), UpdateStatusParams{
		ID:       "ret-1",
		Expected: models.ReturnStatusReported,
		Target:   models.ReturnStatusPickedUp,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestReturnRepositoryCreateEvidence(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewReturnRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO return_evidence")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO return_evidence")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	evidence := []models.ReturnEvidence{
		{ReturnCaseID: "ret-1", Type: models.EvidencePhoto, URI: "s3://ev/1.jpg", TakenBy: "user-1"},
		{ReturnCaseID: "ret-1", Type: models.EvidenceSignature, URI: "s3://ev/2.png", TakenBy: "user-1"},
	}
	require.NoError(t, repo.CreateEvidence(context.Background(), evidence))
	require.NotEmpty(t, evidence[0].ID)
	require.NotEmpty(t, evidence[1].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
