package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mitaict-site/internal/domain"
)

func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestServiceRepository_List(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(listServicesQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "icon", "created_at", "updated_at"}).
			AddRow("s-1", "IT and Telecommunication", "desc", "Network", now, now).
			AddRow("s-2", "Leading Teams", "desc", "Users", now, now))

	services, err := NewServiceRepository(db).List(context.Background())
	require.NoError(t, err)
	require.Len(t, services, 2)
	assert.Equal(t, "Network", services[0].Icon)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRepository_ListEmpty(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(listServicesQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "icon", "created_at", "updated_at"}))

	services, err := NewServiceRepository(db).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, services)
	assert.Empty(t, services)
}

func TestServiceRepository_CreateAndUpdate(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewServiceRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(createServiceQuery)).
		WithArgs(sqlmock.AnyArg(), "Leading Teams", "desc", "Users").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	s := &domain.Service{Title: "Leading Teams", Description: "desc", Icon: "Users"}
	require.NoError(t, repo.Create(context.Background(), s))
	assert.NotEmpty(t, s.ID)

	mock.ExpectQuery(regexp.QuoteMeta(updateServiceQuery)).
		WithArgs("Teams", "desc", "Users", s.ID).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now.Add(time.Minute)))

	s.Title = "Teams"
	require.NoError(t, repo.Update(context.Background(), s))
	assert.Equal(t, now.Add(time.Minute), s.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestServiceRepository_UpdateMissing(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(updateServiceQuery)).WillReturnError(sql.ErrNoRows)

	err := NewServiceRepository(db).Update(context.Background(), &domain.Service{ID: "missing"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestServiceRepository_Delete(t *testing.T) {
	t.Run("deleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(deleteServiceQuery)).WithArgs("s-1").WillReturnResult(sqlmock.NewResult(0, 1))
		require.NoError(t, NewServiceRepository(db).Delete(context.Background(), "s-1"))
	})

	t.Run("missing", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(deleteServiceQuery)).WithArgs("s-1").WillReturnResult(sqlmock.NewResult(0, 0))
		assert.ErrorIs(t, NewServiceRepository(db).Delete(context.Background(), "s-1"), domain.ErrNotFound)
	})

	t.Run("database_error", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(regexp.QuoteMeta(deleteServiceQuery)).WillReturnError(errors.New("boom"))
		err := NewServiceRepository(db).Delete(context.Background(), "s-1")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to delete service")
	})
}

func TestServiceRepository_Count(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(countServicesQuery)).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := NewServiceRepository(db).Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSaasProductRepository_FeaturesRoundTrip(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSaasProductRepository(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(createProductQuery)).
		WithArgs(sqlmock.AnyArg(), "MITACRM", "CRM", "https://mitacrm.com/", []byte(`["Contacts","Pipelines"]`)).
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	p := &domain.SaasProduct{Title: "MITACRM", Description: "CRM", Link: "https://mitacrm.com/", Features: []string{"Contacts", "Pipelines"}}
	require.NoError(t, repo.Create(context.Background(), p))

	mock.ExpectQuery(regexp.QuoteMeta(getProductQuery)).
		WithArgs(p.ID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "link", "features", "created_at", "updated_at"}).
			AddRow(p.ID, "MITACRM", "CRM", "https://mitacrm.com/", []byte(`["Contacts","Pipelines"]`), now, now))

	got, err := repo.GetByID(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Contacts", "Pipelines"}, got.Features)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaasProductRepository_NilFeaturesStoredAsEmptyArray(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(updateProductQuery)).
		WithArgs("T", "D", "#", []byte(`[]`), "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

	err := NewSaasProductRepository(db).Update(context.Background(), &domain.SaasProduct{ID: "p-1", Title: "T", Description: "D", Link: "#"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaasProductRepository_CorruptFeatures(t *testing.T) {
	db, mock := newMockDB(t)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(listProductsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "description", "link", "features", "created_at", "updated_at"}).
			AddRow("p-1", "T", "D", "#", []byte(`{not json`), now, now))

	_, err := NewSaasProductRepository(db).List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode features")
}
