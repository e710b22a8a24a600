package persistence

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock
}

func TestDatabase_CreateCompositeIndexes(t *testing.T) {
	t.Run("creates the per-organization reference indexes", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoice_org_reference ON invoices \(organization_id, reference\)`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_quote_org_reference ON quotes \(organization_id, reference\)`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, db.createCompositeIndexes())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("surfaces index creation failures", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectExec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_invoice_org_reference ON invoices \(organization_id, reference\)`).
			WillReturnError(assert.AnError)

		err := db.createCompositeIndexes()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to create index")
	})
}
