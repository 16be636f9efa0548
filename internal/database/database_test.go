package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnect_InvalidDSN(t *testing.T) {
	db, err := Connect(context.Background(), "not-a-dsn")

	assert.Nil(t, db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open database")
}

func TestRunMigrations_DriverError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	// the migrate mysql driver queries the current database first
	mock.ExpectQuery(`SELECT DATABASE\(\)`).WillReturnError(assert.AnError)

	err = RunMigrations(db, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create migration driver")
}
