package database

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMongoDatabaseName(t *testing.T) {
	assert.Equal(t, "journal", MongoDatabaseName("mongodb://localhost:27017/journal"))
	assert.Equal(t, "prod", MongoDatabaseName("mongodb+srv://u:p@cluster0.example.net/prod?retryWrites=true"))
	assert.Equal(t, "moodjournal", MongoDatabaseName("mongodb://localhost:27017"))
	assert.Equal(t, "moodjournal", MongoDatabaseName("mongodb://localhost:27017/"))
	assert.Equal(t, "rs", MongoDatabaseName("mongodb://h1:27017,h2:27017/rs?replicaSet=r0"))
}

func TestInitPostgresTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	for range Schema {
		mock.ExpectExec(".*").WillReturnResult(sqlmock.NewResult(0, 0))
	}

	require.NoError(t, InitPostgresTables(context.Background(), db, zap.NewNop()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInitPostgresTables_StopsOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").WillReturnError(assert.AnError)

	err = InitPostgresTables(context.Background(), db, zap.NewNop())
	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}
