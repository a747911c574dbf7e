package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hostelhub/roomcast/internal/config"
)

type studentRow struct {
	ID        int64  `db:"id"`
	Username  string `db:"username"`
	FullName  string `db:"full_name"`
	RoomNo    string `db:"room_no"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
	Ignored   string `db:"-"`
}

func openTestDB(t *testing.T) DB {
	t.Helper()
	db, err := New(config.DatabaseConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, db.Migrate(context.Background()))
	return db
}

func TestSQLiteMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Migrate(ctx))

	var n int
	require.NoError(t, db.Get(ctx, &n, `SELECT COUNT(*) FROM schema_migrations`))
	assert.Equal(t, 3, n)
	assert.Equal(t, "sqlite", db.Driver())
}

func TestSQLiteInsertGetSelectUpdate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	id, err := db.Insert(ctx, "students", studentRow{
		Username: "asha", FullName: "Asha K", CreatedAt: "t0", UpdatedAt: "t0",
	})
	require.NoError(t, err)
	assert.Positive(t, id)

	var got studentRow
	require.NoError(t, db.Get(ctx, &got,
		`SELECT id, username, full_name, room_no, created_at, updated_at FROM students WHERE id = ?`, id))
	assert.Equal(t, "asha", got.Username)
	assert.Empty(t, got.RoomNo)

	got.RoomNo = "B-12"
	got.UpdatedAt = "t1"
	require.NoError(t, db.Update(ctx, "students", got, "id = ?", id))

	var rows []studentRow
	require.NoError(t, db.Select(ctx, &rows, `SELECT room_no, id, extra FROM (SELECT *, 1 AS extra FROM students)`))
	require.Len(t, rows, 1)
	assert.Equal(t, "B-12", rows[0].RoomNo)
	assert.Equal(t, id, rows[0].ID)
}

func TestSQLiteGetMissingRow(t *testing.T) {
	db := openTestDB(t)

	var got studentRow
	err := db.Get(context.Background(), &got,
		`SELECT id, username, full_name, room_no, created_at, updated_at FROM students WHERE id = ?`, 404)
	assert.True(t, IsNotFound(err))
}

func TestSQLiteUniqueUsername(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.Insert(ctx, "students", studentRow{Username: "dup", CreatedAt: "t", UpdatedAt: "t"})
	require.NoError(t, err)
	_, err = db.Insert(ctx, "students", studentRow{Username: "dup", CreatedAt: "t", UpdatedAt: "t"})
	assert.ErrorContains(t, err, "insert into students")
	assert.True(t, IsDuplicate(err))
}

func TestIsDuplicateIgnoresOtherErrors(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	assert.False(t, IsDuplicate(nil))
	_, err := db.Insert(ctx, "no_such_table", studentRow{Username: "x"})
	require.Error(t, err)
	assert.False(t, IsDuplicate(err))
	assert.False(t, IsDuplicate(errors.New("Duplicate entry")))
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "postgres"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestMySQLRequiresDSN(t *testing.T) {
	_, err := New(config.DatabaseConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, "DSN is required")
}

func TestMySQLAdapt(t *testing.T) {
	out := mysqlAdapt("id INTEGER PRIMARY KEY AUTOINCREMENT, student_id INTEGER NOT NULL")
	assert.Equal(t, "id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY, student_id BIGINT NOT NULL", out)
}
