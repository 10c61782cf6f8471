package dbx

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDialect_Rebind(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		in      string
		want    string
	}{
		{name: "sqlite untouched", dialect: DialectSQLite, in: "SELECT * FROM t WHERE a = ? AND b = ?", want: "SELECT * FROM t WHERE a = ? AND b = ?"},
		{name: "postgres numbered", dialect: DialectPostgres, in: "SELECT * FROM t WHERE a = ? AND b = ?", want: "SELECT * FROM t WHERE a = $1 AND b = $2"},
		{name: "quoted literal kept", dialect: DialectPostgres, in: "SELECT '?' FROM t WHERE a = ?", want: "SELECT '?' FROM t WHERE a = $1"},
		{name: "no placeholders", dialect: DialectPostgres, in: "DELETE FROM t", want: "DELETE FROM t"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.dialect.Rebind(tt.in))
		})
	}
}

func TestOpenSQLite_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")

	db, err := OpenSQLite(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	var fk int
	require.NoError(t, db.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	require.Equal(t, 1, fk)
}

func TestOpenPostgres_BadDSN(t *testing.T) {
	_, err := OpenPostgres(context.Background(), "://not a dsn")
	require.Error(t, err)
}
