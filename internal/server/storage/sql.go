package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/tgledger/internal/common"
	"github.com/dmitrijs2005/tgledger/internal/dbx"
	"github.com/dmitrijs2005/tgledger/internal/logging"
	"github.com/dmitrijs2005/tgledger/internal/server/migrations"
	"github.com/dmitrijs2005/tgledger/internal/server/models"
)

// SQLBackend is the relational store: users, expenses (database assigned
// ids) and categories, with expenses.user_id referencing users.id. It
// speaks SQLite or PostgreSQL depending on dialect.
type SQLBackend struct {
	db      *sql.DB
	dialect dbx.Dialect
	log     logging.Logger
}

// NewSQLBackend wraps an open pool. The backend owns db and closes it in Close.
func NewSQLBackend(db *sql.DB, dialect dbx.Dialect, log logging.Logger) *SQLBackend {
	return &SQLBackend{
		db:      db,
		dialect: dialect,
		log:     log.With("module", "storage.sql", "dialect", string(dialect)),
	}
}

// OpenSQLiteBackend opens (creating if needed) the database at path and
// applies the ledger migrations.
func OpenSQLiteBackend(ctx context.Context, path string, log logging.Logger) (*SQLBackend, error) {
	db, err := dbx.OpenSQLite(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", common.ErrStorageUnavailable, path, err)
	}
	b := NewSQLBackend(db, dbx.DialectSQLite, log)
	if err := b.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

// OpenPostgresBackend dials dsn and applies the migrations.
func OpenPostgresBackend(ctx context.Context, dsn string, log logging.Logger) (*SQLBackend, error) {
	db, err := dbx.OpenPostgres(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorageUnavailable, err)
	}
	b := NewSQLBackend(db, dbx.DialectPostgres, log)
	if err := b.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLBackend) Kind() Kind { return KindDatabase }

// Migrate applies pending schema migrations for the backend's dialect.
func (b *SQLBackend) Migrate(ctx context.Context) error {
	if err := migrations.Up(ctx, b.db, b.dialect); err != nil {
		return b.fail(ctx, "migrate", err)
	}
	return nil
}

func (b *SQLBackend) Close() error {
	return b.db.Close()
}

func (b *SQLBackend) SaveUser(ctx context.Context, u *models.User) error {
	query := b.dialect.Rebind(`
		INSERT INTO users (id, first_name, last_name, username, language_code, bank_balance, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			username = excluded.username,
			language_code = excluded.language_code,
			bank_balance = excluded.bank_balance
	`)
	_, err := b.db.ExecContext(ctx, query,
		u.ID, u.FirstName, u.LastName, u.Username, u.LanguageCode, u.BankBalance, u.CreatedAt.UTC())
	if err != nil {
		return b.fail(ctx, "save user", err)
	}
	return nil
}

func (b *SQLBackend) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := b.dialect.Rebind(`
		SELECT id, first_name, last_name, username, language_code, bank_balance, created_at
		FROM users
		WHERE id = ?
	`)
	u := &models.User{}
	err := b.db.QueryRowContext(ctx, query, id).Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.Username, &u.LanguageCode, &u.BankBalance, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, b.fail(ctx, "get user", err)
	}
	return u, nil
}

// SaveExpense inserts a new row (id from the database) or upserts by id.
func (b *SQLBackend) SaveExpense(ctx context.Context, e *models.Expense) error {
	if e.ID == 0 {
		query := b.dialect.Rebind(`
			INSERT INTO expenses (user_id, amount, category_id, description, created_at)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id
		`)
		var id int64
		err := b.db.QueryRowContext(ctx, query,
			e.UserID, e.Amount, e.CategoryID, e.Description, e.CreatedAt.UTC()).Scan(&id)
		if err != nil {
			return b.fail(ctx, "insert expense", err)
		}
		e.ID = id
		return nil
	}

	query := b.dialect.Rebind(`
		INSERT INTO expenses (id, user_id, amount, category_id, description, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			amount = excluded.amount,
			category_id = excluded.category_id,
			description = excluded.description
		WHERE expenses.user_id = excluded.user_id
	`)
	_, err := b.db.ExecContext(ctx, query,
		e.ID, e.UserID, e.Amount, e.CategoryID, e.Description, e.CreatedAt.UTC())
	if err != nil {
		return b.fail(ctx, "upsert expense", err)
	}
	return nil
}

func (b *SQLBackend) GetExpenses(ctx context.Context, userID int64) ([]models.Expense, error) {
	query := b.dialect.Rebind(`
		SELECT id, user_id, amount, category_id, description, created_at
		FROM expenses
		WHERE user_id = ?
		ORDER BY id
	`)
	rows, err := b.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, b.fail(ctx, "list expenses", err)
	}
	defer rows.Close()

	var list []models.Expense
	for rows.Next() {
		var e models.Expense
		if err := rows.Scan(&e.ID, &e.UserID, &e.Amount, &e.CategoryID, &e.Description, &e.CreatedAt); err != nil {
			return nil, b.fail(ctx, "scan expense", err)
		}
		list = append(list, e)
	}
	if err := rows.Err(); err != nil {
		return nil, b.fail(ctx, "list expenses", err)
	}
	return list, nil
}

func (b *SQLBackend) DeleteExpense(ctx context.Context, expenseID, userID int64) (bool, error) {
	query := b.dialect.Rebind(`DELETE FROM expenses WHERE id = ? AND user_id = ?`)
	res, err := b.db.ExecContext(ctx, query, expenseID, userID)
	if err != nil {
		return false, b.fail(ctx, "delete expense", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, b.fail(ctx, "delete expense", err)
	}
	return n > 0, nil
}

// SaveCategories replaces the whole category set in one transaction.
func (b *SQLBackend) SaveCategories(ctx context.Context, cats []models.Category) error {
	insert := b.dialect.Rebind(`INSERT INTO categories (id, name, emoji, color) VALUES (?, ?, ?, ?)`)
	err := dbx.WithTx(ctx, b.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM categories`); err != nil {
			return err
		}
		for _, c := range cats {
			if _, err := tx.ExecContext(ctx, insert, c.ID, c.Name, c.Emoji, c.Color); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return b.fail(ctx, "save categories", err)
	}
	return nil
}

func (b *SQLBackend) GetCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT id, name, emoji, color FROM categories ORDER BY id`)
	if err != nil {
		return nil, b.fail(ctx, "list categories", err)
	}
	defer rows.Close()

	var cats []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Emoji, &c.Color); err != nil {
			return nil, b.fail(ctx, "scan category", err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, b.fail(ctx, "list categories", err)
	}
	return cats, nil
}

// fail logs err and wraps it into the storage error family. Connection
// level failures become ErrStorageUnavailable, everything else ErrStorageIO.
func (b *SQLBackend) fail(ctx context.Context, op string, err error) error {
	b.log.Error(ctx, "sql operation failed", "op", op, "error", err)
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %s: %w", common.ErrStorageUnavailable, op, err)
	}
	return ioError(op, err)
}
