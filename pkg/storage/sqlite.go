package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/yevheniihorbatyuk/recordkit/pkg/record"
)

// All SQL is explicit and reviewable. The seq column preserves insertion
// order; id is deliberately not unique, matching the store's
// no-deduplication contract.
const (
	sqlCreateArchive = `
		CREATE TABLE IF NOT EXISTS users (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         INTEGER NOT NULL,
			email      TEXT    NOT NULL,
			city       TEXT    NOT NULL,
			country    TEXT    NOT NULL,
			zip_code   TEXT    NOT NULL,
			created_at TEXT    NOT NULL
		)`

	sqlInsertUser = `
		INSERT INTO users (id, email, city, country, zip_code, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`

	sqlListUsers = `
		SELECT id, email, city, country, zip_code, created_at
		FROM   users
		ORDER  BY seq`

	sqlCountUsers = `
		SELECT COUNT(*) FROM users`
)

// SQLiteArchive is a file-backed archive of user records with the
// address flattened into sibling columns, the same shape as the CSV
// transport. Store is transactional: either every record lands or none
// do.
type SQLiteArchive struct {
	db *sql.DB
}

// OpenSQLiteArchive opens (or creates) an archive database at path.
// Use ":memory:" for an ephemeral archive in tests.
func OpenSQLiteArchive(path string) (*SQLiteArchive, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}
	if _, err := db.Exec(sqlCreateArchive); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create archive schema: %w", err)
	}
	return &SQLiteArchive{db: db}, nil
}

// Store appends the users to the archive inside a single transaction.
func (a *SQLiteArchive) Store(ctx context.Context, users []*record.User) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin archive transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, sqlInsertUser)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, u := range users {
		_, err := stmt.ExecContext(ctx,
			u.ID(),
			u.Email(),
			u.Address().City(),
			u.Address().Country(),
			u.Address().ZipCode(),
			u.CreatedAt().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to insert user %d: %w", u.ID(), err)
		}
	}
	return tx.Commit()
}

// LoadAll returns every archived record in insertion order. Rows are
// rebuilt through the validating decode path, so a hand-edited database
// cannot smuggle an invalid record back in.
func (a *SQLiteArchive) LoadAll(ctx context.Context) ([]*record.User, error) {
	rows, err := a.db.QueryContext(ctx, sqlListUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to list archive: %w", err)
	}
	defer rows.Close()

	var users []*record.User
	for rows.Next() {
		var id int64
		var email, city, country, zipCode, createdAt string
		if err := rows.Scan(&id, &email, &city, &country, &zipCode, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}

		address := record.AddressPrimitive{
			City:    &city,
			Country: &country,
			ZipCode: &zipCode,
		}
		u, err := record.UserFromPrimitive(record.UserPrimitive{
			ID:        &id,
			Email:     &email,
			Value:     &address,
			CreatedAt: &createdAt,
		})
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read archive: %w", err)
	}
	return users, nil
}

// Count returns the number of archived records.
func (a *SQLiteArchive) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := a.db.QueryRowContext(ctx, sqlCountUsers).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count archive: %w", err)
	}
	return n, nil
}

// Close closes the archive database.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
