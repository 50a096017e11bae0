package repository

import (
	"context"
	"database/sql"
)

// AuthorRepo handles authors.
type AuthorRepo struct {
	db Querier
}

func NewAuthorRepo(db Querier) *AuthorRepo { return &AuthorRepo{db: db} }

func (r *AuthorRepo) Insert(ctx context.Context, a Author) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO authors(id, name, born, created_at) VALUES (?, ?, ?, ?)
	`, a.ID, a.Name, nullInt(a.Born), a.CreatedAt)
	return err
}

// Upsert inserts or refreshes an author keyed by id.
func (r *AuthorRepo) Upsert(ctx context.Context, a Author) error {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO authors(id, name, born, created_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET name=excluded.name, born=excluded.born;
	`, a.ID, a.Name, nullInt(a.Born), a.CreatedAt)
	return err
}

// ByName returns nil, nil when no author has that name.
func (r *AuthorRepo) ByName(ctx context.Context, name string) (*Author, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, born, created_at FROM authors WHERE name = ?`, name)
	a, err := scanAuthor(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// SetBorn replaces an author's birth year; nil clears it.
func (r *AuthorRepo) SetBorn(ctx context.Context, id string, born *int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE authors SET born = ? WHERE id = ?`, nullInt(born), id)
	return err
}

// List returns authors in insertion order with their derived book counts.
func (r *AuthorRepo) List(ctx context.Context) ([]Author, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT a.id, a.name, a.born, a.created_at, COUNT(b.id)
	FROM authors a
	LEFT JOIN books b ON b.author_id = a.id
	GROUP BY a.id
	ORDER BY a.rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Author
	for rows.Next() {
		var a Author
		var born sql.NullInt64
		if err := rows.Scan(&a.ID, &a.Name, &born, &a.CreatedAt, &a.BookCount); err != nil {
			return nil, err
		}
		a.Born = intPtr(born)
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AuthorRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`).Scan(&n)
	return n, err
}

func scanAuthor(row scanner) (Author, error) {
	var a Author
	var born sql.NullInt64
	if err := row.Scan(&a.ID, &a.Name, &born, &a.CreatedAt); err != nil {
		return Author{}, err
	}
	a.Born = intPtr(born)
	return a, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
