package repository

import (
	"context"
	"database/sql"
	"strings"
)

// BookRepo handles books and their genre lists.
type BookRepo struct {
	db Querier
}

func NewBookRepo(db Querier) *BookRepo { return &BookRepo{db: db} }

// Insert writes the book row and its genres in list order. Callers wanting
// atomicity pass a *sql.Tx.
func (r *BookRepo) Insert(ctx context.Context, b Book) error {
	if _, err := r.db.ExecContext(ctx, `
	INSERT INTO books(id, title, published, author_id, created_at) VALUES (?, ?, ?, ?, ?)
	`, b.ID, b.Title, b.Published, b.AuthorID, b.CreatedAt); err != nil {
		return err
	}
	for i, g := range b.Genres {
		if _, err := r.db.ExecContext(ctx, `
		INSERT INTO book_genres(book_id, position, genre) VALUES (?, ?, ?)
		`, b.ID, i, g); err != nil {
			return err
		}
	}
	return nil
}

// ByTitle returns nil, nil when no book has that title.
func (r *BookRepo) ByTitle(ctx context.Context, title string) (*Book, error) {
	books, err := r.list(ctx, `WHERE b.title = ?`, title)
	if err != nil {
		return nil, err
	}
	if len(books) == 0 {
		return nil, nil
	}
	return &books[0], nil
}

// List returns books in insertion order, optionally filtered by author name and genre.
func (r *BookRepo) List(ctx context.Context, f BookFilter) ([]Book, error) {
	var where []string
	var args []interface{}
	if f.AuthorName != "" {
		where = append(where, "a.name = ?")
		args = append(args, f.AuthorName)
	}
	if f.Genre != "" {
		where = append(where, "EXISTS (SELECT 1 FROM book_genres g WHERE g.book_id = b.id AND g.genre = ?)")
		args = append(args, f.Genre)
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}
	return r.list(ctx, clause, args...)
}

func (r *BookRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`).Scan(&n)
	return n, err
}

func (r *BookRepo) list(ctx context.Context, clause string, args ...interface{}) ([]Book, error) {
	rows, err := r.db.QueryContext(ctx, `
	SELECT b.id, b.title, b.published, b.author_id, a.name, b.created_at
	FROM books b
	JOIN authors a ON a.id = b.author_id
	`+clause+`
	ORDER BY b.rowid`, args...)
	if err != nil {
		return nil, err
	}
	var out []Book
	index := make(map[string]int)
	for rows.Next() {
		var b Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Published, &b.AuthorID, &b.AuthorName, &b.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		b.Genres = []string{}
		index[b.ID] = len(out)
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if len(out) == 0 {
		return out, nil
	}
	if err := r.attachGenres(ctx, out, index); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *BookRepo) attachGenres(ctx context.Context, books []Book, index map[string]int) error {
	rows, err := r.db.QueryContext(ctx, `SELECT book_id, genre FROM book_genres ORDER BY book_id, position`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var id, genre string
		if err := rows.Scan(&id, &genre); err != nil {
			return err
		}
		if i, ok := index[id]; ok {
			books[i].Genres = append(books[i].Genres, genre)
		}
	}
	return rows.Err()
}

var _ Querier = (*sql.DB)(nil)
var _ Querier = (*sql.Tx)(nil)

// CountByAuthor counts the books written by the author with that id.
func (r *BookRepo) CountByAuthor(ctx context.Context, authorID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books WHERE author_id = ?`, authorID).Scan(&n)
	return n, err
}
