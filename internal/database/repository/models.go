package repository

import (
	"context"
	"database/sql"
	"time"
)

// Querier is satisfied by *sql.DB and *sql.Tx so repos work inside transactions.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Author represents an author row. BookCount is filled by List.
type Author struct {
	ID        string
	Name      string
	Born      *int
	BookCount int
	CreatedAt time.Time
}

// Book represents a book row joined with its author's name and genres.
type Book struct {
	ID         string
	Title      string
	Published  int
	AuthorID   string
	AuthorName string
	Genres     []string
	CreatedAt  time.Time
}

// BookFilter narrows Book listings. Empty fields match everything.
type BookFilter struct {
	AuthorName string
	Genre      string
}

type scanner interface {
	Scan(dest ...interface{}) error
}
