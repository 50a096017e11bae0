package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/bookshelf/internal/database"
	"github.com/jask/bookshelf/internal/database/repository"
	"github.com/jask/bookshelf/internal/library"
)

// InputError is a rejected argument. Its message is meant for clients.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string { return e.Message }

// IsInputError reports whether err carries a client-facing InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// AddBookInput carries the addBook arguments.
type AddBookInput struct {
	Title     string
	Author    string
	Published int
	Genres    []string
}

// LibraryService resolves the library gateway's root fields against sqlite.
type LibraryService struct {
	DB *sql.DB
}

func (s *LibraryService) AllAuthors(ctx context.Context) ([]library.Author, error) {
	rows, err := repository.NewAuthorRepo(s.DB).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list authors: %w", err)
	}
	out := make([]library.Author, 0, len(rows))
	for _, r := range rows {
		out = append(out, toAuthor(r))
	}
	return out, nil
}

// AllBooks lists books, narrowed by author name and genre when given.
func (s *LibraryService) AllBooks(ctx context.Context, f repository.BookFilter) ([]library.Book, error) {
	rows, err := repository.NewBookRepo(s.DB).List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	out := make([]library.Book, 0, len(rows))
	for _, r := range rows {
		out = append(out, toBook(r))
	}
	return out, nil
}

func (s *LibraryService) AuthorCount(ctx context.Context) (int, error) {
	return repository.NewAuthorRepo(s.DB).Count(ctx)
}

func (s *LibraryService) BookCount(ctx context.Context) (int, error) {
	return repository.NewBookRepo(s.DB).Count(ctx)
}

// AddBook stores a book, creating its author on first use. Genres are kept
// verbatim, duplicates and empty strings included.
func (s *LibraryService) AddBook(ctx context.Context, in AddBookInput) (library.Book, error) {
	if strings.TrimSpace(in.Title) == "" {
		return library.Book{}, &InputError{Field: "title", Message: "Saving book failed: title must not be empty"}
	}
	if strings.TrimSpace(in.Author) == "" {
		return library.Book{}, &InputError{Field: "author", Message: "Saving book failed: author must not be empty"}
	}
	genres := append([]string{}, in.Genres...)

	var saved repository.Book
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		authors := repository.NewAuthorRepo(tx)
		books := repository.NewBookRepo(tx)

		existing, err := books.ByTitle(ctx, in.Title)
		if err != nil {
			return err
		}
		if existing != nil {
			return &InputError{Field: "title", Message: fmt.Sprintf("Saving book failed: title %q already exists", in.Title)}
		}

		author, err := authors.ByName(ctx, in.Author)
		if err != nil {
			return err
		}
		if author == nil {
			author = &repository.Author{ID: uuid.NewString(), Name: in.Author, CreatedAt: database.Now()}
			if err := authors.Insert(ctx, *author); err != nil {
				return fmt.Errorf("create author: %w", err)
			}
		}

		saved = repository.Book{
			ID:         uuid.NewString(),
			Title:      in.Title,
			Published:  in.Published,
			AuthorID:   author.ID,
			AuthorName: author.Name,
			Genres:     genres,
			CreatedAt:  database.Now(),
		}
		if err := books.Insert(ctx, saved); err != nil {
			return fmt.Errorf("insert book: %w", err)
		}
		return nil
	})
	if err != nil {
		return library.Book{}, err
	}
	return toBook(saved), nil
}

// EditAuthor sets (or with nil clears) an author's birth year. It returns nil
// when no author has that name.
func (s *LibraryService) EditAuthor(ctx context.Context, name string, born *int) (*library.Author, error) {
	var out *library.Author
	err := database.WithTx(ctx, s.DB, func(tx *sql.Tx) error {
		authors := repository.NewAuthorRepo(tx)
		a, err := authors.ByName(ctx, name)
		if err != nil || a == nil {
			return err
		}
		if err := authors.SetBorn(ctx, a.ID, born); err != nil {
			return fmt.Errorf("set born: %w", err)
		}
		a.Born = born
		if a.BookCount, err = repository.NewBookRepo(tx).CountByAuthor(ctx, a.ID); err != nil {
			return fmt.Errorf("count books: %w", err)
		}
		edited := toAuthor(*a)
		out = &edited
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func toAuthor(r repository.Author) library.Author {
	return library.Author{Name: r.Name, Born: r.Born, ID: r.ID, BookCount: r.BookCount}
}

func toBook(r repository.Book) library.Book {
	genres := r.Genres
	if genres == nil {
		genres = []string{}
	}
	return library.Book{Title: r.Title, Published: r.Published, Author: r.AuthorName, ID: r.ID, Genres: genres}
}
