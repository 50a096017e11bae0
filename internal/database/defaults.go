package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/jask/bookshelf/internal/database/repository"
)

type sampleBook struct {
	title     string
	author    string
	published int
	genres    []string
}

var sampleAuthors = []struct {
	name string
	born int
}{
	{"Robert Martin", 1952},
	{"Martin Fowler", 1963},
	{"Fyodor Dostoevsky", 1821},
	{"Joshua Kerievsky", 0},
	{"Sandi Metz", 0},
}

var sampleBooks = []sampleBook{
	{"Clean Code", "Robert Martin", 2008, []string{"refactoring"}},
	{"Agile software development", "Robert Martin", 2002, []string{"agile", "patterns", "design"}},
	{"Refactoring, edition 2", "Martin Fowler", 2018, []string{"refactoring"}},
	{"Refactoring to patterns", "Joshua Kerievsky", 2008, []string{"refactoring", "patterns"}},
	{"Practical Object-Oriented Design, An Agile Primer Using Ruby", "Sandi Metz", 2012, []string{"refactoring", "design"}},
	{"Crime and punishment", "Fyodor Dostoevsky", 1866, []string{"classic", "crime"}},
	{"Demons", "Fyodor Dostoevsky", 1872, []string{"classic", "revolution"}},
}

// SeedDefaults loads the sample library into an empty database.
// It is idempotent and safe to run on every startup.
func SeedDefaults(ctx context.Context, db *sql.DB) error {
	n, err := repository.NewAuthorRepo(db).Count(ctx)
	if err != nil {
		return fmt.Errorf("seed: count authors: %w", err)
	}
	if n > 0 {
		return nil
	}
	now := Now()
	return WithTx(ctx, db, func(tx *sql.Tx) error {
		authors := repository.NewAuthorRepo(tx)
		books := repository.NewBookRepo(tx)
		ids := make(map[string]string, len(sampleAuthors))
		for _, sa := range sampleAuthors {
			a := repository.Author{
				ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("author:"+sa.name)).String(),
				Name:      sa.name,
				CreatedAt: now,
			}
			if sa.born != 0 {
				born := sa.born
				a.Born = &born
			}
			if err := authors.Upsert(ctx, a); err != nil {
				return fmt.Errorf("seed author %s: %w", sa.name, err)
			}
			ids[sa.name] = a.ID
		}
		for _, sb := range sampleBooks {
			b := repository.Book{
				ID:        uuid.NewSHA1(uuid.NameSpaceOID, []byte("book:"+sb.title)).String(),
				Title:     sb.title,
				Published: sb.published,
				AuthorID:  ids[sb.author],
				Genres:    sb.genres,
				CreatedAt: now,
			}
			if err := books.Insert(ctx, b); err != nil {
				return fmt.Errorf("seed book %s: %w", sb.title, err)
			}
		}
		return nil
	})
}
