package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/bookshelf/internal/gateway"
	"github.com/jask/bookshelf/internal/library"
)

// Gateway is the subset of the GraphQL client the UI drives.
type Gateway interface {
	AllAuthors(ctx context.Context, policy gateway.FetchPolicy) ([]library.Author, error)
	AllBooks(ctx context.Context, policy gateway.FetchPolicy) ([]library.Book, error)
	AddBook(ctx context.Context, book library.NewBook) (library.AddedBook, error)
	EditAuthor(ctx context.Context, edit library.BirthYearEdit) (*library.EditedAuthor, error)
}

type authorsLoadedMsg struct {
	authors []library.Author
	err     error
}

type booksLoadedMsg struct {
	books []library.Book
	err   error
}

// bornSetMsg and bookAddedMsg carry the mount generation of the form that
// issued them.
type bornSetMsg struct {
	gen    int
	seq    int
	author *library.EditedAuthor
	edit   library.BirthYearEdit
	err    error
}

type bookAddedMsg struct {
	gen  int
	seq  int
	book library.AddedBook
	err  error
}

type statusMsg string

const requestTimeout = 30 * time.Second

func (a *App) loadAuthorsCmd(policy gateway.FetchPolicy) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
		defer cancel()
		list, err := a.gw.AllAuthors(ctx, policy)
		return authorsLoadedMsg{authors: list, err: err}
	}
}

func (a *App) loadBooksCmd(policy gateway.FetchPolicy) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
		defer cancel()
		list, err := a.gw.AllBooks(ctx, policy)
		return booksLoadedMsg{books: list, err: err}
	}
}

func (a *App) editAuthorCmd(gen, seq int, edit library.BirthYearEdit) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
		defer cancel()
		author, err := a.gw.EditAuthor(ctx, edit)
		return bornSetMsg{gen: gen, seq: seq, author: author, edit: edit, err: err}
	}
}

func (a *App) addBookCmd(gen, seq int, book library.NewBook) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(a.ctx, requestTimeout)
		defer cancel()
		added, err := a.gw.AddBook(ctx, book)
		return bookAddedMsg{gen: gen, seq: seq, book: added, err: err}
	}
}
