package gateway

import (
	"context"
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/jask/bookshelf/internal/library"
)

// rootField decodes the value of op's root field out of a data object.
func rootField[T any](ctx context.Context, c *Client, op Operation, policy FetchPolicy, vars any) (T, error) {
	var zero T
	var data map[string]jsoniter.RawMessage
	if err := c.Execute(ctx, op, policy, vars, &data); err != nil {
		return zero, err
	}
	raw, ok := data[op.Field]
	if !ok {
		return zero, fmt.Errorf("%s: missing field %q: %w", op.Name, op.Field, ErrNoData)
	}
	// jsoniter leaves a null member as an empty RawMessage
	if len(raw) == 0 || string(raw) == "null" {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, fmt.Errorf("%s: decode %s: %w", op.Name, op.Field, err)
	}
	return v, nil
}

// AllAuthors runs the all-authors query.
func (c *Client) AllAuthors(ctx context.Context, policy FetchPolicy) ([]library.Author, error) {
	return rootField[[]library.Author](ctx, c, AllAuthorsOp, policy, nil)
}

// AllBooks runs the all-books query.
func (c *Client) AllBooks(ctx context.Context, policy FetchPolicy) ([]library.Book, error) {
	return rootField[[]library.Book](ctx, c, AllBooksOp, policy, nil)
}

// AddBook runs the add-book mutation. A not-a-number published year is sent as null.
func (c *Client) AddBook(ctx context.Context, book library.NewBook) (library.AddedBook, error) {
	if book.Genres == nil {
		book.Genres = []string{}
	}
	return rootField[library.AddedBook](ctx, c, AddBookOp, NetworkOnly, book)
}

// EditAuthor runs the edit-author mutation. The result is nil when the gateway
// knows no author by that name.
func (c *Client) EditAuthor(ctx context.Context, edit library.BirthYearEdit) (*library.EditedAuthor, error) {
	return rootField[*library.EditedAuthor](ctx, c, EditAuthorOp, NetworkOnly, edit)
}
