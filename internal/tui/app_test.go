package tui

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jask/bookshelf/internal/gateway"
	"github.com/jask/bookshelf/internal/library"
)

type fakeGateway struct {
	mu sync.Mutex

	authors    []library.Author
	books      []library.Book
	authorsErr error
	booksErr   error
	addErr     error
	editErr    error
	// editMissing makes EditAuthor report no match for any name.
	editMissing bool

	authorCalls []gateway.FetchPolicy
	bookCalls   []gateway.FetchPolicy
	added       []library.NewBook
	edits       []library.BirthYearEdit
}

func (f *fakeGateway) AllAuthors(_ context.Context, policy gateway.FetchPolicy) ([]library.Author, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.authorCalls = append(f.authorCalls, policy)
	return f.authors, f.authorsErr
}

func (f *fakeGateway) AllBooks(_ context.Context, policy gateway.FetchPolicy) ([]library.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookCalls = append(f.bookCalls, policy)
	return f.books, f.booksErr
}

func (f *fakeGateway) AddBook(_ context.Context, book library.NewBook) (library.AddedBook, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added = append(f.added, book)
	if f.addErr != nil {
		return library.AddedBook{}, f.addErr
	}
	published, _ := book.Published.Int()
	return library.AddedBook{Title: book.Title, Author: book.Author, Published: published, Genres: book.Genres}, nil
}

func (f *fakeGateway) EditAuthor(_ context.Context, edit library.BirthYearEdit) (*library.EditedAuthor, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, edit)
	if f.editErr != nil {
		return nil, f.editErr
	}
	if f.editMissing {
		return nil, nil
	}
	for _, a := range f.authors {
		if a.Name == edit.Name {
			born, ok := edit.SetBornTo.Int()
			if !ok {
				return &library.EditedAuthor{Name: a.Name}, nil
			}
			return &library.EditedAuthor{Name: a.Name, Born: &born}, nil
		}
	}
	return nil, nil
}

var cmdType = reflect.TypeOf(tea.Cmd(nil))

// fanOut unpacks batch and sequence messages into their commands.
func fanOut(msg tea.Msg) ([]tea.Cmd, bool) {
	if b, ok := msg.(tea.BatchMsg); ok {
		return b, true
	}
	v := reflect.ValueOf(msg)
	if !v.IsValid() || v.Kind() != reflect.Slice || v.Type().Elem() != cmdType {
		return nil, false
	}
	cmds := make([]tea.Cmd, v.Len())
	for i := range cmds {
		cmds[i] = v.Index(i).Interface().(tea.Cmd)
	}
	return cmds, true
}

// drain runs cmd and every command it produces, feeding each message back
// into app in order. It returns the messages delivered.
func drain(app *App, cmd tea.Cmd) []tea.Msg {
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg := c()
		if cmds, ok := fanOut(msg); ok {
			queue = append(queue, cmds...)
			continue
		}
		seen = append(seen, msg)
		if _, ok := msg.(tea.QuitMsg); ok {
			continue
		}
		_, next := app.Update(msg)
		queue = append(queue, next)
	}
	return seen
}

func press(app *App, msg tea.KeyMsg) {
	_, cmd := app.Update(msg)
	drain(app, cmd)
}

func typeText(app *App, s string) {
	for _, r := range s {
		if r == ' ' {
			press(app, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
			continue
		}
		press(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func keyMsg(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func intPtr(v int) *int { return &v }

func sampleAuthors() []library.Author {
	return []library.Author{
		{Name: "Robert Martin", Born: intPtr(1952), ID: "a1", BookCount: 2},
		{Name: "Sandi Metz", ID: "a2", BookCount: 1},
	}
}

func startApp(t *testing.T, gw *fakeGateway, opts Options) *App {
	t.Helper()
	app := New(context.Background(), gw, opts)
	drain(app, app.Init())
	return app
}

func TestAuthorsPlaceholderUntilLoaded(t *testing.T) {
	app := New(context.Background(), &fakeGateway{authors: sampleAuthors()}, Options{})
	view := app.View()
	assert.Contains(t, view, "Loading...")
	assert.NotContains(t, view, "Set birthyear")
	assert.NotContains(t, view, "Authors:")
}

func TestAuthorListRendersRowsInOrder(t *testing.T) {
	gw := &fakeGateway{authors: sampleAuthors()}
	app := startApp(t, gw, Options{})

	require.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst}, gw.authorCalls)
	view := app.View()
	assert.Contains(t, view, "Authors:")
	assert.Contains(t, view, "Name          | Year | Books")
	assert.Contains(t, view, "Robert Martin | 1952 | 2")
	assert.Contains(t, view, "Sandi Metz    | null | 1")
	assert.Less(t, strings.Index(view, "Robert Martin |"), strings.Index(view, "Sandi Metz    |"))
	assert.Contains(t, view, "Set birthyear")
	assert.Contains(t, view, "update author")
}

func TestAuthorsQueryErrorShownVerbatim(t *testing.T) {
	gw := &fakeGateway{authorsErr: errors.New("Response not successful: Received status code 500")}
	app := startApp(t, gw, Options{})
	view := app.View()
	assert.Contains(t, view, "Response not successful: Received status code 500")
	assert.NotContains(t, view, "Loading...")
	assert.NotContains(t, view, "Set birthyear")
}

func TestBookListLoadsOnEntry(t *testing.T) {
	gw := &fakeGateway{
		authors: sampleAuthors(),
		books: []library.Book{
			{Title: "Clean Code", Author: "Robert Martin", Published: 2008, ID: "b1"},
			{Title: "POODR", Author: "Sandi Metz", Published: 2012, ID: "b2"},
		},
	}
	app := startApp(t, gw, Options{})

	cmd := app.SetView(ViewBooks)
	require.NotNil(t, cmd)
	assert.Equal(t, BookList, app.Screen())
	assert.Contains(t, app.View(), "Loading...")

	drain(app, cmd)
	view := app.View()
	assert.Contains(t, view, "Title      | Author        | Published")
	assert.Contains(t, view, "Clean Code | Robert Martin | 2008")
	assert.Contains(t, view, "POODR      | Sandi Metz    | 2012")
	assert.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst}, gw.bookCalls)
}

func TestSelectingActiveViewIsNoop(t *testing.T) {
	gw := &fakeGateway{authors: sampleAuthors()}
	app := startApp(t, gw, Options{})

	assert.Nil(t, app.SetView(ViewAuthors))
	drain(app, app.SetView(ViewBooks))
	before := app.View()
	assert.Nil(t, app.SetView(ViewBooks))
	assert.Equal(t, before, app.View())
	assert.Len(t, gw.bookCalls, 1)
	assert.Len(t, gw.authorCalls, 1, "returning to authors does not refetch")

	// Re-entering uses the cache policy and keeps the rows on screen.
	app.SetView(ViewAuthors)
	cmd := app.SetView(ViewBooks)
	assert.NotContains(t, app.View(), "Loading...")
	drain(app, cmd)
	assert.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst, gateway.CacheFirst}, gw.bookCalls)
}

func TestUnknownViewRendersAuthorList(t *testing.T) {
	app := startApp(t, &fakeGateway{authors: sampleAuthors()}, Options{})
	drain(app, app.SetView(ViewBooks))
	assert.Nil(t, app.SetView(View("settings")))
	assert.Equal(t, AuthorList, app.Screen())
	assert.Contains(t, app.View(), "Authors:")
}

func TestViewKeys(t *testing.T) {
	app := startApp(t, &fakeGateway{authors: sampleAuthors()}, Options{})
	press(app, keyMsg(tea.KeyF3))
	assert.Equal(t, ViewAddBook, app.ActiveView())
	press(app, keyMsg(tea.KeyCtrlB))
	assert.Equal(t, ViewBooks, app.ActiveView())
	press(app, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'1'}})
	assert.Equal(t, ViewAuthors, app.ActiveView())

	_, cmd := app.Update(keyMsg(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestAddBookDuneScenario(t *testing.T) {
	gw := &fakeGateway{authors: sampleAuthors()}
	app := startApp(t, gw, Options{})
	press(app, keyMsg(tea.KeyF3))

	typeText(app, "Dune")
	press(app, keyMsg(tea.KeyTab))
	typeText(app, "Frank Herbert")
	press(app, keyMsg(tea.KeyTab))
	typeText(app, "1965")
	press(app, keyMsg(tea.KeyTab))
	typeText(app, "Sci-Fi")
	press(app, keyMsg(tea.KeyCtrlG))
	press(app, keyMsg(tea.KeyCtrlS))

	require.Len(t, gw.added, 1)
	assert.Equal(t, library.NewBook{
		Title:     "Dune",
		Author:    "Frank Herbert",
		Published: library.YearOf(1965),
		Genres:    []string{"Sci-Fi"},
	}, gw.added[0])

	// No reset after submit.
	assert.Equal(t, "Dune", app.draft.Title)
	assert.Equal(t, []string{"Sci-Fi"}, app.draft.Genres)
	assert.Contains(t, app.View(), "genres: Sci-Fi")
}

func TestAddBookButtonsViaEnter(t *testing.T) {
	gw := &fakeGateway{}
	app := startApp(t, gw, Options{})
	press(app, keyMsg(tea.KeyF3))

	for range 3 {
		press(app, keyMsg(tea.KeyEnter))
	}
	typeText(app, "Fantasy")
	press(app, keyMsg(tea.KeyEnter)) // to add genre
	press(app, keyMsg(tea.KeyEnter))
	press(app, keyMsg(tea.KeyEnter))
	assert.Equal(t, []string{"Fantasy", "Fantasy"}, app.draft.Genres)
	assert.Equal(t, "Fantasy", app.draft.Genre)

	press(app, keyMsg(tea.KeyDown))
	press(app, keyMsg(tea.KeyEnter))
	press(app, keyMsg(tea.KeyEnter))
	assert.Len(t, gw.added, 2, "every create issues a request")
}

func TestClearGenreAfterAdd(t *testing.T) {
	app := startApp(t, &fakeGateway{}, Options{ClearGenreAfterAdd: true})
	press(app, keyMsg(tea.KeyF3))
	app.draftFocus = int(FieldGenre)
	typeText(app, "Fantasy")
	press(app, keyMsg(tea.KeyCtrlG))
	assert.Equal(t, []string{"Fantasy"}, app.draft.Genres)
	assert.Empty(t, app.draft.Genre)
}

func TestAddBookEmptyPublishedSendsNull(t *testing.T) {
	gw := &fakeGateway{}
	app := startApp(t, gw, Options{})
	press(app, keyMsg(tea.KeyF3))
	typeText(app, "Untitled")
	press(app, keyMsg(tea.KeyCtrlS))

	require.Len(t, gw.added, 1)
	assert.True(t, gw.added[0].Published.IsNaN())
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(gw.added[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"Untitled","author":"","published":null,"genres":[]}`, string(body))
}

func TestAddBookShowsLatestError(t *testing.T) {
	gw := &fakeGateway{addErr: errors.New(`Saving book failed: title "Dune" already exists`)}
	app := startApp(t, gw, Options{})
	press(app, keyMsg(tea.KeyF3))

	_, cmd := app.Update(keyMsg(tea.KeyCtrlS))
	assert.Contains(t, app.View(), "Loading...")
	drain(app, cmd)
	view := app.View()
	assert.NotContains(t, view, "Loading...")
	assert.Contains(t, view, `Saving book failed: title "Dune" already exists`)
}

func TestRemountDiscardsStaleAddBookResult(t *testing.T) {
	gw := &fakeGateway{addErr: errors.New("boom")}
	app := startApp(t, gw, Options{})
	press(app, keyMsg(tea.KeyF3))
	typeText(app, "Dune")
	_, cmd := app.Update(keyMsg(tea.KeyCtrlS))

	app.SetView(ViewAuthors)
	app.SetView(ViewAddBook)
	drain(app, cmd)

	assert.Empty(t, app.draft.Title)
	assert.NoError(t, app.addBook.Err)
	assert.False(t, app.addBook.Loading)
}

func TestAuthorHint(t *testing.T) {
	gw := &fakeGateway{authors: []library.Author{{Name: "Frank Herbert", ID: "a1"}}}
	app := startApp(t, gw, Options{})
	press(app, keyMsg(tea.KeyF3))
	press(app, keyMsg(tea.KeyTab))
	typeText(app, "Frank Herbrt")
	assert.Contains(t, app.View(), "did you mean Frank Herbert?")

	press(app, keyMsg(tea.KeyBackspace))
	typeText(app, "rt")
	assert.Equal(t, "Frank Herbrrt", app.draft.Author)

	app.draft.Author = "Frank Herbert"
	assert.NotContains(t, app.View(), "did you mean")
}

func submitTolkien(t *testing.T, app *App) tea.Cmd {
	t.Helper()
	press(app, keyMsg(tea.KeyTab))
	typeText(app, "1892")
	press(app, keyMsg(tea.KeyTab))
	_, cmd := app.Update(keyMsg(tea.KeyEnter))
	require.NotNil(t, cmd)
	return cmd
}

func TestBirthYearEditorRefetchesAuthors(t *testing.T) {
	gw := &fakeGateway{authors: []library.Author{{Name: "Tolkien", ID: "a1"}}}
	app := startApp(t, gw, Options{})

	cmd := submitTolkien(t, app)
	_, batched := cmd().(tea.BatchMsg)
	assert.True(t, batched, "refetch starts alongside the mutation")
	drain(app, cmd)

	require.Equal(t, []library.BirthYearEdit{{Name: "Tolkien", SetBornTo: library.YearOf(1892)}}, gw.edits)
	assert.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst, gateway.NetworkOnly}, gw.authorCalls)
	body, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(gw.edits[0])
	require.NoError(t, err)
	assert.JSONEq(t, `{"name":"Tolkien","setBornTo":1892}`, string(body))
}

func TestBirthYearEditorRefetchesOnFailure(t *testing.T) {
	gw := &fakeGateway{
		authors: []library.Author{{Name: "Tolkien", ID: "a1"}},
		editErr: errors.New("Response not successful: Received status code 400"),
	}
	app := startApp(t, gw, Options{})
	drain(app, submitTolkien(t, app))

	assert.Len(t, gw.edits, 1)
	assert.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst, gateway.NetworkOnly}, gw.authorCalls)
	assert.Contains(t, app.View(), "Response not successful: Received status code 400")
}

func TestBirthYearEditorUnknownAuthorStatus(t *testing.T) {
	gw := &fakeGateway{authors: []library.Author{{Name: "Tolkien", ID: "a1"}}, editMissing: true}
	app := startApp(t, gw, Options{})
	drain(app, submitTolkien(t, app))

	require.Len(t, gw.edits, 1)
	assert.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst, gateway.NetworkOnly}, gw.authorCalls)
	view := app.View()
	assert.Contains(t, view, `No author named "Tolkien"`)
	assert.NotContains(t, view, "Updated Tolkien")
}

func TestBirthYearEditorUpdatedStatus(t *testing.T) {
	gw := &fakeGateway{authors: []library.Author{{Name: "Tolkien", ID: "a1"}}}
	app := startApp(t, gw, Options{})
	drain(app, submitTolkien(t, app))

	assert.Contains(t, app.View(), "Updated Tolkien (born 1892)")
}

func TestBirthYearEditorSequencedRefetch(t *testing.T) {
	gw := &fakeGateway{authors: []library.Author{{Name: "Tolkien", ID: "a1"}}}
	app := startApp(t, gw, Options{SequenceRefetch: true})

	cmd := submitTolkien(t, app)
	msg := cmd()
	_, batched := msg.(tea.BatchMsg)
	assert.False(t, batched)
	cmds, ok := fanOut(msg)
	require.True(t, ok)
	assert.Len(t, cmds, 2)

	drain(app, cmd)
	assert.Len(t, gw.edits, 1)
	assert.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst, gateway.NetworkOnly}, gw.authorCalls)
}

func TestBirthYearEditorSelectsByArrowKeys(t *testing.T) {
	gw := &fakeGateway{authors: sampleAuthors()}
	app := startApp(t, gw, Options{})
	press(app, keyMsg(tea.KeyRight))
	assert.Contains(t, app.View(), "‹ Sandi Metz ›")

	press(app, keyMsg(tea.KeyTab))
	press(app, keyMsg(tea.KeyTab))
	_, cmd := app.Update(keyMsg(tea.KeyEnter))
	drain(app, cmd)

	require.Len(t, gw.edits, 1)
	assert.Equal(t, "Sandi Metz", gw.edits[0].Name)
	assert.True(t, gw.edits[0].SetBornTo.IsNaN())
}

func TestBirthYearEditorWithoutAuthors(t *testing.T) {
	gw := &fakeGateway{authors: []library.Author{}}
	app := startApp(t, gw, Options{})
	press(app, keyMsg(tea.KeyShiftTab))
	_, cmd := app.Update(keyMsg(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Empty(t, gw.edits)
}

func TestRefreshKey(t *testing.T) {
	gw := &fakeGateway{authors: sampleAuthors()}
	app := startApp(t, gw, Options{})
	press(app, keyMsg(tea.KeyCtrlR))
	assert.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst, gateway.NetworkOnly}, gw.authorCalls)

	press(app, keyMsg(tea.KeyF2))
	press(app, keyMsg(tea.KeyCtrlR))
	assert.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst, gateway.NetworkOnly}, gw.bookCalls)
}

func TestKeyOverridesRebindActions(t *testing.T) {
	gw := &fakeGateway{authors: sampleAuthors()}
	app := startApp(t, gw, Options{KeyOverrides: map[string][]string{
		"refresh": {"f5"},
		"no such": {"f6"},
	}})
	press(app, keyMsg(tea.KeyF5))
	assert.Equal(t, []gateway.FetchPolicy{gateway.CacheFirst, gateway.NetworkOnly}, gw.authorCalls)

	press(app, keyMsg(tea.KeyCtrlR))
	assert.Len(t, gw.authorCalls, 3, "default binding still applies")
}

func TestFooterFollowsScope(t *testing.T) {
	app := startApp(t, &fakeGateway{authors: sampleAuthors()}, Options{})
	assert.Contains(t, app.View(), "update author")
	assert.NotContains(t, app.renderFooter(), "create book")
	press(app, keyMsg(tea.KeyF3))
	assert.Contains(t, app.renderFooter(), "create book")
}
