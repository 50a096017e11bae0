package tui

import (
	"context"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jask/bookshelf/internal/gateway"
	"github.com/jask/bookshelf/internal/library"
)

// Options tunes client behavior.
type Options struct {
	// SequenceRefetch waits for the birth-year mutation before refetching
	// authors. By default both requests start together.
	SequenceRefetch bool
	// ClearGenreAfterAdd empties the genre field after "add genre".
	ClearGenreAfterAdd bool
	// Endpoint is shown in the header.
	Endpoint string
	// KeyOverrides maps an action name ("refresh", "view:books", ...) to keys
	// that trigger it ahead of the defaults.
	KeyOverrides map[string][]string
}

const (
	editorFocusAuthor = iota
	editorFocusBorn
	editorFocusSubmit
	editorFocusCount
)

const (
	draftFocusAddGenre = int(FieldGenre) + 1 + iota
	draftFocusCreate
	draftFocusCount
)

// App is the bubbletea model of the client.
type App struct {
	ctx  context.Context
	gw   Gateway
	opts Options
	keys *KeyRegistry

	view   View
	width  int
	height int

	authors QueryResult[[]library.Author]
	books   QueryResult[[]library.Book]

	// author list form, remounted on entry
	authorsGen  int
	editor      BirthYearEditor
	editorFocus int
	editAuthor  MutationState

	// add-book form, remounted on entry
	addGen     int
	draft      Draft
	draftFocus int
	addBook    MutationState

	status    string
	statusErr bool
}

func New(ctx context.Context, gw Gateway, opts Options) *App {
	if ctx == nil {
		ctx = context.Background()
	}
	keys := NewKeyRegistry(DefaultKeyBindings())
	for action, ks := range opts.KeyOverrides {
		if !keys.Rebind(action, ks) {
			log.Printf("tui: ignoring keys for unknown action %q", action)
		}
	}
	return &App{
		ctx:     ctx,
		gw:      gw,
		opts:    opts,
		keys:    keys,
		view:    ViewAuthors,
		authors: QueryResult[[]library.Author]{Loading: true},
	}
}

// Init issues the all-authors query once for the lifetime of the program.
func (a *App) Init() tea.Cmd {
	a.authors = a.authors.Begin()
	return a.loadAuthorsCmd(gateway.CacheFirst)
}

// ActiveView returns the selected view.
func (a *App) ActiveView() View { return a.view }

// Screen returns the component rendered for the active view.
func (a *App) Screen() Screen { return ScreenFor(a.view) }

// SetView switches views. Selecting the active view again does nothing.
// Entering a form view remounts it with empty state.
func (a *App) SetView(v View) tea.Cmd {
	if v == a.view {
		return nil
	}
	a.view = v
	switch ScreenFor(v) {
	case BookList:
		a.books = a.books.Begin()
		return a.loadBooksCmd(gateway.CacheFirst)
	case AddBookForm:
		a.addGen++
		a.draft = Draft{}
		a.draftFocus = 0
		a.addBook = MutationState{}
	default:
		a.authorsGen++
		a.editor = BirthYearEditor{}
		a.editorFocus = 0
		a.editAuthor = MutationState{}
	}
	return nil
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = m.Width, m.Height
	case tea.KeyMsg:
		return a, a.handleKey(m)
	case authorsLoadedMsg:
		a.authors = a.authors.Resolve(m.authors, m.err)
		if m.err != nil {
			a.setStatus(m.err.Error(), true)
		}
	case booksLoadedMsg:
		a.books = a.books.Resolve(m.books, m.err)
		if m.err != nil {
			a.setStatus(m.err.Error(), true)
		}
	case bornSetMsg:
		a.handleBornSet(m)
	case bookAddedMsg:
		a.handleBookAdded(m)
	case statusMsg:
		a.setStatus(string(m), false)
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) tea.Cmd {
	scope := string(a.view)
	switch a.keys.Action(m, scope) {
	case actionQuit:
		return tea.Quit
	case actionAuthors:
		return a.SetView(ViewAuthors)
	case actionBooks:
		return a.SetView(ViewBooks)
	case actionAddBook:
		return a.SetView(ViewAddBook)
	case actionFocusNext:
		a.moveFocus(1)
	case actionFocusPrev:
		a.moveFocus(-1)
	case actionSelectPrev:
		a.cycleAuthor(-1)
	case actionSelectNext:
		a.cycleAuthor(1)
	case actionSubmit:
		return a.submit()
	case actionAddGenre:
		a.addGenre()
	case actionCreateBook:
		return a.createBook()
	case actionRefresh:
		return a.refresh()
	default:
		a.typeInto(m)
	}
	return nil
}

func (a *App) moveFocus(delta int) {
	switch ScreenFor(a.view) {
	case AuthorList:
		a.editorFocus = wrap(a.editorFocus+delta, editorFocusCount)
	case AddBookForm:
		a.draftFocus = wrap(a.draftFocus+delta, draftFocusCount)
	}
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}

func (a *App) cycleAuthor(delta int) {
	if ScreenFor(a.view) != AuthorList || a.editorFocus != editorFocusAuthor {
		return
	}
	a.editor = ReduceEditor(a.editor, CycleAuthor{Delta: delta, Count: len(a.authors.Data)})
}

// submit handles enter: inputs advance focus, buttons fire.
func (a *App) submit() tea.Cmd {
	switch ScreenFor(a.view) {
	case AuthorList:
		if a.editorFocus == editorFocusSubmit {
			return a.submitBirthYear()
		}
		a.moveFocus(1)
	case AddBookForm:
		switch a.draftFocus {
		case draftFocusAddGenre:
			a.addGenre()
		case draftFocusCreate:
			return a.createBook()
		default:
			a.moveFocus(1)
		}
	}
	return nil
}

func (a *App) submitBirthYear() tea.Cmd {
	edit, ok := a.editor.Submission(library.Names(a.authors.Data))
	if !ok {
		a.setStatus("No author to update", true)
		return nil
	}
	var seq int
	a.editAuthor, seq = a.editAuthor.Start()
	a.authors = a.authors.Begin()
	mutate := a.editAuthorCmd(a.authorsGen, seq, edit)
	refetch := a.loadAuthorsCmd(gateway.NetworkOnly)
	if a.opts.SequenceRefetch {
		return tea.Sequence(mutate, refetch)
	}
	return tea.Batch(mutate, refetch)
}

func (a *App) addGenre() {
	if ScreenFor(a.view) != AddBookForm {
		return
	}
	a.draft = ReduceDraft(a.draft, AddGenre{ClearPending: a.opts.ClearGenreAfterAdd})
}

func (a *App) createBook() tea.Cmd {
	if ScreenFor(a.view) != AddBookForm {
		return nil
	}
	var seq int
	a.addBook, seq = a.addBook.Start()
	return a.addBookCmd(a.addGen, seq, a.draft.NewBook())
}

func (a *App) refresh() tea.Cmd {
	switch ScreenFor(a.view) {
	case BookList:
		a.books = a.books.Begin()
		a.setStatus("Refreshing books...", false)
		return a.loadBooksCmd(gateway.NetworkOnly)
	case AuthorList:
		a.authors = a.authors.Begin()
		a.setStatus("Refreshing authors...", false)
		return a.loadAuthorsCmd(gateway.NetworkOnly)
	}
	return nil
}

// typeInto edits the focused text field.
func (a *App) typeInto(m tea.KeyMsg) {
	var text string
	switch ScreenFor(a.view) {
	case AuthorList:
		if a.editorFocus != editorFocusBorn {
			return
		}
		text = a.editor.Born
	case AddBookForm:
		if a.draftFocus > int(FieldGenre) {
			return
		}
		text = a.draft.Field(DraftField(a.draftFocus))
	default:
		return
	}

	switch m.Type {
	case tea.KeyBackspace, tea.KeyCtrlH, tea.KeyDelete:
		if r := []rune(text); len(r) > 0 {
			text = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		text += " "
	case tea.KeyRunes:
		text += string(m.Runes)
	default:
		return
	}

	if ScreenFor(a.view) == AuthorList {
		a.editor = ReduceEditor(a.editor, SetBorn{Value: text})
		return
	}
	a.draft = ReduceDraft(a.draft, SetField{Field: DraftField(a.draftFocus), Value: text})
}

func (a *App) handleBornSet(m bornSetMsg) {
	switch {
	case m.err != nil:
		a.setStatus(m.err.Error(), true)
	case m.author == nil:
		a.setStatus(fmt.Sprintf("No author named %q", m.edit.Name), false)
	default:
		a.setStatus(fmt.Sprintf("Updated %s (born %s)", m.author.Name, library.Author{Born: m.author.Born}.BornLabel()), false)
	}
	if m.gen != a.authorsGen {
		return
	}
	a.editAuthor = a.editAuthor.Finish(m.seq, m.err)
}

func (a *App) handleBookAdded(m bookAddedMsg) {
	if m.err != nil {
		a.setStatus(m.err.Error(), true)
	} else {
		a.setStatus(fmt.Sprintf("Added %q by %s", m.book.Title, m.book.Author), false)
	}
	if m.gen != a.addGen {
		return
	}
	a.addBook = a.addBook.Finish(m.seq, m.err)
}

func (a *App) setStatus(msg string, isErr bool) {
	a.status = msg
	a.statusErr = isErr
}
