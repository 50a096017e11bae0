package tui

// View names the screen the user asked for.
type View string

const (
	ViewAuthors View = "authors"
	ViewBooks   View = "books"
	ViewAddBook View = "addBook"
)

// Screen is the component rendered for a view.
type Screen int

const (
	AuthorList Screen = iota
	BookList
	AddBookForm
)

func (s Screen) String() string {
	switch s {
	case BookList:
		return "BookList"
	case AddBookForm:
		return "AddBookForm"
	default:
		return "AuthorList"
	}
}

// ScreenFor maps a view to its screen. Unknown views fall back to the author list.
func ScreenFor(v View) Screen {
	switch v {
	case ViewBooks:
		return BookList
	case ViewAddBook:
		return AddBookForm
	default:
		return AuthorList
	}
}

// tabs in header order.
var tabs = []struct {
	view  View
	label string
}{
	{ViewAuthors, "Authors"},
	{ViewBooks, "Books"},
	{ViewAddBook, "Add Book"},
}
