// Package library holds the author and book shapes exchanged with the gateway.
package library

// Author is a row of the all-authors query.
type Author struct {
	Name      string `json:"name"`
	Born      *int   `json:"born"`
	ID        string `json:"id"`
	BookCount int    `json:"bookCount"`
}

// BornLabel renders the born column; absent years print as the literal "null".
func (a Author) BornLabel() string {
	if a.Born == nil {
		return "null"
	}
	return itoa(*a.Born)
}

// Book is a row of the all-books query. Author is the author's name, not an id.
type Book struct {
	Title     string   `json:"title"`
	Published int      `json:"published"`
	Author    string   `json:"author"`
	ID        string   `json:"id"`
	Genres    []string `json:"genres"`
}

// NewBook is the variable set of the add-book mutation.
type NewBook struct {
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Published Year     `json:"published"`
	Genres    []string `json:"genres"`
}

// AddedBook is what add-book echoes back.
type AddedBook struct {
	Title     string   `json:"title"`
	Author    string   `json:"author"`
	Published int      `json:"published"`
	Genres    []string `json:"genres"`
}

// BirthYearEdit is the variable set of the edit-author mutation. Authors are
// addressed by name.
type BirthYearEdit struct {
	Name      string `json:"name"`
	SetBornTo Year   `json:"setBornTo"`
}

// EditedAuthor is what edit-author returns for a known name.
type EditedAuthor struct {
	Name string `json:"name"`
	Born *int   `json:"born"`
}

// Names lists author names in query order, duplicates included.
func Names(authors []Author) []string {
	out := make([]string, 0, len(authors))
	for _, a := range authors {
		out = append(out, a.Name)
	}
	return out
}
