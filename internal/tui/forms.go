package tui

import (
	"slices"

	"github.com/jask/bookshelf/internal/library"
)

// DraftField identifies a free-text field of the add-book form.
type DraftField int

const (
	FieldTitle DraftField = iota
	FieldAuthor
	FieldPublished
	FieldGenre
)

// Draft is the add-book form. Genres only ever grow by append; empty and
// repeated entries are kept.
type Draft struct {
	Title     string
	Author    string
	Published string
	Genre     string
	Genres    []string
}

type DraftAction interface{ draftAction() }

// SetField replaces the text of one field.
type SetField struct {
	Field DraftField
	Value string
}

// AddGenre appends the pending genre. ClearPending empties the genre field
// afterwards.
type AddGenre struct {
	ClearPending bool
}

func (SetField) draftAction() {}
func (AddGenre) draftAction() {}

// ReduceDraft returns the draft after action. The input draft is not modified.
func ReduceDraft(d Draft, action DraftAction) Draft {
	switch a := action.(type) {
	case SetField:
		switch a.Field {
		case FieldTitle:
			d.Title = a.Value
		case FieldAuthor:
			d.Author = a.Value
		case FieldPublished:
			d.Published = a.Value
		case FieldGenre:
			d.Genre = a.Value
		}
	case AddGenre:
		d.Genres = append(slices.Clip(d.Genres), d.Genre)
		if a.ClearPending {
			d.Genre = ""
		}
	}
	return d
}

// Field returns the text of f.
func (d Draft) Field(f DraftField) string {
	switch f {
	case FieldTitle:
		return d.Title
	case FieldAuthor:
		return d.Author
	case FieldPublished:
		return d.Published
	case FieldGenre:
		return d.Genre
	}
	return ""
}

// NewBook builds the add-book variables from the current draft.
func (d Draft) NewBook() library.NewBook {
	genres := slices.Clone(d.Genres)
	if genres == nil {
		genres = []string{}
	}
	return library.NewBook{
		Title:     d.Title,
		Author:    d.Author,
		Published: library.ParseYear(d.Published),
		Genres:    genres,
	}
}

// BirthYearEditor is the set-birthyear form. Selected indexes the author
// names in query order.
type BirthYearEditor struct {
	Selected int
	Born     string
}

type EditorAction interface{ editorAction() }

// CycleAuthor moves the selection by Delta, wrapping around Count names.
type CycleAuthor struct {
	Delta int
	Count int
}

// SetBorn replaces the typed year.
type SetBorn struct {
	Value string
}

func (CycleAuthor) editorAction() {}
func (SetBorn) editorAction()     {}

func ReduceEditor(e BirthYearEditor, action EditorAction) BirthYearEditor {
	switch a := action.(type) {
	case CycleAuthor:
		if a.Count <= 0 {
			e.Selected = 0
			break
		}
		e.Selected = ((e.Selected+a.Delta)%a.Count + a.Count) % a.Count
	case SetBorn:
		e.Born = a.Value
	}
	return e
}

// SelectedName returns the selected author name, clamped to the list.
func (e BirthYearEditor) SelectedName(names []string) (string, bool) {
	if len(names) == 0 {
		return "", false
	}
	i := min(max(e.Selected, 0), len(names)-1)
	return names[i], true
}

// Submission builds the edit-author variables. Nothing is submitted while
// there is no author to select.
func (e BirthYearEditor) Submission(names []string) (library.BirthYearEdit, bool) {
	name, ok := e.SelectedName(names)
	if !ok {
		return library.BirthYearEdit{}, false
	}
	return library.BirthYearEdit{Name: name, SetBornTo: library.ParseYear(e.Born)}, true
}
