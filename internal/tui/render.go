package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/jask/bookshelf/internal/library"
	"github.com/jask/bookshelf/internal/widgets"
)

const (
	loadingText = "Loading..."
	labelWidth  = 10
)

func (a *App) View() string {
	header := a.renderHeader()
	status := a.renderStatusBar()
	footer := a.renderFooter()

	var body string
	switch ScreenFor(a.view) {
	case BookList:
		body = renderBookList(a.books, a.width)
	case AddBookForm:
		body = renderAddBookForm(addBookProps{
			Draft:    a.draft,
			Focus:    a.draftFocus,
			Mutation: a.addBook,
			Known:    library.Names(a.authors.Data),
		})
	default:
		body = renderAuthorList(authorListProps{
			Result:   a.authors,
			Editor:   a.editor,
			Focus:    a.editorFocus,
			Mutation: a.editAuthor,
			Width:    a.width,
		})
	}

	if a.height > 0 {
		available := a.height - lipgloss.Height(header) - lipgloss.Height(status) - lipgloss.Height(footer)
		body = fitHeight(body, max(0, available))
	}
	parts := []string{header}
	if body != "" {
		parts = append(parts, body)
	}
	parts = append(parts, status, footer)
	return strings.Join(parts, "\n")
}

func (a *App) renderHeader() string {
	labels := make([]string, 0, len(tabs))
	for _, t := range tabs {
		if t.view == a.view {
			labels = append(labels, activeTabStyle.Render(t.label))
		} else {
			labels = append(labels, inactiveTabStyle.Render(t.label))
		}
	}
	title := titleStyle.Render("GraphQL testing:")
	if a.opts.Endpoint != "" {
		title += " " + mutedStyle.Render(a.opts.Endpoint)
	}
	line := title + "\n" + strings.Join(labels, tabSepStyle.Render("│"))
	if a.width > 0 {
		rows := strings.Split(line, "\n")
		for i, r := range rows {
			rows[i] = ansi.Truncate(r, a.width, "")
		}
		line = strings.Join(rows, "\n")
	}
	return line + "\n"
}

func (a *App) renderStatusBar() string {
	msg := strings.TrimSpace(a.status)
	if msg == "" {
		msg = "Ready"
	}
	if a.statusErr {
		return widgets.Bar(statusErrBarStyle, a.width, msg)
	}
	return widgets.Bar(statusBarStyle, a.width, msg)
}

func (a *App) renderFooter() string {
	bindings := a.keys.BindingsForScope(string(a.view))
	space := footerStyle.Render(" ")
	sep := footerStyle.Render("  ")
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		if b.Hidden || len(b.Keys) == 0 {
			continue
		}
		kb := key.NewBinding(key.WithKeys(b.Keys...), key.WithHelp(b.Keys[0], b.Description))
		h := kb.Help()
		if h.Key == "" && h.Desc == "" {
			continue
		}
		parts = append(parts, keyStyle.Render(h.Key)+space+descStyle.Render(h.Desc))
	}
	return widgets.Bar(footerStyle, a.width, strings.Join(parts, sep))
}

func fitHeight(s string, height int) string {
	if height <= 0 {
		return ""
	}
	lines := strings.Split(widgets.ClipHeight(s, height), "\n")
	for len(lines) < height {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

type authorListProps struct {
	Result   QueryResult[[]library.Author]
	Editor   BirthYearEditor
	Focus    int
	Mutation MutationState
	Width    int
}

// renderAuthorList shows the authors table and the birth-year editor. While
// the query is loading only the placeholder is shown.
func renderAuthorList(p authorListProps) string {
	if p.Result.Loading {
		return loadingText
	}
	if p.Result.Err != nil && !p.Result.HasData {
		return errorStyle.Render(p.Result.Err.Error())
	}

	rows := make([][]string, 0, len(p.Result.Data))
	for _, au := range p.Result.Data {
		rows = append(rows, []string{au.Name, au.BornLabel(), fmt.Sprint(au.BookCount)})
	}
	table := widgets.Table{Headers: []string{"Name", "Year", "Books"}, Rows: rows}

	names := library.Names(p.Result.Data)
	selected, _ := p.Editor.SelectedName(names)
	selector := "author" + strings.Repeat(" ", labelWidth-len("author"))
	choice := "‹ " + selected + " ›"
	if p.Focus == editorFocusAuthor {
		selector += focusStyle.Render(choice)
	} else {
		selector += blurStyle.Render(choice)
	}

	form := []string{
		selector,
		widgets.Input("born:", p.Editor.Born, labelWidth, p.Focus == editorFocusBorn, focusStyle, blurStyle),
		widgets.Button("update author", p.Focus == editorFocusSubmit, focusStyle, blurStyle),
	}
	if p.Mutation.Err != nil {
		form = append(form, errorStyle.Render(p.Mutation.Err.Error()))
	}
	editor := widgets.Box{Title: "Set birthyear", Content: strings.Join(form, "\n")}

	return strings.Join([]string{
		headingStyle.Render("Authors:"),
		table.Render(p.Width),
		"",
		editor.Render(p.Width),
	}, "\n")
}

func renderBookList(result QueryResult[[]library.Book], width int) string {
	if result.Loading {
		return loadingText
	}
	if result.Err != nil && !result.HasData {
		return errorStyle.Render(result.Err.Error())
	}
	rows := make([][]string, 0, len(result.Data))
	for _, b := range result.Data {
		rows = append(rows, []string{b.Title, b.Author, fmt.Sprint(b.Published)})
	}
	table := widgets.Table{Headers: []string{"Title", "Author", "Published"}, Rows: rows}
	return headingStyle.Render("Books") + "\n" + table.Render(width)
}

type addBookProps struct {
	Draft    Draft
	Focus    int
	Mutation MutationState
	// Known author names for the spelling hint.
	Known []string
}

var draftLabels = [...]string{
	FieldTitle:     "title",
	FieldAuthor:    "author",
	FieldPublished: "published",
	FieldGenre:     "genre",
}

func renderAddBookForm(p addBookProps) string {
	lines := make([]string, 0, 10)
	for f, label := range draftLabels {
		field := DraftField(f)
		lines = append(lines, widgets.Input(label, p.Draft.Field(field), labelWidth, p.Focus == f, focusStyle, blurStyle))
		if field == FieldAuthor {
			if hint, ok := library.Suggest(p.Known, p.Draft.Author); ok {
				lines = append(lines, hintStyle.Render(strings.Repeat(" ", labelWidth)+"did you mean "+hint+"?"))
			}
		}
	}
	lines = append(lines,
		widgets.Button("add genre", p.Focus == draftFocusAddGenre, focusStyle, blurStyle),
		"genres: "+strings.Join(p.Draft.Genres, " "),
		widgets.Button("create book", p.Focus == draftFocusCreate, focusStyle, blurStyle),
	)
	if p.Mutation.Loading {
		lines = append(lines, mutedStyle.Render(loadingText))
	}
	if p.Mutation.Err != nil {
		lines = append(lines, errorStyle.Render(p.Mutation.Err.Error()))
	}
	return strings.Join(lines, "\n")
}
