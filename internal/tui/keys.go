package tui

import (
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// Key actions.
const (
	actionQuit       = "quit"
	actionAuthors    = "view:authors"
	actionBooks      = "view:books"
	actionAddBook    = "view:addBook"
	actionFocusNext  = "focus:next"
	actionFocusPrev  = "focus:prev"
	actionSelectPrev = "select:prev"
	actionSelectNext = "select:next"
	actionSubmit     = "submit"
	actionAddGenre   = "genre:add"
	actionCreateBook = "book:create"
	actionRefresh    = "refresh"
)

type KeyBinding struct {
	Keys        []string
	Action      string
	Description string
	Scopes      []string
	// Hidden bindings still match but are left out of the footer.
	Hidden bool
}

type KeyRegistry struct {
	bindings []KeyBinding
}

func NewKeyRegistry(bindings []KeyBinding) *KeyRegistry {
	return &KeyRegistry{bindings: slices.Clone(bindings)}
}

// Register puts binding ahead of the existing ones, so its keys win over any
// binding already registered for them.
func (r *KeyRegistry) Register(binding KeyBinding) {
	r.bindings = slices.Insert(r.bindings, 0, binding)
}

func (r *KeyRegistry) BindingsForScope(scope string) []KeyBinding {
	out := make([]KeyBinding, 0, len(r.bindings))
	for _, b := range r.bindings {
		if scopeMatch(scope, b.Scopes) {
			out = append(out, b)
		}
	}
	return out
}

// Rebind registers keys for a default action, keeping its description and
// scopes. Action names match case-insensitively since config keys arrive
// lowercased. It reports false for an unknown action.
func (r *KeyRegistry) Rebind(action string, keys []string) bool {
	for _, b := range DefaultKeyBindings() {
		if b.Hidden || !strings.EqualFold(b.Action, action) {
			continue
		}
		b.Keys = slices.Clone(keys)
		r.Register(b)
		return true
	}
	return false
}

// Action returns the first action bound to msg in scope, or "".
func (r *KeyRegistry) Action(msg tea.KeyMsg, scope string) string {
	pressed := normalizeKey(msg.String())
	for _, b := range r.bindings {
		if !scopeMatch(scope, b.Scopes) {
			continue
		}
		for _, k := range b.Keys {
			if normalizeKey(k) == pressed {
				return b.Action
			}
		}
	}
	return ""
}

func normalizeKey(k string) string {
	return strings.ToLower(strings.TrimSpace(k))
}

func scopeMatch(scope string, scopes []string) bool {
	if len(scopes) == 0 {
		return true
	}
	for _, s := range scopes {
		if s == "*" || s == scope {
			return true
		}
	}
	return false
}

var (
	scopeAuthors = string(ViewAuthors)
	scopeBooks   = string(ViewBooks)
	scopeAddBook = string(ViewAddBook)
	formScopes   = []string{scopeAuthors, scopeAddBook}
	listScopes   = []string{scopeAuthors, scopeBooks}
)

// DefaultKeyBindings is the stock keymap. Printable keys are only bound where
// no text field can take them.
func DefaultKeyBindings() []KeyBinding {
	return []KeyBinding{
		{Keys: []string{"f1", "ctrl+a"}, Action: actionAuthors, Description: "authors", Scopes: []string{"*"}},
		{Keys: []string{"f2", "ctrl+b"}, Action: actionBooks, Description: "books", Scopes: []string{"*"}},
		{Keys: []string{"f3", "ctrl+n"}, Action: actionAddBook, Description: "add book", Scopes: []string{"*"}},
		{Keys: []string{"1"}, Action: actionAuthors, Scopes: []string{scopeBooks}, Hidden: true},
		{Keys: []string{"3"}, Action: actionAddBook, Scopes: []string{scopeBooks}, Hidden: true},
		{Keys: []string{"tab", "down"}, Action: actionFocusNext, Description: "next field", Scopes: formScopes},
		{Keys: []string{"shift+tab", "up"}, Action: actionFocusPrev, Description: "prev field", Scopes: formScopes},
		{Keys: []string{"left"}, Action: actionSelectPrev, Description: "prev author", Scopes: []string{scopeAuthors}},
		{Keys: []string{"right"}, Action: actionSelectNext, Description: "next author", Scopes: []string{scopeAuthors}},
		{Keys: []string{"enter"}, Action: actionSubmit, Description: "submit", Scopes: formScopes},
		{Keys: []string{"ctrl+g"}, Action: actionAddGenre, Description: "add genre", Scopes: []string{scopeAddBook}},
		{Keys: []string{"ctrl+s"}, Action: actionCreateBook, Description: "create book", Scopes: []string{scopeAddBook}},
		{Keys: []string{"ctrl+r"}, Action: actionRefresh, Description: "refresh", Scopes: listScopes},
		{Keys: []string{"q"}, Action: actionQuit, Description: "quit", Scopes: []string{scopeBooks}},
		{Keys: []string{"ctrl+c"}, Action: actionQuit, Description: "quit", Scopes: []string{"*"}},
	}
}
