package gateway

import (
	"fmt"

	"github.com/botobag/artemis/graphql/ast"
	"github.com/botobag/artemis/graphql/parser"
	"github.com/botobag/artemis/graphql/token"
)

// Operation is a GraphQL document the client sends, along with what the
// parser found in it.
type Operation struct {
	// Name is the operation name sent as "operationName".
	Name string
	// Type is query or mutation.
	Type ast.OperationType
	// Field is the response key of the single root field: its alias when
	// one is given, else its name.
	Field string
	// Variables lists declared variable names in declaration order.
	Variables []string
	// Document is the source text.
	Document string
}

// IsMutation reports whether the operation writes.
func (op Operation) IsMutation() bool {
	return op.Type == ast.OperationTypeMutation
}

var (
	AllAuthorsOp = mustOperation(`
query allAuthors {
  allAuthors {
    name
    born
    id
    bookCount
  }
}`)

	AllBooksOp = mustOperation(`
query allBooks {
  allBooks {
    title
    published
    author
    id
    genres
  }
}`)

	AddBookOp = mustOperation(`
mutation addBook($title: String!, $author: String!, $published: Int!, $genres: [String!]!) {
  addBook(title: $title, author: $author, published: $published, genres: $genres) {
    title
    author
    published
    genres
  }
}`)

	EditAuthorOp = mustOperation(`
mutation editAuthor($name: String!, $setBornTo: Int) {
  editAuthor(name: $name, setBornTo: $setBornTo) {
    name
    born
  }
}`)
)

// ParseOperation parses a document holding exactly one named operation with
// exactly one root field.
func ParseOperation(doc string) (Operation, error) {
	document, err := parser.Parse(token.NewSource(&token.SourceConfig{
		Body: token.SourceBody([]byte(doc)),
		Name: "bookshelf operation",
	}), parser.ParseOptions{})
	if err != nil {
		return Operation{}, fmt.Errorf("parse operation: %w", err)
	}

	var def *ast.OperationDefinition
	for _, d := range document.Definitions {
		od, ok := d.(*ast.OperationDefinition)
		if !ok {
			continue
		}
		if def != nil {
			return Operation{}, fmt.Errorf("parse operation: more than one operation in document")
		}
		def = od
	}
	if def == nil {
		return Operation{}, fmt.Errorf("parse operation: no operation in document")
	}
	if def.IsQueryShorthand() || def.Name.Token == nil {
		return Operation{}, fmt.Errorf("parse operation: operation must be named")
	}
	if len(def.SelectionSet) != 1 {
		return Operation{}, fmt.Errorf("parse operation %s: want one root field, got %d", def.Name.Value(), len(def.SelectionSet))
	}
	field, ok := def.SelectionSet[0].(*ast.Field)
	if !ok {
		return Operation{}, fmt.Errorf("parse operation %s: root selection is not a field", def.Name.Value())
	}

	key := field.Name.Value()
	if field.Alias.Token != nil {
		key = field.Alias.Value()
	}

	op := Operation{
		Name:     def.Name.Value(),
		Type:     def.OperationType(),
		Field:    key,
		Document: doc,
	}
	for _, v := range def.VariableDefinitions {
		op.Variables = append(op.Variables, v.Variable.Name.Value())
	}
	return op, nil
}

func mustOperation(doc string) Operation {
	op, err := ParseOperation(doc)
	if err != nil {
		panic(err)
	}
	return op
}
