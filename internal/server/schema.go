package server

import (
	"context"
	"fmt"

	"github.com/botobag/artemis/graphql"
	"github.com/botobag/artemis/graphql/ast"
	"github.com/botobag/artemis/graphql/executor"
	"github.com/botobag/artemis/graphql/validator"
	"github.com/botobag/artemis/graphql/validator/rules"

	"github.com/jask/bookshelf/internal/database/repository"
	"github.com/jask/bookshelf/internal/library"
	"github.com/jask/bookshelf/internal/service"
)

// prepareFunc validates a parsed document against the library schema and
// picks the operation to run.
type prepareFunc func(doc ast.Document, operationName string) (*executor.PreparedOperation, graphql.Errors)

// validationRules is the executable-document rule set the gateway enforces.
var validationRules = []interface{}{
	rules.LoneAnonymousOperation{},
	rules.UniqueOperationNames{},
	rules.SingleFieldSubscriptions{},
	rules.KnownTypeNames{},
	rules.FragmentsOnCompositeTypes{},
	rules.VariablesAreInputTypes{},
	rules.ScalarLeafs{},
	rules.FieldsOnCorrectType{},
	rules.UniqueFragmentNames{},
	rules.NoUnusedFragments{},
	rules.PossibleFragmentSpreads{},
	rules.NoFragmentCycles{},
	rules.UniqueVariableNames{},
	rules.NoUndefinedVariables{},
	rules.NoUnusedVariables{},
	rules.KnownDirectives{},
	rules.KnownArgumentNames{},
	rules.UniqueArgumentNames{},
	rules.ValuesOfCorrectType{},
	rules.ProvidedRequiredArguments{},
	rules.VariablesInAllowedPosition{},
	rules.OverlappingFieldsCanBeMerged{},
	rules.UniqueInputFieldNames{},
}

// newPrepare builds the library schema with resolvers bound to lib.
//
//	type Author { name: String!  born: Int  id: ID!  bookCount: Int! }
//	type Book { title: String!  published: Int!  author: String!  id: ID!  genres: [String!]! }
//	type Query {
//	  allAuthors: [Author!]!
//	  allBooks(author: String, genre: String): [Book!]!
//	  authorCount: Int!
//	  bookCount: Int!
//	}
//	type Mutation {
//	  addBook(title: String!, author: String!, published: Int!, genres: [String!]!): Book
//	  editAuthor(name: String!, setBornTo: Int): Author
//	}
func newPrepare(lib *service.LibraryService) (prepareFunc, error) {
	authorType := &graphql.ObjectConfig{
		Name: "Author",
		Fields: graphql.Fields{
			"name": {
				Type:     graphql.NonNullOfType(graphql.String()),
				Resolver: authorField(func(a library.Author) interface{} { return a.Name }),
			},
			"born": {
				Type: graphql.T(graphql.Int()),
				Resolver: authorField(func(a library.Author) interface{} {
					if a.Born == nil {
						return nil
					}
					return *a.Born
				}),
			},
			"id": {
				Type:     graphql.NonNullOfType(graphql.ID()),
				Resolver: authorField(func(a library.Author) interface{} { return a.ID }),
			},
			"bookCount": {
				Type:     graphql.NonNullOfType(graphql.Int()),
				Resolver: authorField(func(a library.Author) interface{} { return a.BookCount }),
			},
		},
	}

	bookType := &graphql.ObjectConfig{
		Name: "Book",
		Fields: graphql.Fields{
			"title": {
				Type:     graphql.NonNullOfType(graphql.String()),
				Resolver: bookField(func(b library.Book) interface{} { return b.Title }),
			},
			"published": {
				Type:     graphql.NonNullOfType(graphql.Int()),
				Resolver: bookField(func(b library.Book) interface{} { return b.Published }),
			},
			"author": {
				Type:     graphql.NonNullOfType(graphql.String()),
				Resolver: bookField(func(b library.Book) interface{} { return b.Author }),
			},
			"id": {
				Type:     graphql.NonNullOfType(graphql.ID()),
				Resolver: bookField(func(b library.Book) interface{} { return b.ID }),
			},
			"genres": {
				Type: graphql.NonNullOf(graphql.ListOf(graphql.NonNullOfType(graphql.String()))),
				Resolver: bookField(func(b library.Book) interface{} {
					if b.Genres == nil {
						return []string{}
					}
					return b.Genres
				}),
			},
		},
	}

	queryType, err := graphql.NewObject(&graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"allAuthors": {
				Type: graphql.NonNullOf(graphql.ListOf(graphql.NonNullOf(authorType))),
				Resolver: graphql.FieldResolverFunc(func(ctx context.Context, _ interface{}, _ graphql.ResolveInfo) (interface{}, error) {
					return lib.AllAuthors(ctx)
				}),
			},
			"allBooks": {
				Type: graphql.NonNullOf(graphql.ListOf(graphql.NonNullOf(bookType))),
				Args: graphql.ArgumentConfigMap{
					"author": {Type: graphql.T(graphql.String())},
					"genre":  {Type: graphql.T(graphql.String())},
				},
				Resolver: graphql.FieldResolverFunc(func(ctx context.Context, _ interface{}, info graphql.ResolveInfo) (interface{}, error) {
					args := info.ArgumentValues()
					author, _ := args.Get("author").(string)
					genre, _ := args.Get("genre").(string)
					return lib.AllBooks(ctx, repository.BookFilter{AuthorName: author, Genre: genre})
				}),
			},
			"authorCount": {
				Type: graphql.NonNullOfType(graphql.Int()),
				Resolver: graphql.FieldResolverFunc(func(ctx context.Context, _ interface{}, _ graphql.ResolveInfo) (interface{}, error) {
					return lib.AuthorCount(ctx)
				}),
			},
			"bookCount": {
				Type: graphql.NonNullOfType(graphql.Int()),
				Resolver: graphql.FieldResolverFunc(func(ctx context.Context, _ interface{}, _ graphql.ResolveInfo) (interface{}, error) {
					return lib.BookCount(ctx)
				}),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("query type: %w", err)
	}

	mutationType, err := graphql.NewObject(&graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"addBook": {
				Type: bookType,
				Args: graphql.ArgumentConfigMap{
					"title":     {Type: graphql.NonNullOfType(graphql.String())},
					"author":    {Type: graphql.NonNullOfType(graphql.String())},
					"published": {Type: graphql.NonNullOfType(graphql.Int())},
					"genres":    {Type: graphql.NonNullOf(graphql.ListOf(graphql.NonNullOfType(graphql.String())))},
				},
				Resolver: graphql.FieldResolverFunc(func(ctx context.Context, _ interface{}, info graphql.ResolveInfo) (interface{}, error) {
					args := info.ArgumentValues()
					in := service.AddBookInput{
						Title:     args.Get("title").(string),
						Author:    args.Get("author").(string),
						Published: args.Get("published").(int),
					}
					genres, _ := args.Get("genres").([]interface{})
					for _, g := range genres {
						in.Genres = append(in.Genres, g.(string))
					}
					book, err := lib.AddBook(ctx, in)
					if err != nil {
						return nil, clientError(err)
					}
					return book, nil
				}),
			},
			"editAuthor": {
				Type: authorType,
				Args: graphql.ArgumentConfigMap{
					"name":      {Type: graphql.NonNullOfType(graphql.String())},
					"setBornTo": {Type: graphql.T(graphql.Int())},
				},
				Resolver: graphql.FieldResolverFunc(func(ctx context.Context, _ interface{}, info graphql.ResolveInfo) (interface{}, error) {
					args := info.ArgumentValues()
					var born *int
					if n, ok := args.Get("setBornTo").(int); ok {
						born = &n
					}
					author, err := lib.EditAuthor(ctx, args.Get("name").(string), born)
					if err != nil {
						return nil, clientError(err)
					}
					if author == nil {
						return nil, nil
					}
					return *author, nil
				}),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("mutation type: %w", err)
	}

	schema, err := graphql.NewSchema(&graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}

	return func(doc ast.Document, operationName string) (*executor.PreparedOperation, graphql.Errors) {
		if errs := validator.ValidateWithRules(schema, doc, validationRules...); errs.HaveOccurred() {
			return nil, errs
		}
		return executor.Prepare(executor.PrepareParams{
			Schema:        schema,
			Document:      doc,
			OperationName: operationName,
		})
	}, nil
}

func authorField(get func(library.Author) interface{}) graphql.FieldResolver {
	return graphql.FieldResolverFunc(func(_ context.Context, source interface{}, _ graphql.ResolveInfo) (interface{}, error) {
		a, ok := source.(library.Author)
		if !ok {
			return nil, fmt.Errorf("author field on %T", source)
		}
		return get(a), nil
	})
}

func bookField(get func(library.Book) interface{}) graphql.FieldResolver {
	return graphql.FieldResolverFunc(func(_ context.Context, source interface{}, _ graphql.ResolveInfo) (interface{}, error) {
		b, ok := source.(library.Book)
		if !ok {
			return nil, fmt.Errorf("book field on %T", source)
		}
		return get(b), nil
	})
}

// clientError keeps input errors verbatim and hides everything else.
func clientError(err error) error {
	if service.IsInputError(err) {
		return err
	}
	return fmt.Errorf("Internal server error: %w", err)
}
