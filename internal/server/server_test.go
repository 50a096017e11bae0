package server_test

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/jask/bookshelf/internal/database"
	"github.com/jask/bookshelf/internal/gateway"
	"github.com/jask/bookshelf/internal/library"
	"github.com/jask/bookshelf/internal/server"
	"github.com/jask/bookshelf/internal/service"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type gqlResult struct {
	status int
	header http.Header
	raw    string
	body   map[string]interface{}
}

func (r gqlResult) messages() []string {
	var out []string
	errs, _ := r.body["errors"].([]interface{})
	for _, e := range errs {
		out = append(out, e.(map[string]interface{})["message"].(string))
	}
	return out
}

func (r gqlResult) data() map[string]interface{} {
	d, _ := r.body["data"].(map[string]interface{})
	return d
}

var _ = Describe("GraphQL gateway", func() {
	var (
		dir string
		db  *sql.DB
		srv *httptest.Server
	)

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "bookshelf-gateway")
		Expect(err).ShouldNot(HaveOccurred())
		db, err = database.OpenAndMigrate(filepath.Join(dir, "gateway.db"))
		Expect(err).ShouldNot(HaveOccurred())
		Expect(database.SeedDefaults(context.Background(), db)).Should(Succeed())
		router, err := server.NewRouter(&service.LibraryService{DB: db})
		Expect(err).ShouldNot(HaveOccurred())
		srv = httptest.NewServer(router)
	})

	AfterEach(func() {
		srv.Close()
		Expect(db.Close()).Should(Succeed())
		Expect(os.RemoveAll(dir)).Should(Succeed())
	})

	post := func(query string, vars map[string]interface{}, opName string) gqlResult {
		body, err := json.Marshal(map[string]interface{}{
			"query":         query,
			"variables":     vars,
			"operationName": opName,
		})
		Expect(err).ShouldNot(HaveOccurred())
		resp, err := http.Post(srv.URL+"/graphql", "application/json", bytes.NewReader(body))
		Expect(err).ShouldNot(HaveOccurred())
		defer resp.Body.Close()
		raw, err := io.ReadAll(resp.Body)
		Expect(err).ShouldNot(HaveOccurred())
		res := gqlResult{status: resp.StatusCode, header: resp.Header, raw: string(raw)}
		Expect(json.Unmarshal(raw, &res.body)).Should(Succeed(), string(raw))
		return res
	}

	Describe("queries", func() {
		It("lists authors in insertion order with derived book counts", func() {
			res := post(`{ allAuthors { name born bookCount } }`, nil, "")
			Expect(res.status).Should(Equal(http.StatusOK))
			Expect(res.raw).Should(HavePrefix(`{"data":{"allAuthors":[{"name":"Robert Martin","born":1952,"bookCount":2}`))

			authors := res.data()["allAuthors"].([]interface{})
			Expect(authors).Should(HaveLen(5))
			kerievsky := authors[3].(map[string]interface{})
			Expect(kerievsky).Should(HaveKeyWithValue("born", BeNil()))
			Expect(kerievsky).Should(HaveKeyWithValue("bookCount", BeEquivalentTo(1)))
		})

		It("filters books by author and genre", func() {
			res := post(`query { allBooks(author: "Robert Martin", genre: "refactoring") { title genres } }`, nil, "")
			Expect(res.messages()).Should(BeEmpty())
			Expect(res.data()["allBooks"]).Should(Equal([]interface{}{
				map[string]interface{}{"title": "Clean Code", "genres": []interface{}{"refactoring"}},
			}))
		})

		It("answers counts, aliases and __typename", func() {
			res := post(`query counts { total: bookCount authorCount __typename first: allAuthors { who: name __typename } }`, nil, "")
			Expect(res.messages()).Should(BeEmpty())
			Expect(res.raw).Should(HavePrefix(`{"data":{"total":7,"authorCount":5,"__typename":"Query","first":[{"who":"Robert Martin","__typename":"Author"}`))
		})

		It("expands fragments and honours @skip and @include", func() {
			res := post(`
				query books($withGenres: Boolean!) {
					allBooks(genre: "revolution") { ...bookFields genres @include(if: $withGenres) id @skip(if: true) }
				}
				fragment bookFields on Book { title ... on Book { published } }
			`, map[string]interface{}{"withGenres": false}, "books")
			Expect(res.messages()).Should(BeEmpty())
			Expect(res.data()["allBooks"]).Should(Equal([]interface{}{
				map[string]interface{}{"title": "Demons", "published": float64(1872)},
			}))
		})

		It("serves queries over GET", func() {
			q := url.Values{"query": {`{ bookCount }`}}
			resp, err := http.Get(srv.URL + "/graphql?" + q.Encode())
			Expect(err).ShouldNot(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).Should(Equal(http.StatusOK))
			raw, _ := io.ReadAll(resp.Body)
			Expect(string(raw)).Should(Equal(`{"data":{"bookCount":7}}`))
		})

		It("refuses mutations over GET", func() {
			q := url.Values{"query": {`mutation { editAuthor(name: "Sandi Metz", setBornTo: 1) { name } }`}}
			resp, err := http.Get(srv.URL + "/graphql?" + q.Encode())
			Expect(err).ShouldNot(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).Should(Equal(http.StatusMethodNotAllowed))
		})
	})

	Describe("mutations", func() {
		It("adds a book and creates its author", func() {
			res := post(gateway.AddBookOp.Document, map[string]interface{}{
				"title":     "Dune",
				"author":    "Frank Herbert",
				"published": 1965,
				"genres":    []string{"Sci-Fi"},
			}, "addBook")
			Expect(res.messages()).Should(BeEmpty())
			Expect(res.raw).Should(Equal(`{"data":{"addBook":{"title":"Dune","author":"Frank Herbert","published":1965,"genres":["Sci-Fi"]}}}`))

			res = post(`{ authorCount allAuthors { name bookCount } }`, nil, "")
			Expect(res.data()["authorCount"]).Should(BeEquivalentTo(6))
			authors := res.data()["allAuthors"].([]interface{})
			Expect(authors[5]).Should(Equal(map[string]interface{}{"name": "Frank Herbert", "bookCount": float64(1)}))
		})

		It("rejects a null published year before executing", func() {
			res := post(gateway.AddBookOp.Document, map[string]interface{}{
				"title":     "Dune",
				"author":    "Frank Herbert",
				"published": nil,
				"genres":    []string{},
			}, "addBook")
			Expect(res.status).Should(Equal(http.StatusBadRequest))
			Expect(res.body).ShouldNot(HaveKey("data"))
			Expect(res.messages()).Should(ConsistOf(`Variable "$published" of non-null type "Int!" must not be null.`))

			count := post(`{ bookCount }`, nil, "")
			Expect(count.data()["bookCount"]).Should(BeEquivalentTo(7))
		})

		It("reports duplicate titles as field errors", func() {
			res := post(`mutation { addBook(title: "Demons", author: "Fyodor Dostoevsky", published: 1872, genres: []) { title } }`, nil, "")
			Expect(res.status).Should(Equal(http.StatusOK))
			Expect(res.data()).Should(HaveKeyWithValue("addBook", BeNil()))
			Expect(res.messages()).Should(HaveLen(1))
			Expect(res.messages()[0]).Should(ContainSubstring("Saving book failed"))
			errs := res.body["errors"].([]interface{})
			Expect(errs[0]).Should(HaveKeyWithValue("path", []interface{}{"addBook"}))
		})

		It("edits a birth year by name and returns null for unknown names", func() {
			res := post(gateway.EditAuthorOp.Document, map[string]interface{}{"name": "Sandi Metz", "setBornTo": 1962}, "editAuthor")
			Expect(res.raw).Should(Equal(`{"data":{"editAuthor":{"name":"Sandi Metz","born":1962}}}`))

			res = post(gateway.EditAuthorOp.Document, map[string]interface{}{"name": "Tolkien", "setBornTo": 1892}, "editAuthor")
			Expect(res.raw).Should(Equal(`{"data":{"editAuthor":null}}`))

			res = post(gateway.EditAuthorOp.Document, map[string]interface{}{"name": "Sandi Metz", "setBornTo": nil}, "editAuthor")
			Expect(res.raw).Should(Equal(`{"data":{"editAuthor":{"name":"Sandi Metz","born":null}}}`))
		})
	})

	Describe("request errors", func() {
		It("reports syntax errors with locations", func() {
			res := post(`{ allAuthors { name }`, nil, "")
			Expect(res.status).Should(Equal(http.StatusBadRequest))
			Expect(res.messages()).Should(HaveLen(1))
			Expect(res.messages()[0]).Should(ContainSubstring("Syntax Error"))
		})

		It("reports unknown fields and missing selections", func() {
			res := post(`{ allAuthors { name age } allBooks }`, nil, "")
			Expect(res.status).Should(Equal(http.StatusBadRequest))
			Expect(res.body).ShouldNot(HaveKey("data"))
			Expect(res.messages()).Should(ConsistOf(
				HavePrefix(`Cannot query field "age" on type "Author".`),
				And(ContainSubstring(`"allBooks"`), ContainSubstring("must have a selection of subfields")),
			))
			errs := res.body["errors"].([]interface{})
			Expect(errs).Should(ContainElement(HaveKeyWithValue("locations", []interface{}{
				map[string]interface{}{"line": float64(1), "column": float64(21)},
			})))
		})

		It("reports missing and mistyped arguments", func() {
			res := post(`mutation { addBook(title: "X", author: "Y", published: "1965") { title } }`, nil, "")
			Expect(res.messages()).Should(ConsistOf(
				And(ContainSubstring("Int!"), ContainSubstring(`"1965"`)),
				And(ContainSubstring(`"genres"`), ContainSubstring("is required")),
			))
		})

		It("checks variable usage against argument types", func() {
			res := post(`mutation m($p: Int) { addBook(title: "X", author: "Y", published: $p, genres: []) { title } }`, nil, "")
			Expect(res.messages()).Should(ConsistOf(And(ContainSubstring(`"$p"`), ContainSubstring(`expecting type "Int!"`))))

			res = post(`query q { allBooks(genre: $g) { title } }`, nil, "")
			Expect(res.messages()).Should(ConsistOf(And(ContainSubstring(`"$g"`), ContainSubstring("not defined"))))
		})

		It("selects operations by name", func() {
			doc := `query a { bookCount } query b { authorCount }`
			Expect(post(doc, nil, "b").raw).Should(Equal(`{"data":{"authorCount":5}}`))
			Expect(post(doc, nil, "").messages()).Should(ConsistOf("Must provide operation name if query contains multiple operations."))
			Expect(post(doc, nil, "c").messages()).Should(ConsistOf(`Unknown operation named "c".`))
		})

		It("rejects invalid envelopes", func() {
			resp, err := http.Post(srv.URL+"/graphql", "application/json", bytes.NewBufferString(`{not json`))
			Expect(err).ShouldNot(HaveOccurred())
			resp.Body.Close()
			Expect(resp.StatusCode).Should(Equal(http.StatusBadRequest))

			Expect(post("   ", nil, "").messages()).Should(ConsistOf("Must provide query string."))
		})
	})

	Describe("infrastructure", func() {
		It("echoes the caller's request id", func() {
			req, err := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
			Expect(err).ShouldNot(HaveOccurred())
			req.Header.Set("X-Request-Id", "req-123")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).ShouldNot(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).Should(Equal(http.StatusOK))
			Expect(resp.Header.Get("X-Request-Id")).Should(Equal("req-123"))
		})

		It("assigns a request id when none is sent", func() {
			res := post(`{ bookCount }`, nil, "")
			Expect(res.header.Get("X-Request-Id")).ShouldNot(BeEmpty())
		})
	})

	Describe("with the bookshelf client", func() {
		var client *gateway.Client

		BeforeEach(func() {
			client = gateway.NewClient(gateway.Config{Endpoint: srv.URL + "/graphql"})
		})

		It("runs all four library operations", func() {
			ctx := context.Background()

			authors, err := client.AllAuthors(ctx, gateway.NetworkOnly)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(library.Names(authors)).Should(Equal([]string{
				"Robert Martin", "Martin Fowler", "Fyodor Dostoevsky", "Joshua Kerievsky", "Sandi Metz",
			}))

			added, err := client.AddBook(ctx, library.NewBook{
				Title:     "Dune",
				Author:    "Frank Herbert",
				Published: library.ParseYear("1965"),
				Genres:    []string{"Sci-Fi"},
			})
			Expect(err).ShouldNot(HaveOccurred())
			Expect(added).Should(Equal(library.AddedBook{Title: "Dune", Author: "Frank Herbert", Published: 1965, Genres: []string{"Sci-Fi"}}))

			books, err := client.AllBooks(ctx, gateway.CacheFirst)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(books).Should(HaveLen(8))
			Expect(books[7].Author).Should(Equal("Frank Herbert"))

			edited, err := client.EditAuthor(ctx, library.BirthYearEdit{Name: "Frank Herbert", SetBornTo: library.ParseYear("1920")})
			Expect(err).ShouldNot(HaveOccurred())
			Expect(*edited.Born).Should(Equal(1920))
		})

		It("surfaces the gateway's message for a not-a-number year", func() {
			_, err := client.AddBook(context.Background(), library.NewBook{
				Title:     "Dune",
				Author:    "Frank Herbert",
				Published: library.ParseYear(""),
				Genres:    []string{"Sci-Fi"},
			})
			Expect(err).Should(MatchError(`Variable "$published" of non-null type "Int!" must not be null.`))
			var rerr *gateway.ResponseError
			Expect(errors.As(err, &rerr)).Should(BeTrue())
			Expect(rerr.StatusCode).Should(Equal(http.StatusBadRequest))
		})

		It("clears a birth year when the typed year is not a number", func() {
			edited, err := client.EditAuthor(context.Background(), library.BirthYearEdit{Name: "Robert Martin", SetBornTo: library.ParseYear("abc")})
			Expect(err).ShouldNot(HaveOccurred())
			Expect(edited.Born).Should(BeNil())
		})
	})
})
