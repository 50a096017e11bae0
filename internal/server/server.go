// Package server is the development GraphQL gateway for the library.
package server

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/botobag/artemis/graphql"
	"github.com/botobag/artemis/graphql/ast"
	"github.com/botobag/artemis/graphql/executor"
	"github.com/go-chi/chi/v5"

	"github.com/jask/bookshelf/internal/service"
)

// NewRouter mounts /graphql and /healthz over the library service.
func NewRouter(lib *service.LibraryService) (http.Handler, error) {
	prepare, err := newPrepare(lib)
	if err != nil {
		return nil, fmt.Errorf("library schema: %w", err)
	}
	h := &handler{lib: lib, prepare: prepare}

	r := chi.NewRouter()
	r.Use(RequestIDMiddleware)
	r.Use(AccessLogMiddleware)
	r.Use(RecoveryMiddleware)

	r.Get("/healthz", h.healthz)
	r.Get("/graphql", h.graphql)
	r.Post("/graphql", h.graphql)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrors(w, http.StatusMethodNotAllowed, graphql.ErrorsOf("GraphQL only supports GET and POST requests."))
	})
	return r, nil
}

type handler struct {
	lib     *service.LibraryService
	prepare prepareFunc
}

func (h *handler) healthz(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := map[string]interface{}{"status": "ok"}
	if err := h.lib.DB.PingContext(r.Context()); err != nil {
		status = http.StatusServiceUnavailable
		body = map[string]interface{}{"status": "unavailable", "error": err.Error()}
	}
	b, _ := json.Marshal(body)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}

func (h *handler) graphql(w http.ResponseWriter, r *http.Request) {
	req, err := decodeRequest(r)
	if err != nil {
		writeErrors(w, http.StatusBadRequest, graphql.ErrorsOf(err.Error()))
		return
	}
	doc, errs := parseQuery(req.Query)
	if errs.HaveOccurred() {
		writeErrors(w, http.StatusBadRequest, errs)
		return
	}
	op, errs := h.prepare(doc, req.OperationName)
	if errs.HaveOccurred() {
		writeErrors(w, http.StatusBadRequest, errs)
		return
	}
	if r.Method == http.MethodGet && op.Type() != ast.OperationTypeQuery {
		w.Header().Set("Allow", http.MethodPost)
		writeErrors(w, http.StatusMethodNotAllowed, graphql.ErrorsOf("Can only perform a mutation operation from a POST request."))
		return
	}

	result := <-op.Execute(r.Context(), executor.ExecuteParams{
		VariableValues: req.Variables,
	})
	status := http.StatusOK
	if result.Data == nil {
		// variables failed to coerce; nothing ran
		status = http.StatusBadRequest
	}
	writeResult(w, status, &result)
}

func writeErrors(w http.ResponseWriter, status int, errs graphql.Errors) {
	writeResult(w, status, &executor.ExecutionResult{Errors: errs})
}

func writeResult(w http.ResponseWriter, status int, result *executor.ExecutionResult) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := result.MarshalJSONTo(w); err != nil {
		log.Printf("graphql: write response: %v", err)
	}
}

// NewHTTPServer wraps handler with the timeouts the commands serve with.
func NewHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}
