package server

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/botobag/artemis/graphql"
	"github.com/botobag/artemis/graphql/ast"
	"github.com/botobag/artemis/graphql/parser"
	"github.com/botobag/artemis/graphql/token"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const maxRequestBytes = 1 << 20

type gqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

func decodeRequest(r *http.Request) (gqlRequest, error) {
	var req gqlRequest
	switch r.Method {
	case http.MethodGet:
		q := r.URL.Query()
		req.Query = q.Get("query")
		req.OperationName = q.Get("operationName")
		if raw := q.Get("variables"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &req.Variables); err != nil {
				return req, errors.New("Variables are invalid JSON.")
			}
		}
	case http.MethodPost:
		ct := r.Header.Get("Content-Type")
		if ct != "" && !strings.HasPrefix(ct, "application/json") {
			return req, fmt.Errorf("Unsupported content type %q.", ct)
		}
		body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
		if err != nil {
			return req, fmt.Errorf("read body: %w", err)
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return req, errors.New("POST body sent invalid JSON.")
		}
	default:
		return req, errors.New("GraphQL only supports GET and POST requests.")
	}
	if strings.TrimSpace(req.Query) == "" {
		return req, errors.New("Must provide query string.")
	}
	return req, nil
}

// parseQuery parses the request document. Syntax errors come back located.
func parseQuery(query string) (ast.Document, graphql.Errors) {
	doc, err := parser.Parse(token.NewSource(&token.SourceConfig{
		Body: token.SourceBody([]byte(query)),
	}), parser.ParseOptions{})
	if err != nil {
		return doc, graphql.ErrorsOf(err)
	}
	return doc, graphql.NoErrors()
}
