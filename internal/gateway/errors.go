package gateway

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoData is returned when a response carries neither errors nor data.
var ErrNoData = errors.New("gateway: response has no data")

// GraphQLError is one entry of a response's "errors" array.
type GraphQLError struct {
	Message   string `json:"message"`
	Path      []any  `json:"path,omitempty"`
	Locations []struct {
		Line   int `json:"line"`
		Column int `json:"column"`
	} `json:"locations,omitempty"`
}

// ResponseError is a request that reached the gateway and failed there, either
// with GraphQL errors or with a non-2xx status.
type ResponseError struct {
	Operation  string
	StatusCode int
	Errors     []GraphQLError
}

func (e *ResponseError) Error() string {
	if len(e.Errors) > 0 {
		msgs := make([]string, 0, len(e.Errors))
		for _, ge := range e.Errors {
			msgs = append(msgs, ge.Message)
		}
		return strings.Join(msgs, "\n")
	}
	return fmt.Sprintf("Response not successful: Received status code %d", e.StatusCode)
}
