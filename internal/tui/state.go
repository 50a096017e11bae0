package tui

// QueryResult is the loading/error/data triple of a read operation.
type QueryResult[T any] struct {
	Loading bool
	Err     error
	Data    T
	HasData bool
}

// Begin marks a request in flight. Data already on screen stays visible and
// does not flip back to the loading placeholder.
func (q QueryResult[T]) Begin() QueryResult[T] {
	if !q.HasData {
		q.Loading = true
	}
	return q
}

// Resolve applies a finished request. A failed refetch keeps the previous data.
func (q QueryResult[T]) Resolve(data T, err error) QueryResult[T] {
	q.Loading = false
	q.Err = err
	if err == nil {
		q.Data = data
		q.HasData = true
	}
	return q
}

// MutationState tracks the most recent call of a write operation. Earlier
// calls may still finish, but only the latest one is reflected.
type MutationState struct {
	Loading bool
	Err     error
	latest  int
}

// Start begins a new call and returns its sequence number.
func (m MutationState) Start() (MutationState, int) {
	m.latest++
	m.Loading = true
	m.Err = nil
	return m, m.latest
}

// Finish records the outcome of call seq. Outcomes of superseded calls are
// ignored.
func (m MutationState) Finish(seq int, err error) MutationState {
	if seq != m.latest {
		return m
	}
	m.Loading = false
	m.Err = err
	return m
}
