package ingest

import "net/http"

// Result is the outcome of one invocation. It either names the table that was
// loaded or carries the error that stopped the invocation.
type Result struct {
	table string
	err   error
}

func Success(table string) Result {
	return Result{table: table}
}

func Failure(err error) Result {
	return Result{err: err}
}

func (r Result) OK() bool { return r.err == nil }

func (r Result) Err() error { return r.err }

func (r Result) Table() string { return r.table }

func (r Result) Message() string {
	if r.err != nil {
		return "Error: " + r.err.Error()
	}
	return "Data processed and loaded to " + r.table
}

func (r Result) StatusCode() int {
	if r.err != nil {
		return http.StatusInternalServerError
	}
	return http.StatusOK
}
