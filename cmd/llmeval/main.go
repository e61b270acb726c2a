package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess       = 0 // Request completed
	ExitRequestFailed = 1 // The service or the input rejected the request
	ExitError         = 2 // Configuration or runtime error
)

// RequestFailureError indicates that the command ran, but the evaluation
// service or input validation rejected the request.
type RequestFailureError struct {
	Err error
}

func (e *RequestFailureError) Error() string {
	return e.Err.Error()
}

func (e *RequestFailureError) Unwrap() error {
	return e.Err
}

func exitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var reqErr *RequestFailureError
	if errors.As(err, &reqErr) {
		return ExitRequestFailed
	}
	return ExitError
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCode(err))
	}
}
