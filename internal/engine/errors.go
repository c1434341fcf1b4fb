package engine

import (
	"errors"
	"fmt"
)

// ErrAlreadyRunning is returned by Start and Run when an attempt is
// already in flight on the same engine.
var ErrAlreadyRunning = errors.New("transfer already in progress")

// errPauseInterrupt marks a worker that stopped because pause was
// requested. It never reaches OnError.
var errPauseInterrupt = errors.New("transfer paused")

// ConnectivityError means the capability probe failed; the attempt is
// fatal and nothing was written.
type ConnectivityError struct {
	URL    string
	Status int
	Err    error
}

func (e *ConnectivityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error probing %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("error probing %s: unexpected status code %d", e.URL, e.Status)
}

func (e *ConnectivityError) Unwrap() error {
	return e.Err
}

// ChunkTransferError means a chunk's GET failed after the transfer
// started. Progress of other chunks is preserved for resume.
type ChunkTransferError struct {
	Chunk  int
	Status int
	Err    error
}

func (e *ChunkTransferError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("error downloading chunk %d: %v", e.Chunk, e.Err)
	}
	return fmt.Sprintf("error downloading chunk %d: unexpected status code %d", e.Chunk, e.Status)
}

func (e *ChunkTransferError) Unwrap() error {
	return e.Err
}
