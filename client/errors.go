package client

import "fmt"

// Transfer stages reported by TransferError.
const (
	StageOpen  = "open"
	StageData  = "data"
	StageClose = "close"
	StageLocal = "local"
)

// TransferError reports where an upload or download failed.
type TransferError struct {
	// Direction is "upload" or "download"
	Direction string

	// Path is the remote path
	Path string

	// Stage is one of StageOpen, StageData, StageClose or StageLocal
	Stage string

	// Bytes is the number of file bytes moved before the failure
	Bytes int64

	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s %s: %s after %d bytes: %v", e.Direction, e.Path, e.Stage, e.Bytes, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}
