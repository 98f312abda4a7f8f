package client

// UnknownTotal is passed as total when the transfer size is not known in advance.
const UnknownTotal int64 = -1

// ProgressObserver receives transfer progress.
// OnProgress is called after every chunk with the bytes moved so far and the
// total size, or UnknownTotal for downloads. Implementations should return quickly.
type ProgressObserver interface {
	OnProgress(transferred, total int64)
}

// ProgressFunc adapts an ordinary function to ProgressObserver.
//
// Example:
//
//	obs := client.ProgressFunc(func(sent, total int64) {
//	    fmt.Printf("%d/%d bytes\n", sent, total)
//	})
type ProgressFunc func(transferred, total int64)

// OnProgress calls f(transferred, total).
func (f ProgressFunc) OnProgress(transferred, total int64) {
	f(transferred, total)
}
