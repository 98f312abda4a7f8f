package protocol

import "time"

// EntryKind distinguishes files from directories.
type EntryKind byte

const (
	KindFile      EntryKind = kindFile
	KindDirectory EntryKind = kindDirectory
)

func (k EntryKind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

func kindOf(b byte) EntryKind {
	if b != 0 {
		return KindDirectory
	}
	return KindFile
}

// StatusInfo is a device status snapshot.
// Returned by the Ping command.
type StatusInfo struct {
	// HeapFree is the free heap in bytes
	HeapFree uint32

	// StorageMounted reports whether the SD card is mounted
	StorageMounted bool

	// StorageTotal is the storage capacity in bytes
	StorageTotal uint64

	// StorageFree is the free storage in bytes
	StorageFree uint64

	// UptimeSeconds is the time since boot; 0 when the firmware does not report it
	UptimeSeconds uint32
}

// Uptime returns UptimeSeconds as a duration.
func (s StatusInfo) Uptime() time.Duration {
	return time.Duration(s.UptimeSeconds) * time.Second
}

// DirEntry is one record of a directory listing.
// Listings are unordered; callers sort for presentation.
type DirEntry struct {
	Name string
	Kind EntryKind

	// Size is meaningful only for files
	Size uint32

	// Modified is the modification time in epoch seconds
	Modified uint32
}

// IsDir reports whether the entry is a directory.
func (e DirEntry) IsDir() bool {
	return e.Kind == KindDirectory
}

// ModTime returns Modified as a time.Time.
func (e DirEntry) ModTime() time.Time {
	return time.Unix(int64(e.Modified), 0)
}

// FileMeta is the metadata of a single path.
// Returned by the File Info command.
type FileMeta struct {
	Kind     EntryKind
	Size     uint32
	Created  uint32
	Modified uint32
}

// IsDir reports whether the path is a directory.
func (m FileMeta) IsDir() bool {
	return m.Kind == KindDirectory
}

// ExistsInfo is the reply of the File Exist command.
type ExistsInfo struct {
	Exists bool

	// Kind is only meaningful when Exists is true
	Kind EntryKind
}

// ReadChunk is one reply to a read-direction File Data command.
type ReadChunk struct {
	EOF  bool
	Data []byte
}
