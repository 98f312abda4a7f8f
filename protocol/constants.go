package protocol

// Frame structure constants.
const (
	// StartMarker is the frame start marker (0xAA)
	StartMarker = 0xAA

	// EndMarker is the frame end marker (0x55)
	EndMarker = 0x55

	// FrameOverhead is the number of non-payload bytes in a frame:
	// START(1) + CODE(1) + LEN(2) + CRC(2) + END(1)
	FrameOverhead = 7

	// MaxPayloadSize is the largest payload the 16-bit length field can describe.
	MaxPayloadSize = 0xFFFF
)

// Basic commands.
const (
	// CmdPing queries device status (heap, storage, uptime)
	CmdPing = 0x01

	// CmdReset restarts the device; the reply may never arrive
	CmdReset = 0x02
)

// File query commands.
const (
	// CmdFileList lists the entries of a directory
	CmdFileList = 0x10

	// CmdFileInfo returns metadata for a single path
	CmdFileInfo = 0x11

	// CmdFileExist reports whether a path exists and whether it is a directory
	CmdFileExist = 0x12
)

// File transfer commands.
const (
	// CmdFileOpen opens the device's single file slot
	CmdFileOpen = 0x20

	// CmdFileData reads or writes one chunk through the open file slot
	CmdFileData = 0x21

	// CmdFileClose closes the file slot; closing an empty slot succeeds
	CmdFileClose = 0x22
)

// File management commands.
const (
	// CmdFileDelete deletes a file
	CmdFileDelete = 0x30

	// CmdDirCreate creates a directory
	CmdDirCreate = 0x31

	// CmdDirDelete deletes a directory and everything below it
	CmdDirDelete = 0x32
)

// Response codes.
const (
	// RespOK indicates the command was executed
	RespOK = 0xE0

	// RespError indicates a generic failure (also sent for CRC and framing errors)
	RespError = 0xE1

	// RespFileNotFound indicates the path does not exist or could not be opened
	RespFileNotFound = 0xE2

	// RespDiskFull indicates the storage is full
	RespDiskFull = 0xE3

	// RespInvalidParam indicates a malformed request or an unknown command
	RespInvalidParam = 0xE4
)

// File open modes carried in the first byte of a CmdFileOpen payload.
const (
	ModeRead   = 0x00
	ModeWrite  = 0x01
	ModeAppend = 0x02
)

// Transfer directions carried in the first byte of a CmdFileData payload.
const (
	DirectionRead  = 0x00
	DirectionWrite = 0x01
)

// Entry kinds as encoded on the wire.
const (
	kindFile      = 0x00
	kindDirectory = 0x01
)

// Device limits.
const (
	// MaxPathLength is the longest path accepted by the device, in bytes.
	// The firmware path buffer is 256 bytes including the terminator.
	MaxPathLength = 255

	// MaxNameLength is the longest entry name a list record can carry.
	MaxNameLength = 255

	// MaxRequestPayload is the largest request payload the firmware buffers (8 KiB).
	MaxRequestPayload = 8192

	// MaxChunkSize is the largest read chunk the firmware returns in one reply.
	MaxChunkSize = 4096

	// DefaultChunkSize is the transfer chunk size used by the host (1 KiB).
	DefaultChunkSize = 1024
)

// Response payload sizes.
const (
	// StatusMinSize is the minimum Ping reply accepted:
	// heap(4) + mounted(1) + total(8) + free(at least the low 4 bytes)
	StatusMinSize = 17

	// statusFreeOffset and statusFreeEnd bound the storage-free field.
	statusFreeOffset = 13
	statusFreeEnd    = 21

	// StatusFullSize is the Ping reply size that includes the optional uptime field.
	StatusFullSize = 25

	// ListRecordHeaderSize is the fixed part of one list record:
	// kind(1) + size(4) + modified(4) + nameLen(1)
	ListRecordHeaderSize = 10

	// StatResponseSize is the data size of a File Info reply.
	StatResponseSize = 13

	// ExistsResponseSize is the data size of a File Exist reply.
	ExistsResponseSize = 2

	// ReadChunkHeaderSize is the EOF flag preceding read chunk data.
	ReadChunkHeaderSize = 1
)
