package protocol

import (
	"encoding/binary"
)

// ParseStatusResponse parses the Ping reply.
//
// Data format (StatusFullSize bytes, StatusMinSize accepted):
//
//	[HEAP(4)][MOUNTED(1)][TOTAL(8)][FREE(8)][UPTIME(4)]
//
// Older firmware sends a shorter reply. Fields are decoded from the bytes that are
// present: a partial FREE field is zero-extended and a missing UPTIME reads as 0.
func ParseStatusResponse(data []byte) (*StatusInfo, error) {
	if len(data) < StatusMinSize {
		return nil, &ShortResponseError{Operation: "ping", Got: len(data), Want: StatusMinSize}
	}

	info := &StatusInfo{
		HeapFree:       binary.LittleEndian.Uint32(data[0:4]),
		StorageMounted: data[4] != 0,
		StorageTotal:   binary.LittleEndian.Uint64(data[5:13]),
		StorageFree:    uintLE(data[statusFreeOffset:min(len(data), statusFreeEnd)]),
	}
	if len(data) >= StatusFullSize {
		info.UptimeSeconds = binary.LittleEndian.Uint32(data[statusFreeEnd:StatusFullSize])
	}

	return info, nil
}

// EncodeStatusResponse builds a full Ping reply.
func EncodeStatusResponse(info StatusInfo) []byte {
	data := make([]byte, 0, StatusFullSize)
	data = binary.LittleEndian.AppendUint32(data, info.HeapFree)
	data = append(data, boolByte(info.StorageMounted))
	data = binary.LittleEndian.AppendUint64(data, info.StorageTotal)
	data = binary.LittleEndian.AppendUint64(data, info.StorageFree)
	data = binary.LittleEndian.AppendUint32(data, info.UptimeSeconds)
	return data
}

// ParseListResponse parses a directory listing.
//
// Data format, repeated:
//
//	[KIND(1)][SIZE(4)][MODIFIED(4)][NAME_LEN(1)][NAME...]
//
// Parsing stops at the first record that is incomplete, either because fewer than
// ListRecordHeaderSize bytes remain or because the name is cut short. The entries
// decoded up to that point are returned; a truncated tail is not an error.
func ParseListResponse(data []byte) []DirEntry {
	var entries []DirEntry
	pos := 0

	for pos < len(data) {
		if len(data)-pos < ListRecordHeaderSize {
			break
		}
		rec := data[pos:]
		nameLen := int(rec[9])
		if len(rec) < ListRecordHeaderSize+nameLen {
			break
		}

		entries = append(entries, DirEntry{
			Kind:     kindOf(rec[0]),
			Size:     binary.LittleEndian.Uint32(rec[1:5]),
			Modified: binary.LittleEndian.Uint32(rec[5:9]),
			Name:     string(rec[ListRecordHeaderSize : ListRecordHeaderSize+nameLen]),
		})
		pos += ListRecordHeaderSize + nameLen
	}

	return entries
}

// AppendDirEntry appends one list record for e to buf.
// Names longer than MaxNameLength are cut to fit the one-byte length field.
func AppendDirEntry(buf []byte, e DirEntry) []byte {
	name := e.Name
	if len(name) > MaxNameLength {
		name = name[:MaxNameLength]
	}
	buf = append(buf, byte(e.Kind))
	buf = binary.LittleEndian.AppendUint32(buf, e.Size)
	buf = binary.LittleEndian.AppendUint32(buf, e.Modified)
	buf = append(buf, byte(len(name)))
	return append(buf, name...)
}

// ParseStatResponse parses the File Info reply.
//
// Data format (StatResponseSize bytes):
//
//	[KIND(1)][SIZE(4)][CREATED(4)][MODIFIED(4)]
//
// Unlike listings, a short reply is a protocol error.
func ParseStatResponse(data []byte) (*FileMeta, error) {
	if len(data) < StatResponseSize {
		return nil, &ShortResponseError{Operation: "stat", Got: len(data), Want: StatResponseSize}
	}

	return &FileMeta{
		Kind:     kindOf(data[0]),
		Size:     binary.LittleEndian.Uint32(data[1:5]),
		Created:  binary.LittleEndian.Uint32(data[5:9]),
		Modified: binary.LittleEndian.Uint32(data[9:13]),
	}, nil
}

// EncodeStatResponse builds a File Info reply.
func EncodeStatResponse(m FileMeta) []byte {
	data := make([]byte, 0, StatResponseSize)
	data = append(data, byte(m.Kind))
	data = binary.LittleEndian.AppendUint32(data, m.Size)
	data = binary.LittleEndian.AppendUint32(data, m.Created)
	data = binary.LittleEndian.AppendUint32(data, m.Modified)
	return data
}

// ParseExistsResponse parses the File Exist reply.
//
// Data format (ExistsResponseSize bytes):
//
//	[EXISTS(1)][IS_DIR(1)]
func ParseExistsResponse(data []byte) (*ExistsInfo, error) {
	if len(data) < ExistsResponseSize {
		return nil, &ShortResponseError{Operation: "exists", Got: len(data), Want: ExistsResponseSize}
	}

	info := &ExistsInfo{Exists: data[0] != 0}
	if info.Exists {
		info.Kind = kindOf(data[1])
	}
	return info, nil
}

// EncodeExistsResponse builds a File Exist reply.
func EncodeExistsResponse(info ExistsInfo) []byte {
	if !info.Exists {
		return []byte{0, 0}
	}
	return []byte{1, byte(info.Kind)}
}

// ParseReadChunkResponse parses a read-direction File Data reply.
//
// Data format:
//
//	[EOF(1)][CHUNK...]
//
// The chunk may be empty when EOF is set.
func ParseReadChunkResponse(data []byte) (*ReadChunk, error) {
	if len(data) < ReadChunkHeaderSize {
		return nil, &ShortResponseError{Operation: "read", Got: len(data), Want: ReadChunkHeaderSize}
	}

	return &ReadChunk{
		EOF:  data[0] != 0,
		Data: data[ReadChunkHeaderSize:],
	}, nil
}

// EncodeReadChunkResponse builds a read-direction File Data reply.
func EncodeReadChunkResponse(eof bool, chunk []byte) []byte {
	data := make([]byte, 0, ReadChunkHeaderSize+len(chunk))
	data = append(data, boolByte(eof))
	return append(data, chunk...)
}

// uintLE decodes up to 8 little-endian bytes, zero-extending missing high bytes.
func uintLE(b []byte) uint64 {
	var v uint64
	for i := len(b) - 1; i >= 0; i-- {
		v = v<<8 | uint64(b[i])
	}
	return v
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
