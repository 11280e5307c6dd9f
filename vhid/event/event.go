package event

import (
	"encoding/binary"
)

// Event types from input-event-codes.h.
const (
	TypeSync     uint16 = 0x00
	TypeKey      uint16 = 0x01
	TypeRelative uint16 = 0x02

	SynReport uint16 = 0x00
)

// RecordSize is sizeof(struct input_event) on 64-bit Linux:
// two int64 timeval fields, type, code, value.
const RecordSize = 24

// Record is one low-level input_event report line. The timestamp is always
// zero-filled on the wire, the kernel stamps events itself.
type Record struct {
	Type  uint16
	Code  uint16
	Value int32
}

func (r Record) IsSync() bool {
	return r.Type == TypeSync
}

func Sync() Record {
	return Record{Type: TypeSync, Code: SynReport, Value: 0}
}

// EncodeBatch lays records out back to back in the byte order the kernel
// input subsystem expects. Order of the input slice is preserved.
func EncodeBatch(records []Record) []byte {
	buf := make([]byte, len(records)*RecordSize)
	for i, r := range records {
		off := i * RecordSize
		// bytes [0:16] are the zeroed timeval
		binary.LittleEndian.PutUint16(buf[off+16:off+18], r.Type)
		binary.LittleEndian.PutUint16(buf[off+18:off+20], r.Code)
		binary.LittleEndian.PutUint32(buf[off+20:off+24], uint32(r.Value))
	}
	return buf
}
