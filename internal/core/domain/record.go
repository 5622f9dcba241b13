package domain

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// RecordSize is the fixed on-disk size of one log record.
const RecordSize = 45

// Byte offsets of the record fields.
const (
	offDay     = 0
	offTicks   = 4
	offSpeed   = 12
	offPaused  = 16
	offFPS     = 17
	offPaged   = 21
	offVirtual = 29
	offIO      = 37
)

// ticksPerSecond and unixEpochTicks describe the log clock: 100ns ticks
// counted from 0001-01-01T00:00:00Z.
const (
	ticksPerSecond = 10_000_000
	unixEpochTicks = 621_355_968_000_000_000
)

// Ticks converts t to log clock ticks.
func Ticks(t time.Time) int64 {
	return t.UTC().Unix()*ticksPerSecond + int64(t.UTC().Nanosecond()/100) + unixEpochTicks
}

// TicksToTime converts log clock ticks back to a time.
func TicksToTime(ticks int64) time.Time {
	rel := ticks - unixEpochTicks
	return time.Unix(rel/ticksPerSecond, (rel%ticksPerSecond)*100).UTC()
}

// Record is one entry of the binary performance log.
type Record struct {
	Day               int32
	Ticks             int64
	Speed             int32
	Paused            bool
	FPS               float32
	PagedMemorySize   int64
	VirtualMemorySize int64
	IOData            float64
}

// NewRecord builds a record from a raw sample.
func NewRecord(s Sample, ticks int64, stats ProcessStats) Record {
	return Record{
		Day:               int32(binary.LittleEndian.Uint32(s.Day[:])),
		Ticks:             ticks,
		Speed:             int32(binary.LittleEndian.Uint32(s.GameSpeed[:])),
		Paused:            s.GameState[0] != 0,
		FPS:               math.Float32frombits(binary.LittleEndian.Uint32(s.FPS[:])),
		PagedMemorySize:   stats.PagedMemorySize,
		VirtualMemorySize: stats.VirtualMemorySize,
		IOData:            stats.IOData,
	}
}

// AppendTo appends the little-endian encoding of r to b.
func (r Record) AppendTo(b []byte) []byte {
	var buf [RecordSize]byte
	r.put(buf[:])
	return append(b, buf[:]...)
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (r Record) MarshalBinary() ([]byte, error) {
	return r.AppendTo(make([]byte, 0, RecordSize)), nil
}

func (r Record) put(b []byte) {
	binary.LittleEndian.PutUint32(b[offDay:], uint32(r.Day))
	binary.LittleEndian.PutUint64(b[offTicks:], uint64(r.Ticks))
	binary.LittleEndian.PutUint32(b[offSpeed:], uint32(r.Speed))
	if r.Paused {
		b[offPaused] = 1
	} else {
		b[offPaused] = 0
	}
	binary.LittleEndian.PutUint32(b[offFPS:], math.Float32bits(r.FPS))
	binary.LittleEndian.PutUint64(b[offPaged:], uint64(r.PagedMemorySize))
	binary.LittleEndian.PutUint64(b[offVirtual:], uint64(r.VirtualMemorySize))
	binary.LittleEndian.PutUint64(b[offIO:], math.Float64bits(r.IOData))
}

// DecodeRecord decodes one record from the first RecordSize bytes of b.
func DecodeRecord(b []byte) (Record, error) {
	if len(b) < RecordSize {
		return Record{}, fmt.Errorf("record: need %d bytes, have %d", RecordSize, len(b))
	}
	return Record{
		Day:               int32(binary.LittleEndian.Uint32(b[offDay:])),
		Ticks:             int64(binary.LittleEndian.Uint64(b[offTicks:])),
		Speed:             int32(binary.LittleEndian.Uint32(b[offSpeed:])),
		Paused:            b[offPaused] != 0,
		FPS:               math.Float32frombits(binary.LittleEndian.Uint32(b[offFPS:])),
		PagedMemorySize:   int64(binary.LittleEndian.Uint64(b[offPaged:])),
		VirtualMemorySize: int64(binary.LittleEndian.Uint64(b[offVirtual:])),
		IOData:            math.Float64frombits(binary.LittleEndian.Uint64(b[offIO:])),
	}, nil
}
