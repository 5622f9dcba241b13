package domain

import (
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecord_Layout(t *testing.T) {
	r := Record{
		Day:               792100,
		Ticks:             638000000000000000,
		Speed:             3,
		Paused:            true,
		FPS:               59.5,
		PagedMemorySize:   1 << 30,
		VirtualMemorySize: 4 << 30,
		IOData:            12345.5,
	}

	b, err := r.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, RecordSize)

	assert.Equal(t, uint32(792100), binary.LittleEndian.Uint32(b[0:4]))
	assert.Equal(t, uint64(638000000000000000), binary.LittleEndian.Uint64(b[4:12]))
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(b[12:16]))
	assert.Equal(t, byte(1), b[16])
	assert.Equal(t, float32(59.5), math.Float32frombits(binary.LittleEndian.Uint32(b[17:21])))
	assert.Equal(t, uint64(1<<30), binary.LittleEndian.Uint64(b[21:29]))
	assert.Equal(t, uint64(4<<30), binary.LittleEndian.Uint64(b[29:37]))
	assert.Equal(t, 12345.5, math.Float64frombits(binary.LittleEndian.Uint64(b[37:45])))

	back, err := DecodeRecord(b)
	require.NoError(t, err)
	assert.Equal(t, r, back)
}

func TestDecodeRecord_Short(t *testing.T) {
	_, err := DecodeRecord(make([]byte, RecordSize-1))
	assert.Error(t, err)
}

func TestNewRecord_FromRawSample(t *testing.T) {
	var s Sample
	binary.LittleEndian.PutUint32(s.Day[:], 792001)
	binary.LittleEndian.PutUint32(s.GameSpeed[:], 5)
	s.GameState[0] = 1
	binary.LittleEndian.PutUint32(s.FPS[:], math.Float32bits(144))

	r := NewRecord(s, 42, ProcessStats{PagedMemorySize: 7, VirtualMemorySize: 8, IOData: 9})

	assert.Equal(t, int32(792001), r.Day)
	assert.Equal(t, int64(42), r.Ticks)
	assert.Equal(t, int32(5), r.Speed)
	assert.True(t, r.Paused)
	assert.Equal(t, float32(144), r.FPS)
	assert.Equal(t, int64(7), r.PagedMemorySize)
	assert.Equal(t, int64(8), r.VirtualMemorySize)
	assert.Equal(t, 9.0, r.IOData)
}

func TestSample_Changed(t *testing.T) {
	var a Sample
	binary.LittleEndian.PutUint32(a.Day[:], 100)

	b := a
	binary.LittleEndian.PutUint32(b.FPS[:], math.Float32bits(60))
	assert.False(t, b.Changed(a), "fps alone must not count as a change")

	c := a
	c.GameState[0] = 1
	assert.True(t, c.Changed(a))

	d := a
	d.GameSpeed[0] = 2
	assert.True(t, d.Changed(a))
}

func TestTicks(t *testing.T) {
	assert.Equal(t, int64(unixEpochTicks), Ticks(time.Unix(0, 0)))

	now := time.Date(2024, 5, 1, 12, 30, 0, 123456700, time.UTC)
	assert.True(t, now.Equal(TicksToTime(Ticks(now))))
	assert.Equal(t, int64(ticksPerSecond), Ticks(now.Add(time.Second))-Ticks(now))
}
