// Package converter turns the binary performance log into CSV analytics.
//
// Each CSV row describes one in-game day transition observed at the chosen
// game speed: the normalized day, the wall-clock ticks the day took, and the
// frame rate and process counters at the transition. Time spent paused is
// excluded from the day that was paused.
package converter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/yndnr/perflog/internal/core/domain"
	"github.com/yndnr/perflog/internal/storage/perflog"
)

// EpochDay is subtracted from the raw day counter.
const EpochDay = 792000

// Header is the first CSV line.
const Header = "day,delta,fps,pagedMemorySize,virtualMemorySize,ioData"

// CompressedExt is appended to the CSV path when compression is requested.
const CompressedExt = ".zst"

// Convert renders logBytes as CSV, keeping only records whose speed equals
// filterSpeed. A trailing partial record is ignored.
func Convert(logBytes []byte, filterSpeed int32) string {
	var (
		rows            []string
		first           = true
		prevDay         int32
		prevTicks       int64
		isPaused        bool
		transitionDelta int64
	)

	for _, rec := range perflog.Decode(logBytes) {
		if rec.Speed != filterSpeed {
			continue
		}
		day := rec.Day - EpochDay
		if first {
			prevDay = day
		}

		delta := rec.Ticks - prevTicks
		if rec.Paused {
			isPaused = true
			transitionDelta = delta
			if first {
				transitionDelta = 0
			}
		}

		if day != prevDay {
			if !rec.Paused && isPaused {
				isPaused = false
				delta += transitionDelta
			}
			rows = append(rows, row(day, delta, rec))
		}

		prevDay = day
		prevTicks = rec.Ticks
		first = false
	}

	var sb strings.Builder
	sb.WriteString(Header)
	sb.WriteByte('\n')
	sb.WriteString(strings.Join(rows, "\n"))
	return sb.String()
}

func row(day int32, delta int64, rec domain.Record) string {
	fields := [...]string{
		strconv.FormatInt(int64(day), 10),
		strconv.FormatInt(delta, 10),
		strconv.FormatFloat(float64(rec.FPS), 'f', -1, 32),
		strconv.FormatInt(rec.PagedMemorySize, 10),
		strconv.FormatInt(rec.VirtualMemorySize, 10),
		strconv.FormatFloat(rec.IOData, 'f', -1, 64),
	}
	return strings.Join(fields[:], ",")
}

// Speeds returns the distinct game speeds present in logBytes, ascending.
func Speeds(logBytes []byte) []int32 {
	seen := make(map[int32]struct{})
	for _, rec := range perflog.Decode(logBytes) {
		seen[rec.Speed] = struct{}{}
	}
	out := make([]int32, 0, len(seen))
	for s := range seen {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ConvertFile converts logPath into csvPath and returns the path written.
// With compress set the output is zstd-compressed and CompressedExt is
// appended to csvPath.
func ConvertFile(logPath, csvPath string, filterSpeed int32, compress bool) (string, error) {
	data, err := os.ReadFile(logPath)
	if errors.Is(err, fs.ErrNotExist) {
		return "", domain.ErrLogNotFound.WithDetails(logPath)
	}
	if err != nil {
		return "", fmt.Errorf("read log: %w", err)
	}

	out := []byte(Convert(data, filterSpeed))
	if compress {
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return "", fmt.Errorf("zstd encoder: %w", err)
		}
		out = enc.EncodeAll(out, nil)
		_ = enc.Close()
		csvPath += CompressedExt
	}

	if err := os.WriteFile(csvPath, out, 0644); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return csvPath, nil
}
