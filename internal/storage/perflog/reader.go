package perflog

import (
	"fmt"
	"os"

	"github.com/yndnr/perflog/internal/core/domain"
)

// Decode splits data into records. A trailing partial record is ignored.
func Decode(data []byte) []domain.Record {
	n := len(data) / domain.RecordSize
	out := make([]domain.Record, 0, n)
	for i := 0; i < n; i++ {
		rec, err := domain.DecodeRecord(data[i*domain.RecordSize:])
		if err != nil {
			break
		}
		out = append(out, rec)
	}
	return out
}

// ReadFile reads all records in path.
func ReadFile(path string) ([]domain.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("perflog: read: %w", err)
	}
	return Decode(data), nil
}

// Stat returns the number of complete records in path and the file size.
func Stat(path string) (records int64, size int64, err error) {
	st, err := os.Stat(path)
	if err != nil {
		return 0, 0, err
	}
	return st.Size() / domain.RecordSize, st.Size(), nil
}
