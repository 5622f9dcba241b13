package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// PointerPath is an ordered chain of offsets walked from a module base
// address. Every offset but the last is followed by an 8-byte dereference.
type PointerPath struct {
	offsets []int32
}

// NewPointerPath creates a pointer path from offsets. The slice is copied.
func NewPointerPath(offsets ...int32) (PointerPath, error) {
	if len(offsets) == 0 {
		return PointerPath{}, ErrInvalidPointerPath.WithDetails("path is empty")
	}
	cp := make([]int32, len(offsets))
	copy(cp, offsets)
	return PointerPath{offsets: cp}, nil
}

// MustPointerPath is like NewPointerPath but panics on error.
// Intended for tests and static tables.
func MustPointerPath(offsets ...int32) PointerPath {
	p, err := NewPointerPath(offsets...)
	if err != nil {
		panic(err)
	}
	return p
}

// ParsePointerPath parses a comma-separated list of hex offsets such as
// "2A1B4C8,10,3C". A "0x" prefix is optional. Values above 7FFFFFFF are
// taken as two's complement, so "FFFFFFF8" is -8.
func ParsePointerPath(s string) (PointerPath, error) {
	if strings.TrimSpace(s) == "" {
		return PointerPath{}, ErrInvalidPointerPath.WithDetails("path is empty")
	}

	parts := strings.Split(s, ",")
	offsets := make([]int32, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		part = strings.TrimPrefix(strings.TrimPrefix(part, "0x"), "0X")
		v, err := strconv.ParseUint(part, 16, 32)
		if err != nil {
			return PointerPath{}, ErrInvalidPointerPath.WithDetails(fmt.Sprintf("offset %q", part)).WithCause(err)
		}
		offsets = append(offsets, int32(uint32(v)))
	}
	return PointerPath{offsets: offsets}, nil
}

// Len returns the number of offsets.
func (p PointerPath) Len() int {
	return len(p.offsets)
}

// IsZero reports whether the path has no offsets.
func (p PointerPath) IsZero() bool {
	return len(p.offsets) == 0
}

// Offsets returns a copy of the offsets.
func (p PointerPath) Offsets() []int32 {
	cp := make([]int32, len(p.offsets))
	copy(cp, p.offsets)
	return cp
}

// String formats the path the same way ParsePointerPath reads it.
func (p PointerPath) String() string {
	parts := make([]string, len(p.offsets))
	for i, o := range p.offsets {
		parts[i] = strings.ToUpper(strconv.FormatUint(uint64(uint32(o)), 16))
	}
	return strings.Join(parts, ",")
}
