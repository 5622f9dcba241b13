package domain

// Raw sizes of the sampled quantities.
const (
	DaySize       = 4
	GameSpeedSize = 4
	GameStateSize = 1
	FPSSize       = 4
)

// Sample is one polling tick's raw observation.
type Sample struct {
	Day       [DaySize]byte
	GameSpeed [GameSpeedSize]byte
	GameState [GameStateSize]byte
	FPS       [FPSSize]byte
}

// Changed reports whether day, game speed or game state differ from prev.
// FPS is deliberately not compared.
func (s Sample) Changed(prev Sample) bool {
	return s.Day != prev.Day || s.GameSpeed != prev.GameSpeed || s.GameState != prev.GameState
}

// ProcessStats holds resource counters of the target process.
type ProcessStats struct {
	// PagedMemorySize is the paged (committed/resident) memory in bytes.
	PagedMemorySize int64
	// VirtualMemorySize is the virtual address space size in bytes.
	VirtualMemorySize int64
	// IOData is the cumulative number of bytes read and written.
	IOData float64
}
