// Package snapshot persists the last observed sample of a session.
//
// Each sampled quantity is stored raw in its own file:
//
//	dayLast.bin        4 bytes
//	gameSpeedLast.bin  4 bytes
//	gameStateLast.bin  1 byte
//	fpsLast.bin        4 bytes
//
// Files are replaced atomically (temp file, sync, rename) so that a crash
// never leaves a torn snapshot. A file of the wrong length is treated as
// missing.
package snapshot
