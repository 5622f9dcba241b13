// Package proc implements procmem.Backend on top of the host operating system.
//
// Linux uses procfs for enumeration and process_vm_readv for reads, which
// covers native games as well as Windows games running under Wine or Proton.
// Windows uses the Tool Help snapshot API and ReadProcessMemory. Other
// platforms return domain.ErrUnsupportedPlatform.
package proc

import (
	"path/filepath"
	"strings"
)

// normalizeName lowercases a process or file name and strips directories and
// a trailing ".exe".
func normalizeName(name string) string {
	name = strings.ToLower(filepath.Base(strings.ReplaceAll(name, `\`, "/")))
	return strings.TrimSuffix(name, ".exe")
}
