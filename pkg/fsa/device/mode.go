package device

import (
	"os"
	"strings"
)

// openMode is a parsed fopen-style mode string.
type openMode struct {
	flag   int
	read   bool
	write  bool
	append bool
}

// parseOpenMode accepts r, w, a, r+, w+, a+ with an optional 'b' anywhere
// after the first character.
func parseOpenMode(mode string) (openMode, bool) {
	if mode == "" {
		return openMode{}, false
	}
	rest := strings.ReplaceAll(mode[1:], "b", "")
	plus := false
	switch rest {
	case "":
	case "+":
		plus = true
	default:
		return openMode{}, false
	}

	var m openMode
	switch mode[0] {
	case 'r':
		m = openMode{flag: os.O_RDONLY, read: true}
	case 'w':
		m = openMode{flag: os.O_WRONLY | os.O_CREATE | os.O_TRUNC, write: true}
	case 'a':
		m = openMode{flag: os.O_WRONLY | os.O_CREATE | os.O_APPEND, write: true, append: true}
	default:
		return openMode{}, false
	}

	if plus {
		m.flag = m.flag&^(os.O_WRONLY|os.O_RDONLY) | os.O_RDWR
		m.read = true
		m.write = true
	}
	return m, true
}

// HostPerm converts a console permission word to a host file mode.
//
// Console permissions spend one hex nibble per class (owner, group, other)
// with read = 4 and write = 2, so 0x660 is owner and group read/write.
func HostPerm(perm uint32) os.FileMode {
	var m os.FileMode
	for shift := 0; shift < 12; shift += 4 {
		nibble := (perm >> shift) & 0x6
		m |= os.FileMode(nibble) << (shift / 4 * 3)
	}
	return m
}

// ConsolePerm converts a host file mode to a console permission word.
func ConsolePerm(m os.FileMode) uint32 {
	var perm uint32
	for class := 0; class < 3; class++ {
		bits := uint32(m.Perm()>>(class*3)) & 0x6
		perm |= bits << (class * 4)
	}
	return perm
}
