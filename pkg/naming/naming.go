// Package naming maps human-facing project names to filesystem-safe child
// identifiers and back. Encoding is reversible percent-style escaping that
// round-trips any byte sequence; mangling produces a short deterministic
// directory name for hostile or overlong inputs. Normalize collapses
// equivalent Unicode spellings; identifier derivation applies it so one
// project cannot appear under two spellings of the same name.
package naming

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/agentstation/orgscan/pkg/scm"
)

// maxSafeLength is the longest mangled name used verbatim before the
// hashed form kicks in.
const maxSafeLength = 32

// safeByte reports whether b may appear unescaped in an encoded name.
func safeByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_' || b == '.':
		return true
	}
	return false
}

const hexDigits = "0123456789ABCDEF"

// Normalize collapses equivalent Unicode spellings of a project name
// into the NFC form. Callers deriving identifiers normalize first so a
// precomposed and a combining spelling resolve to one child.
func Normalize(name string) string {
	return norm.NFC.String(name)
}

// Encode converts a project name into a reversible, filesystem-safe path
// segment. Every byte outside [A-Za-z0-9._-] is escaped as %XX, as is a
// leading dot so encoded names never become hidden directories. The
// input is encoded byte for byte; Decode recovers it exactly.
func Encode(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for i := 0; i < len(name); i++ {
		b := name[i]
		if safeByte(b) && b != '%' && !(i == 0 && b == '.') {
			sb.WriteByte(b)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(hexDigits[b>>4])
		sb.WriteByte(hexDigits[b&0x0f])
	}
	return sb.String()
}

// Decode reverses Encode. Malformed escapes are kept literally so that
// decoding never fails on hand-edited directory names.
func Decode(dirID string) string {
	var sb strings.Builder
	sb.Grow(len(dirID))
	for i := 0; i < len(dirID); i++ {
		b := dirID[i]
		if b == '%' && i+2 < len(dirID) {
			hi := hexVal(dirID[i+1])
			lo := hexVal(dirID[i+2])
			if hi != 255 && lo != 255 {
				sb.WriteByte(hi<<4 | lo)
				i += 2
				continue
			}
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'A' && b <= 'F':
		return b - 'A' + 10
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	}
	return 255
}

// Mangle derives the on-disk directory name for a project. Short names
// that are already safe are used as-is; anything else keeps a readable
// prefix and suffix around a short content hash, which is deterministic
// and collision-resistant for practical repository names.
func Mangle(name string) string {
	name = Normalize(name)
	if name == "" {
		return hashOf(name)[:8]
	}
	safe := true
	for i := 0; i < len(name); i++ {
		if !safeByte(name[i]) {
			safe = false
			break
		}
	}
	if safe && len(name) <= maxSafeLength && name[0] != '.' {
		return name
	}
	sanitized := sanitize(name)
	h := hashOf(name)[:8]
	if len(sanitized) <= maxSafeLength-9 {
		return sanitized + "-" + h
	}
	return sanitized[:12] + "-" + h + "-" + sanitized[len(sanitized)-9:]
}

// sanitize replaces every unsafe byte with an underscore.
func sanitize(name string) string {
	out := []byte(name)
	for i, b := range out {
		if !safeByte(b) || (i == 0 && b == '.') {
			out[i] = '_'
		}
	}
	return string(out)
}

func hashOf(name string) string {
	sum := sha256.Sum256([]byte(name))
	return hex.EncodeToString(sum[:])
}

// ChildID resolves the directory identifier for a child project. The
// recorded original name takes precedence over the ideal name derived
// from context; a child with neither keeps its current name.
func ChildID(project scm.Project, idealName string) string {
	if name := project.ProjectName(); name != "" {
		return Encode(Normalize(name))
	}
	if idealName != "" {
		return Encode(Normalize(idealName))
	}
	return project.Name()
}

// FromLegacy recovers the human-facing project name from an identifier
// written by an older encoding scheme. Recording the returned name on
// the child makes the migration a one-time event.
func FromLegacy(legacyDirID string) string {
	return Decode(legacyDirID)
}
