package roles

import (
	"strings"
	"unicode"
)

// keyNamespace prefixes every normalized speaker key so keys are
// distinguishable from raw tags wherever they appear in logs or storage.
const keyNamespace = "spk:"

// SpeakerKey converts a raw speaker identifier into the canonical key used
// for role assignments: lower-case, whitespace runs become a single
// underscore, everything that is not a letter, digit, or underscore is
// dropped, and the result carries a fixed namespace prefix. An identifier
// with no usable characters yields the empty string.
//
// Every call site that produces or looks up an assignment must use this
// function. A second implementation of this mapping anywhere in the program
// would let the same speaker resolve to different keys on different paths.
func SpeakerKey(raw string) string {
	lowered := strings.ToLower(strings.TrimSpace(raw))
	if lowered == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(lowered))
	pendingSep := false
	wrote := false
	for _, r := range lowered {
		if unicode.IsSpace(r) {
			pendingSep = true
			continue
		}
		if r != '_' && !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		if pendingSep && wrote {
			b.WriteRune('_')
		}
		pendingSep = false
		b.WriteRune(r)
		wrote = true
	}

	key := strings.Trim(b.String(), "_")
	if key == "" {
		return ""
	}
	return keyNamespace + key
}
