package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// pushAlphabet is ordered by ASCII value so that encoded timestamps compare
// lexically the same way they compare numerically.
const pushAlphabet = "-0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ_abcdefghijklmnopqrstuvwxyz"

const pushSuffixLen = 12

// newPushKey generates a 20-character child key: an 8-character encoding of
// the current millisecond timestamp followed by 12 random characters. Keys
// created later always sort lexically after keys created earlier; ties within
// the same millisecond fall back to the random suffix.
func newPushKey(now time.Time) string {
	ms := now.UnixMilli()

	var b [8]byte
	for i := 7; i >= 0; i-- {
		b[i] = pushAlphabet[ms%64]
		ms /= 64
	}

	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return string(b[:]) + suffix[:pushSuffixLen]
}
