package media

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"strconv"
	"strings"

	"subgen/internal/services"
)

// Fingerprint derives a stable identity for a source media file from its
// absolute path, size, and modification time. Two runs against an unchanged
// file share a fingerprint and therefore a working directory; editing the
// file invalidates prior work.
func Fingerprint(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", services.Wrap(services.ErrMediaRead, "media", "fingerprint", "source file is unreadable", err)
	}
	raw := strings.Join([]string{
		"source_v1",
		path,
		strconv.FormatInt(info.Size(), 10),
		strconv.FormatInt(info.ModTime().UnixNano(), 10),
	}, "|")
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16]), nil
}
