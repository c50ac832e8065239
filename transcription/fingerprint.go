package transcription

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// FingerprintPrefixBytes bounds how much of the media file is hashed.
// Hashing a fixed prefix keeps cache lookups fast on multi-gigabyte inputs
// while still distinguishing different recordings.
const FingerprintPrefixBytes = 1 << 20

// MediaHash returns the hex SHA-256 of the first FingerprintPrefixBytes of
// the file at path. It identifies the media content independent of model
// and language.
func MediaHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("transcription: open media for fingerprint: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, io.LimitReader(f, FingerprintPrefixBytes)); err != nil {
		return "", fmt.Errorf("transcription: hash media prefix: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Fingerprint is the full cache key for one (media, model, language) tuple.
// The media hash comes first so Clear can drop every entry for a file with
// a single prefix scan.
func Fingerprint(mediaHash, model, language string) string {
	if language == "" {
		language = "auto"
	}
	return fmt.Sprintf("%s_%s_%s", mediaHash, sanitizeKeyPart(model), sanitizeKeyPart(language))
}

// sanitizeKeyPart makes a model or language identifier safe for use in an
// object key.
func sanitizeKeyPart(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
