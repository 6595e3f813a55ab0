package fingerprint

import (
	"fmt"
)

// Compare checks two hex digests and returns an error when they differ. The
// error carries shortened previews so it stays readable in CLI output.
func Compare(expected, actual string) error {
	if expected == actual {
		return nil
	}
	return fmt.Errorf("schema fingerprint mismatch - expected: %s, actual: %s",
		preview(expected), preview(actual))
}

func preview(digest string) string {
	if len(digest) > 16 {
		return digest[:16]
	}
	return digest
}
