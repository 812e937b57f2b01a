// Package random is the process-wide source of cryptographic randomness.
package random

import (
	"crypto/rand"
	"fmt"
	"io"

	"keybox/blob"
)

// Data fills b with random bytes. A failure of the underlying source is
// propagated, never retried.
func Data(b []byte) error {
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return fmt.Errorf("random: %w", err)
	}
	return nil
}

// Fill fills the blob's declared size with random bytes.
func Fill(b *blob.Blob) error {
	return Data(b.Bytes())
}
