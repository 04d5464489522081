package asset

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
)

// NewID returns a fresh asset identifier in urn:uuid form.
func NewID() string {
	return "urn:uuid:" + uuid.NewString()
}

const hashChunkSize = 1 << 20

// HashFile computes the SHA-256 digest of the file at path, reporting
// fractional completion through progress after every chunk. Cancellation of
// ctx abandons the hash; at most one chunk of work is lost.
func HashFile(ctx context.Context, path string, progress func(float64)) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open asset for hashing: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat asset: %w", err)
	}
	total := info.Size()

	h := sha256.New()
	buf := make([]byte, hashChunkSize)
	var done int64
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
			done += int64(n)
			if progress != nil {
				if total > 0 {
					progress(float64(done) / float64(total))
				} else {
					progress(1)
				}
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("read asset: %w", err)
		}
	}
	if progress != nil {
		progress(1)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
