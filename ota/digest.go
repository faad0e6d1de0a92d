// Package ota implements the on-disk OTA layout consumed by the device
// updater: fixed-size image chunks whose filenames carry the digest of the
// preceding chunk, a separate chain file listing every chunk's own digest in
// order, and the ota_update.in/ota_config.in manifest formats.
//
// The chunk naming scheme and the manifest grammar are protocol constants.
// The updater on the device parses both with a fixed-format reader, so any
// deviation (reordered keys, missing blank lines, "corrected" digest
// placement) produces an update package the device rejects or, worse,
// applies incorrectly.
package ota

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// Digest is the 128-bit content digest the OTA format uses everywhere: chunk
// filenames, chain files and manifest img_md5 fields.
type Digest [md5.Size]byte

// Sum returns the digest of b.
func Sum(b []byte) Digest {
	return md5.Sum(b)
}

// SumReader digests r until EOF.
func SumReader(r io.Reader) (Digest, error) {
	h := md5.New()
	if _, err := io.Copy(h, r); err != nil {
		return Digest{}, err
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d, nil
}

// SumFile digests the file at path using streaming reads so memory use is
// independent of the file size.
func SumFile(path string) (Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return Digest{}, err
	}
	defer f.Close()
	return SumReader(f)
}

// String renders the digest as 32 lowercase hex characters, the encoding
// used in every OTA artifact.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ParseDigest decodes a 32-character hex digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	if len(s) != hex.EncodedLen(md5.Size) {
		return d, fmt.Errorf("%w: digest %q must be %d hex characters", ErrFormat, s, hex.EncodedLen(md5.Size))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("%w: digest %q: %v", ErrFormat, s, err)
	}
	copy(d[:], b)
	return d, nil
}
