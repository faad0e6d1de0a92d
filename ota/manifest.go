package ota

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Entry is one partition record of an ota_update.in manifest. All values are
// kept as the strings that appear on the wire; Size in particular is the
// decimal byte count of the unsplit image.
type Entry struct {
	Type string
	Name string
	Size string
	MD5  string
}

// Verify checks the declared size and digest against the actual image file
// at path. A mismatch is an ErrIntegrity and must never be auto-corrected;
// the only designed manifest mutation is UpdateImage on the rootfs entry.
func (e *Entry) Verify(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if got := strconv.FormatInt(fi.Size(), 10); got != e.Size {
		return fmt.Errorf("%w: %s is %s bytes, manifest declares %s", ErrIntegrity, path, got, e.Size)
	}
	d, err := SumFile(path)
	if err != nil {
		return err
	}
	if d.String() != e.MD5 {
		return fmt.Errorf("%w: %s has digest %s, manifest declares %s", ErrIntegrity, path, d, e.MD5)
	}
	return nil
}

// Manifest is the parsed form of an ota_update.in file: the release version
// plus the partition records in file order. Entry types are unique; the
// updater treats img_type as a key.
type Manifest struct {
	Version string
	Entries []Entry
}

// Find returns the entry with the given partition type, or nil.
func (m *Manifest) Find(typ string) *Entry {
	for i := range m.Entries {
		if m.Entries[i].Type == typ {
			return &m.Entries[i]
		}
	}
	return nil
}

// UpdateImage rewrites the declared size and digest of the named partition.
// This is the single designed mutation of a stock manifest, applied after
// the root filesystem is recompressed.
func (m *Manifest) UpdateImage(typ string, size int64, digest Digest) error {
	entry := m.Find(typ)
	if entry == nil {
		return fmt.Errorf("%w: manifest has no %q partition", ErrFormat, typ)
	}
	entry.Size = strconv.FormatInt(size, 10)
	entry.MD5 = digest.String()
	return nil
}

// Section keys in their fixed wire order. The updater reads the file with a
// fixed-format parser, so order is part of the format.
var sectionKeys = [4]string{"img_type", "img_name", "img_size", "img_md5"}

// ParseManifest decodes the ota_update.in grammar: a lone ota_version line,
// then blank-line-separated sections of exactly four img_* lines. One-line
// sections other than the version header are non-data and skipped. A
// duplicate partition type is a hard error rather than a silent overwrite.
func ParseManifest(data []byte) (*Manifest, error) {
	m := &Manifest{}
	seen := make(map[string]bool)
	haveVersion := false

	for _, section := range strings.Split(strings.TrimSpace(string(data)), "\n\n") {
		lines := strings.Split(strings.TrimSpace(section), "\n")
		if len(lines) == 1 {
			key, value, ok := strings.Cut(lines[0], "=")
			if ok && key == "ota_version" {
				if haveVersion {
					return nil, fmt.Errorf("%w: repeated ota_version declaration", ErrFormat)
				}
				m.Version = value
				haveVersion = true
			}
			continue
		}
		if len(lines) != len(sectionKeys) {
			return nil, fmt.Errorf("%w: partition section has %d lines, want %d", ErrFormat, len(lines), len(sectionKeys))
		}

		var fields [4]string
		for i, line := range lines {
			key, value, ok := strings.Cut(line, "=")
			if !ok || key != sectionKeys[i] {
				return nil, fmt.Errorf("%w: expected %q line, got %q", ErrFormat, sectionKeys[i], line)
			}
			fields[i] = value
		}
		entry := Entry{Type: fields[0], Name: fields[1], Size: fields[2], MD5: fields[3]}
		if seen[entry.Type] {
			return nil, fmt.Errorf("%w: duplicate partition type %q", ErrFormat, entry.Type)
		}
		seen[entry.Type] = true
		m.Entries = append(m.Entries, entry)
	}

	if !haveVersion {
		return nil, fmt.Errorf("%w: missing ota_version declaration", ErrFormat)
	}
	return m, nil
}

// ReadManifestFile loads and parses an ota_update.in file.
func ReadManifestFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Encode serializes the manifest back to the exact wire grammar: version
// line, blank line, then each section in fixed key order terminated by a
// blank line. Byte-for-byte output stability is a compatibility requirement.
func (m *Manifest) Encode() []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "ota_version=%s\n\n", m.Version)
	for _, e := range m.Entries {
		fmt.Fprintf(&b, "img_type=%s\nimg_name=%s\nimg_size=%s\nimg_md5=%s\n\n", e.Type, e.Name, e.Size, e.MD5)
	}
	return b.Bytes()
}

// WriteFile serializes the manifest to path. Callers sequence this after the
// referenced chunk sets and images exist so a failure never leaves a
// manifest pointing at missing artifacts.
func (m *Manifest) WriteFile(path string) error {
	return os.WriteFile(path, m.Encode(), 0644)
}

// EncodeConfig renders the one-line ota_config.in contents. The format is
// write-only: no stock ota_config.in is ever read back.
func EncodeConfig(version string) []byte {
	return []byte(fmt.Sprintf("current_version=%s\n", version))
}

// WriteConfigFile writes an ota_config.in file for the given release.
func WriteConfigFile(path, version string) error {
	return os.WriteFile(path, EncodeConfig(version), 0644)
}
