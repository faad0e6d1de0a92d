package ota

import "errors"

var (
	// ErrFormat reports an artifact that does not match the required grammar
	// (manifest text or chunk filename). Always fatal: a malformed manifest
	// produces an unbootable device image.
	ErrFormat = errors.New("malformed OTA artifact")
	// ErrIntegrity reports a declared size or digest that does not match the
	// actual content.
	ErrIntegrity = errors.New("OTA integrity mismatch")
	// ErrSequence reports a chunk set with gaps, duplicates or zero members.
	ErrSequence = errors.New("broken chunk sequence")
)
