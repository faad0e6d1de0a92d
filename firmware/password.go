// Package firmware drives the full repackaging pipeline for a stock device
// firmware image: container extraction, chunk reassembly, root filesystem
// customization, recompression, chunk splitting and container creation. The
// squashfs tools and the 7z container binary are external collaborators; the
// password derivations below are protocol constants the device's updater
// reproduces independently, so they must match bit for bit.
package firmware

import (
	"github.com/GehirnInc/crypt/md5_crypt"
	"github.com/GehirnInc/crypt/sha256_crypt"
)

const (
	// containerSalt and containerSuffix were recovered from the stock
	// updater. The firmware archive password is md5-crypt over the board
	// name concatenated with the suffix, using this fixed salt.
	containerSalt   = "cxswfile"
	containerSuffix = "C3_7e_bz"
)

// ContainerPassword derives the password protecting the outer firmware
// archive for a board.
func ContainerPassword(boardName string) (string, error) {
	return md5_crypt.New().Generate([]byte(boardName+containerSuffix), []byte("$1$"+containerSalt))
}

// ShadowHash hashes the root password in the sha256-crypt form the device's
// login accepts. The default 5000 rounds are what the stock image uses; the
// salt is random, which is fine since only the hash ships.
func ShadowHash(password string) (string, error) {
	return sha256_crypt.New().Generate([]byte(password), nil)
}
