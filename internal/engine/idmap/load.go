package idmap

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	_ "image/png" // region maps are usually PNG
	"io"
	"os"

	_ "golang.org/x/image/bmp"  // legacy map exports
	_ "golang.org/x/image/tiff" // large maps exceed PNG tooling limits

	"github.com/Faultbox/regionatlas/internal/engine/texture"
	"github.com/Faultbox/regionatlas/pkg/regionid"
)

// Load decodes a color-encoded region map (PNG, BMP, TIFF or TGA) from disk.
func Load(path string, maxID regionid.ID) (*Image, error) {
	src, format, err := texture.DecodeFile(path)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}

	img, err := FromImage(src, maxID)
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", path, format, err)
	}
	return img, nil
}

// FileHash returns the hex SHA-256 of a file, used to validate index caches.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
