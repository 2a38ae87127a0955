package idmap

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pierrec/lz4"

	"github.com/Faultbox/regionatlas/pkg/regionid"
)

var (
	// ErrStaleCache is returned when a cache was built from a different source file.
	ErrStaleCache = errors.New("index cache is stale")

	// ErrBadCache is returned for caches that are not ours or are truncated.
	ErrBadCache = errors.New("invalid index cache")
)

const (
	cacheMagic   = "RIDX"
	cacheVersion = 2
)

// cacheHeader is the fixed-size uncompressed prefix of an index cache.
type cacheHeader struct {
	Magic   [4]byte
	Version uint16
	_       uint16
	Width   uint32
	Height  uint32
	Regions uint32
	MaxID   uint32 // declared max of the source map
	Hash    [64]byte // hex SHA-256 of the source map
}

// SaveIndex writes idx to w. The payload (dense-to-source table followed by
// the dense RGB pixels) is LZ4 compressed.
func SaveIndex(w io.Writer, idx *Index, sourceHash string) error {
	h := cacheHeader{
		Version: cacheVersion,
		Width:   uint32(idx.Dense.width),
		Height:  uint32(idx.Dense.height),
		Regions: uint32(idx.Len()),
		MaxID:   uint32(idx.sourceMax),
	}
	copy(h.Magic[:], cacheMagic)
	copy(h.Hash[:], sourceHash)

	if err := binary.Write(w, binary.LittleEndian, &h); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	zw := lz4.NewWriter(w)
	table := make([]uint32, len(idx.denseToReal))
	for i, id := range idx.denseToReal {
		table[i] = uint32(id)
	}
	if err := binary.Write(zw, binary.LittleEndian, table); err != nil {
		zw.Close()
		return fmt.Errorf("writing id table: %w", err)
	}
	if _, err := zw.Write(idx.Dense.pix); err != nil {
		zw.Close()
		return fmt.Errorf("writing pixels: %w", err)
	}
	return zw.Close()
}

// LoadIndex reads an index written by SaveIndex. sourceHash must match the
// hash recorded at save time, otherwise ErrStaleCache is returned.
func LoadIndex(r io.Reader, sourceHash string) (*Index, error) {
	var h cacheHeader
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		return nil, fmt.Errorf("%w: header: %v", ErrBadCache, err)
	}
	if string(h.Magic[:]) != cacheMagic || h.Version != cacheVersion {
		return nil, fmt.Errorf("%w: magic %q version %d", ErrBadCache, h.Magic[:], h.Version)
	}
	if strings.TrimRight(string(h.Hash[:]), "\x00") != sourceHash {
		return nil, ErrStaleCache
	}
	if err := regionid.Check(h.Regions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadCache, err)
	}
	if err := regionid.Check(h.MaxID); err != nil {
		return nil, fmt.Errorf("%w: source max: %v", ErrBadCache, err)
	}

	zr := lz4.NewReader(r)
	table := make([]uint32, h.Regions+1)
	if err := binary.Read(zr, binary.LittleEndian, table); err != nil {
		return nil, fmt.Errorf("%w: id table: %v", ErrBadCache, err)
	}
	pix := make([]byte, int(h.Width)*int(h.Height)*3)
	if _, err := io.ReadFull(zr, pix); err != nil {
		return nil, fmt.Errorf("%w: pixels: %v", ErrBadCache, err)
	}

	idx := &Index{
		sourceMax:   regionid.ID(h.MaxID),
		denseToReal: make([]regionid.ID, len(table)),
		realToDense: make(map[regionid.ID]regionid.ID, len(table)),
		Dense: &Image{
			width:  int(h.Width),
			height: int(h.Height),
			maxID:  regionid.ID(h.Regions),
			pix:    pix,
		},
	}
	for d, v := range table {
		if !regionid.Valid(v) {
			return nil, fmt.Errorf("%w: source id %d", ErrBadCache, v)
		}
		idx.denseToReal[d] = regionid.ID(v)
		idx.realToDense[regionid.ID(v)] = regionid.ID(d)
	}
	return idx, nil
}

// CachedReindex returns the dense index for the map at sourcePath, reading it
// from cacheDir when the cache matches the source file and its declared max,
// and rebuilding (and rewriting the cache) otherwise. hit reports whether the
// cache was used.
func CachedReindex(cacheDir, sourcePath string, src *Image) (idx *Index, hit bool, err error) {
	hash, err := FileHash(sourcePath)
	if err != nil {
		return nil, false, fmt.Errorf("hashing %s: %w", sourcePath, err)
	}

	base := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	cachePath := filepath.Join(cacheDir, base+"_index.ridx")

	if data, err := os.ReadFile(cachePath); err == nil {
		idx, err := LoadIndex(bytes.NewReader(data), hash)
		if err == nil && idx.sourceMax == src.maxID {
			return idx, true, nil
		}
		// Stale, corrupt or re-declared caches are rebuilt below.
	}

	idx, err = Reindex(src)
	if err != nil {
		return nil, false, err
	}

	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return idx, false, fmt.Errorf("creating cache dir: %w", err)
	}
	f, err := os.CreateTemp(cacheDir, ".index-*.ridx")
	if err != nil {
		return idx, false, fmt.Errorf("creating cache: %w", err)
	}
	defer os.Remove(f.Name()) // no-op after a successful rename

	bw := bufio.NewWriter(f)
	if err := SaveIndex(bw, idx, hash); err != nil {
		f.Close()
		return idx, false, err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		return idx, false, fmt.Errorf("writing cache: %w", err)
	}
	if err := f.Close(); err != nil {
		return idx, false, fmt.Errorf("writing cache: %w", err)
	}
	return idx, false, os.Rename(f.Name(), cachePath)
}
