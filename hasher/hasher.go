package hasher

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/exp/mmap"
	"lukechampine.com/blake3"
)

// Files are read in fixed 4096-byte chunks so memory stays bounded no
// matter how large the input is.
const chunkSize = 4096

// DefaultAlgorithm keys reputation lookups; public hash-reputation
// services index content by sha256.
const DefaultAlgorithm = "sha256"

var chunkPool = sync.Pool{
	New: func() interface{} {
		buf := make([]byte, chunkSize)
		return &buf
	},
}

var openMmapReader = mmap.Open

// Options control how file content is read while digesting.
type Options struct {
	// ReadMode is one of "stream", "mmap", or "auto". Empty means stream.
	ReadMode string
	// MmapMinSize is the minimum file size for the mmap path in auto mode.
	MmapMinSize int64
}

// Supported reports whether algorithm names a known digest.
func Supported(algorithm string) bool {
	_, err := newDigest(algorithm)
	return err == nil
}

func newDigest(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case "md5":
		return md5.New(), nil
	case "sha1":
		return sha1.New(), nil
	case "sha256":
		return sha256.New(), nil
	case "blake3":
		return blake3.New(32, nil), nil
	case "xxh64":
		return xxhash.New(), nil
	default:
		return nil, fmt.Errorf("unsupported digest algorithm: %s", algorithm)
	}
}

// Compute returns the lowercase hex digest of the file's full content.
// Two files with identical bytes always produce the same digest. I/O
// errors are returned to the caller; nothing is swallowed here.
func Compute(path, algorithm string, opts Options) (string, error) {
	h, err := newDigest(algorithm)
	if err != nil {
		return "", err
	}

	mode := opts.ReadMode
	if mode == "" {
		mode = "stream"
	}

	switch mode {
	case "stream":
		err = digestStream(path, h)
	case "mmap":
		err = digestMmap(path, h)
	case "auto":
		minSize := opts.MmapMinSize
		if minSize <= 0 {
			minSize = 128 * 1024
		}
		info, statErr := os.Stat(path)
		if statErr != nil {
			return "", statErr
		}
		if info.Size() >= minSize {
			if err = digestMmap(path, h); err == nil {
				break
			}
			// mmap can fail on special filesystems; retry streamed.
			h, _ = newDigest(algorithm)
		}
		err = digestStream(path, h)
	default:
		return "", fmt.Errorf("unsupported read mode: %s", mode)
	}
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func digestStream(path string, h hash.Hash) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	bufPtr := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufPtr)
	buf := *bufPtr

	for {
		n, readErr := file.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if readErr != nil {
			if readErr == io.EOF {
				return nil
			}
			return fmt.Errorf("read %s: %w", path, readErr)
		}
	}
}

func digestMmap(path string, h hash.Hash) error {
	r, err := openMmapReader(path)
	if err != nil {
		return err
	}
	defer r.Close()

	bufPtr := chunkPool.Get().(*[]byte)
	defer chunkPool.Put(bufPtr)
	buf := *bufPtr

	size := int64(r.Len())
	for off := int64(0); off < size; off += chunkSize {
		end := off + chunkSize
		if end > size {
			end = size
		}
		n, err := r.ReadAt(buf[:end-off], off)
		if n > 0 {
			h.Write(buf[:n])
		}
		if err != nil && err != io.EOF {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}
	return nil
}
