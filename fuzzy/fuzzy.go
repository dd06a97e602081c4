package fuzzy

import (
	"bufio"
	"os"
	"sort"
	"strings"

	"github.com/glaslos/tlsh"
)

// Hasher defines a fuzzy hashing implementation. Fuzzy digests are used
// for similarity triage of flagged content, never for reputation lookups.
type Hasher interface {
	Name() string
	HashFile(path string) (string, error)
}

var registry = map[string]Hasher{}

// Register adds a fuzzy hasher under its lowercase name.
func Register(h Hasher) {
	if h == nil {
		return
	}
	registry[strings.ToLower(h.Name())] = h
}

// Lookup returns a registered hasher by name.
func Lookup(name string) (Hasher, bool) {
	h, ok := registry[strings.ToLower(name)]
	return h, ok
}

// Available returns the registered hasher names, sorted.
func Available() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TLSHHasher computes TLSH locality-sensitive hashes. TLSH needs a
// minimum amount of input; HashFile surfaces the library's error for
// files too small to hash.
type TLSHHasher struct{}

func (TLSHHasher) Name() string {
	return "tlsh"
}

func (TLSHHasher) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	hash, err := tlsh.HashReader(bufio.NewReader(f))
	if err != nil {
		return "", err
	}
	return hash.String(), nil
}

func init() {
	Register(TLSHHasher{})
}
