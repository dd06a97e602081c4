package scanner

import (
	"os"
	"time"

	"hashvet/config"
	"hashvet/fuzzy"
	"hashvet/logger"
	"hashvet/registry"

	"github.com/djherbis/times"
	"github.com/h2non/filetype"
)

// filetype.Match needs at most 262 bytes to classify a file.
const mimeSniffLen = 262

// collectEntityDetails fills in the file metadata carried by a newly
// created entity. Details come from the first path observed with the
// digest; later duplicates only extend the path list. All collection
// here is best-effort.
func collectEntityDetails(entity *registry.Entity, path string, info os.FileInfo, cfg *config.Config) {
	entity.Size = info.Size()
	entity.ModTime = info.ModTime().Format(time.RFC3339)

	if ts, err := times.Stat(path); err == nil {
		entity.AccessTime = ts.AccessTime().Format(time.RFC3339)
		if ts.HasChangeTime() {
			entity.ChangeTime = ts.ChangeTime().Format(time.RFC3339)
		}
		if ts.HasBirthTime() {
			entity.CreateTime = ts.BirthTime().Format(time.RFC3339)
		}
	}

	if mime, err := detectMimeType(path); err == nil && mime != "" {
		entity.MimeType = mime
	}

	if cfg.FuzzyHash && withinFuzzyBounds(info.Size(), cfg) {
		for _, name := range cfg.FuzzyAlgorithms {
			h, ok := fuzzy.Lookup(name)
			if !ok {
				logger.Warnf("Unknown fuzzy hash algorithm: %s", name)
				continue
			}
			digest, err := h.HashFile(path)
			if err != nil {
				logger.Debugf("Fuzzy hash %s failed for %s: %v", name, path, err)
				continue
			}
			if entity.FuzzyHashes == nil {
				entity.FuzzyHashes = make(map[string]string, len(cfg.FuzzyAlgorithms))
			}
			entity.FuzzyHashes[h.Name()] = digest
		}
	}
}

func detectMimeType(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	buf := make([]byte, mimeSniffLen)
	n, err := f.Read(buf)
	if n == 0 {
		return "", err
	}
	kind, err := filetype.Match(buf[:n])
	if err != nil {
		return "", err
	}
	if kind == filetype.Unknown {
		return "", nil
	}
	return kind.MIME.Value, nil
}

func withinFuzzyBounds(size int64, cfg *config.Config) bool {
	if cfg.FuzzyMinSize > 0 && size < cfg.FuzzyMinSize {
		return false
	}
	if cfg.FuzzyMaxSize > 0 && size > cfg.FuzzyMaxSize {
		return false
	}
	return true
}
