package pipeline

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// resultCache memoizes completed runs by input content hash, so repeated
// in-process runs over unchanged files skip the full recompute.
type resultCache struct {
	mu      sync.Mutex
	results map[string]*RunResult
}

func newResultCache() *resultCache {
	return &resultCache{results: make(map[string]*RunResult)}
}

func (c *resultCache) get(key string) (*RunResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	res, ok := c.results[key]
	if ok {
		keyPrefix := key
		if len(keyPrefix) > 12 {
			keyPrefix = keyPrefix[:12]
		}
		zap.L().Debug("pipeline: cache hit", zap.String("key", keyPrefix))
	}
	return res, ok
}

func (c *resultCache) put(key string, res *RunResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results[key] = res
}

// fileDigest returns the SHA-256 hex digest of one input file.
func fileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", eris.Wrapf(err, "pipeline: digest %s", path)
	}
	defer f.Close() //nolint:errcheck

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", eris.Wrapf(err, "pipeline: digest %s", path)
	}
	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// contentKey combines the digests of every input file into one cache key.
// Any unreadable file disables memoization for the run; the loaders report
// the real error.
func contentKey(paths ...string) string {
	h := sha256.New()
	for _, p := range paths {
		d, err := fileDigest(p)
		if err != nil {
			return ""
		}
		fmt.Fprintf(h, "%s=%s;", p, d)
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
