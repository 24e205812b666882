package preview

import "sync"

// buildStatus tracks the outcome of the most recent build.
type buildStatus struct {
	mu           sync.RWMutex
	lastError    error
	lastBuildID  string
	hasGoodBuild bool
}

func (bs *buildStatus) setError(err error) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = err
}

func (bs *buildStatus) setSuccess(buildID string) {
	bs.mu.Lock()
	defer bs.mu.Unlock()
	bs.lastError = nil
	bs.lastBuildID = buildID
	bs.hasGoodBuild = true
}

func (bs *buildStatus) get() (hasError bool, err error, hasGoodBuild bool, buildID string) {
	bs.mu.RLock()
	defer bs.mu.RUnlock()
	return bs.lastError != nil, bs.lastError, bs.hasGoodBuild, bs.lastBuildID
}
