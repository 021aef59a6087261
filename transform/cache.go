// Copyright 2015 Comcast Cable Communications Management, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// End Copyright

package transform

import (
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// pathCompileCacheSize bounds the number of distinct compiled path
// expressions an Interpreter will hold onto. Mapping programs in practice
// name a modest, static set of distinct paths, so eviction pressure at this
// size is not expected; the bound exists so that a pathological caller
// feeding endless distinct path strings can't grow this unboundedly.
const pathCompileCacheSize = 4096

// pathCache is a concurrency-safe read-mostly table from path text to
// compiled program, adapted from rulio's core/cache.go Cache (which wraps
// the same hashicorp/golang-lru cache with a mutex). The TTL notion rulio's
// Cache carries is dropped here: compiled paths don't go stale, so the
// simpler "cache forever, up to the bound" policy spec §4.2 and §9 call for
// is all this needs.
type pathCache struct {
	mu    sync.Mutex
	cache *lru.Cache
}

func newPathCache() *pathCache {
	c, err := lru.New(pathCompileCacheSize)
	if err != nil {
		// Only returns an error for a non-positive size, which
		// pathCompileCacheSize never is.
		panic(err)
	}
	return &pathCache{cache: c}
}

// compile returns the compiled program for path, compiling and caching it
// on a miss. One compile per distinct path string per Interpreter, per
// spec §4.2.
func (pc *pathCache) compile(path string) (*compiledPath, error) {
	pc.mu.Lock()
	if hit, ok := pc.cache.Get(path); ok {
		pc.mu.Unlock()
		return hit.(*compiledPath), nil
	}
	pc.mu.Unlock()

	cp, err := compilePath(path)
	if err != nil {
		return nil, err
	}

	pc.mu.Lock()
	pc.cache.Add(path, cp)
	pc.mu.Unlock()
	return cp, nil
}

func (pc *pathCache) len() int {
	pc.mu.Lock()
	defer pc.mu.Unlock()
	return pc.cache.Len()
}
