/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package rt

import "sync"

// BufferPool recycles the persistent per-channel publish buffers Configure
// allocates, standing in for the arena allocator the realtime publish path
// otherwise hand-rolls: Go's GC plus a sync.Pool absorb the same
// no-allocation-on-the-hot-path requirement without a custom allocator.
type BufferPool struct {
	pool sync.Pool
}

// NewBufferPool builds an empty pool.
func NewBufferPool() *BufferPool {
	return &BufferPool{}
}

// Get returns a buffer with length n, reusing a pooled one when it is
// large enough.
func (p *BufferPool) Get(n int) []byte {
	if v := p.pool.Get(); v != nil {
		buf := v.([]byte)
		if cap(buf) >= n {
			return buf[:n]
		}
	}
	return make([]byte, n, n*2)
}

// Put returns buf to the pool for reuse by a later Get.
func (p *BufferPool) Put(buf []byte) {
	p.pool.Put(buf[:0:cap(buf)]) //nolint:staticcheck // reset length, keep capacity
}
