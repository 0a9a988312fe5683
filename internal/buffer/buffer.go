// Copyright 2015 Google Inc. All Rights Reserved.
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

package buffer

import (
	"sync"

	"github.com/jacobsa/syncutil"
)

// Pool hands out InMessage buffers to requests whose lifetime outlives a
// single iteration of the receive loop (the Owned<Op> path in the session
// runtime). It is backed by a fixed number of pre-allocated buffers plus a
// counting semaphore; acquiring a buffer when the pool is empty blocks until
// one is returned.
//
// INVARIANT: len(free) + outstanding == capacity
// INVARIANT: 0 <= outstanding <= capacity
type Pool struct {
	mu syncutil.InvariantMutex

	capacity    int
	bufferSize  int
	free        []*InMessage // GUARDED_BY(mu)
	outstanding int          // GUARDED_BY(mu)

	sem *semaphore
}

// NewPool creates a pool of n buffers, each of the given size.
func NewPool(n int, bufferSize int) *Pool {
	p := &Pool{
		capacity:   n,
		bufferSize: bufferSize,
		sem:        newSemaphore(n),
	}
	p.mu = syncutil.NewInvariantMutex(p.checkInvariants)

	p.mu.Lock()
	for i := 0; i < n; i++ {
		p.free = append(p.free, NewInMessage(bufferSize))
	}
	p.mu.Unlock()

	return p
}

func (p *Pool) checkInvariants() {
	if len(p.free)+p.outstanding != p.capacity {
		panic("buffer pool: free+outstanding != capacity")
	}
	if p.outstanding < 0 || p.outstanding > p.capacity {
		panic("buffer pool: outstanding out of range")
	}
}

// Acquire blocks until a buffer is available, then returns it. The returned
// buffer must be returned exactly once via Release.
func (p *Pool) Acquire() *InMessage {
	p.sem.acquire()

	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	m := p.free[n-1]
	p.free = p.free[:n-1]
	p.outstanding++
	return m
}

// Release returns a buffer previously obtained from Acquire.
func (p *Pool) Release(m *InMessage) {
	p.mu.Lock()
	p.free = append(p.free, m)
	p.outstanding--
	p.mu.Unlock()

	p.sem.release()
}

// Outstanding reports how many buffers are currently on loan. Used by tests
// to assert the pool's quiescent-point invariant from the outside.
func (p *Pool) Outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.outstanding
}

// semaphore is a simple counting semaphore built on a buffered channel; it
// exists so Acquire can block a goroutine without holding p.mu.
type semaphore struct {
	tokens chan struct{}
	once   sync.Once
}

func newSemaphore(n int) *semaphore {
	s := &semaphore{tokens: make(chan struct{}, n)}
	for i := 0; i < n; i++ {
		s.tokens <- struct{}{}
	}
	return s
}

func (s *semaphore) acquire() { <-s.tokens }
func (s *semaphore) release() { s.tokens <- struct{}{} }
