// Package bufferpool implements spec.md §4.7's paged buffer pool: 4 KiB
// pages, an LRU set of 16 frames, a dirty set, and writeback on eviction.
// Every on-disk file the storage layer owns (table data, vector blobs) pins
// pages through this pool rather than touching the OS file directly, so
// hot pages stay resident across repeated scans.
//
// There is no teacher or pack example of an LRU page cache to ground the
// container on (see DESIGN.md) — this uses container/list, the idiomatic
// stdlib building block for an intrusive LRU, with the page store itself
// following the pack's general pattern of a thin struct wrapping *os.File.
package bufferpool

import (
	"container/list"
	"fmt"
	"os"
	"sync"
)

const PageSize = 4096

// Capacity is the pool's frame count, fixed at 16 per spec.md §4.7.
const Capacity = 16

type frame struct {
	pageNo int64
	data   [PageSize]byte
	dirty  bool
}

// Pool manages one file's pages through a fixed number of in-memory
// frames, evicting the least-recently-used clean-or-dirty frame (writing
// it back first if dirty) when a miss needs a slot.
type Pool struct {
	mu      sync.Mutex
	file    *os.File
	frames  map[int64]*list.Element // pageNo -> lru element
	lru     *list.List              // front = most recently used
	nextPNo int64
}

func Open(path string) (*Pool, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("bufferpool: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("bufferpool: stat %s: %w", path, err)
	}
	return &Pool{
		file:    f,
		frames:  make(map[int64]*list.Element),
		lru:     list.New(),
		nextPNo: info.Size() / PageSize,
	}, nil
}

// AllocatePage appends a fresh zeroed page and returns its page number.
func (p *Pool) AllocatePage() (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pNo := p.nextPNo
	p.nextPNo++
	fr := &frame{pageNo: pNo, dirty: true}
	p.insertFrame(fr)
	return pNo, nil
}

// PageCount reports how many pages have been allocated.
func (p *Pool) PageCount() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.nextPNo
}

// Read copies pageNo's full contents into dst (which must be PageSize
// bytes), pulling it from disk on a pool miss.
func (p *Pool) Read(pageNo int64, dst []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	fr, err := p.fetch(pageNo)
	if err != nil {
		return err
	}
	copy(dst, fr.data[:])
	return nil
}

// Write overwrites pageNo's contents with src and marks the frame dirty;
// the change reaches disk on eviction or an explicit Flush.
func (p *Pool) Write(pageNo int64, src []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	fr, err := p.fetch(pageNo)
	if err != nil {
		return err
	}
	copy(fr.data[:], src)
	fr.dirty = true
	return nil
}

// Flush writes back every dirty frame without evicting it.
func (p *Pool) Flush() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for e := p.lru.Front(); e != nil; e = e.Next() {
		fr := e.Value.(*frame)
		if fr.dirty {
			if err := p.writeback(fr); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pool) Close() error {
	if err := p.Flush(); err != nil {
		return err
	}
	return p.file.Close()
}

// fetch returns the frame for pageNo, loading it from disk and evicting
// the LRU tail if the pool is full. Caller holds p.mu.
func (p *Pool) fetch(pageNo int64) (*frame, error) {
	if e, ok := p.frames[pageNo]; ok {
		p.lru.MoveToFront(e)
		return e.Value.(*frame), nil
	}
	fr := &frame{pageNo: pageNo}
	if _, err := p.file.ReadAt(fr.data[:], pageNo*PageSize); err != nil {
		return nil, fmt.Errorf("bufferpool: read page %d: %w", pageNo, err)
	}
	p.insertFrame(fr)
	return fr, nil
}

// insertFrame adds fr as the most-recently-used frame, evicting the tail
// if the pool is over capacity. Caller holds p.mu.
func (p *Pool) insertFrame(fr *frame) {
	if p.lru.Len() >= Capacity {
		tail := p.lru.Back()
		evicted := tail.Value.(*frame)
		if evicted.dirty {
			p.writeback(evicted)
		}
		p.lru.Remove(tail)
		delete(p.frames, evicted.pageNo)
	}
	p.frames[fr.pageNo] = p.lru.PushFront(fr)
}

func (p *Pool) writeback(fr *frame) error {
	if _, err := p.file.WriteAt(fr.data[:], fr.pageNo*PageSize); err != nil {
		return fmt.Errorf("bufferpool: writeback page %d: %w", fr.pageNo, err)
	}
	fr.dirty = false
	return nil
}
