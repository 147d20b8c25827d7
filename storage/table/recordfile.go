// Package table implements spec.md §4.7's row-format Table access method:
// a fixed-size record heap file over the shared buffer pool, with index
// maintenance and updatable-view routing layered on top. Grounded on
// original_source/.../storage/table/{table.cpp,record_manager.cpp} and
// original_source/.../storage/record/record_manager.cpp's page/slot
// bitmap layout.
package table

import (
	"encoding/binary"
	"fmt"

	"github.com/minidb/miniql/storage/bufferpool"
	"github.com/minidb/miniql/value"
)

// headerBitmapBytes bounds how many slots a page can hold (512, plenty
// for any record size this module produces) so the header's bitmap has a
// page-independent fixed size and doesn't need its own layout pass.
const headerBitmapBytes = 64
const headerSize = 2 + headerBitmapBytes // occupied-count (uint16) + bitmap

// RecordFile is a heap of fixed-size records paged through a bufferpool.
// Pool, one page holding as many record-size slots as fit after the
// occupied-count/bitmap header.
type RecordFile struct {
	pool         *bufferpool.Pool
	recordSize   int
	slotsPerPage int
}

func OpenRecordFile(path string, recordSize int) (*RecordFile, error) {
	pool, err := bufferpool.Open(path)
	if err != nil {
		return nil, err
	}
	slots := (bufferpool.PageSize - headerSize) / recordSize
	if slots <= 0 {
		pool.Close()
		return nil, fmt.Errorf("table: record size %d too large for a %d-byte page", recordSize, bufferpool.PageSize)
	}
	if slots > headerBitmapBytes*8 {
		slots = headerBitmapBytes * 8
	}
	return &RecordFile{pool: pool, recordSize: recordSize, slotsPerPage: slots}, nil
}

func (f *RecordFile) Close() error { return f.pool.Close() }

func (f *RecordFile) slotOffset(slot int) int { return headerSize + slot*f.recordSize }

func occupiedCount(page []byte) int { return int(binary.LittleEndian.Uint16(page[0:2])) }
func setOccupiedCount(page []byte, n int) {
	binary.LittleEndian.PutUint16(page[0:2], uint16(n))
}

func bitmapOf(page []byte) []byte { return page[2 : 2+headerBitmapBytes] }

func testSlot(bitmap []byte, slot int) bool {
	return bitmap[slot/8]&(1<<uint(slot%8)) != 0
}
func setSlot(bitmap []byte, slot int) {
	bitmap[slot/8] |= 1 << uint(slot%8)
}
func clearSlot(bitmap []byte, slot int) {
	bitmap[slot/8] &^= 1 << uint(slot%8)
}

// Insert writes data into the first free slot, allocating a new page if
// every existing page is full, and returns the record's RID.
func (f *RecordFile) Insert(data []byte) (value.RID, error) {
	if len(data) != f.recordSize {
		return value.RID{}, fmt.Errorf("table: record size mismatch: want %d, got %d", f.recordSize, len(data))
	}
	pageCount := f.pool.PageCount()
	for pNo := int64(0); pNo < pageCount; pNo++ {
		page := make([]byte, bufferpool.PageSize)
		if err := f.pool.Read(pNo, page); err != nil {
			return value.RID{}, err
		}
		if occupiedCount(page) >= f.slotsPerPage {
			continue
		}
		bitmap := bitmapOf(page)
		for slot := 0; slot < f.slotsPerPage; slot++ {
			if testSlot(bitmap, slot) {
				continue
			}
			copy(page[f.slotOffset(slot):f.slotOffset(slot)+f.recordSize], data)
			setSlot(bitmap, slot)
			setOccupiedCount(page, occupiedCount(page)+1)
			if err := f.pool.Write(pNo, page); err != nil {
				return value.RID{}, err
			}
			return value.RID{PageNo: pNo, SlotNo: int32(slot)}, nil
		}
	}

	pNo, err := f.pool.AllocatePage()
	if err != nil {
		return value.RID{}, err
	}
	page := make([]byte, bufferpool.PageSize)
	copy(page[f.slotOffset(0):f.slotOffset(0)+f.recordSize], data)
	setSlot(bitmapOf(page), 0)
	setOccupiedCount(page, 1)
	if err := f.pool.Write(pNo, page); err != nil {
		return value.RID{}, err
	}
	return value.RID{PageNo: pNo, SlotNo: 0}, nil
}

// Get returns a copy of rid's record data.
func (f *RecordFile) Get(rid value.RID) ([]byte, error) {
	page := make([]byte, bufferpool.PageSize)
	if err := f.pool.Read(rid.PageNo, page); err != nil {
		return nil, err
	}
	if !testSlot(bitmapOf(page), int(rid.SlotNo)) {
		return nil, fmt.Errorf("table: rid %+v is not occupied", rid)
	}
	off := f.slotOffset(int(rid.SlotNo))
	out := make([]byte, f.recordSize)
	copy(out, page[off:off+f.recordSize])
	return out, nil
}

// Delete clears rid's slot.
func (f *RecordFile) Delete(rid value.RID) error {
	page := make([]byte, bufferpool.PageSize)
	if err := f.pool.Read(rid.PageNo, page); err != nil {
		return err
	}
	bitmap := bitmapOf(page)
	if !testSlot(bitmap, int(rid.SlotNo)) {
		return fmt.Errorf("table: rid %+v is not occupied", rid)
	}
	clearSlot(bitmap, int(rid.SlotNo))
	setOccupiedCount(page, occupiedCount(page)-1)
	return f.pool.Write(rid.PageNo, page)
}

// Visit atomically rewrites rid's record: fn receives a mutable copy of
// the slot's current bytes and whatever it leaves in place is written
// back, matching spec.md §4.7's visit_record(rid, fn) contract.
func (f *RecordFile) Visit(rid value.RID, fn func(data []byte) error) error {
	page := make([]byte, bufferpool.PageSize)
	if err := f.pool.Read(rid.PageNo, page); err != nil {
		return err
	}
	if !testSlot(bitmapOf(page), int(rid.SlotNo)) {
		return fmt.Errorf("table: rid %+v is not occupied", rid)
	}
	off := f.slotOffset(int(rid.SlotNo))
	slot := page[off : off+f.recordSize]
	if err := fn(slot); err != nil {
		return err
	}
	return f.pool.Write(rid.PageNo, page)
}

// Scanner iterates every occupied record in page/slot order.
type Scanner struct {
	f        *RecordFile
	pageNo   int64
	slot     int
	pageBuf  []byte
	pageLoad int64 // page number currently materialized into pageBuf, -1 if none
}

func (f *RecordFile) NewScanner() *Scanner {
	return &Scanner{f: f, pageBuf: make([]byte, bufferpool.PageSize), pageLoad: -1}
}

// Next advances to the next occupied record, returning false (no error)
// once every page has been exhausted.
func (s *Scanner) Next() (value.RID, []byte, bool, error) {
	pageCount := s.f.pool.PageCount()
	for s.pageNo < pageCount {
		if s.pageLoad != s.pageNo {
			if err := s.f.pool.Read(s.pageNo, s.pageBuf); err != nil {
				return value.RID{}, nil, false, err
			}
			s.pageLoad = s.pageNo
		}
		bitmap := bitmapOf(s.pageBuf)
		for s.slot < s.f.slotsPerPage {
			slot := s.slot
			s.slot++
			if !testSlot(bitmap, slot) {
				continue
			}
			off := s.f.slotOffset(slot)
			data := make([]byte, s.f.recordSize)
			copy(data, s.pageBuf[off:off+s.f.recordSize])
			return value.RID{PageNo: s.pageNo, SlotNo: int32(slot)}, data, true, nil
		}
		s.pageNo++
		s.slot = 0
	}
	return value.RID{}, nil, false, nil
}
