// Package blob implements spec.md §4.7's out-of-line vector/text storage:
// a paged vector file sharing storage/bufferpool's page cache (vectors may
// span page boundaries) and a plain append-only text file. Grounded on
// original_source/.../storage/table/vector_data_manager.{h,cpp} for the
// page-spanning load/dump logic, re-expressed atop storage/bufferpool.Pool
// instead of the original's private page map (this module just asks the
// pool for each touched page rather than re-implementing its own LRU).
package blob

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/minidb/miniql/storage/bufferpool"
)

func floatBitsOf(f float32) uint32     { return math.Float32bits(f) }
func floatFromBitsOf(b uint32) float32 { return math.Float32frombits(b) }

// VectorFile is the table's append-only vector blob store: Append writes
// floats starting at the current end of file, Read materializes a vector
// given the (offset, dim) pointer record.GetField decodes from a VECTORS
// cell.
type VectorFile struct {
	pool *bufferpool.Pool
	end  uint64 // byte offset one past the last written vector
}

func OpenVectorFile(path string) (*VectorFile, error) {
	pool, err := bufferpool.Open(path)
	if err != nil {
		return nil, err
	}
	return &VectorFile{pool: pool, end: uint64(pool.PageCount()) * bufferpool.PageSize}, nil
}

func (vf *VectorFile) Close() error { return vf.pool.Close() }

// Append writes floats at the file's current end, spanning as many pages
// as needed, and returns the (offset, dim) pointer to store in the column.
func (vf *VectorFile) Append(floats []float32) (offset uint64, dim uint64, err error) {
	data := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(data[i*4:i*4+4], floatBitsOf(f))
	}
	offset = vf.end
	if err := vf.writeSpan(offset, data); err != nil {
		return 0, 0, err
	}
	vf.end = offset + uint64(len(data))
	return offset, uint64(len(floats)), nil
}

// Read reconstructs a dim-length float32 vector starting at offset,
// following the same page-span walk as the original's load_vector.
func (vf *VectorFile) Read(offset, dim uint64) ([]float32, error) {
	n := int(dim) * 4
	data, err := vf.readSpan(offset, n)
	if err != nil {
		return nil, err
	}
	out := make([]float32, dim)
	for i := range out {
		out[i] = floatFromBitsOf(binary.LittleEndian.Uint32(data[i*4 : i*4+4]))
	}
	return out, nil
}

func (vf *VectorFile) pageCount() int64 {
	return vf.pool.PageCount()
}

func (vf *VectorFile) writeSpan(offset uint64, data []byte) error {
	pageStart := int64(offset / bufferpool.PageSize)
	pageEnd := int64((offset + uint64(len(data)) - 1) / bufferpool.PageSize)
	if len(data) == 0 {
		pageEnd = pageStart
	}
	for vf.pageCount() <= pageEnd {
		if _, err := vf.pool.AllocatePage(); err != nil {
			return fmt.Errorf("blob: allocate vector page: %w", err)
		}
	}

	written := 0
	for pg := pageStart; pg <= pageEnd; pg++ {
		buf := make([]byte, bufferpool.PageSize)
		if err := vf.pool.Read(pg, buf); err != nil {
			return err
		}
		pageByteOffset := 0
		if uint64(pg)*bufferpool.PageSize < offset {
			pageByteOffset = int(offset - uint64(pg)*bufferpool.PageSize)
		}
		n := bufferpool.PageSize - pageByteOffset
		if remaining := len(data) - written; remaining < n {
			n = remaining
		}
		copy(buf[pageByteOffset:pageByteOffset+n], data[written:written+n])
		if err := vf.pool.Write(pg, buf); err != nil {
			return err
		}
		written += n
	}
	return nil
}

func (vf *VectorFile) readSpan(offset uint64, n int) ([]byte, error) {
	pageStart := int64(offset / bufferpool.PageSize)
	pageEnd := int64((offset + uint64(n) - 1) / bufferpool.PageSize)
	if n == 0 {
		pageEnd = pageStart
	}

	out := make([]byte, n)
	read := 0
	for pg := pageStart; pg <= pageEnd; pg++ {
		buf := make([]byte, bufferpool.PageSize)
		if err := vf.pool.Read(pg, buf); err != nil {
			return nil, err
		}
		pageByteOffset := 0
		if uint64(pg)*bufferpool.PageSize < offset {
			pageByteOffset = int(offset - uint64(pg)*bufferpool.PageSize)
		}
		count := bufferpool.PageSize - pageByteOffset
		if remaining := n - read; remaining < count {
			count = remaining
		}
		copy(out[read:read+count], buf[pageByteOffset:pageByteOffset+count])
		read += count
	}
	return out, nil
}
