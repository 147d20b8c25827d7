package blob

import (
	"fmt"
	"os"
)

// TextFile is the table's append-only text blob store: spec.md §4.7 calls
// for "a simple append-only byte file", unlike the vector file it does not
// share the paged buffer pool — every text value is read/written in one
// shot rather than spanning buffered pages.
type TextFile struct {
	f   *os.File
	end uint64
}

func OpenTextFile(path string) (*TextFile, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("blob: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blob: stat %s: %w", path, err)
	}
	return &TextFile{f: f, end: uint64(info.Size())}, nil
}

func (tf *TextFile) Close() error { return tf.f.Close() }

// Append writes data at the file's current end, returning the (offset,
// len) pointer to store in the column.
func (tf *TextFile) Append(data []byte) (offset uint64, length uint64, err error) {
	n, err := tf.f.WriteAt(data, int64(tf.end))
	if err != nil {
		return 0, 0, fmt.Errorf("blob: write text: %w", err)
	}
	offset = tf.end
	tf.end += uint64(n)
	return offset, uint64(n), nil
}

func (tf *TextFile) Read(offset, length uint64) ([]byte, error) {
	out := make([]byte, length)
	if _, err := tf.f.ReadAt(out, int64(offset)); err != nil {
		return nil, fmt.Errorf("blob: read text: %w", err)
	}
	return out, nil
}
