// Package vector implements spec.md §4.7's IVF-flat vector index: built
// at create_vector_index time by scanning the table and assigning each
// row's vector to its nearest of `lists` centroids, queried by visiting
// the `probes` nearest lists and ranking every vector found there.
// Grounded on original_source/.../storage/index/vector_index.{h,cpp} for
// the build-from-scan / top-k query shape; the original backs this with
// an Annoy-style library tree. This module builds its own inverted lists
// instead of vendoring an ANN library — see DESIGN.md — keeping the same
// external contract (build once from a scan, mmap the RID map, query
// top-k).
package vector

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"slices"
	"sort"

	"github.com/edsrzf/mmap-go"
	"github.com/minidb/miniql/value"
)

// Source is one row the index builder consumes: its RID and vector.
type Source struct {
	RID    value.RID
	Vector []float32
}

type list struct {
	centroid []float32
	entries  []int // indices into the flat RID/vector arrays, owned by Index
}

// Index is one IVF-flat vector index: lists centroids plus the flat RID
// array persisted alongside it (mmap'ed read-only after Build/Open).
type Index struct {
	Distance value.DistanceType
	Dim      int
	lists    []list
	rids     []value.RID // flat, in build order; aux file mirrors this
	vectors  [][]float32 // flat, parallel to rids; kept resident for scoring
	auxFile  *os.File
	auxMap   mmap.MMap
}

// Build scans rows via next (return ok=false, nil to signal end),
// clusters them into nlists inverted lists, and persists both the tree
// file (centroids + per-list membership) and the RID aux file.
func Build(treePath, auxPath string, dt value.DistanceType, dim, nlists int, next func() (Source, bool, error)) (*Index, error) {
	var rids []value.RID
	var vectors [][]float32
	for {
		src, ok, err := next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		rids = append(rids, src.RID)
		vectors = append(vectors, src.Vector)
	}

	idx := &Index{Distance: dt, Dim: dim, rids: rids, vectors: vectors}
	idx.buildLists(nlists)

	if err := idx.saveTree(treePath); err != nil {
		return nil, err
	}
	if err := idx.saveAux(auxPath); err != nil {
		return nil, err
	}
	if err := idx.mmapAux(auxPath); err != nil {
		return nil, err
	}
	return idx, nil
}

// buildLists seeds centroids from the first nlists distinct vectors
// (a single-pass init, documented in DESIGN.md as a simplification of a
// full k-means), then assigns every vector to its nearest centroid.
func (idx *Index) buildLists(nlists int) {
	if nlists < 1 {
		nlists = 1
	}
	if nlists > len(idx.vectors) {
		nlists = len(idx.vectors)
	}
	if nlists == 0 {
		idx.lists = nil
		return
	}
	idx.lists = make([]list, 0, nlists)
	for _, v := range idx.vectors {
		if len(idx.lists) < nlists && !slices.ContainsFunc(idx.lists, func(l list) bool { return slices.Equal(l.centroid, v) }) {
			idx.lists = append(idx.lists, list{centroid: v})
		}
	}
	for i, v := range idx.vectors {
		best := idx.nearestList(v)
		idx.lists[best].entries = append(idx.lists[best].entries, i)
	}
}

func (idx *Index) nearestList(v []float32) int {
	best, bestDist := 0, float32(0)
	for i, l := range idx.lists {
		d, err := value.VectorDistance(idx.Distance, v, l.centroid)
		if err != nil {
			continue
		}
		if i == 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}

// Query returns the topK nearest RIDs across the `probes` lists closest
// to queryVec's centroid.
func (idx *Index) Query(queryVec []float32, probes, topK int) ([]value.RID, error) {
	if len(idx.lists) == 0 {
		return nil, nil
	}
	type listDist struct {
		idx  int
		dist float32
	}
	lds := make([]listDist, len(idx.lists))
	for i, l := range idx.lists {
		d, err := value.VectorDistance(idx.Distance, queryVec, l.centroid)
		if err != nil {
			return nil, err
		}
		lds[i] = listDist{i, d}
	}
	sort.Slice(lds, func(a, b int) bool { return lds[a].dist < lds[b].dist })
	if probes < 1 {
		probes = 1
	}
	if probes > len(lds) {
		probes = len(lds)
	}

	type candidate struct {
		pos  int
		dist float32
	}
	var candidates []candidate
	for _, ld := range lds[:probes] {
		for _, pos := range idx.lists[ld.idx].entries {
			d, err := value.VectorDistance(idx.Distance, queryVec, idx.vectors[pos])
			if err != nil {
				return nil, err
			}
			candidates = append(candidates, candidate{pos, d})
		}
	}
	sort.Slice(candidates, func(a, b int) bool { return candidates[a].dist < candidates[b].dist })
	if topK > len(candidates) {
		topK = len(candidates)
	}
	out := make([]value.RID, topK)
	for i := 0; i < topK; i++ {
		out[i] = idx.ridAt(candidates[i].pos)
	}
	return out, nil
}

// ridAt reads RID i from the mmap'ed aux buffer if present, falling back
// to the in-memory slice (used right after Build, before Open/mmap).
func (idx *Index) ridAt(i int) value.RID {
	if idx.auxMap == nil {
		return idx.rids[i]
	}
	off := i * 12
	return value.RID{
		PageNo: int64(binary.BigEndian.Uint64(idx.auxMap[off : off+8])),
		SlotNo: int32(binary.BigEndian.Uint32(idx.auxMap[off+8 : off+12])),
	}
}

func (idx *Index) saveTree(path string) error {
	var buf bytes.Buffer
	writeInt32 := func(v int) { b := make([]byte, 4); binary.BigEndian.PutUint32(b, uint32(v)); buf.Write(b) }
	writeFloats := func(fs []float32) {
		for _, f := range fs {
			b := make([]byte, 4)
			binary.BigEndian.PutUint32(b, floatToBits(f))
			buf.Write(b)
		}
	}

	writeInt32(idx.Dim)
	writeInt32(int(idx.Distance))
	writeInt32(len(idx.vectors))
	writeInt32(len(idx.lists))
	for _, v := range idx.vectors {
		writeFloats(v)
	}
	for _, l := range idx.lists {
		writeFloats(l.centroid)
		writeInt32(len(l.entries))
		for _, pos := range l.entries {
			writeInt32(pos)
		}
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func floatToBits(f float32) uint32   { return math.Float32bits(f) }
func bitsToFloat32(b uint32) float32 { return math.Float32frombits(b) }

// Open reloads a previously built index from its tree + aux files, the
// aux map kept memory-mapped for the life of the Index as spec.md §4.7
// describes.
func Open(treePath, auxPath string) (*Index, error) {
	data, err := os.ReadFile(treePath)
	if err != nil {
		return nil, fmt.Errorf("vector: read tree %s: %w", treePath, err)
	}
	readInt32 := func(off *int) int {
		v := int(binary.BigEndian.Uint32(data[*off : *off+4]))
		*off += 4
		return v
	}
	readFloats := func(off *int, n int) []float32 {
		out := make([]float32, n)
		for i := 0; i < n; i++ {
			out[i] = bitsToFloat32(binary.BigEndian.Uint32(data[*off : *off+4]))
			*off += 4
		}
		return out
	}

	off := 0
	dim := readInt32(&off)
	dt := value.DistanceType(readInt32(&off))
	numVectors := readInt32(&off)
	nlists := readInt32(&off)

	idx := &Index{Distance: dt, Dim: dim}
	idx.vectors = make([][]float32, numVectors)
	for i := range idx.vectors {
		idx.vectors[i] = readFloats(&off, dim)
	}
	idx.lists = make([]list, nlists)
	for i := range idx.lists {
		idx.lists[i].centroid = readFloats(&off, dim)
		count := readInt32(&off)
		entries := make([]int, count)
		for j := range entries {
			entries[j] = readInt32(&off)
		}
		idx.lists[i].entries = entries
	}

	if err := idx.mmapAux(auxPath); err != nil {
		return nil, err
	}
	return idx, nil
}

func (idx *Index) saveAux(path string) error {
	var buf bytes.Buffer
	for _, rid := range idx.rids {
		b := make([]byte, 12)
		binary.BigEndian.PutUint64(b[0:8], uint64(rid.PageNo))
		binary.BigEndian.PutUint32(b[8:12], uint32(rid.SlotNo))
		buf.Write(b)
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}

func (idx *Index) mmapAux(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("vector: open aux %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("vector: stat aux %s: %w", path, err)
	}
	if info.Size() == 0 {
		// mmap refuses a zero-length mapping; an empty index just never
		// reads through auxMap (ridAt falls back to idx.rids, also empty).
		f.Close()
		return nil
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return fmt.Errorf("vector: mmap aux %s: %w", path, err)
	}
	idx.auxFile = f
	idx.auxMap = m
	return nil
}

func (idx *Index) Close() error {
	if idx.auxMap != nil {
		idx.auxMap.Unmap()
	}
	if idx.auxFile != nil {
		return idx.auxFile.Close()
	}
	return nil
}
