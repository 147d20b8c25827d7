package vector

import (
	"path/filepath"
	"testing"

	"github.com/minidb/miniql/value"
)

func testSources() []Source {
	return []Source{
		{RID: value.RID{PageNo: 0, SlotNo: 0}, Vector: []float32{0, 0}},
		{RID: value.RID{PageNo: 0, SlotNo: 1}, Vector: []float32{0, 1}},
		{RID: value.RID{PageNo: 0, SlotNo: 2}, Vector: []float32{10, 10}},
		{RID: value.RID{PageNo: 0, SlotNo: 3}, Vector: []float32{10, 11}},
	}
}

func sourceIter(sources []Source) func() (Source, bool, error) {
	i := 0
	return func() (Source, bool, error) {
		if i >= len(sources) {
			return Source{}, false, nil
		}
		s := sources[i]
		i++
		return s, true, nil
	}
}

func TestBuildAndQueryReturnsNearestK(t *testing.T) {
	dir := t.TempDir()
	idx, err := Build(filepath.Join(dir, "v.tree"), filepath.Join(dir, "v.aux"), value.L2Distance, 2, 2, sourceIter(testSources()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	defer idx.Close()

	got, err := idx.Query([]float32{0, 0}, 2, 2)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0] != (value.RID{PageNo: 0, SlotNo: 0}) {
		t.Fatalf("expected the nearest vector first, got %+v", got[0])
	}
}

func TestBuildThenOpenRoundTripsQuery(t *testing.T) {
	dir := t.TempDir()
	treePath := filepath.Join(dir, "v.tree")
	auxPath := filepath.Join(dir, "v.aux")
	idx, err := Build(treePath, auxPath, value.L2Distance, 2, 2, sourceIter(testSources()))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	idx.Close()

	reopened, err := Open(treePath, auxPath)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Query([]float32{10, 10}, 2, 1)
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(got) != 1 || got[0] != (value.RID{PageNo: 0, SlotNo: 2}) {
		t.Fatalf("expected slot 2 nearest to (10,10), got %+v", got)
	}
}
