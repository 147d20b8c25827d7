package catalog

import (
	"cmp"
	"slices"

	"github.com/minidb/miniql/util"
	"golang.org/x/sync/errgroup"
)

type concurrentOutputWithOrdering struct {
	order  int
	output any
}

// ConcurrentMapFuncWithError applies f to every input with at most
// concurrency goroutines in flight (0 disables concurrency, negative means
// unlimited), preserving input order in the result. Used by catalog.Open
// to load table meta files in parallel, and by the SHOW TABLES passthrough
// in package physical to collect per-table row counts concurrently.
func ConcurrentMapFuncWithError[Tin any, Tout any](inputs []Tin, concurrency int, f func(Tin) (Tout, error)) ([]Tout, error) {
	eg := errgroup.Group{}
	if concurrency == 0 {
		eg.SetLimit(1)
	} else if concurrency > 0 {
		eg.SetLimit(concurrency)
	}

	ch := make(chan concurrentOutputWithOrdering, len(inputs))
	chClosed := false
	defer func() {
		if !chClosed {
			close(ch)
		}
	}()

	for i := range inputs {
		order := i
		in := inputs[i]
		eg.Go(func() error {
			out, err := f(in)
			if err != nil {
				return err
			}
			ch <- concurrentOutputWithOrdering{order, out}
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	close(ch)
	chClosed = true

	tmp := make([]concurrentOutputWithOrdering, 0, len(inputs))
	for t := range ch {
		tmp = append(tmp, t)
	}

	slices.SortFunc(tmp, func(a, b concurrentOutputWithOrdering) int {
		return cmp.Compare(a.order, b.order)
	})

	return util.TransformSlice(tmp, func(t concurrentOutputWithOrdering) Tout {
		return t.output.(Tout)
	}), nil
}
