package catalog

import (
	"errors"
	"testing"
)

func TestConcurrentMapFuncWithErrorPreservesOrder(t *testing.T) {
	inputs := []int{5, 4, 3, 2, 1}
	outputs, err := ConcurrentMapFuncWithError(inputs, 3, func(n int) (int, error) {
		return n * n, nil
	})
	if err != nil {
		t.Fatalf("ConcurrentMapFuncWithError: %v", err)
	}
	want := []int{25, 16, 9, 4, 1}
	for i := range want {
		if outputs[i] != want[i] {
			t.Fatalf("order not preserved: got %v want %v", outputs, want)
		}
	}
}

func TestConcurrentMapFuncWithErrorPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := ConcurrentMapFuncWithError([]int{1, 2, 3}, 2, func(n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom error, got %v", err)
	}
}

func TestConcurrentMapFuncWithErrorZeroConcurrencyIsSerial(t *testing.T) {
	outputs, err := ConcurrentMapFuncWithError([]int{1, 2, 3}, 0, func(n int) (int, error) {
		return n + 1, nil
	})
	if err != nil {
		t.Fatalf("ConcurrentMapFuncWithError: %v", err)
	}
	if len(outputs) != 3 || outputs[2] != 4 {
		t.Fatalf("unexpected outputs: %v", outputs)
	}
}
