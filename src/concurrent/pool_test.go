package concurrent

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestParallelMapPreservesOrder(t *testing.T) {
	items := make([]int, 50)
	for i := range items {
		items[i] = i
	}

	for _, workers := range []int{1, 4, 100} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			got, err := ParallelMap(context.Background(), items, func(n int) (string, error) {
				return fmt.Sprintf("r%d", n), nil
			}, workers)
			if err != nil {
				t.Fatalf("ParallelMap: %v", err)
			}
			if len(got) != len(items) {
				t.Fatalf("len = %d, want %d", len(got), len(items))
			}
			for i, r := range got {
				if want := fmt.Sprintf("r%d", i); r != want {
					t.Fatalf("got[%d] = %q, want %q", i, r, want)
				}
			}
		})
	}
}

func TestParallelMapEmptyInput(t *testing.T) {
	got, err := ParallelMap(context.Background(), nil, func(n int) (int, error) { return n, nil }, 4)
	if err != nil || got != nil {
		t.Fatalf("ParallelMap(nil) = (%v, %v), want (nil, nil)", got, err)
	}
}

func TestParallelMapReturnsFirstErrorByPosition(t *testing.T) {
	boom := errors.New("boom")
	items := []int{0, 1, 2, 3}
	_, err := ParallelMap(context.Background(), items, func(n int) (int, error) {
		if n == 2 {
			return 0, boom
		}
		return n, nil
	}, 4)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
}

func TestParallelMapCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ParallelMap(ctx, []int{1, 2, 3}, func(n int) (int, error) { return n, nil }, 1)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
