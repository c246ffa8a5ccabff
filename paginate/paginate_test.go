package paginate

import (
	"context"
	"errors"
	"strconv"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func numberedPages(total, perPage int) FetchFunc[int] {
	return func(ctx context.Context, cursor string) (Page[int], error) {
		n := 0
		if cursor != "" {
			n, _ = strconv.Atoi(cursor)
		}
		items := make([]int, perPage)
		for i := range items {
			items[i] = n*perPage + i
		}
		next := n + 1
		return Page[int]{Items: items, NextCursor: strconv.Itoa(next), HasMore: Bool(next < total)}, nil
	}
}

func TestWalkStopsWhenHasMoreFalse(t *testing.T) {
	res, err := Walk(context.Background(), numberedPages(3, 2), Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Pages)
	assert.Equal(t, []int{0, 1, 2, 3, 4, 5}, res.Items)
	assert.False(t, res.Truncated)
	assert.Empty(t, res.Warnings)
}

func TestWalkCeilingReturnsItemsWithWarning(t *testing.T) {
	logger, hook := test.NewNullLogger()
	calls := 0
	fetch := func(ctx context.Context, cursor string) (Page[int], error) {
		calls++
		return Page[int]{Items: []int{calls}, NextCursor: "more", HasMore: Bool(calls < 201)}, nil
	}

	res, err := Walk[int](context.Background(), fetch, Options{Logger: logger, Label: "bills"})
	require.NoError(t, err)
	assert.Equal(t, 200, calls)
	assert.Equal(t, 200, res.Pages)
	assert.Len(t, res.Items, 200)
	assert.True(t, res.Truncated)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "bills")

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestWalkEmptyCursorWithoutHasMore(t *testing.T) {
	calls := 0
	fetch := func(ctx context.Context, cursor string) (Page[string], error) {
		calls++
		if calls == 1 {
			return Page[string]{Items: []string{"a"}, NextCursor: "2"}, nil
		}
		return Page[string]{Items: []string{"b"}}, nil
	}
	res, err := Walk[string](context.Background(), fetch, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Items)
}

func TestWalkShortPage(t *testing.T) {
	fetch := func(ctx context.Context, cursor string) (Page[int], error) {
		return Page[int]{Items: []int{1, 2}, NextCursor: "x", HasMore: Bool(true)}, nil
	}
	res, err := Walk[int](context.Background(), fetch, Options{PageSize: 5})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Pages)
}

func TestWalkFetchErrorKeepsAccumulated(t *testing.T) {
	boom := errors.New("upstream 500")
	calls := 0
	fetch := func(ctx context.Context, cursor string) (Page[int], error) {
		calls++
		if calls == 2 {
			return Page[int]{}, boom
		}
		return Page[int]{Items: []int{calls}, NextCursor: "n", HasMore: Bool(true)}, nil
	}
	res, err := Walk[int](context.Background(), fetch, Options{})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []int{1}, res.Items)
}

func TestWalkCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Walk(ctx, numberedPages(3, 1), Options{})
	require.ErrorIs(t, err, context.Canceled)
}
