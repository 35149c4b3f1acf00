package feed

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func at(minutes int) time.Time {
	return time.Date(2026, 3, 1, 12, minutes, 0, 0, time.UTC)
}

func TestBuildThreadNestsByParent(t *testing.T) {
	// input order deliberately reversed so forward references must resolve
	comments := []Comment{
		{ID: "c", ParentID: "b", CreatedAt: at(3)},
		{ID: "b", ParentID: "a", CreatedAt: at(2)},
		{ID: "a", CreatedAt: at(1)},
	}

	forest := BuildThread(comments)
	require.Len(t, forest, 1)

	root := forest[0]
	require.Equal(t, "a", root.ID)
	require.Equal(t, 0, root.Depth)
	require.Len(t, root.Replies, 1)

	b := root.Replies[0]
	require.Equal(t, "b", b.ID)
	require.Equal(t, 1, b.Depth)
	require.Len(t, b.Replies, 1)

	c := b.Replies[0]
	require.Equal(t, "c", c.ID)
	require.Equal(t, 2, c.Depth)
	require.Empty(t, c.Replies)
}

func TestBuildThreadOrphanBecomesRoot(t *testing.T) {
	forest := BuildThread([]Comment{
		{ID: "a", CreatedAt: at(1)},
		{ID: "x", ParentID: "missing", CreatedAt: at(2)},
	})
	require.Len(t, forest, 2)
	for _, root := range forest {
		require.Equal(t, 0, root.Depth)
	}
}

func TestBuildThreadOrdering(t *testing.T) {
	comments := []Comment{
		{ID: "old-root", CreatedAt: at(1)},
		{ID: "new-root", CreatedAt: at(10)},
		{ID: "r2", ParentID: "old-root", CreatedAt: at(5)},
		{ID: "r1", ParentID: "old-root", CreatedAt: at(3)},
	}

	forest := BuildThread(comments)
	require.Len(t, forest, 2)
	// roots newest-first
	require.Equal(t, "new-root", forest[0].ID)
	require.Equal(t, "old-root", forest[1].ID)
	// replies oldest-first
	require.Len(t, forest[1].Replies, 2)
	require.Equal(t, "r1", forest[1].Replies[0].ID)
	require.Equal(t, "r2", forest[1].Replies[1].ID)
}

func TestBuildThreadEmptyInput(t *testing.T) {
	require.Empty(t, BuildThread(nil))
	require.Empty(t, BuildThread([]Comment{}))
}

func TestBuildThreadCycleMembersPromoted(t *testing.T) {
	comments := []Comment{
		{ID: "a", ParentID: "b", CreatedAt: at(1)},
		{ID: "b", ParentID: "a", CreatedAt: at(2)},
		{ID: "child", ParentID: "a", CreatedAt: at(3)},
		{ID: "root", CreatedAt: at(4)},
	}

	forest := BuildThread(comments)
	require.Len(t, forest, 3)

	byID := map[string]*ThreadNode{}
	for _, root := range forest {
		require.Equal(t, 0, root.Depth)
		byID[root.ID] = root
	}
	require.Contains(t, byID, "a")
	require.Contains(t, byID, "b")
	require.Contains(t, byID, "root")

	// the non-cycle reply stays attached under its promoted parent
	require.Len(t, byID["a"].Replies, 1)
	require.Equal(t, "child", byID["a"].Replies[0].ID)
	require.Equal(t, 1, byID["a"].Replies[0].Depth)
}

func TestBuildThreadSelfParentBecomesRoot(t *testing.T) {
	forest := BuildThread([]Comment{{ID: "a", ParentID: "a", CreatedAt: at(1)}})
	require.Len(t, forest, 1)
	require.Equal(t, 0, forest[0].Depth)
	require.Empty(t, forest[0].Replies)
}
