package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func names(tasks []Task) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.Name)
	}
	return out
}

func TestTaskIdentity(t *testing.T) {
	a := Task{Name: "Buy Flowers ", Category: "Shopping", Description: "roses", EstimatedTime: "15 min"}
	b := Task{Name: "buy flowers", Category: " shopping", Description: "Roses", EstimatedTime: "15 MIN"}
	c := Task{Name: "buy flowers", Category: "shopping", Description: "tulips", EstimatedTime: "15 min"}

	assert.Equal(t, TaskIdentity(a), TaskIdentity(b))
	assert.NotEqual(t, TaskIdentity(a), TaskIdentity(c))
	assert.Equal(t, "id:t-1", TaskIdentity(Task{ID: "t-1", Name: "anything"}))
	assert.NotEqual(t, TaskIdentity(Task{ID: "t-1"}), TaskIdentity(Task{ID: "t-2"}))
}

func TestTaskKey(t *testing.T) {
	assert.Equal(t, "evt-1", TaskKey{EventID: "evt-1"}.String())
	assert.Equal(t, "u-9:evt-1", TaskKey{UserID: "u-9", EventID: "evt-1"}.String())
}

func TestTaskCache_CompletedTasksAreNotResurrected(t *testing.T) {
	c := NewTaskCache()
	key := TaskKey{EventID: "evt-1"}
	t1 := Task{Name: "Book taxi", Category: "travel"}
	t2 := Task{Name: "Print tickets", Category: "travel"}

	c.MarkTasksCompleted(key, []Task{t1})
	c.SetRemainingTasks(key, []Task{t1, t2})

	assert.Equal(t, []string{"Print tickets"}, names(c.RemainingTasks(key)))
	assert.True(t, c.IsCompleted(key, t1))
	assert.False(t, c.IsCompleted(key, t2))
}

func TestTaskCache_MarkCompletedRemovesFromRemaining(t *testing.T) {
	c := NewTaskCache()
	key := TaskKey{UserID: "u1", EventID: "evt-1"}
	tasks := []Task{
		{ID: "a", Name: "Charge phone"},
		{ID: "b", Name: "Pack bag"},
		{ID: "c", Name: "Check weather"},
	}
	c.SetRemainingTasks(key, tasks)

	c.MarkTasksCompleted(key, []Task{{ID: "b"}, {ID: "zzz", Name: "never listed"}})

	assert.Equal(t, []string{"Charge phone", "Check weather"}, names(c.RemainingTasks(key)))
	assert.Equal(t, 2, c.CompletedCount(key))

	// No identity may live in both sets.
	for _, r := range c.RemainingTasks(key) {
		assert.False(t, c.IsCompleted(key, r))
	}
}

func TestTaskCache_SetIsIdempotentAndDeduplicates(t *testing.T) {
	c := NewTaskCache()
	key := TaskKey{EventID: "evt-1"}
	tasks := []Task{{Name: "Water plants"}, {Name: "water plants "}, {Name: "Lock door"}}

	c.SetRemainingTasks(key, tasks)
	c.SetRemainingTasks(key, tasks)

	assert.Equal(t, []string{"Water plants", "Lock door"}, names(c.RemainingTasks(key)))
}

func TestTaskCache_RemainingIsDeepCopy(t *testing.T) {
	c := NewTaskCache()
	key := TaskKey{EventID: "evt-1"}
	c.SetRemainingTasks(key, []Task{{Name: "Iron shirt", Metadata: map[string]string{"room": "bedroom"}}})

	got := c.RemainingTasks(key)
	got[0].Name = "mutated"
	got[0].Metadata["room"] = "kitchen"
	_ = append(got, Task{Name: "extra"})

	again := c.RemainingTasks(key)
	require.Len(t, again, 1)
	assert.Equal(t, "Iron shirt", again[0].Name)
	assert.Equal(t, "bedroom", again[0].Metadata["room"])
}

func TestTaskCache_InputIsCopied(t *testing.T) {
	c := NewTaskCache()
	key := TaskKey{EventID: "evt-1"}
	meta := map[string]string{"k": "v"}
	in := []Task{{Name: "Call mom", Metadata: meta}}

	c.SetRemainingTasks(key, in)
	in[0].Name = "changed"
	meta["k"] = "changed"

	got := c.RemainingTasks(key)
	assert.Equal(t, "Call mom", got[0].Name)
	assert.Equal(t, "v", got[0].Metadata["k"])
}

func TestTaskCache_UserScoping(t *testing.T) {
	c := NewTaskCache()
	alice := TaskKey{UserID: "alice", EventID: "evt-1"}
	bob := TaskKey{UserID: "bob", EventID: "evt-1"}
	shared := TaskKey{EventID: "evt-1"}

	c.SetRemainingTasks(alice, []Task{{Name: "A"}})
	c.SetRemainingTasks(bob, []Task{{Name: "B"}})

	assert.Equal(t, []string{"A"}, names(c.RemainingTasks(alice)))
	assert.Equal(t, []string{"B"}, names(c.RemainingTasks(bob)))
	assert.Empty(t, c.RemainingTasks(shared))
}

func TestTaskCache_Clear(t *testing.T) {
	c := NewTaskCache()
	alice := TaskKey{UserID: "alice", EventID: "evt-1"}
	bob := TaskKey{UserID: "bob", EventID: "evt-1"}
	other := TaskKey{EventID: "evt-2"}
	for _, k := range []TaskKey{alice, bob, other} {
		c.SetRemainingTasks(k, []Task{{Name: "x"}})
	}
	c.MarkTasksCompleted(alice, []Task{{Name: "done"}})

	assert.True(t, c.Clear(alice))
	assert.False(t, c.Clear(alice), "nothing left to clear")
	assert.Empty(t, c.RemainingTasks(alice))
	assert.False(t, c.IsCompleted(alice, Task{Name: "done"}))
	assert.Len(t, c.RemainingTasks(bob), 1)

	assert.Equal(t, 1, c.ClearEvent("evt-1"))
	assert.Empty(t, c.RemainingTasks(bob))
	assert.Len(t, c.RemainingTasks(other), 1)

	c.ClearAll()
	assert.Empty(t, c.RemainingTasks(other))
}

func TestTaskCache_ScopedAndUnscopedKeysStayApart(t *testing.T) {
	c := NewTaskCache()
	scoped := TaskKey{UserID: "alice", EventID: "evt1"}
	lookalike := TaskKey{EventID: "alice:evt1"}
	require.Equal(t, scoped.String(), lookalike.String())

	c.SetRemainingTasks(scoped, []Task{{Name: "pack"}})
	c.SetRemainingTasks(lookalike, []Task{{Name: "other"}})
	c.MarkTasksCompleted(lookalike, []Task{{Name: "other"}})

	got := c.RemainingTasks(scoped)
	require.Len(t, got, 1)
	assert.Equal(t, "pack", got[0].Name)
	assert.False(t, c.IsCompleted(scoped, Task{Name: "other"}))

	assert.Equal(t, 1, c.ClearEvent("evt1"))
	assert.Empty(t, c.RemainingTasks(scoped))
	assert.Equal(t, 1, c.CompletedCount(lookalike))
}
