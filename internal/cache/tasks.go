package cache

import (
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Task is one preparation step produced by the analysis step.
type Task struct {
	ID            string            `json:"id,omitempty"`
	Name          string            `json:"task"`
	Category      string            `json:"category,omitempty"`
	Description   string            `json:"description,omitempty"`
	EstimatedTime string            `json:"estimated_time,omitempty"`
	Priority      string            `json:"priority,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

func (t Task) clone() Task {
	if t.Metadata != nil {
		m := make(map[string]string, len(t.Metadata))
		for k, v := range t.Metadata {
			m[k] = v
		}
		t.Metadata = m
	}
	return t
}

// TaskIdentity returns the stable identity of a task: its explicit id, or
// a lowercased composite of name, category, description and estimated time.
// Two tasks that only differ in case or surrounding whitespace share an
// identity.
func TaskIdentity(t Task) string {
	if id := strings.TrimSpace(t.ID); id != "" {
		return "id:" + id
	}
	lower := cases.Lower(language.Und)
	parts := []string{t.Name, t.Category, t.Description, t.EstimatedTime}
	for i, p := range parts {
		parts[i] = lower.String(strings.TrimSpace(p))
	}
	return "task:" + strings.Join(parts, "|")
}

// TaskKey scopes task state to an event, optionally per user. It is used
// as a map key as is, so user and event ids never need escaping.
type TaskKey struct {
	UserID  string
	EventID string
}

func (k TaskKey) String() string {
	if k.UserID == "" {
		return k.EventID
	}
	return k.UserID + ":" + k.EventID
}

type taskEntry struct {
	remaining []Task
	completed map[string]struct{}
}

// TaskCache tracks which generated tasks are still unscheduled and which
// were completed, per event.
type TaskCache struct {
	mu      sync.Mutex
	entries map[TaskKey]*taskEntry
}

func NewTaskCache() *TaskCache {
	return &TaskCache{entries: make(map[TaskKey]*taskEntry)}
}

func (c *TaskCache) entry(key TaskKey) *taskEntry {
	e, ok := c.entries[key]
	if !ok {
		e = &taskEntry{completed: make(map[string]struct{})}
		c.entries[key] = e
	}
	return e
}

// SetRemainingTasks replaces the remaining list. Tasks already completed
// are left out, so repeating the call never resurrects them.
func (c *TaskCache) SetRemainingTasks(key TaskKey, tasks []Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	seen := make(map[string]struct{}, len(tasks))
	remaining := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		id := TaskIdentity(t)
		if _, done := e.completed[id]; done {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		remaining = append(remaining, t.clone())
	}
	e.remaining = remaining
}

// MarkTasksCompleted records tasks as completed and removes them from the
// remaining list. Unknown tasks are recorded too.
func (c *TaskCache) MarkTasksCompleted(key TaskKey, tasks []Task) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entry(key)
	for _, t := range tasks {
		e.completed[TaskIdentity(t)] = struct{}{}
	}
	kept := e.remaining[:0]
	for _, t := range e.remaining {
		if _, done := e.completed[TaskIdentity(t)]; !done {
			kept = append(kept, t)
		}
	}
	e.remaining = kept
}

// RemainingTasks returns a deep copy of the remaining tasks.
func (c *TaskCache) RemainingTasks(key TaskKey) []Task {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return []Task{}
	}
	out := make([]Task, len(e.remaining))
	for i, t := range e.remaining {
		out[i] = t.clone()
	}
	return out
}

func (c *TaskCache) IsCompleted(key TaskKey, t Task) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	_, done := e.completed[TaskIdentity(t)]
	return done
}

// CompletedCount reports how many distinct tasks were completed for key.
func (c *TaskCache) CompletedCount(key TaskKey) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		return len(e.completed)
	}
	return 0
}

// Clear drops the state of one key and reports whether there was any.
func (c *TaskCache) Clear(key TaskKey) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// ClearEvent drops the state of an event for every user.
func (c *TaskCache) ClearEvent(eventID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for k := range c.entries {
		if k.EventID == eventID {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *TaskCache) ClearAll() {
	c.mu.Lock()
	c.entries = make(map[TaskKey]*taskEntry)
	c.mu.Unlock()
}
