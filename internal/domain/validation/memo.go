package validation

import (
	"container/list"
	"sync"

	"github.com/turtacn/ChemNotation/pkg/types/chem"
)

// defaultMemoCapacity bounds the per-session memo.  Interactive editing
// produces many near-duplicate inputs (backspacing restores earlier
// strings), so even a small memo removes most repeat work.
const defaultMemoCapacity = 256

// memoCache is an LRU map from raw input to its validation result.  Safe for
// concurrent use.
type memoCache struct {
	mu    sync.Mutex
	cap   int
	order *list.List
	items map[string]*list.Element
}

type memoEntry struct {
	key    string
	result chem.ValidationResultDTO
}

func newMemoCache(capacity int) *memoCache {
	if capacity <= 0 {
		capacity = defaultMemoCapacity
	}
	return &memoCache{
		cap:   capacity,
		order: list.New(),
		items: make(map[string]*list.Element, capacity),
	}
}

func (c *memoCache) get(key string) (chem.ValidationResultDTO, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return chem.ValidationResultDTO{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*memoEntry).result, true
}

func (c *memoCache) put(key string, result chem.ValidationResultDTO) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*memoEntry).result = result
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&memoEntry{key: key, result: result})
	if c.order.Len() > c.cap {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*memoEntry).key)
	}
}

func (c *memoCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
