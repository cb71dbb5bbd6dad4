package service

import (
	"sync"

	"github.com/hanush21/anime-recommender/internal/models"
)

// tamaño del memo de vecinos calculados en modo fallback
const memoCapacity = 1024

type memoEntry struct {
	key   int
	width int
	list  models.NeighborList
	prev  *memoEntry
	next  *memoEntry
}

// neighborMemo LRU de listas de vecinos por anime. Guarda el ancho con que
// se calculó cada lista para no servir una lista más angosta que la pedida.
type neighborMemo struct {
	mu       sync.Mutex
	capacity int
	items    map[int]*memoEntry
	// head.next es el más reciente, tail.prev el próximo a desalojar
	head *memoEntry
	tail *memoEntry
}

func newNeighborMemo(capacity int) *neighborMemo {
	if capacity <= 0 {
		capacity = memoCapacity
	}
	m := &neighborMemo{
		capacity: capacity,
		items:    make(map[int]*memoEntry, capacity),
		head:     &memoEntry{},
		tail:     &memoEntry{},
	}
	m.head.next = m.tail
	m.tail.prev = m.head
	return m
}

// get devuelve la lista si fue calculada con ancho >= width.
func (m *neighborMemo) get(key, width int) (models.NeighborList, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.items[key]
	if !ok || e.width < width {
		return nil, false
	}
	m.unlink(e)
	m.pushFront(e)
	return e.list, true
}

func (m *neighborMemo) add(key, width int, list models.NeighborList) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.items[key]; ok {
		if width >= e.width {
			e.width = width
			e.list = list
		}
		m.unlink(e)
		m.pushFront(e)
		return
	}

	e := &memoEntry{key: key, width: width, list: list}
	m.items[key] = e
	m.pushFront(e)

	if len(m.items) > m.capacity {
		lru := m.tail.prev
		m.unlink(lru)
		delete(m.items, lru.key)
	}
}

func (m *neighborMemo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *neighborMemo) pushFront(e *memoEntry) {
	e.prev = m.head
	e.next = m.head.next
	m.head.next.prev = e
	m.head.next = e
}

func (m *neighborMemo) unlink(e *memoEntry) {
	e.prev.next = e.next
	e.next.prev = e.prev
	e.prev, e.next = nil, nil
}
