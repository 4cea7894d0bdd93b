package cache

import (
	"container/list"
	"strings"

	"github.com/go-faster/errors"
)

// Policy decides which key leaves a full cache. Implementations are called with
// the cache lock held and need no synchronization of their own.
type Policy[K comparable] interface {
	// Add records a newly inserted key.
	Add(key K)
	// Touch records an access to an existing key.
	Touch(key K)
	// Remove forgets a key.
	Remove(key K)
	// Victim returns the next key to evict.
	Victim() (K, bool)
}

// orderedPolicy keeps keys in a list; front is the next victim.
type orderedPolicy[K comparable] struct {
	order       *list.List
	elems       map[K]*list.Element
	moveOnTouch bool
}

func newOrdered[K comparable](moveOnTouch bool) *orderedPolicy[K] {
	return &orderedPolicy[K]{
		order:       list.New(),
		elems:       make(map[K]*list.Element),
		moveOnTouch: moveOnTouch,
	}
}

// NewLRU evicts the least recently used key.
func NewLRU[K comparable]() Policy[K] {
	return newOrdered[K](true)
}

// NewFIFO evicts the oldest inserted key regardless of access.
func NewFIFO[K comparable]() Policy[K] {
	return newOrdered[K](false)
}

func (p *orderedPolicy[K]) Add(key K) {
	if el, ok := p.elems[key]; ok {
		p.order.MoveToBack(el)
		return
	}
	p.elems[key] = p.order.PushBack(key)
}

func (p *orderedPolicy[K]) Touch(key K) {
	if !p.moveOnTouch {
		return
	}
	if el, ok := p.elems[key]; ok {
		p.order.MoveToBack(el)
	}
}

func (p *orderedPolicy[K]) Remove(key K) {
	if el, ok := p.elems[key]; ok {
		p.order.Remove(el)
		delete(p.elems, key)
	}
}

func (p *orderedPolicy[K]) Victim() (K, bool) {
	el := p.order.Front()
	if el == nil {
		var zero K
		return zero, false
	}
	return el.Value.(K), true
}

// ErrUnknownPolicy is returned by PolicyByName for unsupported names.
var ErrUnknownPolicy = errors.New("unknown eviction policy")

// PolicyByName returns the policy for a configuration value: "lru" (or empty)
// and "fifo" are supported.
func PolicyByName[K comparable](name string) (Policy[K], error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "lru":
		return NewLRU[K](), nil
	case "fifo":
		return NewFIFO[K](), nil
	default:
		return nil, errors.Wrapf(ErrUnknownPolicy, "%q", name)
	}
}
