package model

import (
	"fmt"
	"sync"
	"time"
)

// ProjectMeta records who saved a project, when, and under which version.
type ProjectMeta struct {
	CreatedAt time.Time `json:"created_at"`
	Version   string    `json:"version"`
	User      string    `json:"user"`
}

func NewProjectMeta() ProjectMeta {
	return ProjectMeta{
		CreatedAt: time.Now().UTC(),
		Version:   "1.0.0",
		User:      "unknown",
	}
}

// Project owns the items placed in (or waiting outside) one container.
// All access to the item list goes through its methods, which are safe for
// concurrent use. The items themselves are not locked: callers that mutate a
// box or stack must serialise those writes.
type Project struct {
	Name      string
	Container Container

	mu    sync.RWMutex
	meta  ProjectMeta
	items []Item
}

func NewProject(name string, c Container) *Project {
	return &Project{
		Name:      name,
		Container: c,
		meta:      NewProjectMeta(),
		items:     []Item{},
	}
}

func (p *Project) Meta() ProjectMeta {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.meta
}

func (p *Project) SetMeta(m ProjectMeta) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.meta = m
}

// Add appends items to the project.
func (p *Project) Add(items ...Item) error {
	for _, it := range items {
		if IsNilItem(it) {
			return fmt.Errorf("%w: cannot add nil item", ErrInvalidInput)
		}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.items = append(p.items, items...)
	return nil
}

// Remove deletes item (by identity). Returns true if it was present.
func (p *Project) Remove(item Item) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.removeLocked(item)
}

func (p *Project) removeLocked(item Item) bool {
	for i, it := range p.items {
		if it == item {
			p.items = append(p.items[:i], p.items[i+1:]...)
			return true
		}
	}
	return false
}

// Replace removes every item in old and appends with, atomically. It is used
// when boxes merge into a stack.
func (p *Project) Replace(with Item, old ...Item) error {
	if IsNilItem(with) {
		return fmt.Errorf("%w: cannot add nil item", ErrInvalidInput)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, it := range old {
		p.removeLocked(it)
	}
	p.items = append(p.items, with)
	return nil
}

// Items returns a snapshot of the item list.
func (p *Project) Items() []Item {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]Item(nil), p.items...)
}

func (p *Project) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.items)
}

// Find returns the first item with the given name, or nil.
func (p *Project) Find(name string) Item {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, it := range p.items {
		if it.Label() == name {
			return it
		}
	}
	return nil
}

// TotalWeight returns the weight of all boxes in kg.
func (p *Project) TotalWeight() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var total float64
	for _, it := range p.items {
		total += ItemWeight(it)
	}
	return total
}

// MaxHeight returns the tallest box or stack height in mm.
func (p *Project) MaxHeight() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var maxH float64
	for _, it := range p.items {
		if h := ItemHeight(it); h > maxH {
			maxH = h
		}
	}
	return maxH
}

// Split partitions the items into those loaded inside the container floor
// and those still waiting outside it.
func (p *Project) Split() (loaded, waiting []Item) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, it := range p.items {
		if it.BoundingBox().Within(p.Container.InnerLength, p.Container.InnerWidth) {
			loaded = append(loaded, it)
		} else {
			waiting = append(waiting, it)
		}
	}
	return loaded, waiting
}

// BoxCount returns the number of individual boxes, counting stack members.
func (p *Project) BoxCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n := 0
	for _, it := range p.items {
		n += len(ItemBoxes(it))
	}
	return n
}

// IsNilItem reports whether it is nil or a typed nil box or stack.
func IsNilItem(it Item) bool {
	switch v := it.(type) {
	case nil:
		return true
	case *Box:
		return v == nil
	case *Stack:
		return v == nil
	}
	return false
}
