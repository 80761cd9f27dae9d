// Package display is the labelled-value surface the battery monitor writes
// to. The daemon keeps it in memory and serves it over HTTP and SSE, so any
// e-paper or web front end can render it.
package display

import (
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inaups/inaups/pkg/events"
)

// Position is the top-left corner of an element on the screen.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Style carries rendering hints. Values are opaque to the daemon.
type Style struct {
	Color     string `json:"color,omitempty"`
	LabelFont string `json:"labelFont,omitempty"`
	TextFont  string `json:"textFont,omitempty"`
}

// Element is a labelled value.
type Element struct {
	Label    string   `json:"label"`
	Value    string   `json:"value"`
	Position Position `json:"position"`
	Style    Style    `json:"style"`
}

// Display is what a UI host exposes to the monitor.
type Display interface {
	AddElement(key string, e Element)
	Set(key, value string)
	// SetStatus replaces the free-form status line.
	SetStatus(msg string)
}

// KeyedElement is an Element together with its key.
type KeyedElement struct {
	Key string `json:"key"`
	Element
}

// Snapshot is a point-in-time copy of a Board.
type Snapshot struct {
	Elements  []KeyedElement `json:"elements"`
	Status    string         `json:"status"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

var _ Display = &Board{}

// Board is an in-memory Display. Every change is published on the hub.
type Board struct {
	mu        sync.RWMutex
	elements  map[string]*Element
	status    string
	updatedAt time.Time

	hub *events.EventHub
}

// NewBoard returns an empty board. hub may be nil.
func NewBoard(hub *events.EventHub) *Board {
	return &Board{
		elements: make(map[string]*Element),
		hub:      hub,
	}
}

func (b *Board) AddElement(key string, e Element) {
	b.mu.Lock()
	if _, ok := b.elements[key]; ok {
		logrus.WithField("key", key).Debug("replacing display element")
	}
	b.elements[key] = &e
	b.updatedAt = time.Now()
	b.mu.Unlock()

	b.hub.Publish(events.DisplayUpdate, events.DisplayUpdateEvent{Key: key, Value: e.Value, Ts: time.Now().Unix()})
}

// Set updates the value of an existing element. Unknown keys are dropped.
func (b *Board) Set(key, value string) {
	b.mu.Lock()
	e, ok := b.elements[key]
	if !ok {
		b.mu.Unlock()
		logrus.WithField("key", key).Warn("display element does not exist, value dropped")
		return
	}
	changed := e.Value != value
	e.Value = value
	b.updatedAt = time.Now()
	b.mu.Unlock()

	if changed {
		b.hub.Publish(events.DisplayUpdate, events.DisplayUpdateEvent{Key: key, Value: value, Ts: time.Now().Unix()})
	}
}

func (b *Board) SetStatus(msg string) {
	b.mu.Lock()
	b.status = msg
	b.updatedAt = time.Now()
	b.mu.Unlock()

	b.hub.Publish(events.DisplayUpdate, events.DisplayUpdateEvent{Key: "status", Value: msg, Ts: time.Now().Unix()})
}

// Get returns the element stored under key.
func (b *Board) Get(key string) (Element, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	e, ok := b.elements[key]
	if !ok {
		return Element{}, false
	}
	return *e, true
}

// Status returns the status line.
func (b *Board) Status() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.status
}

// Snapshot returns all elements sorted by key.
func (b *Board) Snapshot() Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	s := Snapshot{
		Elements:  make([]KeyedElement, 0, len(b.elements)),
		Status:    b.status,
		UpdatedAt: b.updatedAt,
	}
	for k, e := range b.elements {
		s.Elements = append(s.Elements, KeyedElement{Key: k, Element: *e})
	}
	sort.Slice(s.Elements, func(i, j int) bool { return s.Elements[i].Key < s.Elements[j].Key })

	return s
}
