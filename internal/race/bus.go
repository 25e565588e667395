package race

import (
	"sort"
	"sync"

	"github.com/denwilliams/go-wled-race/internal/logging"
)

type Handler func(args Args)

type registration struct {
	name     string
	priority int
	handler  Handler
	seq      int
}

// Bus is a minimal in-process stand-in for the timing host's event manager.
// Handlers are keyed by name per event, so registering twice is harmless.
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventKind]map[string]registration
	seq      int
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[EventKind]map[string]registration)}
}

// On registers handler under name for kind. A second registration with the
// same name replaces the first.
func (b *Bus) On(kind EventKind, name string, handler Handler, priority int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	byName, ok := b.handlers[kind]
	if !ok {
		byName = make(map[string]registration)
		b.handlers[kind] = byName
	}

	seq := b.seq
	if existing, ok := byName[name]; ok {
		seq = existing.seq
	} else {
		b.seq++
	}
	byName[name] = registration{name: name, priority: priority, handler: handler, seq: seq}
	logging.Debug("Registered handler %s for %s", name, kind)
}

// Off removes a named handler.
func (b *Bus) Off(kind EventKind, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.handlers[kind], name)
}

// Handlers returns the registered handler names for kind in dispatch order.
func (b *Bus) Handlers(kind EventKind) []string {
	regs := b.ordered(kind)
	names := make([]string, 0, len(regs))
	for _, r := range regs {
		names = append(names, r.name)
	}
	return names
}

// Emit runs every handler for kind in ascending priority order and returns
// the number of handlers run. A panicking handler does not stop the others.
func (b *Bus) Emit(kind EventKind, args Args) int {
	regs := b.ordered(kind)
	if len(regs) == 0 {
		logging.Debug("No handlers for %s", kind)
		return 0
	}

	if args == nil {
		args = Args{}
	}
	for _, r := range regs {
		b.dispatch(kind, r, args)
	}
	return len(regs)
}

func (b *Bus) dispatch(kind EventKind, r registration, args Args) {
	defer func() {
		if p := recover(); p != nil {
			logging.Error("Handler %s for %s panicked: %v", r.name, kind, p)
		}
	}()
	r.handler(args)
}

func (b *Bus) ordered(kind EventKind) []registration {
	b.mu.RLock()
	regs := make([]registration, 0, len(b.handlers[kind]))
	for _, r := range b.handlers[kind] {
		regs = append(regs, r)
	}
	b.mu.RUnlock()

	sort.Slice(regs, func(i, j int) bool {
		if regs[i].priority != regs[j].priority {
			return regs[i].priority < regs[j].priority
		}
		return regs[i].seq < regs[j].seq
	})
	return regs
}
