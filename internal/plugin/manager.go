package plugin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/denwilliams/go-wled-race/internal/device"
	"github.com/denwilliams/go-wled-race/internal/lighting"
	"github.com/denwilliams/go-wled-race/internal/logging"
	"github.com/denwilliams/go-wled-race/internal/race"
)

const handlerPriority = 75

var handlerNames = map[race.EventKind]string{
	race.RaceStage:   "Staging_wled_matrix",
	race.RaceStart:   "Start_wled_matrix",
	race.RaceStop:    "Stop_wled_matrix",
	race.LapRecorded: "Lap_wled_matrix",
}

// Options is the option store the manager reads and writes the device
// address through.
type Options interface {
	device.Options
	SetOption(key, namespace, value string)
}

type TestResult struct {
	Address string    `json:"address"`
	OK      bool      `json:"ok"`
	Version string    `json:"version,omitempty"`
	Error   string    `json:"error,omitempty"`
	At      time.Time `json:"at"`
}

type Status struct {
	Address  string      `json:"device_ip"`
	LastTest *TestResult `json:"last_test,omitempty"`
	Runner   RunnerStats `json:"runner"`
}

// Manager wires race events to the matrix. It is passed to everything that
// needs it; there is no package-level instance.
type Manager struct {
	bus      *race.Bus
	mapper   *lighting.Mapper
	adapter  *device.Adapter
	options  Options
	notifier Notifier
	runner   *Runner

	initOnce sync.Once

	mu       sync.RWMutex
	lastTest *TestResult
}

func New(bus *race.Bus, mapper *lighting.Mapper, adapter *device.Adapter, options Options, notifier Notifier) *Manager {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Manager{
		bus:      bus,
		mapper:   mapper,
		adapter:  adapter,
		options:  options,
		notifier: notifier,
		runner:   NewRunner(adapter),
	}
}

// Initialize registers the event handlers. Calling it again is a no-op.
func (m *Manager) Initialize() {
	m.initOnce.Do(func() {
		for _, kind := range race.Kinds() {
			kind := kind
			m.bus.On(kind, handlerNames[kind], func(args race.Args) {
				m.HandleEvent(kind, args)
			}, handlerPriority)
		}
		logging.Debug("WLED plugin initialized")
	})
}

// Teardown removes the event handlers so events emitted during shutdown no
// longer reach the runner.
func (m *Manager) Teardown() {
	for _, kind := range race.Kinds() {
		m.bus.Off(kind, handlerNames[kind])
	}
	logging.Debug("WLED plugin handlers removed")
}

// Run drives the runner until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	m.runner.Run(ctx)
}

// HandleEvent maps the event and queues its sequence. It does not block on
// the device.
func (m *Manager) HandleEvent(kind race.EventKind, args race.Args) {
	seq, err := m.mapper.Map(kind, lighting.PayloadFromArgs(args))
	if err != nil {
		logging.Warn("Ignoring event: %s", err)
		return
	}
	logging.Debug("Queueing %s sequence with %d steps over %s", kind, len(seq.Steps), seq.Duration())
	m.runner.Submit(seq)
}

// Trigger maps the event and plays it on the caller's goroutine.
func (m *Manager) Trigger(ctx context.Context, kind race.EventKind, args race.Args) error {
	seq, err := m.mapper.Map(kind, lighting.PayloadFromArgs(args))
	if err != nil {
		return err
	}
	m.runner.Play(ctx, seq)
	return nil
}

// SaveAddress stores the device address and then tests it.
func (m *Manager) SaveAddress(ctx context.Context, address string) error {
	m.options.SetOption(device.OptionDeviceIP, device.Namespace, address)
	logging.Info("Saved WLED device address %s", address)
	return m.TestConnection(ctx)
}

// TestConnection connects to the configured device and notifies the result
// exactly once.
func (m *Manager) TestConnection(ctx context.Context) error {
	address, info, err := m.adapter.Test(ctx)

	result := &TestResult{Address: address, At: time.Now()}
	if err != nil {
		result.Error = err.Error()
		m.setLastTest(result)
		logging.Warn("WLED connection test failed: %s", err)
		m.notifier.Notify(fmt.Sprintf("Unable to connect to WLED device at %s", address))
		return err
	}

	result.OK = true
	result.Version = info.Version
	m.setLastTest(result)
	m.notifier.Notify(fmt.Sprintf("Connected to WLED device at %s with version: %s", address, info.Version))
	return nil
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var last *TestResult
	if m.lastTest != nil {
		copied := *m.lastTest
		last = &copied
	}
	return Status{
		Address:  m.adapter.Address(),
		LastTest: last,
		Runner:   m.runner.Stats(),
	}
}

func (m *Manager) Bus() *race.Bus {
	return m.bus
}

func (m *Manager) setLastTest(r *TestResult) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastTest = r
}
