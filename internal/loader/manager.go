package loader

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jusunglee/mrt-go/internal/graph"
	"github.com/jusunglee/mrt-go/internal/store"
)

// Manager loads network files into a store and reloads them periodically
type Manager struct {
	dir            string
	store          *store.Store
	opts           graph.Options
	maxWorkers     int
	updateInterval time.Duration
	onUpdate       []func(networks []string)
	stopCh         chan struct{}
	wg             sync.WaitGroup
	stopOnce       sync.Once
}

// NewManager creates a new network manager
func NewManager(dir string, store *store.Store, opts graph.Options, maxWorkers int, updateInterval time.Duration) *Manager {
	return &Manager{
		dir:            dir,
		store:          store,
		opts:           opts,
		maxWorkers:     maxWorkers,
		updateInterval: updateInterval,
		stopCh:         make(chan struct{}),
	}
}

// OnUpdate registers a callback run after every successful load
func (m *Manager) OnUpdate(fn func(networks []string)) {
	m.onUpdate = append(m.onUpdate, fn)
}

// Reload loads every network in the directory and swaps them into the store.
// On failure the store keeps serving the previous networks.
func (m *Manager) Reload(ctx context.Context) error {
	start := time.Now()
	networks, err := LoadDir(ctx, m.dir, m.opts, m.maxWorkers)
	if err != nil {
		return err
	}

	m.store.UpdateNetworks(networks)
	names := m.store.GetNetworks()
	log.Info().
		Str("dir", m.dir).
		Strs("networks", names).
		Dur("took", time.Since(start)).
		Msg("Loaded networks")

	for _, fn := range m.onUpdate {
		fn(names)
	}
	return nil
}

// Start begins the reload loop. It does nothing when no interval is set.
func (m *Manager) Start() {
	if m.updateInterval <= 0 {
		return
	}
	m.wg.Add(1)
	go m.updateLoop()
}

// Stop stops the reload loop
func (m *Manager) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
	m.wg.Wait()
}

func (m *Manager) updateLoop() {
	defer m.wg.Done()

	ticker := time.NewTicker(m.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.Reload(context.Background()); err != nil {
				log.Error().Err(err).Str("dir", m.dir).Msg("Reload failed")
			}
		case <-m.stopCh:
			return
		}
	}
}
