package agent

import (
	"log/slog"
	"sync"

	"github.com/greenlens/greenlens/internal/llm"
	"github.com/greenlens/greenlens/internal/store"
	"github.com/greenlens/greenlens/internal/tools"
)

// Lazy defers orchestrator construction until first use and guarantees the
// build function runs at most once, however many goroutines race on Get.
// The heavy model client and the tool registrations are therefore created
// exactly once per process.
type Lazy struct {
	build func() (*Orchestrator, error)
	orch  *Orchestrator
	err   error
	once  sync.Once
}

// NewLazy wraps a build function in once-only initialization.
func NewLazy(build func() (*Orchestrator, error)) *Lazy {
	return &Lazy{build: build}
}

// Get returns the orchestrator, building it on the first call. A failed
// build is sticky: every caller observes the same error.
func (l *Lazy) Get() (*Orchestrator, error) {
	l.once.Do(func() {
		l.orch, l.err = l.build()
	})
	return l.orch, l.err
}

var defaultLazy *Lazy
var defaultMu sync.Mutex

// Default returns the process-wide orchestrator singleton, creating the
// model client and registering the tool catalog on first use. Concurrent
// first calls observe exactly one client and one set of registrations.
func Default(cfg llm.Config, st store.Store, logger *slog.Logger) (*Orchestrator, error) {
	defaultMu.Lock()
	if defaultLazy == nil {
		defaultLazy = NewLazy(func() (*Orchestrator, error) {
			client, err := llm.NewClient(cfg)
			if err != nil {
				return nil, err
			}
			registry, err := tools.NewDefaultRegistry(st, logger)
			if err != nil {
				return nil, err
			}
			return New(client, registry, st, logger), nil
		})
	}
	lazy := defaultLazy
	defaultMu.Unlock()

	return lazy.Get()
}
