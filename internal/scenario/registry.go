package scenario

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/roach88/soloist/internal/apartment"
)

// ErrDeliberateFailure is the sentinel the fail-sentinel workload fails
// with. Tests match it with errors.Is to prove failure identity survives
// the worker boundary.
var ErrDeliberateFailure = errors.New("deliberate workload failure")

// Forms are the executable shapes of one workload. A workload offers the
// forms that make sense for it; a scenario mode that needs a missing form
// is rejected by the runner.
type Forms struct {
	// Sync runs on the calling goroutine. Used by measure mode.
	Sync func()

	// Pumped is driven to completion through a pump frame.
	// Used by pumped mode and, when Sync is absent, by measure mode.
	Pumped apartment.Workload

	// Action runs as a plain apartment action. Used by apartment mode.
	Action func(*apartment.Apartment) error
}

// Entry describes a registered workload.
type Entry struct {
	Name        string
	Description string

	// Make builds fresh forms for one run. Accumulation state lives inside
	// one build, so runs never see each other's leftovers.
	Make func() Forms
}

var (
	regMu    sync.RWMutex
	registry = make(map[string]Entry)
)

// Register adds a workload to the registry.
func Register(e Entry) error {
	if e.Name == "" {
		return fmt.Errorf("workload name is required")
	}
	if e.Make == nil {
		return fmt.Errorf("workload %q: make function is required", e.Name)
	}

	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := registry[e.Name]; exists {
		return fmt.Errorf("workload %q is already registered", e.Name)
	}
	registry[e.Name] = e
	return nil
}

// MustRegister is Register for package initialization; it panics on error.
func MustRegister(e Entry) {
	if err := Register(e); err != nil {
		panic(err)
	}
}

// Lookup returns the workload registered under name.
func Lookup(name string) (Entry, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	e, ok := registry[name]
	return e, ok
}

// Names returns all registered workload names, sorted.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// The builtin workloads cover the harness's own contracts: each one pins a
// behavior a scenario file can then assert on.
func init() {
	MustRegister(Entry{
		Name:        "noop",
		Description: "completes immediately; allocates nothing, retains nothing",
		Make: func() Forms {
			return Forms{
				Sync: func() {},
				Pumped: func(p *apartment.Pump) *apartment.Completion {
					c := apartment.NewCompletion(p)
					p.Post(func() { c.Complete() })
					return c
				},
				Action: func(*apartment.Apartment) error { return nil },
			}
		},
	})

	MustRegister(Entry{
		Name:        "alloc-release",
		Description: "allocates 256 bytes per call and releases all of it",
		Make: func() Forms {
			var sink []byte
			_ = sink
			work := func() {
				sink = make([]byte, 256)
				sink = nil
			}
			return Forms{
				Sync: work,
				Pumped: func(p *apartment.Pump) *apartment.Completion {
					c := apartment.NewCompletion(p)
					p.Post(func() {
						work()
						c.Complete()
					})
					return c
				},
			}
		},
	})

	MustRegister(Entry{
		Name:        "retain",
		Description: "permanently retains 1KiB per call; measurement must fail",
		Make: func() Forms {
			var hoard [][]byte
			return Forms{
				Sync: func() {
					hoard = append(hoard, make([]byte, 1024))
				},
			}
		},
	})

	MustRegister(Entry{
		Name:        "repost-three",
		Description: "posts itself three times and completes on the third execution",
		Make: func() Forms {
			return Forms{
				Pumped: func(p *apartment.Pump) *apartment.Completion {
					c := apartment.NewCompletion(apartment.Inline)
					remaining := 3
					var hop func()
					hop = func() {
						remaining--
						if remaining == 0 {
							c.Complete()
							return
						}
						p.Post(hop)
					}
					p.Post(hop)
					return c
				},
			}
		},
	})

	MustRegister(Entry{
		Name:        "nested",
		Description: "pushes an inner pump frame before completing",
		Make: func() Forms {
			return Forms{
				Pumped: func(p *apartment.Pump) *apartment.Completion {
					c := apartment.NewCompletion(apartment.Inline)
					p.Post(func() {
						inner := p.NewFrame()
						p.Post(func() { inner.Stop() })
						if err := p.Push(inner); err != nil {
							c.Fail(err)
							return
						}
						c.Complete()
					})
					return c
				},
			}
		},
	})

	MustRegister(Entry{
		Name:        "fail-sentinel",
		Description: "fails with a fixed sentinel error",
		Make: func() Forms {
			return Forms{
				Pumped: func(p *apartment.Pump) *apartment.Completion {
					c := apartment.NewCompletion(p)
					p.Post(func() { c.Fail(ErrDeliberateFailure) })
					return c
				},
				Action: func(*apartment.Apartment) error {
					return ErrDeliberateFailure
				},
			}
		},
	})

	MustRegister(Entry{
		Name:        "never-settles",
		Description: "returns a completion that never settles; the run must time out",
		Make: func() Forms {
			return Forms{
				Pumped: func(p *apartment.Pump) *apartment.Completion {
					return apartment.NewCompletion(p)
				},
			}
		},
	})

	MustRegister(Entry{
		Name:        "post-storm",
		Description: "four goroutines post eight callbacks each; completes after all ran",
		Make: func() Forms {
			const posters, perPoster = 4, 8
			return Forms{
				Pumped: func(p *apartment.Pump) *apartment.Completion {
					c := apartment.NewCompletion(apartment.Inline)
					executed := 0 // owner-confined
					for g := 0; g < posters; g++ {
						go func() {
							for i := 0; i < perPoster; i++ {
								p.Post(func() {
									executed++
									if executed == posters*perPoster {
										c.Complete()
									}
								})
							}
						}()
					}
					return c
				},
			}
		},
	})
}
