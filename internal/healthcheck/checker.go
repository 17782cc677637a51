package healthcheck

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Probe checks one dependency. A failing critical probe makes the whole
// service unhealthy; a failing non-critical one only degrades it.
type Probe struct {
	Name     string
	Critical bool
	Check    func(ctx context.Context) error
}

// Performs periodic health checks on the service dependencies
type Checker struct {
	mu          sync.RWMutex
	probes      []Probe
	status      map[string]*Status
	interval    time.Duration
	timeout     time.Duration
	maxFailures int
	stopChan    chan struct{}
	done        chan struct{}
	running     bool
	now         func() time.Time
}

type Config struct {
	Probes      []Probe
	Interval    time.Duration // default: 10s
	Timeout     time.Duration // per probe, default: 2s
	MaxFailures int           // failures before marking unhealthy, default: 3
}

func NewChecker(cfg Config) *Checker {
	if cfg.Interval <= 0 {
		cfg.Interval = 10 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}

	checker := &Checker{
		probes:      cfg.Probes,
		status:      make(map[string]*Status, len(cfg.Probes)),
		interval:    cfg.Interval,
		timeout:     cfg.Timeout,
		maxFailures: cfg.MaxFailures,
		now:         time.Now,
	}

	// Assume healthy until proven otherwise
	for _, p := range cfg.Probes {
		checker.status[p.Name] = &Status{Name: p.Name, Critical: p.Critical, IsHealthy: true}
	}

	return checker
}

// Start runs one round immediately and then checks on every interval until Stop.
func (c *Checker) Start() {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return
	}
	c.running = true
	c.stopChan = make(chan struct{})
	c.done = make(chan struct{})
	stop, done := c.stopChan, c.done
	c.mu.Unlock()

	log.Info().Int("probes", len(c.probes)).Dur("interval", c.interval).Msg("starting health checks")

	c.CheckAll()

	go func() {
		defer close(done)
		ticker := time.NewTicker(c.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				c.CheckAll()
			case <-stop:
				return
			}
		}
	}()
}

func (c *Checker) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	close(c.stopChan)
	c.running = false
	done := c.done
	c.mu.Unlock()

	<-done
	log.Info().Msg("health checker stopped")
}

// CheckAll runs every probe concurrently and records the results.
func (c *Checker) CheckAll() {
	var wg sync.WaitGroup

	for _, p := range c.probes {
		wg.Add(1)
		go func(p Probe) {
			defer wg.Done()
			c.check(p)
		}(p)
	}

	wg.Wait()
}

func (c *Checker) check(p Probe) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := p.Check(ctx); err != nil {
		c.recordFailure(p.Name, err)
		return
	}
	c.recordSuccess(p.Name)
}

func (c *Checker) recordSuccess(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	status := c.status[name]
	status.LastCheck = now
	status.LastSuccess = now
	status.LastError = ""
	status.FailureCount = 0

	if !status.IsHealthy {
		log.Info().Str("probe", name).Msg("dependency is healthy again")
		status.IsHealthy = true
	}
}

func (c *Checker) recordFailure(name string, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	status := c.status[name]
	status.LastCheck = now
	status.LastFailure = now
	status.LastError = err.Error()
	status.FailureCount++

	if status.IsHealthy && status.FailureCount >= c.maxFailures {
		log.Error().Err(err).Str("probe", name).Int("failures", status.FailureCount).Msg("dependency is unhealthy")
		status.IsHealthy = false
	}
}

// Snapshot returns copies of every probe status, ordered by name.
func (c *Checker) Snapshot() []Status {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Status, 0, len(c.status))
	for _, s := range c.status {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

func (c *Checker) OverallHealth() HealthStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	overall := Healthy
	for _, s := range c.status {
		if s.IsHealthy {
			continue
		}
		if s.Critical {
			return Unhealthy
		}
		overall = Degraded
	}

	return overall
}
