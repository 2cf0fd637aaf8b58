// Package health runs on-demand component checks for the /health endpoint.
package health

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

type HealthState string

const (
	HealthStateHealthy   HealthState = "healthy"
	HealthStateUnhealthy HealthState = "unhealthy"
	HealthStateWarning   HealthState = "warning"
)

// ComponentHealth is the outcome of one check.
type ComponentHealth struct {
	Name        string                 `json:"name"`
	Status      HealthState            `json:"status"`
	Message     string                 `json:"message"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"duration"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Error       string                 `json:"error,omitempty"`
}

// HealthStatus aggregates every registered check.
type HealthStatus struct {
	Overall    HealthState                `json:"overall"`
	Timestamp  time.Time                  `json:"timestamp"`
	Version    string                     `json:"version"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
}

// HealthCheck is a single probe. Check must honour ctx cancellation.
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) ComponentHealth
}

// Checker runs all registered checks concurrently, each bounded by timeout.
type Checker struct {
	logger  *logrus.Logger
	version string
	timeout time.Duration
	started time.Time

	mutex  sync.RWMutex
	checks []HealthCheck
}

func NewChecker(logger *logrus.Logger, version string, timeout time.Duration) *Checker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Checker{
		logger:  logger,
		version: version,
		timeout: timeout,
		started: time.Now(),
	}
}

// RegisterCheck adds check to the set run by Run.
func (h *Checker) RegisterCheck(check HealthCheck) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.checks = append(h.checks, check)
}

// Names lists the registered checks in sorted order.
func (h *Checker) Names() []string {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	names := make([]string, 0, len(h.checks))
	for _, c := range h.checks {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}

// Run executes every check and aggregates the result. Any unhealthy component
// makes the whole status unhealthy; warnings only degrade it to warning.
func (h *Checker) Run(ctx context.Context) *HealthStatus {
	h.mutex.RLock()
	checks := make([]HealthCheck, len(h.checks))
	copy(checks, h.checks)
	h.mutex.RUnlock()

	startTime := time.Now()
	results := make(chan ComponentHealth, len(checks))
	var wg sync.WaitGroup

	for _, check := range checks {
		wg.Add(1)
		go func(c HealthCheck) {
			defer wg.Done()
			checkCtx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			results <- c.Check(checkCtx)
		}(check)
	}

	wg.Wait()
	close(results)

	overallHealthy := true
	hasWarnings := false
	components := make(map[string]ComponentHealth, len(checks))
	var unhealthy []string
	for result := range results {
		components[result.Name] = result

		switch result.Status {
		case HealthStateUnhealthy:
			overallHealthy = false
			unhealthy = append(unhealthy, result.Name)
		case HealthStateWarning:
			hasWarnings = true
		}
	}

	overallStatus := HealthStateHealthy
	if !overallHealthy {
		overallStatus = HealthStateUnhealthy
	} else if hasWarnings {
		overallStatus = HealthStateWarning
	}

	if overallStatus != HealthStateHealthy {
		sort.Strings(unhealthy)
		h.logger.WithFields(logrus.Fields{
			"overall_status":       overallStatus,
			"unhealthy_components": unhealthy,
		}).Warn("Health check completed with issues")
	} else {
		h.logger.Debug("Health check completed successfully")
	}

	return &HealthStatus{
		Overall:    overallStatus,
		Timestamp:  startTime.UTC(),
		Version:    h.version,
		Uptime:     time.Since(h.started).Round(time.Second).String(),
		Components: components,
	}
}
