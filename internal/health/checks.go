package health

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PingCheck adapts any component exposing a context-aware Ping.
type PingCheck struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingCheck(name string, ping func(ctx context.Context) error) *PingCheck {
	return &PingCheck{name: name, ping: ping}
}

func (p *PingCheck) Name() string {
	return p.name
}

func (p *PingCheck) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	if p.ping == nil {
		return ComponentHealth{
			Name:        p.name,
			Status:      HealthStateUnhealthy,
			Message:     "Component not configured",
			LastChecked: time.Now(),
			Duration:    time.Since(start),
			Error:       "ping function is nil",
		}
	}

	if err := p.ping(ctx); err != nil {
		return ComponentHealth{
			Name:        p.name,
			Status:      HealthStateUnhealthy,
			Message:     "Component unreachable",
			LastChecked: time.Now(),
			Duration:    time.Since(start),
			Error:       err.Error(),
		}
	}

	return ComponentHealth{
		Name:        p.name,
		Status:      HealthStateHealthy,
		Message:     "Component reachable",
		LastChecked: time.Now(),
		Duration:    time.Since(start),
	}
}

// Pool is the subset of the database wrapper the pool check needs.
type Pool interface {
	Health(ctx context.Context) error
	Stats() *pgxpool.Stat
}

// DatabaseHealthCheck pings the pgx pool and reports its saturation.
type DatabaseHealthCheck struct {
	pool Pool
}

func NewDatabaseHealthCheck(pool Pool) *DatabaseHealthCheck {
	return &DatabaseHealthCheck{pool: pool}
}

func (d *DatabaseHealthCheck) Name() string {
	return "database"
}

func (d *DatabaseHealthCheck) Check(ctx context.Context) ComponentHealth {
	start := time.Now()

	if err := d.pool.Health(ctx); err != nil {
		return ComponentHealth{
			Name:        d.Name(),
			Status:      HealthStateUnhealthy,
			Message:     "Database connection failed",
			LastChecked: time.Now(),
			Duration:    time.Since(start),
			Error:       err.Error(),
		}
	}
	duration := time.Since(start)

	stats := d.pool.Stats()
	metadata := map[string]interface{}{
		"total_connections":    stats.TotalConns(),
		"acquired_connections": stats.AcquiredConns(),
		"idle_connections":     stats.IdleConns(),
		"max_connections":      stats.MaxConns(),
	}

	status := HealthStateHealthy
	message := "Database connection healthy"
	if stats.MaxConns() > 0 && stats.AcquiredConns() >= stats.MaxConns() {
		status = HealthStateWarning
		message = "Database connection pool exhausted"
	}

	return ComponentHealth{
		Name:        d.Name(),
		Status:      status,
		Message:     message,
		LastChecked: time.Now(),
		Duration:    duration,
		Metadata:    metadata,
	}
}
