package domain

import (
	"context"
	"time"
)

// Evaluator maps a validated snapshot to a triage result. Implementations must be
// pure: no shared state, no I/O.
type Evaluator interface {
	Evaluate(snapshot PatientSnapshot) EvaluationResult
	Rules() []TriageRule
}

// DispositionRecorder keeps de-identified daily counts of final dispositions.
type DispositionRecorder interface {
	Record(ctx context.Context, day time.Time, recommendation Priority) error
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetDatabaseConfig() *DatabaseConfig
	GetServerConfig() *ServerConfig
	GetTriageConfig() *TriageConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetDatabaseURL() string
	IsProduction() bool
	IsDevelopment() bool
}
