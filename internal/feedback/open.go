package feedback

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/onco-triage-server/internal/domain"
)

// Open returns the backend selected by cfg. The postgres backend is wrapped in
// a circuit breaker; databaseURL is only used for it.
func Open(cfg domain.FeedbackConfig, databaseURL string, logger *logrus.Logger) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "sqlite":
		store, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.WithField("driver", "sqlite").Info("Feedback store opened")
		return store, nil

	case "postgres":
		store, err := NewPostgresStoreFromURL(databaseURL)
		if err != nil {
			return nil, err
		}
		logger.WithField("driver", "postgres").Info("Feedback store opened")
		return NewBreakerStore(store, BreakerSettings{}, logger), nil

	default:
		return nil, fmt.Errorf("unknown feedback driver: %s", cfg.Driver)
	}
}
