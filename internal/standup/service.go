// Package standup holds the bot's domain logic: storing and exporting updates,
// the guided draft flow, member categories and group settings.
package standup

import (
	"errors"
	"time"

	"standup-bot/internal/sheets"
	"standup-bot/internal/storage"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

var errMissingStore = errors.New("store dependency required")

// Config wires a Service.
type Config struct {
	Store  *storage.Store
	Sheets sheets.Client
	Clock  clockwork.Clock
	Logger *zap.Logger
}

// Service operates on the shared store. Like the store it is not safe for
// concurrent use.
type Service struct {
	store  *storage.Store
	sheets sheets.Client
	clock  clockwork.Clock
	log    *zap.Logger
}

// New validates cfg and returns a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, errMissingStore
	}
	s := &Service{store: cfg.Store, sheets: cfg.Sheets, clock: cfg.Clock, log: cfg.Logger}
	if s.clock == nil {
		s.clock = clockwork.NewRealClock()
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	return s, nil
}

// Store exposes the underlying store to collaborators that share it.
func (s *Service) Store() *storage.Store { return s.store }

// Now is the service clock in UTC.
func (s *Service) Now() time.Time { return s.clock.Now().UTC() }
