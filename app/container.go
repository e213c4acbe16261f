// Package app wires configuration, logging, storage, the ledger processor
// and the assistant into one container used by the binaries.
package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moneyflow/ledger-engine/assistant"
	"github.com/moneyflow/ledger-engine/config"
	"github.com/moneyflow/ledger-engine/ledger"
	"github.com/moneyflow/ledger-engine/ledger/store"
	"github.com/moneyflow/ledger-engine/logging"
	"github.com/moneyflow/ledger-engine/query"
	"github.com/moneyflow/ledger-engine/store/file"
	"github.com/moneyflow/ledger-engine/store/postgres"
	"github.com/moneyflow/ledger-engine/store/sqlite"
	"github.com/moneyflow/ledger-engine/store/sqlstore"
)

// Container holds the application's dependencies. It is immutable after
// creation.
type Container struct {
	config    *config.Config
	logger    logging.Logger
	store     ledger.Store
	processor *ledger.Processor
	coach     *assistant.Coach
	money     query.Money
	location  *time.Location
	closers   []io.Closer
}

// Option customizes NewContainer, mainly for tests.
type Option func(*options)

type options struct {
	logger logging.Logger
	model  assistant.Model
	clock  func() time.Time
}

// WithLogger replaces the logger built from config.
func WithLogger(l logging.Logger) Option { return func(o *options) { o.logger = l } }

// WithModel enables the assistant with m instead of the Gemini client.
func WithModel(m assistant.Model) Option { return func(o *options) { o.model = m } }

// WithClock overrides the wall clock seen by the ledger.
func WithClock(clock func() time.Time) Option { return func(o *options) { o.clock = clock } }

// NewContainer creates and wires all application dependencies.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, fmt.Errorf("ledger timezone: %w", err)
	}
	c := &Container{
		config:   cfg,
		logger:   logger,
		money:    query.NewMoney(cfg.Ledger.Currency),
		location: loc,
	}

	if err := c.openStore(ctx); err != nil {
		return nil, err
	}

	clock := o.clock
	if clock == nil {
		clock = time.Now
	}
	c.processor, err = ledger.Open(ctx, c.store,
		ledger.WithLogger(logger.WithField(logging.FieldStore, cfg.Storage.Driver)),
		ledger.WithClock(func() time.Time { return clock().In(loc) }),
	)
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	c.processor.OnCommit(func(op string, s *ledger.State) {
		logger.Debug("ledger snapshot",
			logging.F(logging.FieldOperation, op),
			logging.F(logging.FieldCount, len(s.Transactions)))
	})

	if err := c.openCoach(ctx, o.model); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func (c *Container) openStore(ctx context.Context) error {
	cfg := c.config.Storage
	retain := sqlstore.WithRetention(cfg.RetainVersions)

	switch cfg.Driver {
	case config.DriverMemory:
		c.store = store.NewMemory()
	case config.DriverFile:
		s, err := file.New(cfg.Path)
		if err != nil {
			return fmt.Errorf("open file store: %w", err)
		}
		c.store = s
	case config.DriverSQLite:
		s, err := sqlite.New(ctx, cfg.Path, retain)
		if err != nil {
			return fmt.Errorf("open sqlite store: %w", err)
		}
		c.store = s
		c.closers = append(c.closers, s)
	case config.DriverPostgres:
		s, err := postgres.New(ctx, cfg.DSN, retain)
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		c.store = s
		c.closers = append(c.closers, s)
	default:
		return fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	c.logger.Info("ledger store opened", logging.F(logging.FieldStore, cfg.Driver))
	return nil
}

func (c *Container) openCoach(ctx context.Context, model assistant.Model) error {
	ai := c.config.AI
	if model == nil {
		if !ai.Enabled || ai.APIKey == "" {
			c.logger.Info("AI assistant disabled")
			return nil
		}
		gm, err := assistant.NewGeminiModel(ctx, ai.APIKey, ai.Model)
		if err != nil {
			return err
		}
		model = gm
	}
	c.coach = assistant.NewCoach(model, c.processor,
		assistant.WithLogger(c.logger.WithField(logging.FieldModel, ai.Model)),
		assistant.WithMoney(c.money),
		assistant.WithLanguage(ai.Language),
		assistant.WithTimeout(c.config.AITimeout()),
		assistant.WithProposalBook(assistant.NewProposalBook(c.config.ProposalTTL(), c.processor.Now)),
	)
	c.logger.Info("AI assistant enabled", logging.F(logging.FieldModel, ai.Model))
	return nil
}

func (c *Container) Config() *config.Config       { return c.config }
func (c *Container) Logger() logging.Logger       { return c.logger }
func (c *Container) Store() ledger.Store          { return c.store }
func (c *Container) Processor() *ledger.Processor { return c.processor }
func (c *Container) Money() query.Money           { return c.money }
func (c *Container) Location() *time.Location     { return c.location }

// Coach returns nil when the assistant is disabled.
func (c *Container) Coach() *assistant.Coach { return c.coach }

// Close releases the store.
func (c *Container) Close() error {
	var first error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil && first == nil {
			first = err
		}
	}
	c.closers = nil
	return first
}
