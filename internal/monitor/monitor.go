package monitor

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/betbot/copybot/clob/rtds"
	"github.com/betbot/copybot/internal/metrics"
	"github.com/betbot/copybot/internal/notify"
)

var log = logrus.WithField("component", "monitor")

// Executor receives accepted trades. Calls run on their own goroutine; the
// executor owns all retry and error handling.
type Executor interface {
	Execute(ctx context.Context, trade *Trade)
}

// stream is the slice of the RTDS client the monitor uses.
type stream interface {
	Connect() error
	Disconnect() error
	RegisterHandler(topic string, handler rtds.MessageHandler)
	SubscribeToActivity(eventSlug, marketSlug string, activityTypes ...string) error
}

// Config configures the intake engine.
type Config struct {
	TargetWallets  []string
	DedupRetention time.Duration
	SweepInterval  time.Duration
}

// ApplyDefaults fills the retention windows with production values.
func (c *Config) ApplyDefaults() {
	if c.DedupRetention == 0 {
		c.DedupRetention = 120 * time.Second
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = 120 * time.Second
	}
}

// Monitor consumes the activity firehose, filters it down to watched
// wallets, deduplicates, and hands normalized trades to the executor. A
// bad event never takes the subscription loop down.
type Monitor struct {
	cfg       Config
	stream    stream
	watchlist *Watchlist
	cache     *DedupCache
	executor  Executor
	notifier  notify.Notifier
	ctx       context.Context
	cancel    context.CancelFunc
}

// New creates a monitor. The notifier may be nil.
func New(cfg Config, s stream, executor Executor, notifier notify.Notifier) *Monitor {
	cfg.ApplyDefaults()
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &Monitor{
		cfg:       cfg,
		stream:    s,
		watchlist: NewWatchlist(cfg.TargetWallets),
		cache:     NewDedupCache(cfg.DedupRetention),
		executor:  executor,
		notifier:  notifier,
	}
}

// Start connects the stream, subscribes to the activity topic and launches
// the sweeper. It returns once the subscription is in place.
func (m *Monitor) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	m.stream.RegisterHandler(rtds.TopicActivity, m.handleActivity)

	if err := m.stream.Connect(); err != nil {
		return err
	}
	if err := m.stream.SubscribeToActivity("", ""); err != nil {
		return err
	}

	m.cache.StartSweeper(m.ctx, m.cfg.SweepInterval)

	log.WithFields(logrus.Fields{
		"wallets":   m.watchlist.Len(),
		"retention": m.cfg.DedupRetention,
	}).Info("watching activity stream")
	return nil
}

// Stop disconnects the stream and stops the sweeper.
func (m *Monitor) Stop() error {
	if m.cancel != nil {
		m.cancel()
	}
	return m.stream.Disconnect()
}

// handleActivity processes one activity message. It always returns nil:
// per-event failures are logged and counted, never propagated to the
// read loop.
func (m *Monitor) handleActivity(msg *rtds.Message) error {
	metrics.EventsSeen.Add(1)

	switch msg.Type {
	case rtds.TypeTrades, rtds.TypeOrdersMatched:
	default:
		return nil
	}

	raw, err := rtds.ParseTrade(msg.Payload)
	if err != nil {
		metrics.EventsMalformed.Add(1)
		log.WithError(err).Debug("dropping unparseable activity payload")
		return nil
	}

	if !m.watchlist.Contains(raw.ProxyWallet) {
		return nil
	}

	trade, err := normalizeTrade(raw, msg.Type)
	if err != nil {
		metrics.EventsMalformed.Add(1)
		log.WithError(err).WithField("wallet", raw.ProxyWallet).
			Warn("dropping malformed trade from watched wallet")
		return nil
	}

	if m.cache.Seen(trade.DedupKey()) {
		metrics.DuplicatesSuppressed.Add(1)
		log.WithFields(logrus.Fields{
			"copy_id": trade.CopyID,
			"wallet":  trade.ShortWallet(),
			"type":    trade.MessageType,
		}).Debug("duplicate event suppressed")
		return nil
	}

	metrics.TradesDetected.Add(1)
	m.notifier.Notify()

	log.WithFields(logrus.Fields{
		"copy_id": trade.CopyID,
		"wallet":  trade.ShortWallet(),
		"side":    trade.Side,
		"market":  trade.Title,
		"outcome": trade.Outcome,
		"price":   trade.Price,
		"size":    trade.Size,
		"value":   trade.Value(),
	}).Info("detected trade from watched wallet")

	m.dispatch(trade)
	return nil
}

// dispatch hands the trade to the executor without blocking the read loop.
func (m *Monitor) dispatch(trade *Trade) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				metrics.CopiesFailed.Add(1)
				log.WithField("copy_id", trade.CopyID).
					Errorf("executor panic recovered: %v", r)
			}
		}()
		m.executor.Execute(m.ctx, trade)
	}()
}

// CacheSize exposes the dedup cache size for diagnostics.
func (m *Monitor) CacheSize() int { return m.cache.Size() }
