package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"caresync/internal/logger"
	"caresync/pkg"
)

// Notifier wraps LISTEN/NOTIFY in PostgreSQL so that every API instance
// sees query events raised by any other instance.
type Notifier struct {
	DB      *sql.DB
	DSN     string
	Channel string
}

// NewNotifier constructs a new Notifier.  The channel should match the
// POSTGRES_NOTIFY_CHANNEL environment variable.
func NewNotifier(db *sql.DB, dsn, channel string) *Notifier {
	return &Notifier{DB: db, DSN: dsn, Channel: channel}
}

// Publish sends ev as a JSON payload on the channel.
func (n *Notifier) Publish(ctx context.Context, ev pkg.QueryEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	// NOTIFY does not accept bind parameters; pg_notify does.
	_, err = n.DB.ExecContext(ctx, `SELECT pg_notify($1, $2)`, n.Channel, string(payload))
	return err
}

// Relay listens on the channel and forwards every decoded event to b until
// ctx is cancelled.  It uses a dedicated pq.Listener connection which
// reconnects on its own.
func (n *Notifier) Relay(ctx context.Context, b *Broker) error {
	log := logger.L().With().Str("component", "notifier").Logger()
	l := pq.NewListener(n.DSN, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Warn().Err(err).Int("event", int(ev)).Msg("listener event")
		}
	})
	defer l.Close()

	if err := l.Listen(n.Channel); err != nil {
		return fmt.Errorf("listen %s: %w", pq.QuoteIdentifier(n.Channel), err)
	}

	ping := time.NewTicker(90 * time.Second)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case note := <-l.Notify:
			// nil after a reconnect; events sent while disconnected are lost
			if note == nil {
				continue
			}
			var ev pkg.QueryEvent
			if err := json.Unmarshal([]byte(note.Extra), &ev); err != nil {
				log.Warn().Err(err).Msg("dropping malformed notification")
				continue
			}
			b.Broadcast(ev)
		case <-ping.C:
			if err := l.Ping(); err != nil {
				log.Warn().Err(err).Msg("listener ping failed")
			}
		}
	}
}
