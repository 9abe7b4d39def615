package remote

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// PGFeed is a ChangeFeed over Postgres LISTEN/NOTIFY. Notifications are raised
// by a trigger on the projects table, so Publish is a no-op.
type PGFeed struct {
	dsn     string
	channel string
	retry   time.Duration
	log     *zap.Logger
}

func NewPGFeed(dsn, channel string, log *zap.Logger) *PGFeed {
	if log == nil {
		log = zap.NewNop()
	}
	return &PGFeed{dsn: dsn, channel: channel, retry: time.Second, log: log}
}

func (f *PGFeed) Publish(ctx context.Context) error { return nil }

func (f *PGFeed) Subscribe(ctx context.Context, onChange func()) (Subscription, error) {
	conn, err := f.listen(ctx)
	if err != nil {
		return nil, err
	}

	lctx, cancel := context.WithCancel(context.Background())
	sub := &pgSubscription{cancel: cancel, done: make(chan struct{})}
	go f.loop(lctx, conn, onChange, sub.done)
	f.log.Info("listening for project changes", zap.String("channel", f.channel))
	return sub, nil
}

func (f *PGFeed) listen(ctx context.Context) (*pgx.Conn, error) {
	conn, err := pgx.Connect(ctx, f.dsn)
	if err != nil {
		return nil, fmt.Errorf("connect change feed: %w", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{f.channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())
		return nil, fmt.Errorf("listen %s: %w", f.channel, err)
	}
	return conn, nil
}

// loop owns conn. After a dropped connection it reconnects and fires onChange
// once, since notifications sent while disconnected are lost.
func (f *PGFeed) loop(ctx context.Context, conn *pgx.Conn, onChange func(), done chan struct{}) {
	defer close(done)
	defer func() {
		if conn != nil {
			_ = conn.Close(context.Background())
		}
	}()

	for {
		if conn == nil {
			select {
			case <-ctx.Done():
				return
			case <-time.After(f.retry):
			}
			c, err := f.listen(ctx)
			if err != nil {
				f.log.Warn("change feed reconnect failed", zap.Error(err))
				continue
			}
			conn = c
			onChange()
		}

		if _, err := conn.WaitForNotification(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			f.log.Warn("change feed connection lost", zap.Error(err))
			_ = conn.Close(context.Background())
			conn = nil
			continue
		}
		onChange()
	}
}

type pgSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (s *pgSubscription) Close() error {
	s.cancel()
	<-s.done
	return nil
}
