package lock

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres holds session-level advisory locks so several server instances
// sharing one spreadsheet serialize on the same keys. The outermost lock pins
// a pooled connection; locks nested inside it stack on that same session, so
// one caller never holds more than one connection.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

type sessionKey struct{}

// session is the connection pinned by the outermost held lock.
type session struct {
	conn   *pgxpool.Conn
	broken bool
}

func (p *Postgres) Lock(ctx context.Context, key string) (context.Context, func(), error) {
	if held, ok := ctx.Value(sessionKey{}).(*session); ok {
		return p.nested(ctx, held, key)
	}

	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("lock %s: acquire connection: %w", key, err)
	}
	id := KeyID(key)
	if _, err := conn.Exec(ctx, "SELECT pg_advisory_lock($1)", id); err != nil {
		// The lock may have been granted before the cancel landed; drop the
		// session so it cannot leak.
		_ = conn.Hijack().Close(context.Background())
		return nil, nil, fmt.Errorf("lock %s: %w", key, err)
	}

	held := &session{conn: conn}
	var once sync.Once
	return context.WithValue(ctx, sessionKey{}, held), func() {
		once.Do(func() {
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if !held.broken {
				_, err := conn.Exec(unlockCtx, "SELECT pg_advisory_unlock($1)", id)
				if err == nil {
					conn.Release()
					return
				}
				slog.Warn("advisory unlock failed", "key", key, "err", err)
			}
			// Closing the session frees every advisory lock it still holds.
			_ = conn.Hijack().Close(unlockCtx)
		})
	}, nil
}

func (p *Postgres) nested(ctx context.Context, held *session, key string) (context.Context, func(), error) {
	id := KeyID(key)
	if _, err := held.conn.Exec(ctx, "SELECT pg_advisory_lock($1)", id); err != nil {
		held.broken = true
		return nil, nil, fmt.Errorf("lock %s: %w", key, err)
	}
	var once sync.Once
	return ctx, func() {
		once.Do(func() {
			if held.broken {
				return
			}
			unlockCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if _, err := held.conn.Exec(unlockCtx, "SELECT pg_advisory_unlock($1)", id); err != nil {
				slog.Warn("advisory unlock failed", "key", key, "err", err)
				held.broken = true
			}
		})
	}, nil
}

// KeyID maps a lock key onto the bigint advisory lock space.
func KeyID(key string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(key))
	return int64(h.Sum64())
}
