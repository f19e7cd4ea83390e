package chat

import (
	"context"
	"time"

	"roboclub/clubhouse/internal/constants"
	"roboclub/clubhouse/internal/logging"
	models "roboclub/clubhouse/internal/models/gorm"
)

// FetchFunc returns messages created at or after from, oldest first.
type FetchFunc func(ctx context.Context, from time.Time) ([]models.ChatMessage, error)

// Cursor is how far a reader got: the newest timestamp it holds and the
// ids it holds at exactly that timestamp. Messages that share a timestamp
// but are committed later are still picked up.
type Cursor struct {
	At  time.Time
	IDs []string
}

// CursorAt treats every message in msgs created exactly at at as already
// held by the reader.
func CursorAt(at time.Time, msgs []models.ChatMessage) Cursor {
	c := Cursor{At: at}
	for _, m := range msgs {
		if m.CreatedAt.Equal(at) {
			c.IDs = append(c.IDs, m.ID)
		}
	}
	return c
}

// Advance splits msgs, as returned by a FetchFunc from c.At, into the ones
// the reader does not hold yet and the cursor past them.
func (c Cursor) Advance(msgs []models.ChatMessage) ([]models.ChatMessage, Cursor) {
	held := make(map[string]struct{}, len(c.IDs))
	for _, id := range c.IDs {
		held[id] = struct{}{}
	}

	var fresh []models.ChatMessage
	for _, m := range msgs {
		if m.CreatedAt.Before(c.At) {
			continue
		}
		if _, ok := held[m.ID]; ok && m.CreatedAt.Equal(c.At) {
			continue
		}
		fresh = append(fresh, m)
	}
	if len(fresh) == 0 {
		return nil, c
	}

	next := Cursor{At: fresh[len(fresh)-1].CreatedAt}
	if next.At.Equal(c.At) {
		next.IDs = append(next.IDs, c.IDs...)
	}
	for _, m := range fresh {
		if m.CreatedAt.Equal(next.At) {
			next.IDs = append(next.IDs, m.ID)
		}
	}
	return fresh, next
}

// Poller re-reads a conversation on a fixed interval.
type Poller struct {
	interval time.Duration
	fetch    FetchFunc
}

func NewPoller(interval time.Duration, fetch FetchFunc) *Poller {
	if interval <= 0 {
		interval = constants.DefaultChatPollInterval
	}
	return &Poller{interval: interval, fetch: fetch}
}

// Run calls deliver with every batch of messages past the cursor until ctx
// is cancelled. The ticker is stopped on return. Fetch errors are logged
// and the next tick retries from the same point.
func (p *Poller) Run(ctx context.Context, cur Cursor, deliver func([]models.ChatMessage)) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			msgs, err := p.fetch(ctx, cur.At)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				logging.Warn("Chat poll failed", "error", err)
				continue
			}
			var fresh []models.ChatMessage
			fresh, cur = cur.Advance(msgs)
			if len(fresh) > 0 {
				deliver(fresh)
			}
		}
	}
}
