package service

import (
	"context"
	"log"
	"time"
)

// ExpiredSessionStore deletes cart sessions past their expiry.
type ExpiredSessionStore interface {
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// SessionSweeper periodically purges expired cart sessions; their cart items
// go with them via cascade.
type SessionSweeper struct {
	repo ExpiredSessionStore
	tick time.Duration
}

func NewSessionSweeper(repo ExpiredSessionStore, tick time.Duration) *SessionSweeper {
	return &SessionSweeper{repo: repo, tick: tick}
}

func (s *SessionSweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SessionSweeper) sweep(ctx context.Context) {
	removed, err := s.repo.DeleteExpiredSessions(ctx, time.Now())
	if err != nil {
		log.Printf("failed to sweep expired cart sessions: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("swept %d expired cart sessions", removed)
	}
}
