package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yeremiapane/table-ordering/utils"
)

const (
	DefaultCleanupInterval = time.Hour
	DefaultEndedRetention  = 7 * 24 * time.Hour
)

type CleanupStats struct {
	ExpiredSessions      int   `json:"expiredSessions"`
	ScrubbedSessions     int64 `json:"scrubbedSessions"`
	DeletedBlacklisted   int64 `json:"deletedBlacklisted"`
	DeletedRefreshTokens int64 `json:"deletedRefreshTokens"`
}

// CleanupService runs the periodic sweep: idle sessions, stale session
// leftovers and expired token bookkeeping. Each task runs on its own; one
// failing does not skip the rest.
type CleanupService struct {
	Sessions  *SessionService
	Tokens    *TokenService
	Interval  time.Duration
	Retention time.Duration
	StopChan  chan struct{}

	mu       sync.Mutex
	started  bool
	stopOnce sync.Once
	done     chan struct{}
}

func NewCleanupService(sessions *SessionService, tokens *TokenService, interval, retention time.Duration) *CleanupService {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if retention <= 0 {
		retention = DefaultEndedRetention
	}
	return &CleanupService{
		Sessions:  sessions,
		Tokens:    tokens,
		Interval:  interval,
		Retention: retention,
		StopChan:  make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the sweep once right away and then on every tick until Stop.
// A second call is a no-op.
func (cs *CleanupService) Start() {
	cs.mu.Lock()
	if cs.started {
		cs.mu.Unlock()
		return
	}
	cs.started = true
	cs.mu.Unlock()

	go func() {
		defer close(cs.done)
		cs.RunAll(context.Background())

		ticker := time.NewTicker(cs.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				cs.RunAll(context.Background())
			case <-cs.StopChan:
				return
			}
		}
	}()
	utils.InfoLogger.WithField("interval", cs.Interval.String()).Info("cleanup service started")
}

// Stop ends the loop and waits for a sweep in progress to finish. It returns
// at once when Start was never called.
func (cs *CleanupService) Stop() {
	cs.stopOnce.Do(func() {
		close(cs.StopChan)
		cs.mu.Lock()
		started := cs.started
		cs.mu.Unlock()
		if started {
			<-cs.done
		}
		utils.InfoLogger.Info("cleanup service stopped")
	})
}

func (cs *CleanupService) RunAll(ctx context.Context) CleanupStats {
	var stats CleanupStats

	ended, err := cs.Sessions.ExpireIdleSessions(ctx)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("expiring idle sessions failed")
	}
	stats.ExpiredSessions = len(ended)

	scrubbed, err := cs.Sessions.ScrubEndedSessions(ctx, cs.Retention)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("scrubbing ended sessions failed")
	}
	stats.ScrubbedSessions = scrubbed

	blacklisted, refresh, err := cs.Tokens.PurgeExpired(ctx)
	if err != nil {
		utils.ErrorLogger.WithError(err).Error("purging expired tokens failed")
	}
	stats.DeletedBlacklisted = blacklisted
	stats.DeletedRefreshTokens = refresh

	utils.InfoLogger.WithFields(logrus.Fields{
		"expiredSessions":      stats.ExpiredSessions,
		"scrubbedSessions":     stats.ScrubbedSessions,
		"deletedBlacklisted":   stats.DeletedBlacklisted,
		"deletedRefreshTokens": stats.DeletedRefreshTokens,
	}).Info("cleanup sweep finished")
	return stats
}
