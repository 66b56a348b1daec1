package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/datamatch/datamatch/internal/profile"
	"github.com/datamatch/datamatch/internal/suggestion"
)

// ProfileLister lists the profiles to refresh.
type ProfileLister interface {
	List(ctx context.Context) ([]*profile.Profile, error)
}

// Refresher recomputes one member's suggestions. *suggestion.Service
// satisfies it.
type Refresher interface {
	Refresh(ctx context.Context, userID string) (*suggestion.Entry, error)
}

// RefreshJob recomputes cached suggestions.
type RefreshJob struct {
	config    RefreshConfig
	profiles  ProfileLister
	refresher Refresher
	logger    zerolog.Logger

	metrics *RefreshMetrics
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	Runs                int64
	ProfilesRefreshed   int64
	ProfilesFailed      int64
	LastRefreshAt       time.Time
	LastRefreshDuration time.Duration
	TotalDuration       time.Duration
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config    RefreshConfig
	Profiles  ProfileLister
	Refresher Refresher
	Logger    zerolog.Logger
}

// NewRefreshJob creates a new refresh job.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:    cfg.Config.withDefaults(),
		profiles:  cfg.Profiles,
		refresher: cfg.Refresher,
		logger:    cfg.Logger,
		metrics:   &RefreshMetrics{},
	}
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Total      int
	Successful int
	Failed     int
	Errors     []RefreshError
}

// RefreshError records a profile that could not be refreshed.
type RefreshError struct {
	ProfileID string
	Error     string
}

// RefreshOne recomputes a single member's suggestions.
func (j *RefreshJob) RefreshOne(ctx context.Context, profileID string) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	_, err := j.refresher.Refresh(ctx, profileID)
	j.record(err == nil)
	return err
}

// Run recomputes suggestions for every stored profile using a bounded pool
// of workers. Individual failures are collected, not returned.
func (j *RefreshJob) Run(ctx context.Context) (*RefreshResult, error) {
	startTime := time.Now()

	profiles, err := j.profiles.List(ctx)
	if err != nil {
		return nil, err
	}

	result := &RefreshResult{StartTime: startTime, Total: len(profiles)}
	j.logger.Info().
		Int("profiles", result.Total).
		Int("concurrency", j.config.Concurrency).
		Msg("starting suggestion refresh")

	ids := make(chan string, len(profiles))
	for _, p := range profiles {
		ids <- p.ID
	}
	close(ids)

	results := make(chan RefreshError, len(profiles))
	var wg sync.WaitGroup
	for range min(j.config.Concurrency, max(len(profiles), 1)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range ids {
				if ctx.Err() != nil {
					results <- RefreshError{ProfileID: id, Error: ctx.Err().Error()}
					continue
				}
				var failure RefreshError
				if err := j.RefreshOne(ctx, id); err != nil {
					failure = RefreshError{ProfileID: id, Error: err.Error()}
				}
				results <- failure
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	for r := range results {
		if r.ProfileID == "" {
			result.Successful++
			continue
		}
		result.Failed++
		result.Errors = append(result.Errors, r)
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)
	j.finishRun(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("successful", result.Successful).
		Int("failed", result.Failed).
		Msg("suggestion refresh completed")

	return result, nil
}

func (j *RefreshJob) record(ok bool) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	if ok {
		j.metrics.ProfilesRefreshed++
	} else {
		j.metrics.ProfilesFailed++
	}
}

func (j *RefreshJob) finishRun(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.Runs++
	j.metrics.LastRefreshAt = result.EndTime
	j.metrics.LastRefreshDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		Runs:                j.metrics.Runs,
		ProfilesRefreshed:   j.metrics.ProfilesRefreshed,
		ProfilesFailed:      j.metrics.ProfilesFailed,
		LastRefreshAt:       j.metrics.LastRefreshAt,
		LastRefreshDuration: j.metrics.LastRefreshDuration,
		TotalDuration:       j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns the current metrics as a map for status output.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"runs":                  m.Runs,
		"profiles_refreshed":    m.ProfilesRefreshed,
		"profiles_failed":       m.ProfilesFailed,
		"last_refresh_at":       m.LastRefreshAt,
		"last_refresh_duration": m.LastRefreshDuration.String(),
		"total_duration":        m.TotalDuration.String(),
	}
}
