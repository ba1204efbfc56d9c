package api

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// boardListMetrics collects per-request timings for the board list
// endpoint, the busiest read path, and emits one structured summary line.
type boardListMetrics struct {
	logger        *log.Logger
	start         time.Time
	authDuration  time.Duration
	fetchDuration time.Duration
	statsDuration time.Duration
	boardsVisible int
	errorStage    string
}

func newBoardListMetrics(logger *log.Logger) *boardListMetrics {
	return &boardListMetrics{logger: logger, start: time.Now()}
}

func (m *boardListMetrics) ObserveAuth(d time.Duration)  { m.authDuration = d }
func (m *boardListMetrics) ObserveFetch(d time.Duration) { m.fetchDuration = d }
func (m *boardListMetrics) ObserveStats(d time.Duration) { m.statsDuration = d }
func (m *boardListMetrics) SetBoardsVisible(n int)       { m.boardsVisible = n }
func (m *boardListMetrics) SetErrorStage(stage string)   { m.errorStage = stage }

// Log writes the request summary. Failed requests log at warn level with
// the stage that failed.
func (m *boardListMetrics) Log(status int, err error) {
	if m.logger == nil {
		return
	}
	fields := log.Fields{
		"status":         status,
		"total_ms":       time.Since(m.start).Milliseconds(),
		"auth_ms":        m.authDuration.Milliseconds(),
		"fetch_ms":       m.fetchDuration.Milliseconds(),
		"stats_ms":       m.statsDuration.Milliseconds(),
		"boards_visible": m.boardsVisible,
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	entry := m.logger.WithFields(fields)
	if err != nil || m.errorStage != "" {
		entry.Warn("board list request")
		return
	}
	entry.Debug("board list request")
}
