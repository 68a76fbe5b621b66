package proxy

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Revaldoo24/govai-platform/internal/domain/gateway"
	"github.com/Revaldoo24/govai-platform/internal/domain/journal"
	"github.com/Revaldoo24/govai-platform/internal/metrics"
)

const journalWriteTimeout = 2 * time.Second

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

// finish logs the outcome of one operation and appends it to the journal.
// The journal write runs in the background and never changes the response.
func (s *Service) finish(ctx context.Context, start time.Time, e journal.Entry, resp *gateway.Response, err error) {
	end := s.now()
	e.RequestID = gateway.RequestID(ctx)
	e.CreatedAt = end
	e.DurationMS = end.Sub(start).Milliseconds()

	switch {
	case err != nil:
		e.StatusCode = gateway.StatusOf(err)
		e.ErrorKind = string(gateway.KindOf(err))
		ev := log.Ctx(ctx).Warn()
		if e.ErrorKind == string(gateway.KindTransport) || e.ErrorKind == string(gateway.KindTimeout) {
			ev = log.Ctx(ctx).Error()
		}
		ev.Err(err).
			Str("operation", e.Operation).
			Str("tenant", e.TenantID).
			Str("error_kind", e.ErrorKind).
			Int("status", e.StatusCode).
			Msg("request not relayed")
	case resp != nil:
		e.StatusCode = resp.StatusCode
		e.UpstreamStatus = resp.StatusCode
		if !isSuccess(resp.StatusCode) {
			e.ErrorKind = string(gateway.KindUpstream)
			log.Ctx(ctx).Info().
				Str("operation", e.Operation).
				Str("tenant", e.TenantID).
				Int("upstream_status", resp.StatusCode).
				Msg("relaying upstream failure")
		}
	}

	if s.Journal == nil {
		return
	}
	e.ID = uuid.NewString()
	logger := log.Ctx(ctx)
	go func() {
		wctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
		defer cancel()
		if err := s.Journal.Save(wctx, &e); err != nil {
			metrics.RecordJournalFailure()
			logger.Warn().Err(err).Str("operation", e.Operation).Msg("journal write failed")
		}
	}()
}
