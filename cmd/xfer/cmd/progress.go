package cmd

import (
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// progressLogger logs transfer progress once per completed part.
type progressLogger struct {
	logger zerolog.Logger
	total  int64
	parts  int64
}

var _ xfertypes.ProgressTracker = (*progressLogger)(nil)

func newProgressLogger(logger zerolog.Logger, total int64) *progressLogger {
	return &progressLogger{logger: logger, total: total}
}

func (p *progressLogger) Update(pr xfertypes.Progress) {
	if pr.PartsCompleted == p.parts {
		return
	}
	p.parts = pr.PartsCompleted

	ev := p.logger.Info().
		Int64("parts", pr.PartsCompleted).
		Str("transferred", humanize.IBytes(uint64(pr.BytesTransferred)))
	if p.total > 0 {
		ev = ev.Str("total", humanize.IBytes(uint64(p.total)))
	}
	ev.Msg("part completed")
}

func (p *progressLogger) Complete() {}

func (p *progressLogger) Error(error) {}
