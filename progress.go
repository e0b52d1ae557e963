package transfer

import (
	"github.com/input-output-hk/catalyst-forge-libs/transfer/xfertypes"
)

// progress accumulates counters for one transfer and forwards snapshots to
// the caller's tracker. A nil tracker makes every method a no-op.
type progress struct {
	tracker xfertypes.ProgressTracker
	current xfertypes.Progress
}

func newProgress(tracker xfertypes.ProgressTracker) *progress {
	return &progress{tracker: tracker}
}

func (p *progress) addBytes(n int64) {
	if p.tracker == nil || n <= 0 {
		return
	}
	p.current.BytesTransferred += n
	p.tracker.Update(p.current)
}

// read is the chunker read hook.
func (p *progress) read(n int) {
	p.addBytes(int64(n))
}

// part is the session part hook.
func (p *progress) part(xfertypes.PartRecord) {
	if p.tracker == nil {
		return
	}
	p.current.PartsCompleted++
	p.tracker.Update(p.current)
}

// copied is the session part hook for copies, where no bytes pass through
// the client and progress is counted in whole ranges.
func (p *progress) copied(rec xfertypes.PartRecord) {
	if p.tracker == nil {
		return
	}
	p.current.BytesTransferred += rec.Size
	p.current.PartsCompleted++
	p.tracker.Update(p.current)
}

func (p *progress) finish(err error) {
	if p.tracker == nil {
		return
	}
	if err != nil {
		p.tracker.Error(err)
		return
	}
	p.tracker.Complete()
}
