package tblexport

// Progress is one status update of a run.
type Progress struct {
	Percent int
	Status  string
}

// ProgressSink receives progress updates from the goroutine executing a run.
type ProgressSink interface {
	Report(Progress)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(Progress)

// Report implements ProgressSink.
func (f ProgressFunc) Report(p Progress) { f(p) }

// ChannelSink forwards updates to a channel, so a consumer on another
// goroutine never shares state with the run.
type ChannelSink chan<- Progress

// Report implements ProgressSink.
func (c ChannelSink) Report(p Progress) { c <- p }

type discardSink struct{}

func (discardSink) Report(Progress) {}
