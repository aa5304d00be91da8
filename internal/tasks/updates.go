package tasks

// ProgressUpdate is one progress event during a long-running operation.
//
// Delivered synchronously in the caller's goroutine; a slow callback
// delays the operation.
type ProgressUpdate struct {
	Stage   Stage   // Operation stage
	Percent float64 // Overall completion, 0-100
	Message string  // Human-readable message for display
}

// Stage enumerates the sync stages in execution order.
type Stage int

const (
	StagePlaylists Stage = iota
	StageTracks
	StageFeatures
	StageArtists
	StageProject
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StagePlaylists:
		return "playlists"
	case StageTracks:
		return "tracks"
	case StageFeatures:
		return "features"
	case StageArtists:
		return "artists"
	case StageProject:
		return "project"
	case StageDone:
		return "done"
	default:
		return ""
	}
}

// reporter delivers progress updates through the callback and clamps
// percentages so successive values never decrease.
type reporter struct {
	callback func(ProgressUpdate)
	last     float64
}

func newReporter(callback func(ProgressUpdate)) *reporter {
	return &reporter{callback: callback}
}

func (r *reporter) report(stage Stage, percent float64, message string) {
	if percent < r.last {
		percent = r.last
	}
	if percent > 100 {
		percent = 100
	}
	r.last = percent

	if r.callback == nil {
		return
	}
	r.callback(ProgressUpdate{Stage: stage, Percent: percent, Message: message})
}
