package commits

import "log/slog"

// Observer receives per-commit diagnostics from a pipeline run.
// Implementations must be safe for concurrent use.
type Observer interface {
	PushReceived(repo string, commits int)
	FetchFailed(repo, sha string, err error)
	EmptyDiff(repo, sha string)
	GenerationFailed(repo, sha string, err error)
	Summarized(repo, sha string)
}

type NopObserver struct{}

func (NopObserver) PushReceived(string, int)              {}
func (NopObserver) FetchFailed(string, string, error)      {}
func (NopObserver) EmptyDiff(string, string)               {}
func (NopObserver) GenerationFailed(string, string, error) {}
func (NopObserver) Summarized(string, string)              {}

// LogObserver writes pipeline diagnostics to a slog logger.
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) PushReceived(repo string, commits int) {
	o.Logger.Info("push received", "repository", repo, "commits", commits)
}

func (o LogObserver) FetchFailed(repo, sha string, err error) {
	o.Logger.Warn("diff fetch failed, skipping commit", "repository", repo, "commit", sha, "error", err)
}

func (o LogObserver) EmptyDiff(repo, sha string) {
	o.Logger.Info("commit has no textual changes", "repository", repo, "commit", sha)
}

func (o LogObserver) GenerationFailed(repo, sha string, err error) {
	o.Logger.Warn("summary generation failed", "repository", repo, "commit", sha, "error", err)
}

func (o LogObserver) Summarized(repo, sha string) {
	o.Logger.Debug("commit summarized", "repository", repo, "commit", sha)
}
