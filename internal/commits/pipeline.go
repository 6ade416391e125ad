// Package commits turns a verified push payload into one changelog summary
// per commit. Run is a pure transform over its collaborators: all
// diagnostics go through an Observer.
package commits

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"
	"golang.org/x/sync/errgroup"

	"github.com/mattjoyce/scribe-gw/internal/job"
	"github.com/mattjoyce/scribe-gw/internal/prompt"
)

//go:generate mockgen -destination=mocks/mock_collaborators.go -package=mocks github.com/mattjoyce/scribe-gw/internal/commits DiffFetcher,Generator

const (
	NoChangesSummary     = "No code changes detected"
	FailedSummaryPrefix  = "Summary generation failed: "
	DefaultFetchTimeout  = 30 * time.Second
	DefaultGenerateLimit = 60 * time.Second
)

// ErrMalformedPayload means the payload claims to be a push but its commits
// or repository cannot be read.
var ErrMalformedPayload = errors.New("malformed push payload")

// DiffFetcher returns the concatenated textual diff of one commit.
type DiffFetcher interface {
	FetchDiff(ctx context.Context, repoFullName, sha string) (string, error)
}

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Summary is the changelog line for one commit.
type Summary struct {
	Commit  string `json:"commit"`
	Summary string `json:"summary"`
}

// Outcome is the result of one payload. Applicable is false for payloads
// without a commits key; Summaries is then empty.
type Outcome struct {
	Applicable bool
	Repository string
	Summaries  []Summary
}

// Pipeline configures a run. Zero values select defaults.
type Pipeline struct {
	Fetcher           DiffFetcher
	Generator         Generator
	Observer          Observer
	FetchTimeout      time.Duration
	GenerationTimeout time.Duration
	MaxDiffChars      int
	// Concurrency > 1 processes commits in parallel; output order is unchanged.
	Concurrency int
}

// Run parses payload and summarizes each commit in payload order. Only
// ErrMalformedPayload is returned; collaborator failures degrade per commit.
func (p *Pipeline) Run(ctx context.Context, payload []byte) (Outcome, error) {
	repo, shas, ok, err := parsePush(payload)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{Applicable: false, Summaries: []Summary{}}, nil
	}

	obs := p.observer()
	obs.PushReceived(repo, len(shas))

	results := make([]*Summary, len(shas))
	if p.Concurrency > 1 && len(shas) > 1 {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(p.Concurrency)
		for i, sha := range shas {
			g.Go(func() error {
				results[i] = p.summarize(gctx, obs, repo, sha)
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, sha := range shas {
			results[i] = p.summarize(ctx, obs, repo, sha)
		}
	}

	summaries := make([]Summary, 0, len(shas))
	for _, s := range results {
		if s != nil {
			summaries = append(summaries, *s)
		}
	}
	return Outcome{Applicable: true, Repository: repo, Summaries: summaries}, nil
}

// summarize returns nil when the commit's diff could not be fetched.
func (p *Pipeline) summarize(ctx context.Context, obs Observer, repo, sha string) *Summary {
	diff, err := p.fetch(ctx, repo, sha)
	if err != nil {
		obs.FetchFailed(repo, sha, err)
		return nil
	}

	if diff == "" {
		obs.EmptyDiff(repo, sha)
		return &Summary{Commit: sha, Summary: NoChangesSummary}
	}

	text, err := p.generate(ctx, diff)
	if err != nil {
		obs.GenerationFailed(repo, sha, err)
		return &Summary{Commit: sha, Summary: FailedSummaryPrefix + err.Error()}
	}
	obs.Summarized(repo, sha)
	return &Summary{Commit: sha, Summary: text}
}

// fetch treats a panicking fetcher like a failed fetch so one commit cannot
// take down the batch or the process.
func (p *Pipeline) fetch(ctx context.Context, repo, sha string) (diff string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("diff fetcher panicked: %v", r)
		}
	}()

	fctx, cancel := context.WithTimeout(ctx, orDefault(p.FetchTimeout, DefaultFetchTimeout))
	defer cancel()
	return p.Fetcher.FetchDiff(fctx, repo, sha)
}

func (p *Pipeline) generate(ctx context.Context, diff string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generator panicked: %v", r)
		}
	}()

	pr, err := prompt.CommitSummary(diff, p.MaxDiffChars)
	if err != nil {
		return "", err
	}
	gctx, cancel := context.WithTimeout(ctx, orDefault(p.GenerationTimeout, DefaultGenerateLimit))
	defer cancel()

	out, err := p.Generator.Generate(gctx, pr)
	if err != nil {
		return "", err
	}
	out = job.CleanGeneratedText(out)
	if out == "" {
		return "", errors.New("empty response")
	}
	return out, nil
}

func (p *Pipeline) observer() Observer {
	if p.Observer == nil {
		return NopObserver{}
	}
	return p.Observer
}

// parsePush extracts the repository and commit ids. ok is false when the
// payload has no commits key at all.
func parsePush(payload []byte) (repo string, shas []string, ok bool, err error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return "", nil, false, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	raw, present := top["commits"]
	if !present {
		return "", nil, false, nil
	}
	if strings.TrimSpace(string(raw)) == "null" {
		return "", nil, false, fmt.Errorf("%w: commits is null", ErrMalformedPayload)
	}

	var ev github.PushEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return "", nil, false, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	repo = ev.GetRepo().GetFullName()
	if repo == "" {
		return "", nil, false, fmt.Errorf("%w: repository.full_name missing", ErrMalformedPayload)
	}

	shas = make([]string, 0, len(ev.Commits))
	for i, c := range ev.Commits {
		if c == nil || c.ID == nil || c.GetID() == "" {
			return "", nil, false, fmt.Errorf("%w: commit %d has no id", ErrMalformedPayload, i)
		}
		shas = append(shas, c.GetID())
	}
	return repo, shas, true, nil
}

func orDefault(d, def time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return def
}
