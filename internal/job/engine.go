package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattjoyce/scribe-gw/internal/log"
	"github.com/mattjoyce/scribe-gw/internal/prompt"
)

//go:generate mockgen -destination=mocks/mock_generator.go -package=mocks github.com/mattjoyce/scribe-gw/internal/job Generator

// Generator produces text for a prompt. Implementations may be slow and may fail.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Store is the persistence handle the engine drives. Transition methods are
// compare-and-set: they fail with ErrInvalidJobState if the job is not in
// the expected source state.
type Store interface {
	Get(ctx context.Context, jobID string) (*Job, error)
	MarkProcessing(ctx context.Context, jobID string) error
	MarkCompleted(ctx context.Context, jobID, result string) error
	MarkFailed(ctx context.Context, jobID, errMsg string) error
}

// Publisher receives lifecycle notifications. Optional.
type Publisher interface {
	Publish(eventType string, data any)
}

// DefaultGenerationTimeout bounds one generation call when none is configured.
const DefaultGenerationTimeout = 2 * time.Minute

var errEmptyContent = errors.New("generation returned empty content")

// Engine runs a single job from pending to exactly one terminal state.
type Engine struct {
	store     Store
	generator Generator
	publisher Publisher
	timeout   time.Duration
	logger    *slog.Logger
}

type EngineOption func(*Engine)

func WithPublisher(p Publisher) EngineOption {
	return func(e *Engine) { e.publisher = p }
}

func WithGenerationTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.timeout = d
		}
	}
}

func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

func NewEngine(store Store, generator Generator, opts ...EngineOption) *Engine {
	e := &Engine{
		store:     store,
		generator: generator,
		timeout:   DefaultGenerationTimeout,
		logger:    log.WithComponent("engine"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run drives jobID through processing to completed or failed.
//
// It returns an error only when the job could not be started (ErrJobNotFound,
// ErrInvalidJobState, store errors) or when the terminal state could not be
// persisted. Generation failures are recorded on the job, not returned.
func (e *Engine) Run(ctx context.Context, jobID string, in Inputs) error {
	j, err := e.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if j.Status != StatusPending {
		return fmt.Errorf("%w: job %s is %s", ErrInvalidJobState, jobID, j.Status)
	}

	if err := e.store.MarkProcessing(ctx, jobID); err != nil {
		return err
	}
	logger := e.logger.With("job_id", jobID, "kind", j.Kind)
	logger.Info("job processing")
	e.publish("job.processing", j, nil)

	result, genErr := e.generate(ctx, j.Kind, in)
	if genErr == nil {
		if err := e.store.MarkCompleted(ctx, jobID, result); err != nil {
			genErr = fmt.Errorf("persist result: %w", err)
		} else {
			logger.Info("job completed", "result_bytes", len(result))
			e.publish("job.completed", j, nil)
			return nil
		}
	}

	// Use a fresh context so a cancelled caller can't strand the job in processing.
	failCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := e.store.MarkFailed(failCtx, jobID, genErr.Error()); err != nil {
		logger.Error("failed to record job failure", "cause", genErr, "error", err)
		return fmt.Errorf("record failure for job %s: %w", jobID, err)
	}
	logger.Warn("job failed", "error", genErr)
	e.publish("job.failed", j, genErr)
	return nil
}

// generate renders the prompt, calls the model and cleans the output.
// Panics from the generator are converted into errors.
func (e *Engine) generate(ctx context.Context, kind Kind, in Inputs) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("generation panicked: %v", r)
		}
	}()

	p, err := RenderPrompt(kind, in)
	if err != nil {
		return "", err
	}

	gctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	text, err := e.generator.Generate(gctx, p)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("generation timed out after %s: %w", e.timeout, err)
		}
		return "", fmt.Errorf("generation failed: %w", err)
	}

	text = CleanGeneratedText(text)
	if text == "" {
		return "", errEmptyContent
	}
	return text, nil
}

func (e *Engine) publish(eventType string, j *Job, cause error) {
	if e.publisher == nil {
		return
	}
	data := map[string]any{
		"at":     time.Now().UTC().Format(time.RFC3339Nano),
		"job_id": j.ID,
		"kind":   j.Kind,
	}
	if cause != nil {
		data["error"] = cause.Error()
	}
	e.publisher.Publish(eventType, data)
}

// RenderPrompt builds the model prompt for a job kind from its inputs.
func RenderPrompt(kind Kind, in Inputs) (string, error) {
	switch kind {
	case KindReadme:
		p, err := prompt.Readme(prompt.ReadmeFields{
			ProjectName: in["project_name"],
			TechStack:   in["tech_stack"],
			Languages:   in["languages"],
			Description: in["description"],
		})
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMissingInput, err)
		}
		return p, nil
	case KindCommitSummary:
		p, err := prompt.CommitSummary(in["diff"], prompt.DefaultMaxDiffChars)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrMissingInput, err)
		}
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}

// ValidateInputs checks that in carries what kind needs, without rendering
// side effects beyond the prompt itself.
func ValidateInputs(kind Kind, in Inputs) error {
	_, err := RenderPrompt(kind, in)
	return err
}
