// Package learning closes the feedback loop: every understanding call and
// user action is appended to the analytics store, and high-signal examples
// (positive outcome, low recorded confidence) are periodically extracted and
// forwarded to the retraining endpoint.
package learning

import (
	"context"
	"fmt"
	"time"

	"github.com/querypilot/querypilot/core"
	"github.com/querypilot/querypilot/logging"
)

const (
	// extractionWindow is how far back sample extraction looks.
	extractionWindow = 7 * 24 * time.Hour

	// lowConfidenceCeiling selects interactions the models were unsure
	// about; a positive outcome despite low confidence is the strongest
	// training signal.
	lowConfidenceCeiling = 0.7

	// scheduledMinSamples is the silent-skip threshold for the weekly job.
	scheduledMinSamples = 10

	// manualMinSamples is the refusal threshold for the manual trigger.
	manualMinSamples = 5

	// recordTimeout bounds the detached write of a fire-and-forget record.
	recordTimeout = 5 * time.Second
)

// Options configure the learning loop.
type Options struct {
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
}

// Loop records interactions and drives training-sample extraction.
type Loop struct {
	analytics core.AnalyticsStore
	retrainer core.Retrainer
	logger    logging.Logger
}

// NewLoop constructs a learning loop. retrainer may be nil; extraction then
// still works but Retrain reports a configuration error.
func NewLoop(analytics core.AnalyticsStore, retrainer core.Retrainer, optFns ...func(o *Options)) *Loop {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Loop{analytics: analytics, retrainer: retrainer, logger: opts.Logger}
}

// Record appends an interaction record without blocking the caller. The
// write happens on a detached context so it survives the request's
// cancellation; failures are logged and swallowed.
func (l *Loop) Record(rec core.InteractionRecord) {
	if l.analytics == nil {
		return
	}
	if rec.ID == "" {
		rec.ID = core.NewInteractionID()
	}
	if rec.Kind == "" {
		rec.Kind = core.InteractionQuery
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		defer cancel()
		if err := l.analytics.RecordInteraction(ctx, rec); err != nil {
			l.logger.Warn("interaction record failed", "session", rec.SessionID, "error", err)
		}
	}()
}

// MarkOutcome patches the user-action outcome onto the session's latest
// interaction record, best-effort.
func (l *Loop) MarkOutcome(ctx context.Context, sessionID string, action core.UserAction) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	if l.analytics == nil {
		return nil
	}
	if err := l.analytics.MarkOutcome(ctx, sessionID, action); err != nil {
		return fmt.Errorf("mark outcome: %w", err)
	}
	return nil
}

// ExtractSamples pulls the last window of interactions and keeps those with
// a positive outcome signal and low recorded confidence, reformatted as
// training samples.
func (l *Loop) ExtractSamples(ctx context.Context) ([]core.TrainingSample, error) {
	since := time.Now().UTC().Add(-extractionWindow)
	candidates, err := l.analytics.TrainingCandidates(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("training candidates: %w", err)
	}

	var samples []core.TrainingSample
	for _, rec := range candidates {
		if rec.Kind != core.InteractionQuery || rec.Outcome == nil {
			continue
		}
		if !rec.Outcome.Positive() || rec.Confidence >= lowConfidenceCeiling {
			continue
		}
		samples = append(samples, core.TrainingSample{
			Text:       rec.Query,
			Intent:     rec.Intent,
			Entities:   rec.Filters,
			IsPositive: true,
		})
	}
	return samples, nil
}

// RunScheduled is the weekly job body: extract, skip silently below the
// threshold, otherwise forward to the retrainer.
func (l *Loop) RunScheduled(ctx context.Context) {
	samples, err := l.ExtractSamples(ctx)
	if err != nil {
		l.logger.Warn("scheduled extraction failed", "error", err)
		return
	}
	if len(samples) < scheduledMinSamples {
		l.logger.Debug("scheduled retrain skipped", "samples", len(samples), "required", scheduledMinSamples)
		return
	}
	if err := l.submit(ctx, samples); err != nil {
		l.logger.Warn("scheduled retrain submit failed", "samples", len(samples), "error", err)
		return
	}
	l.logger.Info("scheduled retrain submitted", "samples", len(samples))
}

// TriggerManual applies the same extraction and forwarding on demand. It
// returns the sample count, or core.ErrNotEnoughData below the manual
// threshold.
func (l *Loop) TriggerManual(ctx context.Context) (int, error) {
	samples, err := l.ExtractSamples(ctx)
	if err != nil {
		return 0, err
	}
	if len(samples) < manualMinSamples {
		return len(samples), fmt.Errorf("%w: %d samples, need %d", core.ErrNotEnoughData, len(samples), manualMinSamples)
	}
	if err := l.submit(ctx, samples); err != nil {
		return 0, err
	}
	l.logger.Info("manual retrain submitted", "samples", len(samples))
	return len(samples), nil
}

func (l *Loop) submit(ctx context.Context, samples []core.TrainingSample) error {
	if l.retrainer == nil {
		return fmt.Errorf("no retrainer configured")
	}
	if err := l.retrainer.Submit(ctx, samples); err != nil {
		return fmt.Errorf("submit samples: %w", err)
	}
	return nil
}
