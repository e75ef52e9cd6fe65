// Package extract runs one batch extraction: validate the source
// configuration, read every selected object under the run lock, hand the rows
// to the sink, then fire the post-run notification.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/ignite/sendgrid-source/internal/notify"
	"github.com/ignite/sendgrid-source/internal/pipeline"
	"github.com/ignite/sendgrid-source/internal/pkg/logger"
	"github.com/ignite/sendgrid-source/internal/runevents"
	"github.com/ignite/sendgrid-source/internal/runlock"
	"github.com/ignite/sendgrid-source/internal/schema"
	"github.com/ignite/sendgrid-source/internal/sink"
	"github.com/ignite/sendgrid-source/internal/source"
	"github.com/ignite/sendgrid-source/internal/validation"
)

// ErrInvalidConfig is returned when validation reports failures.
var ErrInvalidConfig = errors.New("invalid source configuration")

// Validator validates a source configuration.
type Validator interface {
	Validate(ctx context.Context, cfg *source.Config) []validation.Failure
}

// Notifier is the post-run action.
type Notifier interface {
	Run(ctx context.Context, sum notify.Summary) (bool, error)
}

// EventPublisher announces finished runs.
type EventPublisher interface {
	Publish(ctx context.Context, ev runevents.Event) error
}

// SinkOpener builds the sink once the output schema is known.
type SinkOpener func(ctx context.Context, out schema.Schema) (sink.Sink, error)

// Runner wires the stages of a run. Either Sink or OpenSink must be set;
// OpenSink is only called after validation passed. Lock, Notifier and Events
// are optional.
type Runner struct {
	Config    *source.Config
	Validator Validator
	Fetcher   pipeline.Fetcher
	Sink      sink.Sink
	OpenSink  SinkOpener
	Lock      runlock.Lock
	Notifier  Notifier
	Events    EventPublisher

	now   func() time.Time
	newID func() string
}

// Result describes a finished run.
type Result struct {
	RunID    string
	Status   notify.Status
	Stats    pipeline.Stats
	Failures []validation.Failure
}

// Run executes the extraction. The notification runs for failed runs too,
// subject to its run condition.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	now := r.now
	if now == nil {
		now = time.Now
	}
	newID := r.newID
	if newID == nil {
		newID = func() string { return uuid.New().String() }
	}

	res := Result{RunID: newID(), Status: notify.StatusSucceeded}
	started := now()
	ref := r.Config.ReferenceName()

	err := r.extract(ctx, &res, started)
	if err != nil {
		res.Status = notify.StatusFailed
		logger.Error("extract failed", "run_id", res.RunID, "reference_name", ref, "error", err)
	} else {
		log.Printf("[Extract] Run %s of %s wrote %d rows in %v",
			res.RunID, ref, res.Stats.Total(), now().Sub(started).Round(time.Millisecond))
	}

	sum := notify.Summary{
		RunID:         res.RunID,
		ReferenceName: ref,
		Status:        res.Status,
		Rows:          res.Stats.Total(),
		Objects:       res.Stats.Objects,
		Err:           err,
		StartedAt:     started,
		FinishedAt:    now(),
	}
	if r.Notifier != nil {
		if _, nerr := r.Notifier.Run(ctx, sum); nerr != nil {
			logger.Warn("post-run notification failed", "run_id", res.RunID, "error", nerr)
			err = errors.Join(err, nerr)
		}
	}
	if r.Events != nil {
		if perr := r.Events.Publish(ctx, eventFor(sum)); perr != nil {
			logger.Warn("run event not published", "run_id", res.RunID, "error", perr)
			err = errors.Join(err, perr)
		}
	}
	return res, err
}

func eventFor(sum notify.Summary) runevents.Event {
	ev := runevents.Event{
		Type:          runevents.TypeRunCompleted,
		RunID:         sum.RunID,
		ReferenceName: sum.ReferenceName,
		Status:        string(sum.Status),
		Rows:          sum.Rows,
		Objects:       sum.Objects,
		StartedAt:     sum.StartedAt,
		FinishedAt:    sum.FinishedAt,
	}
	if sum.Err != nil {
		ev.Error = sum.Err.Error()
	}
	return ev
}

func (r *Runner) extract(ctx context.Context, res *Result, started time.Time) error {
	if failures := r.Validator.Validate(ctx, r.Config); len(failures) > 0 {
		res.Failures = failures
		for _, f := range failures {
			logger.Warn("validation failure", "kind", f.Kind, "message", f.Message, "properties", f.Properties)
		}
		return fmt.Errorf("%w: %d failures", ErrInvalidConfig, len(failures))
	}

	reader, err := pipeline.NewReader(r.Config, r.Fetcher)
	if err != nil {
		return err
	}
	out := r.Sink
	if out == nil {
		if r.OpenSink == nil {
			return errors.New("no sink configured")
		}
		if out, err = r.OpenSink(ctx, reader.Schema()); err != nil {
			return fmt.Errorf("opening sink: %w", err)
		}
	}

	body := func(ctx context.Context) error {
		var rows []pipeline.Row
		stats, err := reader.Read(ctx, func(row pipeline.Row) error {
			rows = append(rows, row)
			return nil
		})
		res.Stats = stats
		if err != nil {
			return err
		}
		return out.Write(ctx, sink.Batch{
			RunID:         res.RunID,
			ReferenceName: r.Config.ReferenceName(),
			StartedAt:     started,
			Schema:        reader.Schema(),
			Rows:          rows,
		})
	}

	if r.Lock == nil {
		return body(ctx)
	}
	return runlock.Run(ctx, r.Lock, body)
}
