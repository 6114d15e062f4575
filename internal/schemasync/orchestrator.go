package schemasync

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-connector/internal/device"
	"github.com/nerrad567/gray-logic-connector/internal/schema"
)

// publishTimeout bounds the outcome publish. It runs detached from the
// caller's cancellation so a timed-out sync still reports its failure.
const publishTimeout = 10 * time.Second

// Authority is the remote schema source of truth.
type Authority interface {
	UpdateSchema(ctx context.Context, deviceID string, s schema.Schema) error
}

// Store is the local device record store.
type Store interface {
	UpdateSchema(ctx context.Context, deviceID string, s schema.Schema) error
}

// Publisher sends the schema.updated outcome notification.
type Publisher interface {
	SendSchemaUpdated(ctx context.Context, result any) error
}

// Recorder receives every result, e.g. for telemetry.
type Recorder interface {
	RecordSync(result Result, elapsed time.Duration)
}

// Recorders fans a result out to several recorders.
type Recorders []Recorder

// RecordSync calls every recorder in order.
func (rs Recorders) RecordSync(result Result, elapsed time.Duration) {
	for _, r := range rs {
		r.RecordSync(result, elapsed)
	}
}

// Logger defines the logging interface used by the orchestrator.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Deps holds the orchestrator's collaborators.
// Authority, Store and Publisher are required.
type Deps struct {
	Authority  Authority
	Store      Store
	Publisher  Publisher
	Normalizer schema.Normalizer // defaults to schema.CamelCase
	Logger     Logger
	Recorder   Recorder
}

// Orchestrator runs schema synchronisations. It holds no per-call state and
// is safe for concurrent use; concurrent calls for the same device are not
// serialised.
type Orchestrator struct {
	authority Authority
	store     Store
	publisher Publisher
	normalize schema.Normalizer
	logger    Logger
	recorder  Recorder
}

// New creates an Orchestrator.
func New(deps Deps) (*Orchestrator, error) {
	switch {
	case deps.Authority == nil:
		return nil, fmt.Errorf("%w: authority", ErrMissingDependency)
	case deps.Store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case deps.Publisher == nil:
		return nil, fmt.Errorf("%w: publisher", ErrMissingDependency)
	}

	o := &Orchestrator{
		authority: deps.Authority,
		store:     deps.Store,
		publisher: deps.Publisher,
		normalize: deps.Normalizer,
		logger:    deps.Logger,
		recorder:  deps.Recorder,
	}
	if o.normalize == nil {
		o.normalize = schema.CamelCase
	}
	if o.logger == nil {
		o.logger = noopLogger{}
	}
	return o, nil
}

// Synchronize pushes dev's schema to the authority, then to the local store,
// and publishes exactly one outcome notification.
//
// The sequence is:
//  1. Normalize dev.Schema with the configured Normalizer
//  2. Write the normalized schema to the remote authority
//  3. Write the same schema to the local store (skipped if step 2 failed)
//  4. Publish schema.updated with {"id": ..., "error": null | "<message>"}
//
// Cancellation or expiry of ctx surfaces as a failure of the step that was
// running. The notification is still published, bounded by publishTimeout.
//
// Parameters:
//   - ctx: Bounds the remote and local writes
//   - dev: Device whose ID and Schema are synchronised
//
// Returns:
//   - error: nil whenever the notification was published, even if a step
//     failed; otherwise an error wrapping ErrPublish
//
// Example:
//
//	dev := device.Device{ID: "dev-1", Schema: schema.Schema{"temp_c": "float"}}
//	if err := orch.Synchronize(ctx, dev); err != nil {
//	    log.Error("schema outcome lost", "error", err)
//	}
func (o *Orchestrator) Synchronize(ctx context.Context, dev device.Device) error {
	_, err := o.Run(ctx, dev)
	return err
}

// Run is Synchronize that also returns the step result.
func (o *Orchestrator) Run(ctx context.Context, dev device.Device) (Result, error) {
	start := time.Now()
	res := o.apply(ctx, dev)

	if o.recorder != nil {
		o.recorder.RecordSync(res, time.Since(start))
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := o.publisher.SendSchemaUpdated(pubCtx, res.Notification()); err != nil {
		o.logger.Error("schema sync outcome not published",
			"device_id", dev.ID,
			"error", err,
		)
		return res, fmt.Errorf("%w: device %s: %w", ErrPublish, dev.ID, err)
	}

	if res.OK() {
		o.logger.Debug("device schema updated", "device_id", dev.ID)
	} else {
		o.logger.Warn("device schema sync failed",
			"device_id", dev.ID,
			"step", string(res.Step),
			"error", res.Err,
		)
	}
	return res, nil
}

func (o *Orchestrator) apply(ctx context.Context, dev device.Device) Result {
	res := Result{DeviceID: dev.ID}

	res.Step = StepNormalize
	normalized, err := o.normalize(dev.Schema)
	if err != nil {
		res.Err = &stepError{step: ErrNormalization, cause: err}
		return res
	}

	res.Step = StepRemoteWrite
	if err := o.authority.UpdateSchema(ctx, dev.ID, normalized); err != nil {
		res.Err = &stepError{step: ErrRemoteWrite, cause: err}
		return res
	}

	// No remote rollback on local failure; the authority already holds the new schema.
	res.Step = StepLocalWrite
	if err := o.store.UpdateSchema(ctx, dev.ID, normalized); err != nil {
		res.Err = &stepError{step: ErrLocalWrite, cause: err}
		return res
	}

	res.Step = StepDone
	return res
}
