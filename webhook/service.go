package webhook

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/marcelsud/zipwhip-bridge/forwards"
	"github.com/marcelsud/zipwhip-bridge/zipwhip"
)

/* Service represents the business logic layer
 * Uses pointer semantics as it's an API, not data
 */

// Receipt acknowledges a processed webhook delivery.
type Receipt struct {
	CorrelationID string
	ProviderRef   string
	// Duplicate is true when the fingerprint+id pair was already recorded
	// and no new dispatch was performed
	Duplicate bool
}

// Counters is a point-in-time snapshot of pipeline totals.
type Counters struct {
	Received   int64
	Dispatched int64
	Duplicates int64
	Failures   int64
	InFlight   int64
}

// UseCase defines the business operations for webhook processing
type UseCase interface {
	Process(ctx context.Context, wh ReceiveWebhook) (Receipt, error)
}

type Service struct {
	Store      Store
	Dispatcher zipwhip.Dispatcher
	Forwards   *forwards.Loader

	maxRetries   uint64
	retryMinWait time.Duration

	received   atomic.Int64
	dispatched atomic.Int64
	duplicates atomic.Int64
	failures   atomic.Int64
	inFlight   atomic.Int64
}

// NewService creates a new webhook service with dependency injection.
// maxRetries bounds the number of additional dispatch attempts made for
// transient failures; retryMinWait seeds the Fibonacci backoff between them.
func NewService(store Store, dispatcher zipwhip.Dispatcher, fw *forwards.Loader, maxRetries uint64, retryMinWait time.Duration) *Service {
	if fw == nil {
		fw = forwards.NewLoader()
	}
	if retryMinWait <= 0 {
		retryMinWait = 500 * time.Millisecond
	}
	return &Service{
		Store:        store,
		Dispatcher:   dispatcher,
		Forwards:     fw,
		maxRetries:   maxRetries,
		retryMinWait: retryMinWait,
	}
}

// Process runs a parsed webhook through the pipeline: idempotency check,
// action derivation, and dispatch with bounded backoff.
//
// Redelivery of an already-recorded fingerprint+id pair short-circuits to a
// duplicate receipt without re-invoking the dispatcher. When the dispatch
// ultimately fails, the recorded pair is released so a provider redelivery
// can be processed again.
func (s *Service) Process(ctx context.Context, wh ReceiveWebhook) (Receipt, error) {
	s.received.Add(1)
	s.inFlight.Add(1)
	defer s.inFlight.Add(-1)

	key := wh.DedupeKey()

	fresh, err := s.Store.MarkIfNew(ctx, key)
	if err != nil {
		return Receipt{}, fmt.Errorf("recording fingerprint: %w", err)
	}

	if !fresh {
		s.duplicates.Add(1)
		return Receipt{CorrelationID: key, Duplicate: true}, nil
	}

	ack, err := s.dispatchWithRetry(ctx, s.deriveAction(wh))
	if err != nil {
		s.failures.Add(1)
		// Release the reservation so a redelivery is not treated as a
		// successfully processed duplicate. The release must outlive the
		// request context: the dispatch may have failed precisely because
		// that context expired, and a leaked reservation would swallow
		// redeliveries until the TTL runs out.
		releaseCtx := context.WithoutCancel(ctx)
		if forgetErr := s.Store.Forget(releaseCtx, key); forgetErr != nil {
			return Receipt{}, fmt.Errorf("dispatching action: %w (releasing fingerprint: %w)", err, forgetErr)
		}
		return Receipt{}, fmt.Errorf("dispatching action: %w", err)
	}

	s.dispatched.Add(1)
	return Receipt{CorrelationID: ack.CorrelationID, ProviderRef: ack.ProviderRef}, nil
}

// deriveAction builds the provider action for an inbound webhook.
// The message body is relayed to the target configured for the receiving
// line; with no rule configured the action falls back to the webhook's own
// endpoints, which the provider treats as a receipt on the conversation.
func (s *Service) deriveAction(wh ReceiveWebhook) zipwhip.Action {
	destination := wh.FinalDestination
	if target, ok := s.Forwards.Resolve(wh.FinalDestination); ok {
		destination = target
	}

	return zipwhip.Action{
		CorrelationID: wh.DedupeKey(),
		Source:        wh.FinalSource,
		Destination:   destination,
		Body:          wh.Body,
		MessageType:   wh.MessageType,
	}
}

// dispatchWithRetry invokes the dispatcher, retrying transient failures a
// bounded number of times with Fibonacci backoff. Permanent rejections and
// credential failures surface immediately.
func (s *Service) dispatchWithRetry(ctx context.Context, action zipwhip.Action) (zipwhip.Ack, error) {
	backoff := retry.NewFibonacci(s.retryMinWait)
	backoff = retry.WithMaxRetries(s.maxRetries, backoff)

	var ack zipwhip.Ack
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		a, err := s.Dispatcher.Dispatch(ctx, action)
		if err != nil {
			if zipwhip.IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		ack = a
		return nil
	})
	if err != nil {
		return zipwhip.Ack{}, err
	}
	return ack, nil
}

// Counters returns the current pipeline totals for metrics collection.
func (s *Service) Counters() Counters {
	return Counters{
		Received:   s.received.Load(),
		Dispatched: s.dispatched.Load(),
		Duplicates: s.duplicates.Load(),
		Failures:   s.failures.Load(),
		InFlight:   s.inFlight.Load(),
	}
}
