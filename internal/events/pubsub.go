package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"

	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
)

const defaultPublishTimeout = 10 * time.Second

type topicPublisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

// PubSubPublisher sends events as JSON messages and logs delivery failures.
type PubSubPublisher struct {
	pub     topicPublisher
	stop    func()
	logg    *logger.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewPubSubPublisher(p *gcppubsub.Publisher, logg *logger.Logger) *PubSubPublisher {
	if logg == nil {
		logg = logger.Nop()
	}
	out := &PubSubPublisher{logg: logg, timeout: defaultPublishTimeout}
	if p != nil {
		out.pub = &gcpPublisher{Publisher: p}
		out.stop = p.Stop
	}
	return out
}

func (p *PubSubPublisher) Publish(ctx context.Context, event Event) {
	if p == nil || p.pub == nil {
		return
	}
	ctx = p.logg.WithFields(ctx, map[string]any{
		"event_id":   event.ID,
		"event_type": string(event.Type),
	})

	data, err := json.Marshal(event)
	if err != nil {
		p.logg.Error(ctx, "cart.event.encode_failed", err)
		return
	}
	msg := &gcppubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"event_id":    event.ID,
			"event_type":  string(event.Type),
			"session_id":  event.SessionID,
			"occurred_at": event.OccurredAt.Format(time.RFC3339Nano),
		},
	}

	ctx = context.WithoutCancel(ctx)
	result := p.pub.Publish(ctx, msg)
	if result == nil {
		p.logg.Warn(ctx, "cart.event.publisher_unavailable")
		return
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		waitCtx, cancel := context.WithTimeout(ctx, p.timeout)
		defer cancel()
		if _, err := result.Get(waitCtx); err != nil {
			p.logg.Error(ctx, "cart.event.publish_failed", err)
		}
	}()
}

// Close waits for outstanding results and stops the underlying publisher.
func (p *PubSubPublisher) Close() error {
	if p == nil {
		return nil
	}
	p.wg.Wait()
	if p.stop != nil {
		p.stop()
	}
	return nil
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
