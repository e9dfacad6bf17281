package pubsub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/ritzau/causegraph/pkg/logging"
)

var log = logging.New("pubsub")

// ErrClosed is returned by a publisher that has been shut down.
var ErrClosed = errors.New("publisher is closed")

// subscriptionBuffer bounds the events queued for a slow subscriber.
const subscriptionBuffer = 100

// TopicConfig configures buffering behavior for a topic
type TopicConfig struct {
	BufferSize int  // Number of events to buffer (0 = no buffering)
	ReplayAll  bool // If true, replay all buffered events; if false, only replay last event
}

// topicState is everything the publisher tracks for one topic.
type topicState struct {
	config  TopicConfig
	version int
	backlog []Event
	subs    map[*sseSubscription]struct{}
}

func (t *topicState) idle() bool {
	return len(t.subs) == 0 && t.version == 0 && t.config == TopicConfig{}
}

// replay is the part of the backlog a new subscriber sees.
func (t *topicState) replay() []Event {
	if len(t.backlog) == 0 || t.config.ReplayAll {
		return t.backlog
	}
	return t.backlog[len(t.backlog)-1:]
}

func (t *topicState) record(ev Event) {
	if t.config.BufferSize <= 0 {
		return
	}
	t.backlog = append(t.backlog, ev)
	if over := len(t.backlog) - t.config.BufferSize; over > 0 {
		t.backlog = append(t.backlog[:0:0], t.backlog[over:]...)
	}
}

// SSEPublisher implements Publisher for Server-Sent Events streams. Events
// are delivered without blocking: a subscriber that falls behind by more than
// its queue loses events.
type SSEPublisher struct {
	mu     sync.Mutex
	topics map[string]*topicState
	closed bool
}

// NewSSEPublisher creates a new SSE-based publisher
func NewSSEPublisher() *SSEPublisher {
	return &SSEPublisher{topics: make(map[string]*topicState)}
}

// topic returns the state of name, creating it. p.mu must be held.
func (p *SSEPublisher) topic(name string) *topicState {
	t, ok := p.topics[name]
	if !ok {
		t = &topicState{subs: make(map[*sseSubscription]struct{})}
		p.topics[name] = t
	}
	return t
}

// ConfigureTopic sets buffering configuration for a topic
func (p *SSEPublisher) ConfigureTopic(topic string, config TopicConfig) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic(topic).config = config
}

// Subscribe opens a stream on topic, primed with the replayable backlog. The
// stream ends when ctx is done, the subscription is closed, the topic is
// dropped or the publisher shuts down.
func (p *SSEPublisher) Subscribe(ctx context.Context, topic string) (Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrClosed
	}

	sub := &sseSubscription{
		topic:     topic,
		events:    make(chan Event, subscriptionBuffer),
		done:      make(chan struct{}),
		publisher: p,
	}
	t := p.topic(topic)
	t.subs[sub] = struct{}{}

	if backlog := t.replay(); len(backlog) > 0 {
		for _, ev := range backlog {
			sub.offer(ev)
		}
		log.Debug("replayed events to new subscriber", "topic", topic, "count", len(backlog))
	}

	go func() {
		select {
		case <-ctx.Done():
			sub.Close()
		case <-sub.done:
		}
	}()

	return sub, nil
}

// Publish sends an event to all subscribers of a topic
func (p *SSEPublisher) Publish(topic string, eventType string, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrClosed
	}

	t := p.topic(topic)
	t.version++
	ev := Event{Topic: topic, Type: eventType, Data: payload, Version: t.version}
	t.record(ev)

	for sub := range t.subs {
		if !sub.offer(ev) {
			log.Warn("subscription channel full, dropping event", "topic", topic, "type", eventType)
		}
	}
	return nil
}

// Close shuts down the publisher and ends every stream.
func (p *SSEPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	for _, t := range p.topics {
		for sub := range t.subs {
			sub.end()
		}
	}
	p.topics = make(map[string]*topicState)
	return nil
}

// DropTopic forgets a topic: its buffer, version counter and configuration
// are removed and its subscriptions are closed, ending their event streams.
func (p *SSEPublisher) DropTopic(topic string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.topics[topic]
	if !ok {
		return
	}
	delete(p.topics, topic)
	for sub := range t.subs {
		sub.end()
	}
}

// leave removes sub from its topic.
func (p *SSEPublisher) leave(sub *sseSubscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t, ok := p.topics[sub.topic]
	if !ok {
		return
	}
	delete(t.subs, sub)
	if t.idle() {
		delete(p.topics, sub.topic)
	}
}

// sseSubscription is one open stream. Sends on events happen with the
// publisher lock held, and the channel is only closed once the subscription
// is unreachable from the publisher, so a send never hits a closed channel.
type sseSubscription struct {
	topic     string
	events    chan Event
	done      chan struct{}
	once      sync.Once
	publisher *SSEPublisher
}

// Topic returns the subscription topic
func (s *sseSubscription) Topic() string {
	return s.topic
}

// Events returns the stream. It is closed when the subscription ends.
func (s *sseSubscription) Events() <-chan Event {
	return s.events
}

// Close ends the subscription. It is safe to call more than once.
func (s *sseSubscription) Close() error {
	s.publisher.leave(s)
	s.end()
	return nil
}

func (s *sseSubscription) offer(ev Event) bool {
	select {
	case s.events <- ev:
		return true
	default:
		return false
	}
}

func (s *sseSubscription) end() {
	s.once.Do(func() {
		close(s.done)
		close(s.events)
	})
}

// WriteSSE writes an event as one SSE data frame: "data: {json}\n\n".
func WriteSSE(w io.Writer, event Event) error {
	frame, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}
	_, err = fmt.Fprintf(w, "data: %s\n\n", frame)
	return err
}
