// Package observerbridge adapts the Observer/CloudEvents notification
// pattern (as used across the teacher's application and module lifecycle
// events) into a reactive source: every matching CloudEvent received is
// forwarded into a caller-supplied sink, typically an Update call that
// Sends it on a reactor.EventChannel. SPEC_FULL.md §B.1 adds this as the
// module's one outward-facing integration with an existing pub/sub
// convention.
package observerbridge

import (
	"context"
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"
)

// Subject is the minimal registration surface a CloudEvents publisher
// needs to support for Bridge to attach to it — mirroring the teacher's
// ObservableApplication.RegisterObserver/UnregisterObserver pair rather
// than depending on the whole application type.
type Subject interface {
	RegisterObserver(observer Observer, eventTypes ...string) error
	UnregisterObserver(observer Observer) error
}

// Observer matches the teacher's Observer interface so a Bridge can
// register directly against any Subject implementation without an adapter
// shim.
type Observer interface {
	OnEvent(ctx context.Context, event cloudevents.Event) error
	ObserverID() string
}

// Bridge is an Observer that forwards every OnEvent call to sink.
type Bridge struct {
	id       string
	subject  Subject
	evtTypes []string
	sink     func(cloudevents.Event)
}

// NewBridge constructs a bridge identified by id, forwarding events of the
// given types (empty means all types) to sink. The bridge is not yet
// registered with subject; call Attach to begin receiving events.
func NewBridge(id string, sink func(cloudevents.Event), eventTypes ...string) *Bridge {
	return &Bridge{id: id, sink: sink, evtTypes: eventTypes}
}

// Attach registers the bridge with subject.
func (b *Bridge) Attach(subject Subject) error {
	b.subject = subject
	return subject.RegisterObserver(b, b.evtTypes...)
}

// Detach unregisters the bridge from whichever subject it was last
// attached to. A no-op if never attached.
func (b *Bridge) Detach() error {
	if b.subject == nil {
		return nil
	}
	return b.subject.UnregisterObserver(b)
}

// OnEvent implements Observer by forwarding event to the configured sink.
func (b *Bridge) OnEvent(_ context.Context, event cloudevents.Event) error {
	b.sink(event)
	return nil
}

// ObserverID implements Observer.
func (b *Bridge) ObserverID() string {
	return b.id
}

// NewEvent builds a CloudEvents 1.0 event the same way the teacher's
// NewCloudEvent helper does: a fresh UUIDv7 id (time-ordered, falling back
// to UUIDv4 if v7 generation ever fails), the given source/type, JSON data,
// and any extension metadata.
func NewEvent(eventType, source string, data interface{}, metadata map[string]interface{}) cloudevents.Event {
	event := cloudevents.NewEvent()
	event.SetID(newEventID())
	event.SetSource(source)
	event.SetType(eventType)
	event.SetTime(time.Now())
	event.SetSpecVersion(cloudevents.VersionV1)
	if data != nil {
		_ = event.SetData(cloudevents.ApplicationJSON, data)
	}
	for k, v := range metadata {
		event.SetExtension(k, v)
	}
	return event
}

func newEventID() string {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}

// Validate wraps the CloudEvents SDK's own structural validation with a
// package-qualified error for easier log filtering.
func Validate(event cloudevents.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("reactor/bridge/observerbridge: invalid event: %w", err)
	}
	return nil
}
