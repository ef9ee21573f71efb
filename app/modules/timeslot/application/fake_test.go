package timeslotservice

import (
	"context"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	timeslotdomain "github.com/mozilla/mozilla-ignite/app/modules/timeslot/domain"
	"github.com/mozilla/mozilla-ignite/pkg/eventbus"
)

type recordingBus struct {
	mu        sync.Mutex
	Published map[string][]*message.Message
}

var _ eventbus.EventBus = (*recordingBus)(nil)

func newRecordingBus() *recordingBus {
	return &recordingBus{Published: map[string][]*message.Message{}}
}

func (b *recordingBus) Publish(topic string, messages ...*message.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Published[topic] = append(b.Published[topic], messages...)
	return nil
}

func (b *recordingBus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) messages(topic string) []*message.Message {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.Published[topic]
}

// fakeLocker keeps locks forever; tests seed Held to simulate contention.
type fakeLocker struct {
	mu        sync.Mutex
	Held      map[int64]int64
	AcquireFn func(ctx context.Context, slotID, submissionID int64, ttl time.Duration) (bool, error)
}

var _ SlotLocker = (*fakeLocker)(nil)

func newFakeLocker() *fakeLocker {
	return &fakeLocker{Held: map[int64]int64{}}
}

func (l *fakeLocker) Acquire(ctx context.Context, slotID, submissionID int64, ttl time.Duration) (bool, error) {
	if l.AcquireFn != nil {
		return l.AcquireFn(ctx, slotID, submissionID, ttl)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if holder, ok := l.Held[slotID]; ok && holder != submissionID {
		return false, nil
	}
	l.Held[slotID] = submissionID
	return true, nil
}

type fakeScheduler struct {
	Scheduled []timeslotdomain.BookingAvailablePayload
}

var _ AvailabilityScheduler = (*fakeScheduler)(nil)

func (s *fakeScheduler) ScheduleAvailable(ctx context.Context, payload timeslotdomain.BookingAvailablePayload) error {
	s.Scheduled = append(s.Scheduled, payload)
	return nil
}
