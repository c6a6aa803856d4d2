package bus

import (
	"sync"
	"testing"

	"blechat/pkg/protocol"
)

func TestPublishReachesSubscribersInOrder(t *testing.T) {
	b := New()
	var got []string
	b.Subscribe(TopicReceiveText, func(Event) { got = append(got, "first") })
	b.Subscribe(TopicReceiveText, func(Event) { got = append(got, "second") })

	b.Publish(TopicReceiveText, Event{})
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Fatalf("unexpected delivery order: %v", got)
	}
}

func TestPublishUnrelatedTopic(t *testing.T) {
	b := New()
	called := false
	b.Subscribe(TopicReceiveText, func(Event) { called = true })

	b.Publish(TopicReceiveNodeInfo, Event{})
	if called {
		t.Fatalf("handler invoked for topic it never subscribed to")
	}
	if n := b.Subscribers(TopicReceiveText); n != 1 {
		t.Fatalf("Subscribers = %d, want 1", n)
	}
}

func TestEventCarriesPacket(t *testing.T) {
	b := New()
	var got *protocol.Packet
	b.Subscribe(TopicReceiveText, func(ev Event) { got = ev.Packet })

	p := &protocol.Packet{From: "node1", Decoded: &protocol.Data{Text: "hi"}}
	b.Publish(TopicReceiveText, Event{Packet: p})
	if got != p {
		t.Fatalf("handler did not receive the published packet")
	}
}

func TestNilHandlerIgnored(t *testing.T) {
	b := New()
	b.Subscribe(TopicReceiveText, nil)
	// must not panic
	b.Publish(TopicReceiveText, Event{})
	if n := b.Subscribers(TopicReceiveText); n != 0 {
		t.Fatalf("nil handler was registered")
	}
}

func TestConcurrentPublish(t *testing.T) {
	b := New()
	var mu sync.Mutex
	count := 0
	b.Subscribe(TopicReceiveText, func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				b.Publish(TopicReceiveText, Event{})
			}
		}()
	}
	wg.Wait()
	if count != 800 {
		t.Fatalf("delivered %d events, want 800", count)
	}
}
