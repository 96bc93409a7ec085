package broker

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func receive(t *testing.T, ch <-chan Message) Message {
	t.Helper()
	select {
	case msg, ok := <-ch:
		if !ok {
			t.Fatal("channel closed before a message arrived")
		}
		return msg
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for message")
	}
	return Message{}
}

// TestTopicIsolation verifies messages published to one topic are not
// delivered to another.
func TestTopicIsolation(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()
	ctx := context.Background()

	chA, err := broker.Subscribe(ctx, "topic-a", "g")
	if err != nil {
		t.Fatalf("Subscribe to topic-a failed: %v", err)
	}
	chB, err := broker.Subscribe(ctx, "topic-b", "g")
	if err != nil {
		t.Fatalf("Subscribe to topic-b failed: %v", err)
	}

	if err := broker.Publish(ctx, "topic-a", "k", []byte("only-a")); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}

	if got := receive(t, chA); string(got.Value) != "only-a" {
		t.Errorf("Expected %q, got %q", "only-a", got.Value)
	}

	select {
	case msg := <-chB:
		t.Errorf("Topic B should not receive message, but got: %q", msg.Value)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestLateSubscriberReplaysTopic(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := broker.Publish(ctx, "replay", "k", []byte(fmt.Sprintf("m%d", i))); err != nil {
			t.Fatalf("Publish failed: %v", err)
		}
	}

	ch, err := broker.Subscribe(ctx, "replay", "late")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	for i := 0; i < 3; i++ {
		msg := receive(t, ch)
		if want := fmt.Sprintf("m%d", i); string(msg.Value) != want {
			t.Errorf("message %d = %q, expected %q", i, msg.Value, want)
		}
		if msg.Offset != int64(i) {
			t.Errorf("message %d offset = %d, expected %d", i, msg.Offset, i)
		}
	}
}

func TestDuplicateGroupRejected(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()
	ctx := context.Background()

	if _, err := broker.Subscribe(ctx, "t", "g"); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if _, err := broker.Subscribe(ctx, "t", "g"); err == nil {
		t.Error("Expected error for a second subscription in the same group")
	}
}

func TestContextCancelClosesChannel(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := broker.Subscribe(ctx, "t", "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("Expected closed channel after cancel")
		}
	case <-time.After(1 * time.Second):
		t.Fatal("Timeout waiting for channel close")
	}
}

func TestPublishDoesNotAliasValue(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()
	ctx := context.Background()

	ch, err := broker.Subscribe(ctx, "t", "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}

	value := []byte("abc")
	if err := broker.Publish(ctx, "t", "k", value); err != nil {
		t.Fatalf("Publish failed: %v", err)
	}
	value[0] = 'x'

	if got := receive(t, ch); string(got.Value) != "abc" {
		t.Errorf("Value = %q, expected %q", got.Value, "abc")
	}
}

// TestConcurrentPublishSubscribe verifies the mutex protects the topic map.
func TestConcurrentPublishSubscribe(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()
	ctx := context.Background()

	const numGoroutines = 50
	var wg sync.WaitGroup

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		if i%2 == 0 {
			go func() {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					_ = broker.Publish(ctx, "concurrent-topic", "k", []byte("msg"))
				}
			}()
		} else {
			go func(id int) {
				defer wg.Done()
				for j := 0; j < 10; j++ {
					_, _ = broker.Subscribe(ctx, "concurrent-topic", fmt.Sprintf("g-%d-%d", id, j))
				}
			}(i)
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout - possible deadlock in concurrent access")
	}
}

// TestCloseGracefulShutdown verifies Close closes all subscriber channels.
func TestCloseGracefulShutdown(t *testing.T) {
	broker := NewInMemoryBroker()
	ctx := context.Background()

	ch1, err := broker.Subscribe(ctx, "topic-1", "g")
	if err != nil {
		t.Fatalf("Subscribe to topic-1 failed: %v", err)
	}
	ch2, err := broker.Subscribe(ctx, "topic-2", "g")
	if err != nil {
		t.Fatalf("Subscribe to topic-2 failed: %v", err)
	}

	if err := broker.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := broker.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	for i, ch := range []<-chan Message{ch1, ch2} {
		select {
		case _, ok := <-ch:
			if ok {
				t.Errorf("channel %d: expected closed", i+1)
			}
		case <-time.After(1 * time.Second):
			t.Fatalf("channel %d: timeout waiting for close", i+1)
		}
	}
}

func TestPublishJSONAndDecode(t *testing.T) {
	broker := NewInMemoryBroker()
	defer broker.Close()
	ctx := context.Background()

	type payload struct {
		Name string `json:"name"`
	}

	ch, err := broker.Subscribe(ctx, "json", "g")
	if err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if err := PublishJSON(ctx, broker, "json", "k", payload{Name: "hs_err_pid1.log"}); err != nil {
		t.Fatalf("PublishJSON failed: %v", err)
	}

	var got payload
	if err := receive(t, ch).Decode(&got); err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if got.Name != "hs_err_pid1.log" {
		t.Errorf("Decode() name = %q, expected %q", got.Name, "hs_err_pid1.log")
	}

	bad := Message{Topic: "json", Value: []byte("{")}
	if err := bad.Decode(&got); err == nil {
		t.Error("Decode of malformed JSON should fail")
	}
}
