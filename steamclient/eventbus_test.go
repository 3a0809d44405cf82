package steamclient

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"
)

func TestEventBusEmitDispatchesToSubscribers(t *testing.T) {
	b := newEventBus(slog.Default())

	var got []EMsg
	var mu sync.Mutex
	b.On(EMsgClientLogOnResponse, func(pkt *Packet) {
		mu.Lock()
		got = append(got, pkt.EMsg)
		mu.Unlock()
	}, false)

	b.Emit(&Packet{EMsg: EMsgClientLogOnResponse})
	b.Emit(&Packet{EMsg: EMsgClientHeartBeat}) // different topic, should not reach subscriber

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0] != EMsgClientLogOnResponse {
		t.Errorf("got %v, want one ClientLogOnResponse event", got)
	}
}

func TestEventBusOffRemovesSubscriber(t *testing.T) {
	b := newEventBus(slog.Default())

	calls := 0
	id := b.On(EMsgClientHeartBeat, func(pkt *Packet) { calls++ }, false)
	b.Off(EMsgClientHeartBeat, id)
	b.Emit(&Packet{EMsg: EMsgClientHeartBeat})

	if calls != 0 {
		t.Errorf("expected 0 calls after Off, got %d", calls)
	}
}

func TestEventBusSelfRemovalDuringEmitDoesNotPanicOrSkipSiblings(t *testing.T) {
	b := newEventBus(slog.Default())

	var siblingCalled bool
	var selfID uint64
	selfID = b.On(EMsgClientHeartBeat, func(pkt *Packet) {
		b.Off(EMsgClientHeartBeat, selfID)
	}, false)
	b.On(EMsgClientHeartBeat, func(pkt *Packet) { siblingCalled = true }, false)

	b.Emit(&Packet{EMsg: EMsgClientHeartBeat})

	if !siblingCalled {
		t.Error("expected sibling subscriber to still run")
	}
}

func TestEventBusRecoversSubscriberPanic(t *testing.T) {
	b := newEventBus(slog.Default())

	var afterPanicCalled bool
	b.On(EMsgClientHeartBeat, func(pkt *Packet) { panic("boom") }, false)
	b.On(EMsgClientHeartBeat, func(pkt *Packet) { afterPanicCalled = true }, false)

	b.Emit(&Packet{EMsg: EMsgClientHeartBeat})

	if !afterPanicCalled {
		t.Error("expected sibling subscriber to run despite a panicking sibling")
	}
}

func TestEventBusWaitForReturnsMatchingPacket(t *testing.T) {
	b := newEventBus(slog.Default())
	done := make(chan struct{})

	go func() {
		time.Sleep(10 * time.Millisecond)
		b.Emit(&Packet{EMsg: EMsgClientLogOnResponse, Body: []byte("first")})
		b.Emit(&Packet{EMsg: EMsgClientLogOnResponse, Body: []byte("second")})
	}()

	pkt, err := b.WaitFor(context.Background(), EMsgClientLogOnResponse, func(p *Packet) bool {
		return string(p.Body) == "second"
	}, done)
	if err != nil {
		t.Fatalf("WaitFor: %v", err)
	}
	if string(pkt.Body) != "second" {
		t.Errorf("got body %q, want %q", pkt.Body, "second")
	}
}

func TestEventBusWaitForTimesOutOnContextDeadline(t *testing.T) {
	b := newEventBus(slog.Default())
	done := make(chan struct{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := b.WaitFor(ctx, EMsgClientLogOnResponse, nil, done)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestEventBusWaitForReturnsDisconnectedWhenDoneCloses(t *testing.T) {
	b := newEventBus(slog.Default())
	done := make(chan struct{})
	close(done)

	_, err := b.WaitFor(context.Background(), EMsgClientLogOnResponse, nil, done)
	if err != ErrDisconnected {
		t.Errorf("got %v, want ErrDisconnected", err)
	}
}
