package logsink

import (
	"bytes"
	"fmt"
	"io"
	"log"
	"sync"
	"testing"
	"time"
)

func drain(t *testing.T, sub *Subscription, n int) []Record {
	t.Helper()
	var out []Record
	timeout := time.After(2 * time.Second)
	for len(out) < n {
		select {
		case rec, ok := <-sub.C():
			if !ok {
				t.Fatalf("subscription closed after %d records, want %d", len(out), n)
			}
			out = append(out, rec)
		case <-timeout:
			t.Fatalf("timed out after %d records, want %d", len(out), n)
		}
	}
	return out
}

func TestFiltered(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Telemetry request failed: 503", true},
		{"   at HytaleClient!Main()", true},
		{"System.Net.Http.HttpRequestException", true},
		{"prefix System.Net.Http suffix", true},
		{"telemetry request failed", false},
		{"system.net.http", false},
		{"at HytaleClient", false},
		{"World loaded in 3.2s", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Filtered(tt.text); got != tt.want {
			t.Errorf("Filtered(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestEmitDropsDenylistedRecords(t *testing.T) {
	sink := New()
	sub := sink.Subscribe()
	defer sub.Close()

	sink.Emit("Telemetry request failed (timeout)", TagClient)
	sink.Emit("  Loading assets  ", TagClient)

	got := drain(t, sub, 1)
	if got[0].Text != "  Loading assets  " || got[0].Tag != TagClient {
		t.Fatalf("unexpected record %+v", got[0])
	}

	select {
	case rec := <-sub.C():
		t.Fatalf("unexpected extra record %+v", rec)
	default:
	}
}

func TestEmitPreservesOrderPerSubscriber(t *testing.T) {
	sink := New()
	first := sink.Subscribe(WithBuffer(4))
	second := sink.Subscribe(WithBuffer(4))
	defer first.Close()
	defer second.Close()

	const n = 50
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < n; i++ {
			sink.Emit(fmt.Sprintf("line %d", i), TagServer)
		}
	}()

	var wg sync.WaitGroup
	results := make([][]Record, 2)
	for i, sub := range []*Subscription{first, second} {
		wg.Add(1)
		go func(i int, sub *Subscription) {
			defer wg.Done()
			for rec := range sub.C() {
				results[i] = append(results[i], rec)
				if len(results[i]) == n {
					return
				}
			}
		}(i, sub)
	}
	wg.Wait()
	<-done

	for _, recs := range results {
		if len(recs) != n {
			t.Fatalf("got %d records, want %d", len(recs), n)
		}
		for i, rec := range recs {
			if rec.Text != fmt.Sprintf("line %d", i) {
				t.Fatalf("record %d = %q, out of order", i, rec.Text)
			}
		}
	}
}

func TestDropOldestSubscriberDoesNotBlock(t *testing.T) {
	sink := New(WithLogger(log.New(io.Discard, "", 0)))
	slow := sink.Subscribe(WithBuffer(2), WithStrategy(StrategyDropOldest), WithName("slow"))
	defer slow.Close()

	for i := 0; i < 5; i++ {
		sink.Emit(fmt.Sprintf("line %d", i), TagInfo)
	}

	if slow.Dropped() != 3 {
		t.Fatalf("dropped = %d, want 3", slow.Dropped())
	}
	got := drain(t, slow, 2)
	if got[0].Text != "line 3" || got[1].Text != "line 4" {
		t.Fatalf("expected newest records, got %+v", got)
	}
}

func TestCloseUnblocksEmit(t *testing.T) {
	sink := New()
	sub := sink.Subscribe(WithBuffer(1))

	sink.Emit("fills buffer", TagInfo)
	emitted := make(chan struct{})
	go func() {
		sink.Emit("blocks", TagInfo)
		close(emitted)
	}()

	time.Sleep(20 * time.Millisecond)
	sub.Close()

	select {
	case <-emitted:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit stayed blocked after Close")
	}
	if sink.Subscribers() != 0 {
		t.Fatalf("subscribers = %d after Close", sink.Subscribers())
	}
	sub.Close()
}

func TestEmitOnNilSink(t *testing.T) {
	var sink *Sink
	sink.Emit("ignored", TagInfo)
}

func TestFormatAndPump(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	sink := New(WithClock(func() time.Time { return fixed }))
	sub := sink.Subscribe()

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		Pump(sub, &buf, false)
		close(done)
	}()

	sink.Emit("Intercepted GET: localhost/user/profile", TagEmulator)
	sink.Emit("boom", TagError)
	time.Sleep(20 * time.Millisecond)
	sub.Close()
	<-done

	want := "[EMULATOR] Intercepted GET: localhost/user/profile\n[ERROR] boom\n"
	if buf.String() != want {
		t.Fatalf("console output = %q, want %q", buf.String(), want)
	}

	colored := Format(Record{Tag: TagError, Text: "x", Time: fixed}, true)
	if colored != "\x1b[31m[ERROR]\x1b[0m x" {
		t.Fatalf("colored = %q", colored)
	}
	if Format(Record{Tag: "custom", Text: "y"}, true) != "[CUSTOM] y" {
		t.Fatal("unknown tags should render without color")
	}
}
