package notify

import (
	"sync"
	"time"

	"github.com/lojadigital/storefront/internal/pkg/cache"
	"github.com/lojadigital/storefront/internal/pkg/mail"
	log "github.com/sirupsen/logrus"
)

// DedupWindow suppresses duplicate confirmation emails for quick webhook
// redeliveries. At-most-one-per-window is best effort, not a hard guarantee.
const DedupWindow = 5 * time.Minute

const dedupKeyFormat = "payment:confirmation:"

// Dispatcher sends payment confirmation emails at most once per dedup window
// per gateway payment ID. The recency gate lives in a process-local map;
// when the shared cache is enabled it is consulted first so that multiple
// instances agree on recent sends.
type Dispatcher struct {
	window      time.Duration
	sharedCache bool

	mu   sync.Mutex
	sent map[string]time.Time

	// send is swappable in tests.
	send func(mail.ConfirmationData) error
}

// NewDispatcher creates a dispatcher backed by the SMTP mailer. sharedCache
// enables the Redis-backed recency gate for multi-instance deployments.
func NewDispatcher(sharedCache bool) *Dispatcher {
	return &Dispatcher{
		window:      DedupWindow,
		sharedCache: sharedCache,
		sent:        make(map[string]time.Time),
		send:        mail.SendPaymentConfirmation,
	}
}

// WasRecentlySent reports whether a confirmation for this payment ID went out
// inside the dedup window.
func (d *Dispatcher) WasRecentlySent(paymentID string) bool {
	if d.sharedCache {
		if _, err := cache.Get(dedupKeyFormat + paymentID); err == nil {
			return true
		}
		// Cache miss or cache down, fall through to the local map.
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.sent[paymentID]
	return ok && time.Since(t) < d.window
}

// MarkSent records a successful send for this payment ID.
func (d *Dispatcher) MarkSent(paymentID string) {
	if d.sharedCache {
		if err := cache.Set(dedupKeyFormat+paymentID, time.Now().Format(time.RFC3339), d.window); err != nil {
			log.WithError(err).Warn("confirmation dedup cache write failed, relying on local map")
		}
	}

	d.mu.Lock()
	d.sent[paymentID] = time.Now()
	d.mu.Unlock()
}

// SendConfirmation sends the confirmation email unless one already went out
// within the dedup window. The recipient must already be validated by the
// caller.
func (d *Dispatcher) SendConfirmation(paymentID string, data mail.ConfirmationData) error {
	if d.WasRecentlySent(paymentID) {
		log.WithField("payment_id", paymentID).Info("confirmation email recently sent, skipping duplicate")
		return nil
	}
	if err := d.send(data); err != nil {
		return err
	}
	d.MarkSent(paymentID)
	return nil
}
