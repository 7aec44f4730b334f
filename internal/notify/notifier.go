package notify

import (
	"context"
	"log"
	"sync"

	"github.com/simvol2030/project-kliee-sub000/internal/domain"
)

// Results reports per-channel delivery outcome. Purely informational: the
// order is already committed by the time these are known, and failed
// channels are never retried automatically.
type Results struct {
	EmailCustomer bool
	EmailAdmin    bool
	Telegram      bool
}

// EmailChannel delivers the customer confirmation and the admin alert.
type EmailChannel interface {
	SendCustomerConfirmation(ctx context.Context, n domain.OrderNotification) error
	SendAdminAlert(ctx context.Context, n domain.OrderNotification) error
	Enabled() bool
}

// MessengerChannel delivers the admin chat message.
type MessengerChannel interface {
	SendOrderAlert(ctx context.Context, n domain.OrderNotification) error
	Enabled() bool
}

// Dispatcher fans an order notification out to all channels concurrently.
// Each channel is isolated: a failure (error, panic, missing configuration)
// resolves to false without touching the other channels.
type Dispatcher struct {
	email     EmailChannel
	messenger MessengerChannel
}

func NewDispatcher(email EmailChannel, messenger MessengerChannel) *Dispatcher {
	return &Dispatcher{email: email, messenger: messenger}
}

func (d *Dispatcher) Notify(ctx context.Context, n domain.OrderNotification) Results {
	var results Results
	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		results.EmailCustomer = d.attempt("customer email", n.OrderNumber, func() error {
			return d.email.SendCustomerConfirmation(ctx, n)
		}, d.email.Enabled())
	}()
	go func() {
		defer wg.Done()
		results.EmailAdmin = d.attempt("admin email", n.OrderNumber, func() error {
			return d.email.SendAdminAlert(ctx, n)
		}, d.email.Enabled())
	}()
	go func() {
		defer wg.Done()
		results.Telegram = d.attempt("telegram", n.OrderNumber, func() error {
			return d.messenger.SendOrderAlert(ctx, n)
		}, d.messenger.Enabled())
	}()
	wg.Wait()

	return results
}

// attempt wraps one delivery so nothing can escape: not an error, not a
// panic. Missing configuration degrades silently to false.
func (d *Dispatcher) attempt(channel, orderNumber string, send func() error, enabled bool) (ok bool) {
	if !enabled {
		log.Printf("%s channel not configured, skipping for order %s", channel, orderNumber)
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("%s delivery panicked for order %s: %v", channel, orderNumber, r)
			ok = false
		}
	}()

	if err := send(); err != nil {
		log.Printf("%s delivery failed for order %s: %v", channel, orderNumber, err)
		return false
	}
	return true
}
