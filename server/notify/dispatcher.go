// Package notify sends one message to an ordered list of recipients and
// records how each recipient fared.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/Daskott/raksha/server/apperr"
	"github.com/Daskott/raksha/server/logger"
	"github.com/Daskott/raksha/server/metrics"
	"github.com/Daskott/raksha/server/phone"
)

const (
	SENT   Status = "sent"
	FAILED Status = "failed"

	DEFAULT_ATTEMPTS = 3
	DEFAULT_DELAY    = 2 * time.Second
)

var logg = logger.NewLogger()

type Status string

type Recipient struct {
	Name  string
	Phone string
}

type Result struct {
	Name   string
	Phone  string
	Status Status
	SentAt time.Time
}

// Dispatcher sends messages to recipients one after the other. Recipients are
// never processed concurrently, so results are always in input order.
type Dispatcher struct {
	transport Transport
	from      string
	attempts  int
	delay     time.Duration
	metrics   *metrics.SafetyMetrics
	now       func() time.Time
}

func NewDispatcher(transport Transport, from string) *Dispatcher {
	return &Dispatcher{
		transport: transport,
		from:      from,
		attempts:  DEFAULT_ATTEMPTS,
		delay:     DEFAULT_DELAY,
		now:       time.Now,
	}
}

func (d *Dispatcher) WithAttempts(n int) *Dispatcher {
	if n > 0 {
		d.attempts = n
	}
	return d
}

// WithDelay sets the wait between attempts for the same recipient
func (d *Dispatcher) WithDelay(delay time.Duration) *Dispatcher {
	if delay >= 0 {
		d.delay = delay
	}
	return d
}

func (d *Dispatcher) WithMetrics(m *metrics.SafetyMetrics) *Dispatcher {
	d.metrics = m
	return d
}

func (d *Dispatcher) Simulated() bool {
	return isSimulated(d.transport)
}

// Dispatch sends message to every recipient & returns one result per recipient.
// A recipient is only marked as sent when every attempt succeeded. Every
// attempt is made, cancelling ctx does not cut a dispatch short.
func (d *Dispatcher) Dispatch(ctx context.Context, message string, recipients []Recipient) []Result {
	results := make([]Result, 0, len(recipients))
	simulated := d.Simulated()

	for _, recipient := range recipients {
		to := phone.Normalize(recipient.Phone)

		if simulated {
			logg.Infof("SIMULATED - would send SMS to %v (%v): %v", recipient.Name, phone.Redact(to), message)
			d.metrics.ObserveSMSAttempt("simulated")
			results = append(results, Result{Name: recipient.Name, Phone: to, Status: SENT, SentAt: d.now()})
			continue
		}

		status := d.sendAll(ctx, message, recipient.Name, to)
		results = append(results, Result{Name: recipient.Name, Phone: to, Status: status, SentAt: d.now()})
	}

	return results
}

func (d *Dispatcher) sendAll(ctx context.Context, message, name, to string) Status {
	if to == "" {
		logg.Errorf("no phone number for %v, skipping", name)
		return FAILED
	}

	logg.Infof("Sending %v SMS message(s) to %v at %v", d.attempts, name, phone.Redact(to))

	status := SENT
	for i := 1; i <= d.attempts; i++ {
		sid, err := d.transport.Send(ctx, d.body(message, i), d.from, to)
		if err != nil {
			err = apperr.Wrap(err, apperr.Transport, fmt.Sprintf("SMS %v/%v to %v failed", i, d.attempts, phone.Redact(to)))
			logg.Error(err)
			d.metrics.ObserveSMSAttempt(string(FAILED))
			status = FAILED
		} else {
			logg.Infof("SMS %v/%v sent to %v: SID %v", i, d.attempts, name, sid)
			d.metrics.ObserveSMSAttempt(string(SENT))
		}

		if i < d.attempts && d.delay > 0 {
			time.Sleep(d.delay)
		}
	}

	return status
}

func (d *Dispatcher) body(message string, attempt int) string {
	if d.attempts <= 1 {
		return message
	}

	return fmt.Sprintf("%v (Alert %v/%v)", message, attempt, d.attempts)
}
