package notifier

import (
	"log"

	"modu-consult/monitoring"
)

// Notifier delivers a human-readable alert about a consultation event.
// Implementations must be safe to call from the consumer goroutine.
type Notifier interface {
	Notify(subject, message string) error
}

// ConsoleNotifier logs the alert. Used as the fallback when neither SMTP nor
// a webhook is configured, so the consumer always has a transport.
type ConsoleNotifier struct{}

func NewConsole() *ConsoleNotifier {
	return &ConsoleNotifier{}
}

func (c *ConsoleNotifier) Notify(subject, message string) error {
	log.Printf("[notify] %s :: %s", subject, message)
	return nil
}

// MultiNotifier fans one alert out to several transports. Delivery is
// best-effort per transport: a failure is logged and counted, and the
// remaining transports still run.
type MultiNotifier struct {
	transports []namedTransport
}

type namedTransport struct {
	name string
	n    Notifier
}

func NewMulti() *MultiNotifier {
	return &MultiNotifier{}
}

func (m *MultiNotifier) Add(name string, n Notifier) {
	m.transports = append(m.transports, namedTransport{name: name, n: n})
}

func (m *MultiNotifier) Len() int {
	return len(m.transports)
}

func (m *MultiNotifier) Notify(subject, message string) error {
	for _, t := range m.transports {
		if err := t.n.Notify(subject, message); err != nil {
			log.Printf("Notification via %s failed: %v", t.name, err)
			monitoring.NotificationFailures.WithLabelValues(t.name).Inc()
		}
	}
	// Failures never propagate to the caller
	return nil
}
