package events

import (
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

// Completion is the event emitted by the runner when a job's delay elapses.
// Only the id travels on the wire; the terminal state is implied.
type Completion struct {
	ID string `json:"id"`
}

// Publisher emits completion events to a NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher wires an existing NATS connection.
func NewPublisher(nc *nats.Conn, subject string) *Publisher {
	return &Publisher{nc: nc, subject: subject}
}

// PublishCompletion announces that the job with the given id finished.
func (p *Publisher) PublishCompletion(id string) error {
	data, err := json.Marshal(Completion{ID: id})
	if err != nil {
		return fmt.Errorf("marshal completion: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish completion: %w", err)
	}
	return nil
}

// Handler consumes one completion event.
type Handler func(Completion)

// Subscribe attaches a handler to the completion subject. Malformed events
// are logged and dropped; the subscription stays up.
func Subscribe(nc *nats.Conn, subject string, log *logrus.Logger, handle Handler) (*nats.Subscription, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	sub, err := nc.Subscribe(subject, func(msg *nats.Msg) {
		var ev Completion
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			log.WithError(err).Error("Failed to parse completion event")
			return
		}
		handle(ev)
	})
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subject, err)
	}
	return sub, nil
}
