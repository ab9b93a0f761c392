package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/nats-io/nats.go"
)

// Publisher is the part of *nats.Conn the notifier uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type NATSService struct {
	conn      *nats.Conn
	publisher Publisher
	subject   string
}

func NewNATSService(url, subject, siteCode string) (*NATSService, error) {
	conn, err := nats.Connect(url, nats.Name("hdr-application-intake"))
	if err != nil {
		return nil, err
	}
	log.Printf("Connected to NATS at %s", url)
	s := NewNATSNotifier(conn, subject, siteCode)
	s.conn = conn
	return s, nil
}

// NewNATSNotifier publishes to "<subject>.<siteCode>" through p.
func NewNATSNotifier(p Publisher, subject, siteCode string) *NATSService {
	return &NATSService{
		publisher: p,
		subject:   fmt.Sprintf("%s.%s", subject, siteCode),
	}
}

func (n *NATSService) Subject() string {
	return n.subject
}

func (n *NATSService) NotifySubmitted(ctx context.Context, event SubmittedEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal NATS payload: %w", err)
	}
	if err := n.publisher.Publish(n.subject, data); err != nil {
		return fmt.Errorf("failed to send NATS message: %w", err)
	}
	return nil
}

func (n *NATSService) Close() {
	if n.conn != nil {
		n.conn.Close()
	}
}
