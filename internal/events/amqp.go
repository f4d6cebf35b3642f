package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/oseayemenre/pagesy-reader/internal/logger"
)

const QueueNovelCreated = "novel.created"

var ErrDeliveriesClosed = errors.New("delivery channel closed")

type AMQPPublisher struct {
	mu    sync.Mutex
	ch    *amqp.Channel
	queue string
}

func DeclareQueue(ch *amqp.Channel, name string) error {
	if _, err := ch.QueueDeclare(name, true, false, false, false, nil); err != nil {
		return fmt.Errorf("error declaring queue, %v", err)
	}
	return nil
}

func NewAMQPPublisher(conn *amqp.Connection, queue string) (*AMQPPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("error opening channel, %v", err)
	}

	if err := DeclareQueue(ch, queue); err != nil {
		ch.Close()
		return nil, err
	}

	return &AMQPPublisher{
		ch:    ch,
		queue: queue,
	}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, e Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("error marshalling event, %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	err = p.ch.PublishWithContext(ctx, "", p.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    e.Id,
		Timestamp:    e.Occurred_at,
		Type:         string(e.Type),
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("error publishing %s, %v", e.Type, err)
	}

	return nil
}

func (p *AMQPPublisher) Close() error {
	return p.ch.Close()
}

type Handler func(ctx context.Context, e Event) error

// Consume feeds queue deliveries to handle until ctx is done.
func Consume(ctx context.Context, ch *amqp.Channel, queue string, log logger.Logger, handle Handler) error {
	deliveries, err := ch.ConsumeWithContext(ctx, queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("error consuming messages from queue, %v", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return ErrDeliveriesClosed
			}
			process(ctx, d, log, handle)
		}
	}
}

// process acks handled deliveries. A malformed body is dropped; a failed
// handler is requeued once and dropped on redelivery.
func process(ctx context.Context, d amqp.Delivery, log logger.Logger, handle Handler) {
	var e Event
	if err := json.Unmarshal(d.Body, &e); err != nil {
		log.Warn(fmt.Sprintf("error decoding delivery, %v", err), "service", "consumer")
		d.Nack(false, false)
		return
	}

	hctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := handle(hctx, e); err != nil {
		log.Error(fmt.Sprintf("error handling %s, %v", e.Type, err), "service", "consumer", "event_id", e.Id)
		d.Nack(false, !d.Redelivered)
		return
	}

	if err := d.Ack(false); err != nil {
		log.Error(fmt.Sprintf("error acknowledging message, %v", err), "service", "consumer")
	}
}
