package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/streadway/amqp"

	"github.com/Go-routine-4595/myo-rest-bridge/model"
)

const queueDepth = 256

var ErrQueueFull = errors.New("rabbitmq publish queue is full")

type RabbitMQConfig struct {
	ConnectionString string `yaml:"ConnectionString"`
	QueueName        string `yaml:"QueueName"`
}

// RabbitMQ mirrors records to a durable queue. Publishing happens on its own
// goroutine so the device loop never waits on the broker.
type RabbitMQ struct {
	ConnectionString string
	QueueName        string
	msgs             chan []byte
	logger           zerolog.Logger
	conn             *amqp.Connection
	ch               *amqp.Channel
}

func NewRabbitMQ(config RabbitMQConfig, logl int) *RabbitMQ {
	return &RabbitMQ{
		msgs:             make(chan []byte, queueDepth),
		ConnectionString: config.ConnectionString,
		QueueName:        config.QueueName,
		logger: zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
			Level(zerolog.InfoLevel + zerolog.Level(logl)).
			With().Timestamp().Str("gateway", "rabbitmq").Logger(),
	}
}

// SendEvent queues rec for publishing. It never blocks: when the queue is
// full the record is dropped and ErrQueueFull returned.
func (r *RabbitMQ) SendEvent(rec model.Record) error {
	var (
		msg []byte
		err error
	)

	msg, err = json.Marshal(rec)
	if err != nil {
		return err
	}

	select {
	case r.msgs <- msg:
		return nil
	default:
		return ErrQueueFull
	}
}

// connect establishes a new connection and channel
func (r *RabbitMQ) connect() error {
	var (
		err error
	)
	r.conn, err = amqp.Dial(r.ConnectionString)
	if err != nil {
		return err
	}

	r.ch, err = r.conn.Channel()
	if err != nil {
		return err
	}

	_, err = r.ch.QueueDeclare(
		r.QueueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return err
	}

	return nil
}

// reconnect retries every 5s until the broker is back or ctx ends.
func (r *RabbitMQ) reconnect(ctx context.Context) bool {
	for {
		r.logger.Info().Msg("Attempting to reconnect to RabbitMQ...")
		err := r.connect()
		if err == nil {
			r.logger.Info().Msg("Successfully reconnected to RabbitMQ...")
			return true
		}
		r.logger.Error().Err(err).Msg("Reconnect failed")
		select {
		case <-ctx.Done():
			return false
		case <-time.After(5 * time.Second):
		}
	}
}

// Start connects and launches the publishing goroutine.
func (r *RabbitMQ) Start(ctx context.Context, wg *sync.WaitGroup) error {
	err := r.connect()
	if err != nil {
		return errors.Join(err, errors.New("failed to connect to RabbitMQ"))
	}

	wg.Add(1)
	go r.consume(ctx, wg)
	return nil
}

func (r *RabbitMQ) Close() error {
	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}

func (r *RabbitMQ) consume(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	for {
		select {
		case <-ctx.Done():
			// disconnect gracefully and leave
			r.Close()
			r.logger.Info().Msg("Received interrupt signal, closing connection")
			return
		case msg := <-r.msgs:
			err := r.ch.Publish(
				"",          // Exchange
				r.QueueName, // Routing key (queue name)
				false,       // Mandatory
				false,       // Immediate
				amqp.Publishing{
					ContentType: "application/json",
					Body:        msg,
				},
			)
			if err != nil {
				r.logger.Error().Err(err).Msg("Failed to publish a message")
				if !r.reconnect(ctx) {
					return
				}
			}
		}
	}
}
