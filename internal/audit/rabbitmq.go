package audit

import (
	"context"
	"encoding/json"
	"fmt"

	"quashMarket/internal/logger"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// RabbitMQSink публикует события в durable очередь
type RabbitMQSink struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
}

func NewRabbitMQSink(url, queueName string) (*RabbitMQSink, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("подключение к RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("открытие канала: %w", err)
	}

	queue, err := channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("объявление очереди: %w", err)
	}

	logger.Info("Audit: Подключение к RabbitMQ установлено", zap.String("queue", queue.Name))
	return &RabbitMQSink{conn: conn, channel: channel, queue: queue}, nil
}

func (s *RabbitMQSink) Publish(ctx context.Context, event Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("сериализация события: %w", err)
	}

	return s.channel.PublishWithContext(
		ctx,
		"",           // exchange
		s.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Type:         string(event.Action),
			Timestamp:    event.At,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
}

func (s *RabbitMQSink) Close() error {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}
