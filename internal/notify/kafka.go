package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

const (
	DefaultTopic     = "appointments.notifications.v1"
	EventTypeRequest = "notification.requested"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaNotifier publishes notification requests for the notifications service to consume.
type KafkaNotifier struct {
	w     messageWriter
	topic string
	now   func() time.Time
	newID func() string
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
	return &KafkaNotifier{w: w, topic: topic, now: time.Now, newID: uuid.NewString}
}

func (n *KafkaNotifier) Send(ctx context.Context, residentID int64, message string) error {
	msg, err := n.buildMessage(ctx, residentID, message)
	if err != nil {
		return err
	}
	return n.w.WriteMessages(ctx, msg)
}

func (n *KafkaNotifier) Close() error {
	return n.w.Close()
}

// buildMessage keys by resident so one resident's notifications stay ordered.
func (n *KafkaNotifier) buildMessage(ctx context.Context, residentID int64, message string) (kafka.Message, error) {
	payload := newNotification(residentID, message, n.now())
	payload.EventID = n.newID()

	value, err := json.Marshal(payload)
	if err != nil {
		return kafka.Message{}, err
	}

	headers := []kafka.Header{
		{Key: "event_id", Value: []byte(payload.EventID)},
		{Key: "event_type", Value: []byte(EventTypeRequest)},
	}
	return kafka.Message{
		Key:     []byte(strconv.FormatInt(residentID, 10)),
		Value:   value,
		Headers: injectTraceHeaders(ctx, headers),
		Time:    n.now(),
	}, nil
}

func injectTraceHeaders(ctx context.Context, headers []kafka.Header) []kafka.Header {
	carrier := &headerCarrier{headers: headers}
	otel.GetTextMapPropagator().Inject(ctx, carrier)
	return carrier.headers
}

type headerCarrier struct {
	headers []kafka.Header
}

func (c *headerCarrier) Get(key string) string {
	for _, h := range c.headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c *headerCarrier) Keys() []string {
	keys := make([]string, 0, len(c.headers))
	for _, h := range c.headers {
		keys = append(keys, h.Key)
	}
	return keys
}

func (c *headerCarrier) Set(key, value string) {
	for i := range c.headers {
		if c.headers[i].Key == key {
			c.headers[i].Value = []byte(value)
			return
		}
	}
	c.headers = append(c.headers, kafka.Header{Key: key, Value: []byte(value)})
}

var _ propagation.TextMapCarrier = (*headerCarrier)(nil)

func SplitBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		b = strings.TrimSpace(b)
		if b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// KafkaReadyCheck dials the first broker.
func KafkaReadyCheck(brokers []string) func(context.Context) error {
	return func(ctx context.Context) error {
		if len(brokers) == 0 {
			return errors.New("kafka brokers not configured")
		}
		dialer := kafka.Dialer{Timeout: 2 * time.Second}
		conn, err := dialer.DialContext(ctx, "tcp", brokers[0])
		if err != nil {
			return err
		}
		return conn.Close()
	}
}
