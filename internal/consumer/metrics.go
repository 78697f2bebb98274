package consumer

import "github.com/prometheus/client_golang/prometheus"

// Results recorded in messagesCounter.
const (
	resultProcessed    = "processed"
	resultHandlerError = "handler_error"
	resultRejected     = "rejected"
	resultIgnored      = "ignored"
)

var (
	messagesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "consumer",
		Name:      "messages_total",
		Help:      "Decoded Kafka messages by topic, event type and handling result.",
	}, []string{"topic", "event_type", "result"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "healthbridge",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Records dropped because they could not be decoded, per topic.",
	}, []string{"topic"})

	lastMessageGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "healthbridge",
		Subsystem: "consumer",
		Name:      "last_message_timestamp_seconds",
		Help:      "Kafka timestamp of the newest processed message per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(messagesCounter, decodeErrorCounter, lastMessageGauge)
}

func recordResult(msg Message, result string) {
	messagesCounter.WithLabelValues(msg.Topic, msg.EventType, result).Inc()
	if result == resultProcessed && !msg.Timestamp.IsZero() {
		lastMessageGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}
