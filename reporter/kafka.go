package reporter

import (
	"context"
	"encoding/json"

	kaf "github.com/segmentio/kafka-go"

	"github.com/pkgqa/pkgqa/result"
)

// KafkaSink publishes each Result as a JSON message to a topic,
// grounded on the teacher's components/kafka Terminus writer setup.
type KafkaSink struct {
	w *kaf.Writer
}

// NewKafkaSink builds a sink writing to brokers/topic with the given
// retry budget.
func NewKafkaSink(brokers []string, topic string, maxAttempts int) *KafkaSink {
	return &KafkaSink{w: &kaf.Writer{
		Addr:        kaf.TCP(brokers...),
		Topic:       topic,
		Balancer:    &kaf.LeastBytes{},
		MaxAttempts: maxAttempts,
	}}
}

func (s *KafkaSink) Write(r *result.Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.w.WriteMessages(context.Background(), kaf.Message{Value: payload})
}

func (s *KafkaSink) Close() error { return s.w.Close() }
