package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	ps "cloud.google.com/go/pubsub"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	sqssvc "github.com/aws/aws-sdk-go/service/sqs"
	"github.com/google/uuid"
	kaf "github.com/segmentio/kafka-go"

	"github.com/pkgqa/pkgqa/checks"
	"github.com/pkgqa/pkgqa/engine"
	"github.com/pkgqa/pkgqa/feed"
)

// readPollTimeout bounds how long a single queue poll waits for the
// next pending message before a Produce call gives up and returns
// whatever it has collected so far.
const readPollTimeout = 3 * time.Second

// sliceIterator replays a fixed slice of already-decoded Version
// items, the shape every queue-backed Source below produces once it
// has drained its one batch: unlike the filesystem Source, there is
// no further Transform to narrow a queue message, so decoding happens
// in Produce itself.
type sliceIterator struct {
	items []engine.Item
	pos   int
}

func (s *sliceIterator) Next() (engine.Item, bool, error) {
	if s.pos >= len(s.items) {
		return engine.Item{}, false, nil
	}
	item := s.items[s.pos]
	s.pos++
	return item, true, nil
}

func decodeRecipe(raw []byte) (*checks.Recipe, error) {
	var rec checks.Recipe
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// KafkaSource reads up to MaxMessages pending recipe-change events off
// a Kafka topic and feeds each as a Version item, letting a run target
// just the packages a build pipeline reports as changed instead of
// walking the whole repository. Grounded on the teacher's
// subscriptions/kafka Subscription, adapted from a push Read loop into
// a bounded Produce-time batch.
type KafkaSource struct {
	Reader      *kaf.Reader
	MaxMessages int
	Cost_       int
}

func (s *KafkaSource) Name() string        { return "kafka-stream" }
func (s *KafkaSource) FeedType() feed.Type { return feed.Version }
func (s *KafkaSource) Scope() feed.Scope   { return feed.VersionScope }
func (s *KafkaSource) Cost() int           { return s.Cost_ }

func (s *KafkaSource) Produce() (engine.Iterator, error) {
	max := s.MaxMessages
	if max <= 0 {
		max = 100
	}

	var items []engine.Item
	for i := 0; i < max; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), readPollTimeout)
		msg, err := s.Reader.ReadMessage(ctx)
		cancel()
		if err != nil {
			break
		}
		rec, err := decodeRecipe(msg.Value)
		if err != nil {
			return nil, fmt.Errorf("kafka-stream: decoding %s: %w", msg.Key, err)
		}
		items = append(items, engine.Item{Feed: feed.Version, Payload: rec})
	}
	return &sliceIterator{items: items}, nil
}

// PubSubSource pulls up to MaxMessages pending recipe-change events
// off a Google Pub/Sub subscription, acking each as it is decoded.
// Grounded on the teacher's subscriptions/pubsub Subscription.
type PubSubSource struct {
	Subscription *ps.Subscription
	MaxMessages  int
	Cost_        int
}

func (s *PubSubSource) Name() string        { return "pubsub-stream" }
func (s *PubSubSource) FeedType() feed.Type { return feed.Version }
func (s *PubSubSource) Scope() feed.Scope   { return feed.VersionScope }
func (s *PubSubSource) Cost() int           { return s.Cost_ }

func (s *PubSubSource) Produce() (engine.Iterator, error) {
	max := s.MaxMessages
	if max <= 0 {
		max = 100
	}

	ctx, cancel := context.WithTimeout(context.Background(), readPollTimeout)
	defer cancel()

	var items []engine.Item
	var decodeErr error
	err := s.Subscription.Receive(ctx, func(ctx context.Context, m *ps.Message) {
		if len(items) >= max {
			m.Nack()
			return
		}
		rec, err := decodeRecipe(m.Data)
		if err != nil {
			decodeErr = err
			m.Nack()
			return
		}
		items = append(items, engine.Item{Feed: feed.Version, Payload: rec})
		m.Ack()
	})
	if decodeErr != nil {
		return nil, fmt.Errorf("pubsub-stream: decoding message: %w", decodeErr)
	}
	if err != nil && err != context.DeadlineExceeded {
		return nil, err
	}
	return &sliceIterator{items: items}, nil
}

// SQSSource reads one batch (up to 10, AWS's per-call ceiling) of
// pending recipe-change events off an SQS queue. Grounded on the
// teacher's subscriptions/sqs Subscription and its ReadConfig shape.
type SQSSource struct {
	QueueURL string
	Region   string
	Cost_    int

	svc *sqssvc.SQS
}

func NewSQSSource(region, queueURL string, cost int) *SQSSource {
	sess := session.Must(session.NewSession())
	return &SQSSource{
		QueueURL: queueURL,
		Region:   region,
		Cost_:    cost,
		svc:      sqssvc.New(sess, aws.NewConfig().WithRegion(region)),
	}
}

func (s *SQSSource) Name() string        { return "sqs-stream" }
func (s *SQSSource) FeedType() feed.Type { return feed.Version }
func (s *SQSSource) Scope() feed.Scope   { return feed.VersionScope }
func (s *SQSSource) Cost() int           { return s.Cost_ }

func (s *SQSSource) Produce() (engine.Iterator, error) {
	id := uuid.New().String()
	max := int64(10)
	wait := int64(1)

	out, err := s.svc.ReceiveMessage(&sqssvc.ReceiveMessageInput{
		MaxNumberOfMessages:     &max,
		QueueUrl:                &s.QueueURL,
		WaitTimeSeconds:         &wait,
		ReceiveRequestAttemptId: &id,
	})
	if err != nil {
		return nil, fmt.Errorf("sqs-stream: receiving messages: %w", err)
	}

	var items []engine.Item
	for _, m := range out.Messages {
		rec, err := decodeRecipe([]byte(*m.Body))
		if err != nil {
			return nil, fmt.Errorf("sqs-stream: decoding message: %w", err)
		}
		items = append(items, engine.Item{Feed: feed.Version, Payload: rec})
	}
	return &sliceIterator{items: items}, nil
}
