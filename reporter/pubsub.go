package reporter

import (
	"context"
	"encoding/json"

	"cloud.google.com/go/pubsub"

	"github.com/pkgqa/pkgqa/result"
)

// PubSubSink publishes each Result as a JSON message to a Cloud
// Pub/Sub topic, grounded on the teacher's components/pubsub Terminus.
type PubSubSink struct {
	client *pubsub.Client
	topic  *pubsub.Topic
}

// NewPubSubSink connects to projectID and returns a sink publishing to
// topicName.
func NewPubSubSink(ctx context.Context, projectID, topicName string) (*PubSubSink, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return &PubSubSink{client: client, topic: client.Topic(topicName)}, nil
}

func (s *PubSubSink) Write(r *result.Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	res := s.topic.Publish(context.Background(), &pubsub.Message{Data: payload})
	_, err = res.Get(context.Background())
	return err
}

func (s *PubSubSink) Close() error {
	s.topic.Stop()
	return s.client.Close()
}
