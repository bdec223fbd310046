package reporter

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/google/uuid"

	"github.com/pkgqa/pkgqa/result"
)

// SQSSink batches Results into SQS SendMessageBatch calls, grounded on
// the teacher's components/sqs Terminus.
type SQSSink struct {
	svc      *sqs.SQS
	queueURL string
	buf      []*sqs.SendMessageBatchRequestEntry
}

// NewSQSSink builds a sink against a queue in region.
func NewSQSSink(region, queueURL string) (*SQSSink, error) {
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	return &SQSSink{
		svc:      sqs.New(sess, aws.NewConfig().WithRegion(region)),
		queueURL: queueURL,
	}, nil
}

const sqsBatchSize = 10

func (s *SQSSink) Write(r *result.Result) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	id := uuid.New().String()
	body := string(payload)
	s.buf = append(s.buf, &sqs.SendMessageBatchRequestEntry{
		Id:          &id,
		MessageBody: &body,
	})
	if len(s.buf) >= sqsBatchSize {
		return s.flush()
	}
	return nil
}

func (s *SQSSink) flush() error {
	if len(s.buf) == 0 {
		return nil
	}
	_, err := s.svc.SendMessageBatch(&sqs.SendMessageBatchInput{
		QueueUrl: &s.queueURL,
		Entries:  s.buf,
	})
	s.buf = s.buf[:0]
	if err != nil {
		return fmt.Errorf("sqs: %w", err)
	}
	return nil
}

func (s *SQSSink) Close() error { return s.flush() }
