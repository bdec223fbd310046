package reporter

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/pkgqa/pkgqa/result"
)

// HTTPSink POSTs each Result as a JSON body to host, the Go analogue
// of the teacher's http.Terminus: batch-oriented there, single-result
// here since pkgqa streams one Result at a time rather than machine's
// windowed packets.
type HTTPSink struct {
	host   string
	client *http.Client
}

// NewHTTPSink builds an HTTPSink posting to host with the given
// per-request timeout.
func NewHTTPSink(host string, timeout time.Duration) *HTTPSink {
	return &HTTPSink{host: host, client: &http.Client{Timeout: timeout}}
}

func (s *HTTPSink) Write(r *result.Result) error {
	body, err := json.Marshal(r)
	if err != nil {
		return err
	}

	resp, err := s.client.Post(s.host, "application/json", bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode > 299 {
		return fmt.Errorf("reporter: posting result to %s: response code %d", s.host, resp.StatusCode)
	}
	return nil
}

func (s *HTTPSink) Close() error { return nil }
