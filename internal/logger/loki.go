package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ghprime/jwt-pizza-service/internal/metrics"
)

var passwordPattern = regexp.MustCompile(`"password":"[^"]*"`)

// LokiSink buffers log lines per level and periodically pushes them to a
// Loki endpoint. Password values are masked before a line is buffered, and
// every push outcome is counted in the service metrics. Push failures drop
// the batch rather than blocking the request path.
type LokiSink struct {
	url     string
	auth    string
	source  string
	client  *http.Client
	metrics *metrics.Metrics

	mu      sync.Mutex
	batches map[string][][2]string
}

// NewLokiSink builds a sink for the given push endpoint. m may be nil.
func NewLokiSink(url, userID, apiKey, source string, m *metrics.Metrics) *LokiSink {
	return &LokiSink{
		url:     url,
		auth:    "Bearer " + userID + ":" + apiKey,
		source:  source,
		client:  &http.Client{Timeout: 10 * time.Second},
		metrics: m,
		batches: map[string][][2]string{},
	}
}

func (s *LokiSink) Write(p []byte) (int, error) {
	return s.WriteLevel(zerolog.InfoLevel, p)
}

// WriteLevel buffers one log line under its level. zerolog calls this for
// every event routed through the multi writer.
func (s *LokiSink) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	line := passwordPattern.ReplaceAll(p, []byte(`"password":"*****"`))
	ts := strconv.FormatInt(time.Now().UnixNano(), 10)

	s.mu.Lock()
	s.batches[level.String()] = append(s.batches[level.String()], [2]string{ts, string(bytes.TrimSpace(line))})
	s.mu.Unlock()
	return len(p), nil
}

// Start flushes the buffered batches every interval until ctx is cancelled,
// with one final flush on the way out.
func (s *LokiSink) Start(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				_ = s.Flush(context.Background())
				return
			case <-ticker.C:
				_ = s.Flush(ctx)
			}
		}
	}()
}

type lokiStream struct {
	Stream map[string]string `json:"stream"`
	Values [][2]string       `json:"values"`
}

// Flush pushes everything buffered so far. Empty buffers are a no-op.
func (s *LokiSink) Flush(ctx context.Context) error {
	s.mu.Lock()
	pending := s.batches
	s.batches = map[string][][2]string{}
	s.mu.Unlock()

	streams := []lokiStream{}
	for level, values := range pending {
		if len(values) == 0 {
			continue
		}
		streams = append(streams, lokiStream{
			Stream: map[string]string{"level": level, "source": s.source},
			Values: values,
		})
	}
	if len(streams) == 0 {
		return nil
	}

	body, err := json.Marshal(map[string]any{"streams": streams})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", s.auth)

	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.LogShipped(false)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.metrics.LogShipped(false)
		return fmt.Errorf("loki push failed: %s", resp.Status)
	}
	s.metrics.LogShipped(true)
	return nil
}
