package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/pkg/errors"

	Logger "github.com/curately/goodreads/utils/log"
)

// Deliverer posts digest cards to a team's messaging endpoint, retrying
// transient failures with decorrelated jitter backoff.
type Deliverer struct {
	client *http.Client

	attempts  int
	baseDelay time.Duration
	maxDelay  time.Duration

	rand  *rand.Rand
	sleep func(time.Duration)
}

// NewDeliverer builds a Deliverer. attempts is the total number of send
// attempts; baseDelay/maxDelay bound the jittered backoff between them.
func NewDeliverer(attempts int, baseDelay, maxDelay time.Duration) *Deliverer {
	return &Deliverer{
		client:    &http.Client{Timeout: 15 * time.Second},
		attempts:  attempts,
		baseDelay: baseDelay,
		maxDelay:  maxDelay,
		rand:      rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:     time.Sleep,
	}
}

// Send posts the card to serviceUrl. A non-2xx response or transport
// error is retried until the attempt budget runs out.
func (d *Deliverer) Send(ctx context.Context, serviceUrl string, card ListCard) error {
	body, err := json.Marshal(card)
	if err != nil {
		return errors.Wrap(err, "fail to encode digest card")
	}

	var lastErr error
	delay := d.baseDelay
	for attempt := 0; attempt < d.attempts; attempt++ {
		if attempt > 0 {
			delay = d.nextDelay(delay)
			d.sleep(delay)
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = d.post(ctx, serviceUrl, body)
		if lastErr == nil {
			return nil
		}
		Logger.Log.Infof("digest delivery attempt %d failed: %v", attempt+1, lastErr)
	}
	return errors.Wrapf(lastErr, "fail to deliver digest after %d attempts", d.attempts)
}

func (d *Deliverer) post(ctx context.Context, serviceUrl string, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, serviceUrl, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "fail to build delivery request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "delivery request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.Errorf("delivery endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// nextDelay computes a decorrelated jitter delay: uniform in
// [baseDelay, prev*3], capped at maxDelay.
func (d *Deliverer) nextDelay(prev time.Duration) time.Duration {
	upper := prev * 3
	if upper <= d.baseDelay {
		upper = d.baseDelay + 1
	}
	delay := d.baseDelay + time.Duration(d.rand.Int63n(int64(upper-d.baseDelay)))
	if delay > d.maxDelay {
		delay = d.maxDelay
	}
	return delay
}
