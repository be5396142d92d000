// Package captcha consumes the sliding-puzzle offset estimator. The
// model itself is a black box running out-of-process; this package only
// knows how to hand it a challenge image and read a pixel distance back.
package captcha

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"gridwatch-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

// Estimator infers how far the puzzle piece must slide to fit its
// notch, from the rendered challenge image.
type Estimator interface {
	EstimateOffset(ctx context.Context, image []byte) (float64, error)
}

// Compensation corrects the estimator's systematic underestimation of
// the slide distance. Empirical; re-measure if the model is retrained.
const Compensation = 1.06

// Compensate applies Compensation and rounds to whole pixels, which is
// what the drag gesture ultimately consumes.
func Compensate(distance float64) float64 {
	return float64(int(distance*Compensation + 0.5))
}

type Client struct {
	http *resty.Client
}

type Options struct {
	// Endpoint of the inference service, e.g. http://127.0.0.1:9898/solve
	Endpoint string
	Timeout  time.Duration
}

func NewClient(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(opts.Endpoint)
	client.SetTimeout(timeout)
	telemetry.InstrumentResty(client, "captcha/client")

	return &Client{http: client}
}

func (c *Client) EstimateOffset(ctx context.Context, image []byte) (float64, error) {
	var result struct {
		Distance float64 `json:"distance"`
		Error    string  `json:"error"`
	}
	res, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"image": base64.StdEncoding.EncodeToString(image),
		}).
		SetResult(&result).
		Post("")
	if err != nil {
		return 0, err
	}
	if res.IsError() {
		return 0, fmt.Errorf("estimator returned %s", res.Status())
	}
	if result.Error != "" {
		return 0, fmt.Errorf("estimator: %s", result.Error)
	}
	return result.Distance, nil
}
