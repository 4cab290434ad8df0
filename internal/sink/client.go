package sink

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/actionsum/focuswatch/internal/config"
	"github.com/actionsum/focuswatch/internal/logging"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const (
	bucketPath    = "/api/0/buckets/{bucket}"
	heartbeatPath = "/api/0/buckets/{bucket}/heartbeat"
)

// Client talks to the ActivityWatch REST API
type Client struct {
	resty      *resty.Client
	clientName string
	hostname   string
	logger     *zap.Logger
}

type bucketRequest struct {
	Client   string `json:"client"`
	Type     string `json:"type"`
	Hostname string `json:"hostname"`
}

type heartbeatRequest struct {
	Timestamp string            `json:"timestamp"`
	Duration  float64           `json:"duration"`
	Data      map[string]string `json:"data"`
}

// NewClient creates an ActivityWatch client. Transport errors and 5xx
// responses are retried by retryablehttp up to cfg.Sink.RetryMax times.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.Sink.RetryMax
	retryClient.RetryWaitMin = 250 * time.Millisecond
	retryClient.RetryWaitMax = 2 * time.Second
	retryClient.Logger = logging.NewLeveled(logger.Named("http"))

	restyClient := resty.NewWithClient(retryClient.StandardClient())
	restyClient.
		SetBaseURL(cfg.BaseURL()).
		SetTimeout(cfg.Sink.Timeout).
		SetHeader("User-Agent", cfg.Sink.ClientName).
		SetHeader("Content-Type", "application/json").
		// std config replaces invalid UTF-8 in window titles with U+FFFD
		SetJSONMarshaler(sonic.ConfigStd.Marshal).
		SetJSONUnmarshaler(sonic.ConfigStd.Unmarshal)

	return &Client{
		resty:      restyClient,
		clientName: cfg.Sink.ClientName,
		hostname:   cfg.Sink.Hostname,
		logger:     logger,
	}
}

// EnsureBucket creates bucketID. An existing bucket (304) is not an error.
func (c *Client) EnsureBucket(ctx context.Context, bucketID, typeTag string) error {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetPathParam("bucket", bucketID).
		SetBody(bucketRequest{
			Client:   c.clientName,
			Type:     typeTag,
			Hostname: c.hostname,
		}).
		Post(bucketPath)
	if err != nil {
		return errors.Wrapf(err, "failed to create bucket %s", bucketID)
	}

	switch resp.StatusCode() {
	case http.StatusOK, http.StatusCreated:
		c.logger.Debug("bucket created", zap.String("bucket", bucketID))
		return nil
	case http.StatusNotModified:
		c.logger.Debug("bucket already exists", zap.String("bucket", bucketID))
		return nil
	}

	return errors.Errorf("failed to create bucket %s: %s", bucketID, resp.Status())
}

// Heartbeat submits event to bucketID with the given merge window in seconds.
func (c *Client) Heartbeat(ctx context.Context, bucketID string, event Event, pulsetime float64) error {
	resp, err := c.resty.R().
		SetContext(ctx).
		SetPathParam("bucket", bucketID).
		SetQueryParam("pulsetime", strconv.FormatFloat(pulsetime, 'f', -1, 64)).
		SetBody(heartbeatRequest{
			Timestamp: event.Timestamp.Format(TimestampLayout),
			Duration:  event.Duration,
			Data:      event.Data,
		}).
		Post(heartbeatPath)
	if err != nil {
		return errors.Wrapf(err, "failed to send heartbeat to %s", bucketID)
	}

	if resp.IsError() {
		return errors.Errorf("failed to send heartbeat to %s: %s", bucketID, resp.Status())
	}

	return nil
}
