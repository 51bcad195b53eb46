package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"lookup-values/internal/domain"
	"lookup-values/internal/repository"

	"github.com/go-resty/resty/v2"
	"github.com/juju/errors"
	"go.uber.org/zap"
)

// lookupResponse is the Result envelope returned by the lookup service.
type lookupResponse struct {
	Code    int             `json:"code"`
	Type    string          `json:"type"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}

// LookupClient resolves lookups from a remote lookup service. It does not
// take part in the caller's transaction.
type LookupClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewLookupClient creates a client for baseURL.
func NewLookupClient(baseURL string, timeout time.Duration, logger *zap.Logger) *LookupClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Accept", "application/json")

	return &LookupClient{
		httpClient: client,
		logger:     logger,
	}
}

var _ LookupFinder = (*LookupClient)(nil)

// FindOne calls GET /api/v1/lookups/{uuid}. q is ignored.
func (c *LookupClient) FindOne(ctx context.Context, _ repository.Querier, id string) (*domain.Lookup, error) {
	id, err := canonicalID(id)
	if err != nil {
		return nil, err
	}

	var response lookupResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetPathParam("uuid", id).
		SetResult(&response).
		SetError(&response).
		Get("/api/v1/lookups/{uuid}")
	if err != nil {
		c.logger.Error("lookup service call failed", zap.String("uuid", id), zap.Error(err))
		return nil, fmt.Errorf("failed to call lookup service: %w", err)
	}

	if resp.StatusCode() == http.StatusNotFound {
		return nil, errors.NotFoundf("lookup with uuid=%s", id)
	}
	if resp.IsError() || response.Type != "success" {
		c.logger.Error("lookup service returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("msg", response.Message),
		)
		return nil, fmt.Errorf("lookup service error: %s (status: %d)", response.Message, resp.StatusCode())
	}

	var lookup domain.Lookup
	if err := json.Unmarshal(response.Result, &lookup); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lookup: %w", err)
	}
	return &lookup, nil
}
