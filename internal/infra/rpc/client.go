package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"botfleet/internal/domain/rpc"
	"botfleet/pkg/logger"
)

// Client dispatches signed cross-tenancy RPC requests to another tenancy's
// base URL, using its shared secret to sign the envelope.
type Client struct {
	httpClient *http.Client
	signer     *Signer
	issuer     string
	logger     logger.Logger
}

func NewClient(issuer string, requestTimeout, clockSkewTolerance time.Duration, log logger.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		signer:     NewSigner(clockSkewTolerance),
		issuer:     issuer,
		logger:     log,
	}
}

// Dispatch signs payload as op's data claim, POSTs it to targetBaseURL, and
// decodes the response envelope.
func (c *Client) Dispatch(ctx context.Context, targetTenancy, targetBaseURL, sharedSecret string, op rpc.Operation, payload interface{}) (*rpc.Envelope, error) {
	token, err := c.signer.Sign(sharedSecret, c.issuer, targetTenancy, payload, 2*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("failed to sign RPC request: %w", err)
	}

	body, err := json.Marshal(map[string]interface{}{"operation": string(op), "token": token})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal RPC body: %w", err)
	}

	url := fmt.Sprintf("%s/rpc", targetBaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build RPC request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Source-Server", c.issuer)
	req.Header.Set("X-Target-Server", targetTenancy)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorWithError("RPC dispatch failed", err, logger.Fields{"target": targetTenancy, "op": string(op)})
		return nil, fmt.Errorf("RPC dispatch failed: %w", err)
	}
	defer resp.Body.Close()

	var envelope rpc.Envelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode RPC response: %w", err)
	}

	if !envelope.Success {
		return &envelope, fmt.Errorf("RPC call to %s failed: %s", targetTenancy, envelope.Error)
	}

	return &envelope, nil
}
