package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"payflow/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// WalletClient calls the downstream balance-mutation endpoint. Response
// classes map onto the error taxonomy:
//
//	200          success
//	404          account not found (permanent)
//	400          business rejection, e.g. insufficient funds (permanent)
//	429/5xx      transient
//	net failure  transient
//
// Callers wrap Transfer with the circuit breaker and retry policy; the
// client itself makes exactly one attempt.
type WalletClient struct {
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// transferRequest is the wire body for the downstream transfer call.
type transferRequest struct {
	SourceID      string          `json:"source_id"`
	DestinationID string          `json:"destination_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// transferErrorResponse is the downstream error envelope.
type transferErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func NewWalletClient(baseURL string, timeout time.Duration, log zerolog.Logger) *WalletClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &WalletClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log,
	}
}

// Transfer executes one remote debit+credit attempt.
func (c *WalletClient) Transfer(ctx context.Context, sourceID, destID string, amount decimal.Decimal) error {
	body, err := json.Marshal(transferRequest{
		SourceID:      sourceID,
		DestinationID: destID,
		Amount:        amount,
	})
	if err != nil {
		return apperror.InternalError(fmt.Errorf("failed to marshal transfer request: %w", err))
	}

	url := c.baseURL + "/internal/wallets/transfer"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return apperror.InternalError(fmt.Errorf("failed to build transfer request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Connection refused, reset, or timeout. All are worth retrying.
		return apperror.ErrTransient(fmt.Errorf("wallet transfer request failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	var envelope transferErrorResponse
	_ = json.Unmarshal(raw, &envelope)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		if envelope.Error.Message != "" {
			return apperror.New("TRF_002", envelope.Error.Message, http.StatusNotFound)
		}
		return apperror.ErrAccountNotFound("unknown")

	case resp.StatusCode == http.StatusBadRequest:
		if envelope.Error.Code == "TRF_001" {
			return apperror.ErrInsufficientFunds()
		}
		if envelope.Error.Message != "" {
			return apperror.Validation(envelope.Error.Message)
		}
		return apperror.Validation("transfer rejected by wallet service")

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return apperror.ErrTransient(fmt.Errorf("wallet service returned %d", resp.StatusCode))

	default:
		c.log.Warn().Int("status", resp.StatusCode).Msg("unexpected wallet response")
		return apperror.InternalError(fmt.Errorf("unexpected wallet response %d", resp.StatusCode))
	}
}
