// README: Razorpay REST client implementing the payment gateway boundary.
// Amounts cross the wire in paise; the engine works in whole rupees.
package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"vahan/internal/modules/payment"
)

const defaultBaseURL = "https://api.razorpay.com/v1"

type Client struct {
	keyID     string
	keySecret string
	baseURL   string
	http      *http.Client
}

func NewClient(keyID, keySecret, baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		keyID:     keyID,
		keySecret: keySecret,
		baseURL:   baseURL,
		http:      &http.Client{Timeout: 10 * time.Second},
	}
}

type orderResponse struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

func (c *Client) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (payment.GatewayOrder, error) {
	if receipt == "" {
		receipt = "rcpt_" + uuid.NewString()
	}
	body := map[string]any{
		"amount":   amount * 100, // rupees to paise
		"currency": currency,
		"receipt":  receipt,
	}
	var resp orderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", body, &resp); err != nil {
		return payment.GatewayOrder{}, err
	}
	return payment.GatewayOrder{
		ID:       resp.ID,
		Amount:   resp.Amount / 100,
		Currency: resp.Currency,
		Receipt:  resp.Receipt,
	}, nil
}

// VerifySignature checks the checkout callback HMAC: SHA256 over
// "<order_id>|<payment_id>" keyed with the API secret.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

type paymentResponse struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Amount  int64  `json:"amount"`
	Status  string `json:"status"`
	Method  string `json:"method"`
}

func (c *Client) GetPaymentDetails(ctx context.Context, paymentID string) (payment.PaymentDetails, error) {
	var resp paymentResponse
	if err := c.do(ctx, http.MethodGet, "/payments/"+paymentID, nil, &resp); err != nil {
		return payment.PaymentDetails{}, err
	}
	return payment.PaymentDetails{
		ID:      resp.ID,
		OrderID: resp.OrderID,
		Amount:  resp.Amount / 100,
		Status:  resp.Status,
		Method:  resp.Method,
	}, nil
}

type refundResponse struct {
	ID        string `json:"id"`
	PaymentID string `json:"payment_id"`
	Amount    int64  `json:"amount"`
	Status    string `json:"status"`
}

func (c *Client) Refund(ctx context.Context, paymentID string, amount int64, reason string) (payment.RefundResult, error) {
	body := map[string]any{
		"amount": amount * 100,
		"notes":  map[string]string{"reason": reason},
	}
	var resp refundResponse
	if err := c.do(ctx, http.MethodPost, "/payments/"+paymentID+"/refund", body, &resp); err != nil {
		return payment.RefundResult{}, err
	}
	return payment.RefundResult{
		ID:        resp.ID,
		PaymentID: resp.PaymentID,
		Amount:    resp.Amount / 100,
		Status:    resp.Status,
	}, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", payment.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		return fmt.Errorf("%w: gateway returned %d", payment.ErrGatewayUnavailable, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("gateway rejected request (%d): %s", resp.StatusCode, data)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
