package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/aldenvr/stagepass/internal/models"
)

const checkoutPath = "/checkout/v1/payment"

// CheckoutSession is the provider-hosted payment page created for an order.
type CheckoutSession struct {
	RedirectURL string
	ProviderRef string
}

// CheckoutProvider creates hosted payment sessions for pending orders.
type CheckoutProvider interface {
	Name() string
	CreateCheckoutSession(ctx context.Context, order *models.Order) (*CheckoutSession, error)
}

type Client struct {
	name      string
	baseURL   string
	clientID  string
	secretKey string
	http      *http.Client
}

func NewClient(name, baseURL, clientID, secretKey string) *Client {
	return &Client{
		name:      name,
		baseURL:   baseURL,
		clientID:  clientID,
		secretKey: secretKey,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

func (c *Client) Name() string {
	return c.name
}

// CreateCheckoutSession registers the order with the provider and returns
// the hosted payment page the buyer is redirected to.
func (c *Client) CreateCheckoutSession(ctx context.Context, order *models.Order) (*CheckoutSession, error) {
	lineItems := make([]map[string]interface{}, 0, len(order.Lines))
	for i, line := range order.Lines {
		lineItems = append(lineItems, map[string]interface{}{
			"id":       fmt.Sprintf("%03d", i+1),
			"name":     line.ID.String(),
			"quantity": line.Quantity,
			"price":    line.UnitPrice.IntPart(),
		})
	}

	invoiceNumber := fmt.Sprintf("ORD-%s", order.ID.String())
	paymentBody := map[string]interface{}{
		"order": map[string]interface{}{
			"amount":                order.Total.IntPart(),
			"invoice_number":        invoiceNumber,
			"currency":              order.Currency,
			"language":              "EN",
			"auto_redirect":         false,
			"disable_retry_payment": true,
			"line_items":            lineItems,
		},
		"payment": map[string]interface{}{
			"payment_due_date": 10,
		},
		"customer": map[string]interface{}{
			"id":    order.ID.String(),
			"email": order.Email,
		},
	}

	jsonBody, err := json.Marshal(paymentBody)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare payment request: %w", err)
	}

	headers := NewHeaderGenerator(c.clientID, c.secretKey, checkoutPath).GetHeaders(string(jsonBody))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+checkoutPath, bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create payment request: %w", err)
	}
	for key, value := range headers {
		httpReq.Header.Set(key, value)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send payment request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read payment response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("payment session creation failed with status %d", resp.StatusCode)
	}

	var responseBody struct {
		Response struct {
			Payment struct {
				URL string `json:"url"`
			} `json:"payment"`
		} `json:"response"`
	}
	if err := json.Unmarshal(body, &responseBody); err != nil {
		return nil, fmt.Errorf("failed to parse payment response: %w", err)
	}
	if responseBody.Response.Payment.URL == "" {
		return nil, fmt.Errorf("payment response missing redirect url")
	}

	return &CheckoutSession{
		RedirectURL: responseBody.Response.Payment.URL,
		ProviderRef: invoiceNumber,
	}, nil
}
