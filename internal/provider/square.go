package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client is the HTTP implementation of OrdersAPI against the provider's
// orders endpoint.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

func NewClient(baseURL, accessToken string, timeout time.Duration) *Client {
	return &Client{
		baseURL:     baseURL,
		accessToken: accessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type retrieveOrderResponse struct {
	Order struct {
		ID       string            `json:"id"`
		Metadata map[string]string `json:"metadata"`
	} `json:"order"`
}

// RetrieveOrderMetadata fetches the provider order and extracts the orderId
// and userId metadata keys written at checkout. Missing keys are returned as
// empty strings; the caller decides whether to fall back.
func (c *Client) RetrieveOrderMetadata(ctx context.Context, providerOrderID string) (*OrderMetadata, error) {
	url := fmt.Sprintf("%s/v2/orders/%s", c.baseURL, providerOrderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrOrderLookup, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderLookup, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: order %s: status %d", ErrOrderLookup, providerOrderID, resp.StatusCode)
	}

	var body retrieveOrderResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrOrderLookup, err)
	}

	return &OrderMetadata{
		OrderID: body.Order.Metadata["orderId"],
		UserID:  body.Order.Metadata["userId"],
	}, nil
}
