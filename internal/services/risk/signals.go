package risk

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPSignalProvider pulls scoring signals from the merchant/order history
// collaborator. Any transport or decoding failure is returned to the
// caller, which fails closed.
type HTTPSignalProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPSignalProvider(baseURL, apiKey string, timeout time.Duration) *HTTPSignalProvider {
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &HTTPSignalProvider{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (p *HTTPSignalProvider) Signals(ctx context.Context, merchantID uint) (*MerchantSignals, error) {
	url := fmt.Sprintf("%s/merchants/%d/signals", p.baseURL, merchantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("signal source unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("signal source returned status %d", resp.StatusCode)
	}

	var payload struct {
		OrderCount        int     `json:"order_count"`
		OrderVolume       float64 `json:"order_volume"`
		DisputeRate       float64 `json:"dispute_rate"`
		AccountAgeDays    int     `json:"account_age_days"`
		VerificationTier  int     `json:"verification_tier"`
		RecentOrderCount  int     `json:"recent_order_count"`
		RecentOrderVolume float64 `json:"recent_order_volume"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("failed to decode signals: %w", err)
	}

	return &MerchantSignals{
		OrderCount:        payload.OrderCount,
		OrderVolume:       payload.OrderVolume,
		DisputeRate:       payload.DisputeRate,
		AccountAgeDays:    payload.AccountAgeDays,
		VerificationTier:  payload.VerificationTier,
		RecentOrderCount:  payload.RecentOrderCount,
		RecentOrderVolume: payload.RecentOrderVolume,
	}, nil
}
