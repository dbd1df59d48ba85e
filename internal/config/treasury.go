package config

import (
	"fmt"
	"strings"
	"time"
)

// TreasuryConfig holds connection settings for the treasury execution
// gateway. Missing credentials are a configuration error: the engine must
// refuse to start rather than run with silently defaulted values.
type TreasuryConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	SessionTTL     time.Duration

	// StripeKey enables the fiat payout rail. Required only when
	// TREASURY_FIAT_ENABLED is set.
	FiatEnabled bool
	StripeKey   string
}

// DecisionConfig holds the automation thresholds consumed as configuration
// (policies are authored elsewhere).
type DecisionConfig struct {
	FullThreshold          int
	PartialThreshold       int
	PartialApproveFraction float64
	DenylistedWallets      []string
}

// LoadTreasury reads and validates treasury settings from the environment.
func LoadTreasury() (TreasuryConfig, error) {
	cfg := TreasuryConfig{
		BaseURL:        GetEnv("TREASURY_BASE_URL", ""),
		APIKey:         GetEnv("TREASURY_API_KEY", ""),
		RequestTimeout: GetDurationEnv("TREASURY_TIMEOUT", 30*time.Second),
		SessionTTL:     GetDurationEnv("TREASURY_SESSION_TTL", 10*time.Minute),
		FiatEnabled:    GetEnv("TREASURY_FIAT_ENABLED", "") == "true",
		StripeKey:      GetEnv("STRIPE_SECRET_KEY", ""),
	}

	if cfg.BaseURL == "" {
		return cfg, fmt.Errorf("configuration error: TREASURY_BASE_URL is required")
	}
	if cfg.APIKey == "" {
		return cfg, fmt.Errorf("configuration error: TREASURY_API_KEY is required")
	}
	if cfg.FiatEnabled && cfg.StripeKey == "" {
		return cfg, fmt.Errorf("configuration error: STRIPE_SECRET_KEY is required when the fiat rail is enabled")
	}
	return cfg, nil
}

// LoadDecision reads and validates decision thresholds from the environment.
func LoadDecision() (DecisionConfig, error) {
	cfg := DecisionConfig{
		FullThreshold:          GetIntEnv("RISK_FULL_THRESHOLD", 75),
		PartialThreshold:       GetIntEnv("RISK_PARTIAL_THRESHOLD", 50),
		PartialApproveFraction: GetFloatEnv("PARTIAL_APPROVE_FRACTION", 0.5),
	}

	if raw := GetEnv("PAYOUT_DENYLIST", ""); raw != "" {
		for _, wallet := range strings.Split(raw, ",") {
			if wallet = strings.TrimSpace(wallet); wallet != "" {
				cfg.DenylistedWallets = append(cfg.DenylistedWallets, wallet)
			}
		}
	}

	if cfg.FullThreshold <= cfg.PartialThreshold {
		return cfg, fmt.Errorf("configuration error: RISK_FULL_THRESHOLD must exceed RISK_PARTIAL_THRESHOLD")
	}
	if cfg.PartialApproveFraction <= 0 || cfg.PartialApproveFraction > 1 {
		return cfg, fmt.Errorf("configuration error: PARTIAL_APPROVE_FRACTION must be in (0,1]")
	}
	return cfg, nil
}
