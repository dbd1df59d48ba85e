package models

import "github.com/golang-jwt/jwt/v5"

// Application permissions
const (
	// Risk score permissions
	PermissionRiskRead  = "risk:read"
	PermissionRiskWrite = "risk:write"

	// Payout permissions
	PermissionPayoutRead     = "payout:read"
	PermissionPayoutWrite    = "payout:write"
	PermissionPayoutOverride = "payout:override"

	// Audit permissions
	PermissionAuditRead   = "audit:read"
	PermissionAuditExport = "audit:export"

	// Platform controls
	PermissionHaltWrite = "halt:write"
)

type OperatorClaims struct {
	jwt.RegisteredClaims
	OperatorID   uint     `json:"operator_id"`
	Email        string   `json:"email"`
	Role         string   `json:"role"`
	Permissions  []string `json:"permissions"`
	TokenVersion int      `json:"token_version"`
}

// HasPermission checks if the claims include a specific permission
func (c *OperatorClaims) HasPermission(permission string) bool {
	for _, p := range c.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// GetDefaultPermissions returns default permissions based on role
func GetDefaultPermissions(role string) []string {
	switch role {
	case "admin":
		return []string{
			PermissionRiskRead,
			PermissionRiskWrite,
			PermissionPayoutRead,
			PermissionPayoutWrite,
			PermissionPayoutOverride,
			PermissionAuditRead,
			PermissionAuditExport,
			PermissionHaltWrite,
		}
	case "reviewer":
		return []string{
			PermissionRiskRead,
			PermissionPayoutRead,
			PermissionPayoutOverride,
			PermissionAuditRead,
		}
	case "operator":
		return []string{
			PermissionRiskRead,
			PermissionPayoutRead,
			PermissionPayoutWrite,
		}
	default:
		return []string{PermissionPayoutRead}
	}
}
