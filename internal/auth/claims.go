package auth

import "github.com/golang-jwt/jwt/v5"

type TokenType string

const TokenTypeAccess TokenType = "access"

// RoleOperator is the only role this service issues. The management API is
// single-tenant: one operator account triggers campaigns and pulls reports.
const RoleOperator = "operator"

// Claims are the only supported JWT claims shape for this service.
type Claims struct {
	jwt.RegisteredClaims

	User      string    `json:"user"`
	Role      string    `json:"role"`
	TokenType TokenType `json:"token_type"`
}
