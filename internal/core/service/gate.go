package service

import (
	"fmt"

	"github.com/dtc-ibs/borrowing-api/internal/core/domain"
)

// Gate authorises callers of privileged operations from their session token.
type Gate struct {
	tokens *TokenManager
}

func NewGate(tokens *TokenManager) *Gate {
	return &Gate{tokens: tokens}
}

// Authorize returns the caller's session if the token is valid and carries
// the required role. An empty required role admits any authenticated caller.
func (g *Gate) Authorize(token string, required domain.Role) (*domain.Session, error) {
	session, err := g.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	if required != "" && session.Role != required {
		return nil, fmt.Errorf("%w: %s role required", domain.ErrForbidden, required)
	}
	return session, nil
}
