// Package auth verifies socket handshake credentials.
package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/talhadevelopes/a11yguard-sub001/internal/domain"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/jwt"
	"github.com/talhadevelopes/a11yguard-sub001/pkg/middleware"
)

var ErrUnauthorized = errors.New("unauthorized")

// BearerSubprotocol is the websocket subprotocol that carries a token as
// the protocol entry following it.
const BearerSubprotocol = "bearer"

type Authenticator struct {
	tokens *jwt.Manager
}

func NewAuthenticator(tokens *jwt.Manager) *Authenticator {
	return &Authenticator{tokens: tokens}
}

// Authenticate verifies the handshake credential and returns the connection
// identity with a fresh connection id. The identity may be incomplete; the
// caller decides how to treat a token lacking either id.
func (a *Authenticator) Authenticate(r *http.Request) (domain.Identity, error) {
	token, ok := TokenFromRequest(r)
	if !ok {
		return domain.Identity{}, ErrUnauthorized
	}

	claims, err := a.tokens.ValidateToken(token)
	if err != nil {
		return domain.Identity{}, errors.Join(ErrUnauthorized, err)
	}

	return domain.Identity{
		OrganizationID: strings.TrimSpace(claims.OrganizationID),
		MemberID:       strings.TrimSpace(claims.MemberID),
		MemberRole:     claims.MemberRole,
		ConnID:         uuid.New().String(),
	}, nil
}

// TokenFromRequest extracts a token from the "token" query parameter, the
// "bearer, <token>" websocket subprotocol pair or the Authorization header,
// in that order.
func TokenFromRequest(r *http.Request) (string, bool) {
	if token := strings.TrimSpace(r.URL.Query().Get("token")); token != "" {
		return token, true
	}

	protocols := websocketProtocols(r)
	for i := 0; i+1 < len(protocols); i++ {
		if strings.EqualFold(protocols[i], BearerSubprotocol) && protocols[i+1] != "" {
			return protocols[i+1], true
		}
	}

	return middleware.BearerToken(r.Header.Get("Authorization"))
}

func websocketProtocols(r *http.Request) []string {
	var protocols []string
	for _, header := range r.Header.Values("Sec-WebSocket-Protocol") {
		for _, p := range strings.Split(header, ",") {
			protocols = append(protocols, strings.TrimSpace(p))
		}
	}
	return protocols
}
