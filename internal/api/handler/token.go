package handler

import (
	"net/http"

	"github.com/edvin/subpay/internal/api/response"
	"github.com/edvin/subpay/internal/core"
)

type Token struct {
	svc *core.SubscriptionService
}

func NewToken(services *core.Services) *Token {
	return &Token{svc: services.Subscription}
}

// Get reports the token address new payments settle in.
func (h *Token) Get(w http.ResponseWriter, r *http.Request) {
	addr, err := h.svc.TokenAddress(r.Context())
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"token": addr.Hex()})
}
