package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"
	"github.com/holiman/uint256"

	"github.com/edvin/subpay/internal/api/middleware"
	"github.com/edvin/subpay/internal/api/request"
	"github.com/edvin/subpay/internal/api/response"
	"github.com/edvin/subpay/internal/core"
)

// Amounts are capped well below 2^256 so they fit the signing scheme's
// fixed-width encoding everywhere.
const maxAmountBits = 192

type Subscription struct {
	svc *core.SubscriptionService
}

func NewSubscription(services *core.Services) *Subscription {
	return &Subscription{svc: services.Subscription}
}

// Create accepts a signed payment authorization and records the paid
// subscription. The buyer is the authenticated caller, never a field of
// the request body.
func (h *Subscription) Create(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req request.CreateSubscription
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	amount, err := uint256.FromDecimal(req.Amount)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid amount")
		return
	}
	if amount.BitLen() > maxAmountBits {
		response.WriteError(w, http.StatusBadRequest, "amount out of range")
		return
	}

	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid signature encoding")
		return
	}

	sub, err := h.svc.CreateSubscription(r.Context(), identity.Address, sig, req.SubscriptionID, amount, req.Deadline)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusCreated, sub)
}

func (h *Subscription) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, sub)
}

func (h *Subscription) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.svc.List(r.Context(), request.ParseLimit(r))
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WritePaginated(w, http.StatusOK, subs, "", false)
}
