package handler

import (
	"net/http"

	"github.com/ethereum/go-ethereum/common"

	"github.com/edvin/subpay/internal/api/middleware"
	"github.com/edvin/subpay/internal/api/request"
	"github.com/edvin/subpay/internal/api/response"
	"github.com/edvin/subpay/internal/core"
)

// Admin exposes the owner-only endpoints. Ownership itself is enforced in
// the service layer against the recorded owner address, not here.
type Admin struct {
	svc *core.AdminService
}

func NewAdmin(services *core.Services) *Admin {
	return &Admin{svc: services.Admin}
}

func (h *Admin) Withdraw(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req request.Withdraw
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	to := common.HexToAddress(req.To)
	amount, err := h.svc.WithdrawAll(r.Context(), identity.Address, to)
	if err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{
		"to":     to.Hex(),
		"amount": amount.Dec(),
	})
}

func (h *Admin) SetToken(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req request.SetToken
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	token := common.HexToAddress(req.Token)
	if err := h.svc.SetTokenAddress(r.Context(), identity.Address, token); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"token": token.Hex()})
}

func (h *Admin) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		response.WriteError(w, http.StatusUnauthorized, "missing identity")
		return
	}

	var req request.TransferOwnership
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	owner := common.HexToAddress(req.Owner)
	if err := h.svc.TransferOwnership(r.Context(), identity.Address, owner); err != nil {
		response.WriteServiceError(w, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, map[string]string{"owner": owner.Hex()})
}
