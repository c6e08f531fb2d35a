package app

import (
	"net/http"

	"github.com/MrEthical07/guardian"
	"github.com/MrEthical07/guardian/internal/httpx"
	"github.com/MrEthical07/guardian/internal/repository"
)

type createPaymentRequest struct {
	PaymentMethod string  `json:"payment_method" validate:"required,max=64"`
	OriginAddress string  `json:"origin_address" validate:"max=255"`
	IsDelivered   bool    `json:"is_delivered"`
	TotalPrice    float64 `json:"total_price" validate:"gte=0"`
	TotalPaid     float64 `json:"total_paid" validate:"gte=0"`
	ProductID     *int64  `json:"product_id" validate:"omitempty,gt=0"`
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	page, err := h.payments.FindPaginatedPaymentsForUser(r.Context(), u.ID, pageParam(r))
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

// showPayment answers 403 for a payment that belongs to someone else.
func (h *Handler) showPayment(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	id, err := pathID(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	p, err := h.payments.FindPaymentByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	if p.UserID != u.ID {
		httpx.RespondError(w, r, guardian.ErrForbidden)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	u, err := currentUser(r)
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	var req createPaymentRequest
	if err := httpx.Bind(r, &req); err != nil {
		httpx.RespondError(w, r, err)
		return
	}

	p, err := h.payments.CreatePayment(r.Context(), u.ID, repository.NewPayment{
		UserName:      u.UserName,
		IsDelivered:   req.IsDelivered,
		PaymentMethod: req.PaymentMethod,
		OriginAddress: req.OriginAddress,
		TotalPrice:    req.TotalPrice,
		TotalPaid:     req.TotalPaid,
		ProductID:     req.ProductID,
	})
	if err != nil {
		httpx.RespondError(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}
