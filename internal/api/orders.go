package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/safar/go-bookshop/internal/store"
)

type orderResponse struct {
	Order   *models.Order                `json:"order"`
	Details []models.OrderDetailWithBook `json:"details"`
}

func (h *handler) listOrders(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 100 {
		limit = 20
	}

	page, err := h.Orders.Page(r.Context(), identity(r).Username, r.URL.Query().Get("cursor"), limit)
	if errors.Is(err, store.ErrInvalidCursor) {
		err = apperr.E("api.list_orders", apperr.KindInvalid, err)
	}
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, page)
}

func (h *handler) streamOrders(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Orders.WatchForUser(r.Context(), identity(r).Username)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	streamEvents(w, r, ch, nil)
}

// ownOrder loads the order named in the path. Orders of other users are
// reported as missing unless the caller is an admin.
func (h *handler) ownOrder(w http.ResponseWriter, r *http.Request) (*models.Order, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid order ID")
		return nil, false
	}

	order, err := h.Orders.Get(r.Context(), id)
	if err != nil {
		respondErr(w, r, err)
		return nil, false
	}

	who := identity(r)
	if order.Username != who.Username && !who.Admin {
		respondError(w, r, http.StatusNotFound, "order not found")
		return nil, false
	}
	return order, true
}

func (h *handler) getOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownOrder(w, r)
	if !ok {
		return
	}

	details, err := h.Orders.Details(r.Context(), order.ID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, orderResponse{Order: order, Details: details})
}

func (h *handler) streamOrderDetails(w http.ResponseWriter, r *http.Request) {
	order, ok := h.ownOrder(w, r)
	if !ok {
		return
	}

	ch, err := h.Orders.WatchDetails(r.Context(), order.ID)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	streamEvents(w, r, ch, nil)
}
