package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (h *handler) getCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.Cart.View(r.Context(), identity(r).Username)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, view)
}

func (h *handler) addToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ISBN string `json:"isbn"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	item, err := h.Cart.AddToCart(r.Context(), identity(r).Username, req.ISBN)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, item)
}

func (h *handler) scanToCart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Code string `json:"code"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	item, added, err := h.Cart.AddScanned(r.Context(), identity(r).Username, req.Code)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if !added {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	respondJSON(w, r, http.StatusOK, item)
}

func (h *handler) setCartQuantity(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Quantity int `json:"quantity"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.Cart.SetQuantity(r.Context(), identity(r).Username, mux.Vars(r)["isbn"], req.Quantity); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) removeFromCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.Remove(r.Context(), identity(r).Username, mux.Vars(r)["isbn"]); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.Cart.Clear(r.Context(), identity(r).Username); err != nil {
		respondErr(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) streamCart(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Cart.Watch(r.Context(), identity(r).Username)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	streamEvents(w, r, ch, nil)
}
