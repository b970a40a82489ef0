package api

import (
	"net/http"

	"github.com/safar/go-bookshop/internal/checkout"
	"github.com/shopspring/decimal"
)

type draftLine struct {
	ISBN        string          `json:"isbn13"`
	Title       string          `json:"title"`
	Quantity    int             `json:"quantity"`
	RetailPrice decimal.Decimal `json:"retail_price"`
	Status      string          `json:"status"`
	Available   *int            `json:"available,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
}

type checkoutResponse struct {
	State    string           `json:"state"`
	Lines    []draftLine      `json:"lines"`
	Subtotal decimal.Decimal  `json:"subtotal"`
	Postage  decimal.Decimal  `json:"postage"`
	Total    decimal.Decimal  `json:"total"`
	Address  checkout.Address `json:"address"`
}

func renderDraft(state checkout.State, d checkout.Draft) checkoutResponse {
	resp := checkoutResponse{
		State:    state.String(),
		Lines:    make([]draftLine, 0, len(d.Lines)),
		Subtotal: d.Subtotal,
		Postage:  d.Postage,
		Total:    d.Total,
		Address:  d.Address,
	}
	for _, l := range d.Lines {
		line := draftLine{
			ISBN:        l.Book.ISBN13,
			Title:       l.Book.Title,
			Quantity:    l.Quantity,
			RetailPrice: l.Book.RetailPrice,
			Status:      l.Status.Kind.String(),
			Amount:      l.Amount(),
		}
		if !l.InStock() {
			available := l.Status.Available
			line.Available = &available
			line.Amount = decimal.Zero
		}
		resp.Lines = append(resp.Lines, line)
	}
	return resp
}

func (h *handler) prepareCheckout(w http.ResponseWriter, r *http.Request) {
	sess := h.Checkout.Session(identity(r).Username)

	draft, err := sess.Prepare(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, renderDraft(sess.State(), draft))
}

func (h *handler) getCheckout(w http.ResponseWriter, r *http.Request) {
	sess := h.Checkout.Session(identity(r).Username)
	respondJSON(w, r, http.StatusOK, renderDraft(sess.State(), sess.Draft()))
}

type addressPatch struct {
	Line       *string `json:"address_line"`
	City       *string `json:"city"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

func (p addressPatch) apply(d checkout.Draft) checkout.Draft {
	if p.Line != nil {
		d = d.WithAddressLine(*p.Line)
	}
	if p.City != nil {
		d = d.WithCity(*p.City)
	}
	if p.PostalCode != nil {
		d = d.WithPostalCode(*p.PostalCode)
	}
	if p.Country != nil {
		d = d.WithCountry(*p.Country)
	}
	return d
}

func (h *handler) updateAddress(w http.ResponseWriter, r *http.Request) {
	var patch addressPatch
	if !decodeJSON(w, r, &patch) {
		return
	}

	sess := h.Checkout.Session(identity(r).Username)
	draft, err := sess.Update(patch.apply)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, renderDraft(sess.State(), draft))
}

func (h *handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	sess := h.Checkout.Session(identity(r).Username)

	result, err := sess.PlaceOrder(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	if !result.Placed {
		respondJSON(w, r, http.StatusOK, map[string]any{"placed": false})
		return
	}
	respondJSON(w, r, http.StatusCreated, map[string]any{"placed": true, "order": result.Order})
}
