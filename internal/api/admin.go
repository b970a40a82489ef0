package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/stock"
)

// saveBook upserts the book at the path's ISBN. Fields left out of the
// body keep the new-entry defaults.
func (h *handler) saveBook(w http.ResponseWriter, r *http.Request) {
	form := h.Stock.NewForm()
	if !decodeJSON(w, r, &form) {
		return
	}
	form = form.WithISBN(mux.Vars(r)["isbn"])

	next, err := h.Stock.Save(r.Context(), form)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"saved": form.Book(), "next": next})
}

// lookupBook returns a form for the ISBN: the stored book if there is one,
// otherwise a new entry, with remote metadata filled in when available.
func (h *handler) lookupBook(w http.ResponseWriter, r *http.Request) {
	isbn := mux.Vars(r)["isbn"]

	form, err := h.Stock.Edit(r.Context(), isbn)
	switch {
	case apperr.Is(err, apperr.KindNotFound):
		form = h.Stock.NewForm().WithISBN(isbn)
	case err != nil:
		respondErr(w, r, err)
		return
	}

	form, found := h.Stock.FillFromLookup(r.Context(), form)
	respondJSON(w, r, http.StatusOK, struct {
		Form  stock.Form `json:"form"`
		Found bool       `json:"found"`
	}{form, found})
}
