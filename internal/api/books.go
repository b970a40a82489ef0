package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/safar/go-bookshop/internal/cart"
	"github.com/safar/go-bookshop/internal/models"
)

// visible hides sold-out books from shoppers. Admins see the full catalog.
func visible(r *http.Request, books []models.Book) []models.Book {
	if identity(r).Admin && r.URL.Query().Get("all") == "true" {
		return books
	}
	return cart.Available(books)
}

func (h *handler) listBooks(w http.ResponseWriter, r *http.Request) {
	books, err := h.Catalog.List(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, visible(r, books))
}

func (h *handler) streamBooks(w http.ResponseWriter, r *http.Request) {
	ch, err := h.Catalog.Watch(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	streamEvents(w, r, ch, func(books []models.Book) any { return visible(r, books) })
}

func (h *handler) getBook(w http.ResponseWriter, r *http.Request) {
	book, err := h.Catalog.Get(r.Context(), mux.Vars(r)["isbn"])
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, book)
}
