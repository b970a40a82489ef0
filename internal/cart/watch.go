package cart

import (
	"context"

	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/models"
)

// Watch streams the joined cart view. A new view is produced whenever the
// user's cart or the catalog changes; a slow reader only sees the newest.
func (s *Service) Watch(ctx context.Context, username string) (<-chan View, error) {
	const op = "cart.watch"

	ctx, cancel := context.WithCancel(ctx)

	itemsCh, err := s.items.Watch(ctx, username)
	if err != nil {
		cancel()
		return nil, apperr.E(op, apperr.KindPersistenceFailure, err)
	}
	booksCh, err := s.books.Watch(ctx)
	if err != nil {
		cancel()
		return nil, apperr.E(op, apperr.KindPersistenceFailure, err)
	}

	out := make(chan View, 1)

	go func() {
		defer cancel()
		defer close(out)

		var (
			items     []models.CartItem
			books     []models.Book
			haveItems bool
			haveBooks bool
		)

		for {
			select {
			case next, ok := <-itemsCh:
				if !ok {
					return
				}
				items, haveItems = next, true
			case next, ok := <-booksCh:
				if !ok {
					return
				}
				books, haveBooks = next, true
			}

			if !haveItems || !haveBooks {
				continue
			}
			send(out, Join(items, books))
		}
	}()

	return out, nil
}

// send replaces any view the reader has not picked up yet.
func send(out chan View, v View) {
	select {
	case out <- v:
		return
	default:
	}
	select {
	case <-out:
	default:
	}
	out <- v
}
