package checkout

import (
	"context"
	"sync"

	"github.com/safar/go-bookshop/internal/models"
	"github.com/safar/go-bookshop/internal/store"
	"github.com/sirupsen/logrus"
)

// Service keeps one checkout session per user.
type Service struct {
	repo Repository
	log  logrus.FieldLogger

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewService(repo Repository, logger logrus.FieldLogger) *Service {
	return &Service{
		repo:     repo,
		log:      logger.WithField("component", "checkout"),
		sessions: make(map[string]*Session),
	}
}

// Session returns the user's session, creating an idle one if needed.
func (s *Service) Session(username string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[username]
	if !ok {
		sess = NewSession(username, s.repo, s.log)
		s.sessions[username] = sess
	}
	return sess
}

// End discards the user's session.
func (s *Service) End(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, username)
}

type storeRepository struct {
	store *store.Store
}

// StoreRepository adapts the SQL store to Repository.
func StoreRepository(s *store.Store) Repository {
	return storeRepository{store: s}
}

func (r storeRepository) CartItems(ctx context.Context, username string) ([]models.CartItem, error) {
	return r.store.Carts.Items(ctx, username)
}

func (r storeRepository) Books(ctx context.Context) ([]models.Book, error) {
	return r.store.Catalog.List(ctx)
}

func (r storeRepository) CommitOrder(ctx context.Context, commit models.OrderCommit) (models.Order, error) {
	return r.store.CommitOrder(ctx, commit)
}
