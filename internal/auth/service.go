// Package auth signs users in and issues the bearer tokens the HTTP API
// accepts.
package auth

import (
	"context"
	"errors"

	"github.com/safar/go-bookshop/internal/apperr"
	"github.com/safar/go-bookshop/internal/database"
	"github.com/safar/go-bookshop/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	ErrUnknownUser       = errors.New("user not found")
	ErrIncorrectPassword = errors.New("incorrect password")
)

type UserLookup interface {
	Get(ctx context.Context, username string) (*models.User, error)
}

type Service struct {
	users UserLookup
	log   logrus.FieldLogger
}

func NewService(users UserLookup, logger logrus.FieldLogger) *Service {
	return &Service{users: users, log: logger.WithField("component", "auth")}
}

// Login checks the credentials. Usernames match exactly, case included.
func (s *Service) Login(ctx context.Context, username, password string) (*models.User, error) {
	const op = "auth.login"

	user, err := s.users.Get(ctx, username)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, apperr.E(op, apperr.KindNotFound, ErrUnknownUser)
		}
		return nil, apperr.E(op, apperr.KindPersistenceFailure, err)
	}

	if !CheckPassword(user.PasswordHash, password) {
		s.log.WithField("username", username).Info("rejected login")
		return nil, apperr.E(op, apperr.KindUnauthorized, ErrIncorrectPassword)
	}

	return user, nil
}
