package service

import (
	"context"
	"strings"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/accounts/client"
	"predpraznik_backend/internal/accounts/repository"
	"predpraznik_backend/internal/accounts/transport"
	codedomain "predpraznik_backend/internal/codes/domain"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
)

// AdminFunctions is the privileged account service.
type AdminFunctions interface {
	CreateUser(ctx context.Context, p client.CreateUserPayload) (string, error)
	DeleteUser(ctx context.Context, userID string) error
	ResetPassword(ctx context.Context, userID, password string) error
}

// Service manages accounts for admins.
type Service struct {
	repo  repository.Repository
	admin AdminFunctions
	log   *logger.Logger
}

// New creates a new accounts service. A nil admin disables every write.
func New(repo repository.Repository, admin AdminFunctions, log *logger.Logger) *Service {
	return &Service{repo: repo, admin: admin, log: log}
}

// ListUsers returns every profile.
func (s *Service) ListUsers(ctx context.Context, actor access.Actor) ([]transport.UserResponse, error) {
	if err := access.CanManageAccounts(actor); err != nil {
		return nil, err
	}
	profiles, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]transport.UserResponse, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, transport.UserResponse{
			ID:         p.ID,
			Email:      p.Email,
			FullName:   p.FullName,
			Role:       p.Role,
			CodePrefix: p.CodePrefix,
			IsActive:   p.IsActive,
			CreatedAt:  p.CreatedAt,
		})
	}
	return out, nil
}

// CreateUser generates a password and asks the admin functions to create
// the account. Salespeople need a code prefix nobody else uses.
func (s *Service) CreateUser(ctx context.Context, actor access.Actor, req transport.CreateUserRequest) (transport.CredentialsResponse, error) {
	if err := s.writable(actor); err != nil {
		return transport.CredentialsResponse{}, err
	}
	role, err := access.ParseRole(req.Role)
	if err != nil {
		return transport.CredentialsResponse{}, err
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var prefix string
	if strings.TrimSpace(req.CodePrefix) != "" {
		if prefix, err = codedomain.NormalizePrefix(req.CodePrefix); err != nil {
			return transport.CredentialsResponse{}, err
		}
	}
	if role == access.RoleSalesperson && prefix == "" {
		return transport.CredentialsResponse{}, apperr.Validation("salespeople need a code prefix")
	}
	if prefix != "" {
		taken, err := s.repo.PrefixTaken(ctx, prefix)
		if err != nil {
			return transport.CredentialsResponse{}, err
		}
		if taken {
			return transport.CredentialsResponse{}, apperr.Conflict("code prefix " + prefix + " is already in use")
		}
	}
	taken, err := s.repo.EmailTaken(ctx, email)
	if err != nil {
		return transport.CredentialsResponse{}, err
	}
	if taken {
		return transport.CredentialsResponse{}, apperr.Conflict("email is already registered")
	}

	password, err := GeneratePassword()
	if err != nil {
		return transport.CredentialsResponse{}, apperr.Wrap(apperr.KindInternal, "password generation failed", err)
	}
	userID, err := s.admin.CreateUser(ctx, client.CreateUserPayload{
		Email:      email,
		Password:   password,
		Role:       role.String(),
		CodePrefix: prefix,
		FullName:   strings.TrimSpace(req.FullName),
	})
	if err != nil {
		return transport.CredentialsResponse{}, err
	}

	s.log.Info("account created", "userId", userID, "role", role.String(), "by", actor.UserID.String())
	return transport.CredentialsResponse{UserID: userID, Email: email, Password: password}, nil
}

// DeleteUser removes an account. Admins cannot delete themselves.
func (s *Service) DeleteUser(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if err := s.writable(actor); err != nil {
		return err
	}
	if id == actor.UserID {
		return apperr.Conflict("you cannot delete your own account")
	}
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.admin.DeleteUser(ctx, id.String()); err != nil {
		return err
	}
	s.log.Info("account deleted", "userId", id.String(), "by", actor.UserID.String())
	return nil
}

// ResetPassword sets and returns a newly generated password.
func (s *Service) ResetPassword(ctx context.Context, actor access.Actor, id uuid.UUID) (transport.CredentialsResponse, error) {
	if err := s.writable(actor); err != nil {
		return transport.CredentialsResponse{}, err
	}
	profile, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CredentialsResponse{}, err
	}
	password, err := GeneratePassword()
	if err != nil {
		return transport.CredentialsResponse{}, apperr.Wrap(apperr.KindInternal, "password generation failed", err)
	}
	if err := s.admin.ResetPassword(ctx, id.String(), password); err != nil {
		return transport.CredentialsResponse{}, err
	}
	s.log.Info("password reset", "userId", id.String(), "by", actor.UserID.String())
	return transport.CredentialsResponse{UserID: id.String(), Email: profile.Email, Password: password}, nil
}

func (s *Service) writable(actor access.Actor) error {
	if err := access.CanManageAccounts(actor); err != nil {
		return err
	}
	if s.admin == nil {
		return apperr.Internal("account management is not configured")
	}
	return nil
}
