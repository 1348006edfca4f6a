package service

import (
	"context"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/codes/domain"
	"predpraznik_backend/internal/codes/repository"
	"predpraznik_backend/internal/codes/transport"
	"predpraznik_backend/internal/events"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
)

const (
	defaultPageSize = 100
	qrImageSize     = 256
)

// Service allocates codes and exposes their derived status.
type Service struct {
	repo   repository.Repository
	bus    events.Bus
	log    *logger.Logger
	source domain.Source
}

// New creates a new codes service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log, source: domain.DefaultSource}
}

// WithSource replaces the random source, for deterministic tests.
func (s *Service) WithSource(src domain.Source) *Service {
	s.source = src
	return s
}

// GenerateBatch creates count codes for prefix. A salesperson generating for
// their own prefix owns the batch; inventory and admin may name an owner.
func (s *Service) GenerateBatch(ctx context.Context, actor access.Actor, req transport.GenerateBatchRequest) (transport.GenerateBatchResponse, error) {
	prefix, err := domain.NormalizePrefix(req.Prefix)
	if err != nil {
		return transport.GenerateBatchResponse{}, err
	}
	if err := access.CanGenerateCodes(actor, prefix); err != nil {
		return transport.GenerateBatchResponse{}, err
	}

	ownerID := req.OwnerID
	if actor.Role == access.RoleSalesperson {
		self := actor.UserID
		ownerID = &self
	}

	existing, err := s.repo.ExistingForPrefix(ctx, prefix)
	if err != nil {
		return transport.GenerateBatchResponse{}, err
	}

	codes, err := domain.Generate(prefix, req.Count, existing, s.source)
	if err != nil {
		return transport.GenerateBatchResponse{}, err
	}

	inserted, err := s.repo.InsertBatch(ctx, prefix, codes, ownerID)
	if err != nil {
		if db.IsUniqueViolation(err, repository.UniqueCodeConstraint) {
			return transport.GenerateBatchResponse{}, apperr.Conflict("a concurrent batch claimed one of the codes, retry").WithOp("codes.GenerateBatch")
		}
		return transport.GenerateBatchResponse{}, err
	}

	s.log.Info("code batch generated", "prefix", prefix, "count", len(inserted), "actor", actor.UserID)
	s.bus.Publish(ctx, events.CodesGenerated{
		BaseEvent: events.NewBaseEvent(),
		ActorID:   actor.UserID,
		Prefix:    prefix,
		Count:     len(inserted),
		OwnerID:   ownerID,
	})

	resp := transport.GenerateBatchResponse{Prefix: prefix, Codes: make([]transport.CodeResponse, 0, len(inserted))}
	for _, q := range inserted {
		resp.Codes = append(resp.Codes, toResponse(q))
	}
	return resp, nil
}

// List returns codes visible to the actor. Salespeople see only their own.
func (s *Service) List(ctx context.Context, actor access.Actor, req transport.ListCodesRequest) (transport.CodeListResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	var requested *uuid.UUID
	if req.OwnerID != "" {
		id, err := uuid.Parse(req.OwnerID)
		if err != nil {
			return transport.CodeListResponse{}, apperr.Validation("invalid owner id")
		}
		requested = &id
	}

	items, total, err := s.repo.List(ctx, repository.ListParams{
		OwnerID: access.ScopeSalesperson(actor, requested),
		Prefix:  req.Prefix,
		Status:  req.Status,
		Search:  req.Search,
		Limit:   pageSize,
		Offset:  (page - 1) * pageSize,
	})
	if err != nil {
		return transport.CodeListResponse{}, err
	}

	out := make([]transport.CodeResponse, 0, len(items))
	for _, q := range items {
		out = append(out, toResponse(q))
	}
	return transport.CodeListResponse{Items: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// Lookup resolves a scanned code to its current state.
func (s *Service) Lookup(ctx context.Context, actor access.Actor, code string) (transport.CodeResponse, error) {
	normalized, err := domain.NormalizeCode(code)
	if err != nil {
		return transport.CodeResponse{}, err
	}
	q, err := s.repo.GetByCode(ctx, normalized)
	if err != nil {
		return transport.CodeResponse{}, err
	}
	if !access.SeesAllSalespeople(actor) && (q.OwnerID == nil || *q.OwnerID != actor.UserID) {
		return transport.CodeResponse{}, apperr.Forbidden("code belongs to another salesperson")
	}
	return toResponse(q), nil
}

// AssignOwner moves a code to another salesperson, or back to the pool.
func (s *Service) AssignOwner(ctx context.Context, actor access.Actor, code string, ownerID *uuid.UUID) (transport.CodeResponse, error) {
	if err := access.CanAssignCodes(actor); err != nil {
		return transport.CodeResponse{}, err
	}
	normalized, err := domain.NormalizeCode(code)
	if err != nil {
		return transport.CodeResponse{}, err
	}

	current, err := s.repo.GetByCode(ctx, normalized)
	if err != nil {
		return transport.CodeResponse{}, err
	}
	if current.OpenCycleID != nil {
		return transport.CodeResponse{}, apperr.Conflict("code has an open cycle and cannot change owner")
	}

	q, err := s.repo.SetOwner(ctx, normalized, ownerID)
	if err != nil {
		return transport.CodeResponse{}, err
	}
	s.log.Info("code owner assigned", "code", normalized, "owner", ownerID)
	return toResponse(q), nil
}

// Delete removes a code that never carried a cycle.
func (s *Service) Delete(ctx context.Context, actor access.Actor, code string) error {
	if err := access.CanDeleteCodes(actor); err != nil {
		return err
	}
	normalized, err := domain.NormalizeCode(code)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, normalized); err != nil {
		return err
	}
	s.log.Info("code deleted", "code", normalized, "actor", actor.UserID)
	return nil
}

// RenderQR encodes the code as a PNG for on-screen display.
func (s *Service) RenderQR(code string) ([]byte, error) {
	normalized, err := domain.NormalizeCode(code)
	if err != nil {
		return nil, err
	}
	png, err := qrcode.Encode(normalized, qrcode.Medium, qrImageSize)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "render qr code", err)
	}
	return png, nil
}

func toResponse(q repository.QRCode) transport.CodeResponse {
	return transport.CodeResponse{
		ID:          q.ID,
		Code:        q.Code,
		Prefix:      q.Prefix,
		Status:      string(domain.DeriveStatus(q.OpenCycleStatus)),
		OwnerID:     q.OwnerID,
		OwnerName:   q.OwnerName,
		OpenCycleID: q.OpenCycleID,
		CreatedAt:   q.CreatedAt,
	}
}
