package service

import (
	"context"
	"strings"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/companies/domain"
	"predpraznik_backend/internal/companies/repository"
	"predpraznik_backend/internal/companies/transport"
	"predpraznik_backend/internal/events"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/db"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/phone"
	"predpraznik_backend/platform/sanitize"

	"github.com/google/uuid"
)

const defaultPageSize = 50

// Service provides CRM operations on companies and their contacts.
type Service struct {
	repo repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates a new companies service.
func New(repo repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// Create registers a company owned by the acting salesperson.
func (s *Service) Create(ctx context.Context, actor access.Actor, req transport.CreateCompanyRequest) (transport.CompanyResponse, error) {
	params := repository.CreateParams{
		Name:            sanitize.Name(req.Name),
		DisplayName:     trimPtr(req.DisplayName),
		TaxNumber:       NormalizeTaxNumber(req.TaxNumber),
		ParentCompanyID: req.ParentCompanyID,
		Notes:           sanitize.Text(req.Notes),
	}
	if params.Name == "" {
		return transport.CompanyResponse{}, apperr.Validation("company name is required")
	}
	if actor.Role == access.RoleSalesperson {
		owner := actor.UserID
		params.OwnerID = &owner
	}
	if req.Delivery != nil {
		params.DeliveryAddress, params.DeliveryPostalCode, params.DeliveryCity = trimPtr(req.Delivery.Street), trimPtr(req.Delivery.PostalCode), trimPtr(req.Delivery.City)
	}
	if req.Billing != nil {
		params.BillingAddress, params.BillingPostalCode, params.BillingCity = trimPtr(req.Billing.Street), trimPtr(req.Billing.PostalCode), trimPtr(req.Billing.City)
	}

	if err := s.ensureTaxNumberFree(ctx, params.TaxNumber, nil); err != nil {
		return transport.CompanyResponse{}, err
	}

	company, err := s.repo.Create(ctx, params)
	if err != nil {
		return transport.CompanyResponse{}, mapTaxConflict(err)
	}

	s.log.Info("company created", "companyId", company.ID, "actor", actor.UserID)
	s.bus.Publish(ctx, events.CompanyCreated{
		BaseEvent: events.NewBaseEvent(),
		ActorID:   actor.UserID,
		CompanyID: company.ID,
		Name:      company.Name,
	})
	return toResponse(company), nil
}

// Get returns a company with its contacts and child sites.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (transport.CompanyResponse, error) {
	company, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	contacts, err := s.repo.ListContacts(ctx, id)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	children, err := s.repo.ListChildren(ctx, id)
	if err != nil {
		return transport.CompanyResponse{}, err
	}

	resp := toResponse(company)
	for _, c := range contacts {
		resp.Contacts = append(resp.Contacts, toContactResponse(c))
	}
	for _, child := range children {
		resp.Children = append(resp.Children, toResponse(child))
	}
	return resp, nil
}

// List searches companies. Mine narrows to the actor's own companies.
func (s *Service) List(ctx context.Context, actor access.Actor, req transport.ListCompaniesRequest) (transport.CompanyListResponse, error) {
	page, pageSize := req.Page, req.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	params := repository.ListParams{
		Search:         strings.TrimSpace(req.Search),
		PipelineStatus: req.PipelineStatus,
		Limit:          pageSize,
		Offset:         (page - 1) * pageSize,
	}
	if req.Mine {
		owner := actor.UserID
		params.OwnerID = &owner
	}

	items, total, err := s.repo.List(ctx, params)
	if err != nil {
		return transport.CompanyListResponse{}, err
	}
	out := make([]transport.CompanyResponse, 0, len(items))
	for _, c := range items {
		out = append(out, toResponse(c))
	}
	return transport.CompanyListResponse{Items: out, Total: total, Page: page, PageSize: pageSize}, nil
}

// Update edits company master data.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.UpdateCompanyRequest) (transport.CompanyResponse, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	if err := access.CanEditCompany(actor, current.OwnerID); err != nil {
		return transport.CompanyResponse{}, err
	}
	if req.ParentCompanyID != nil && *req.ParentCompanyID == id {
		return transport.CompanyResponse{}, apperr.Validation("a company cannot be its own parent")
	}

	params := repository.UpdateParams{
		ID:              id,
		DisplayName:     trimPtr(req.DisplayName),
		TaxNumber:       NormalizeTaxNumber(req.TaxNumber),
		ParentCompanyID: req.ParentCompanyID,
		Notes:           sanitize.TextPtr(req.Notes),
	}
	if req.Name != nil {
		name := sanitize.Name(*req.Name)
		if name == "" {
			return transport.CompanyResponse{}, apperr.Validation("company name is required")
		}
		params.Name = &name
	}
	if req.Delivery != nil {
		params.DeliveryAddress, params.DeliveryPostalCode, params.DeliveryCity = trimPtr(req.Delivery.Street), trimPtr(req.Delivery.PostalCode), trimPtr(req.Delivery.City)
	}
	if req.Billing != nil {
		params.BillingAddress, params.BillingPostalCode, params.BillingCity = trimPtr(req.Billing.Street), trimPtr(req.Billing.PostalCode), trimPtr(req.Billing.City)
	}

	if err := s.ensureTaxNumberFree(ctx, params.TaxNumber, &id); err != nil {
		return transport.CompanyResponse{}, err
	}

	company, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.CompanyResponse{}, mapTaxConflict(err)
	}
	return toResponse(company), nil
}

// UpdatePipelineStatus moves a company along the sales funnel.
func (s *Service) UpdatePipelineStatus(ctx context.Context, actor access.Actor, id uuid.UUID, status string) (transport.CompanyResponse, error) {
	next, err := domain.ParsePipelineStatus(status)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	if err := access.CanEditCompany(actor, current.OwnerID); err != nil {
		return transport.CompanyResponse{}, err
	}

	company, err := s.repo.SetPipelineStatus(ctx, id, string(next))
	if err != nil {
		return transport.CompanyResponse{}, err
	}
	s.log.Transition("company", id.String(), current.PipelineStatus, string(next))
	return toResponse(company), nil
}

// AddContact adds a person to a company.
func (s *Service) AddContact(ctx context.Context, actor access.Actor, companyID uuid.UUID, req transport.ContactRequest) (transport.ContactResponse, error) {
	if err := s.canEdit(ctx, actor, companyID); err != nil {
		return transport.ContactResponse{}, err
	}
	params, err := ContactParamsFrom(companyID, req)
	if err != nil {
		return transport.ContactResponse{}, err
	}
	contact, err := s.repo.AddContact(ctx, params)
	if err != nil {
		return transport.ContactResponse{}, err
	}
	return toContactResponse(contact), nil
}

// UpdateContact replaces a contact's details.
func (s *Service) UpdateContact(ctx context.Context, actor access.Actor, companyID, contactID uuid.UUID, req transport.ContactRequest) (transport.ContactResponse, error) {
	if err := s.canEdit(ctx, actor, companyID); err != nil {
		return transport.ContactResponse{}, err
	}
	params, err := ContactParamsFrom(companyID, req)
	if err != nil {
		return transport.ContactResponse{}, err
	}
	contact, err := s.repo.UpdateContact(ctx, contactID, params)
	if err != nil {
		return transport.ContactResponse{}, err
	}
	return toContactResponse(contact), nil
}

// DeleteContact removes a contact.
func (s *Service) DeleteContact(ctx context.Context, actor access.Actor, companyID, contactID uuid.UUID) error {
	if err := s.canEdit(ctx, actor, companyID); err != nil {
		return err
	}
	return s.repo.DeleteContact(ctx, companyID, contactID)
}

func (s *Service) canEdit(ctx context.Context, actor access.Actor, companyID uuid.UUID) error {
	company, err := s.repo.GetByID(ctx, companyID)
	if err != nil {
		return err
	}
	return access.CanEditCompany(actor, company.OwnerID)
}

func (s *Service) ensureTaxNumberFree(ctx context.Context, taxNumber *string, excludeID *uuid.UUID) error {
	if taxNumber == nil {
		return nil
	}
	taken, err := s.repo.TaxNumberTaken(ctx, *taxNumber, excludeID)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("a company with this tax number already exists").
			WithDetails(map[string]string{"taxNumber": *taxNumber})
	}
	return nil
}

func mapTaxConflict(err error) error {
	if db.IsUniqueViolation(err, repository.TaxNumberConstraint) {
		return apperr.Conflict("a company with this tax number already exists")
	}
	return err
}

// ContactParamsFrom validates and normalizes a contact request. Phone numbers
// are stored in E.164.
func ContactParamsFrom(companyID uuid.UUID, req transport.ContactRequest) (repository.ContactParams, error) {
	first := sanitize.Name(req.FirstName)
	if first == "" {
		return repository.ContactParams{}, apperr.Validation("contact first name is required")
	}
	params := repository.ContactParams{
		CompanyID: companyID,
		FirstName: first,
		LastName:  sanitize.Name(req.LastName),
		Role:      trimPtr(req.Role),
		Email:     trimPtr(req.Email),
		IsPrimary: req.IsPrimary,
	}
	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		normalized, ok := phone.Normalize(*req.Phone, phone.DefaultRegion)
		if !ok {
			return repository.ContactParams{}, apperr.Validation("invalid phone number")
		}
		params.Phone = &normalized
	}
	return params, nil
}

// NormalizeTaxNumber strips spaces and the SI country prefix casing so
// "si 12345678" and "SI12345678" collide. Empty input becomes nil.
func NormalizeTaxNumber(tax *string) *string {
	if tax == nil {
		return nil
	}
	v := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(*tax), " ", ""))
	if v == "" {
		return nil
	}
	return &v
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func toResponse(c repository.Company) transport.CompanyResponse {
	return transport.CompanyResponse{
		ID:               c.ID,
		Name:             c.Name,
		DisplayName:      c.DisplayName,
		TaxNumber:        c.TaxNumber,
		Delivery:         transport.Address{Street: c.DeliveryAddress, PostalCode: c.DeliveryPostalCode, City: c.DeliveryCity},
		Billing:          transport.Address{Street: c.BillingAddress, PostalCode: c.BillingPostalCode, City: c.BillingCity},
		PipelineStatus:   c.PipelineStatus,
		ContractSentAt:   c.ContractSentAt,
		ContractCalledAt: c.ContractCalledAt,
		ParentCompanyID:  c.ParentCompanyID,
		OwnerID:          c.OwnerID,
		Notes:            c.Notes,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func toContactResponse(c repository.Contact) transport.ContactResponse {
	return transport.ContactResponse{
		ID:        c.ID,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Role:      c.Role,
		Email:     c.Email,
		Phone:     c.Phone,
		IsPrimary: c.IsPrimary,
	}
}
