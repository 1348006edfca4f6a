package service

import (
	"context"
	"strings"
	"time"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/tasks/domain"
	"predpraznik_backend/internal/tasks/repository"
	"predpraznik_backend/internal/tasks/transport"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"
	"predpraznik_backend/platform/sanitize"

	"github.com/google/uuid"
)

// Service manages kanban boards.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new tasks service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// Board returns every column of a board. Admin and inventory may look at
// another salesperson's board.
func (s *Service) Board(ctx context.Context, actor access.Actor, req transport.BoardRequest) (transport.BoardResponse, error) {
	owner := actor.UserID
	if req.SalespersonID != "" {
		requested, err := uuid.Parse(req.SalespersonID)
		if err != nil {
			return transport.BoardResponse{}, apperr.Validation("invalid salespersonId")
		}
		if scoped := access.ScopeSalesperson(actor, &requested); scoped != nil {
			owner = *scoped
		}
	}

	tasks, err := s.repo.Board(ctx, owner)
	if err != nil {
		return transport.BoardResponse{}, err
	}

	byStatus := make(map[string][]transport.TaskResponse, len(domain.Columns))
	for _, t := range tasks {
		byStatus[t.Status] = append(byStatus[t.Status], toResponse(t))
	}
	resp := transport.BoardResponse{SalespersonID: owner, Columns: make([]transport.ColumnResponse, 0, len(domain.Columns))}
	for _, col := range domain.Columns {
		items := byStatus[string(col)]
		if items == nil {
			items = []transport.TaskResponse{}
		}
		resp.Columns = append(resp.Columns, transport.ColumnResponse{Status: string(col), Tasks: items})
	}
	return resp, nil
}

// Create appends a task at the end of its column.
func (s *Service) Create(ctx context.Context, actor access.Actor, req transport.CreateTaskRequest) (transport.TaskResponse, error) {
	owner := actor.UserID
	if req.SalespersonID != nil {
		owner = *req.SalespersonID
	}
	if err := access.CanManageTask(actor, owner); err != nil {
		return transport.TaskResponse{}, err
	}

	status := domain.StatusTodo
	if req.Status != "" {
		parsed, err := domain.ParseStatus(req.Status)
		if err != nil {
			return transport.TaskResponse{}, err
		}
		status = parsed
	}
	title := sanitize.Name(req.Title)
	if title == "" {
		return transport.TaskResponse{}, apperr.Validation("title is required")
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		return transport.TaskResponse{}, err
	}

	task, err := s.repo.Create(ctx, repository.CreateParams{
		SalespersonID: owner,
		Title:         title,
		Description:   sanitize.Text(req.Description),
		Status:        string(status),
		CompanyID:     req.CompanyID,
		DueDate:       due,
	})
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return toResponse(task), nil
}

// Update edits task content.
func (s *Service) Update(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.UpdateTaskRequest) (transport.TaskResponse, error) {
	if _, err := s.load(ctx, actor, id); err != nil {
		return transport.TaskResponse{}, err
	}

	params := repository.UpdateParams{ID: id, CompanyID: req.CompanyID, ClearCompany: req.ClearCompany && req.CompanyID == nil}
	if req.Title != nil {
		title := sanitize.Name(*req.Title)
		if title == "" {
			return transport.TaskResponse{}, apperr.Validation("title must not be empty")
		}
		params.Title = &title
	}
	if req.Description != nil {
		desc := sanitize.Text(*req.Description)
		params.Description = &desc
	}
	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			params.ClearDueDate = true
		} else {
			due, err := parseDate(req.DueDate)
			if err != nil {
				return transport.TaskResponse{}, err
			}
			params.DueDate = due
		}
	}

	task, err := s.repo.Update(ctx, params)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return toResponse(task), nil
}

// Move places a task at position in the target column. Both touched
// columns are renumbered 0..n-1.
func (s *Service) Move(ctx context.Context, actor access.Actor, id uuid.UUID, req transport.MoveTaskRequest) (transport.TaskResponse, error) {
	task, err := s.load(ctx, actor, id)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	target, err := domain.ParseStatus(req.Status)
	if err != nil {
		return transport.TaskResponse{}, err
	}

	source, err := s.repo.Column(ctx, task.SalespersonID, task.Status)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	var columns []repository.ColumnOrder
	if string(target) == task.Status {
		columns = append(columns, repository.ColumnOrder{
			Status: task.Status,
			IDs:    domain.InsertAt(domain.Remove(source, id), id, req.Position),
		})
	} else {
		dest, err := s.repo.Column(ctx, task.SalespersonID, string(target))
		if err != nil {
			return transport.TaskResponse{}, err
		}
		columns = append(columns,
			repository.ColumnOrder{Status: task.Status, IDs: domain.Remove(source, id)},
			repository.ColumnOrder{Status: string(target), IDs: domain.InsertAt(dest, id, req.Position)},
		)
	}

	if err := s.repo.ApplyOrder(ctx, task.SalespersonID, columns); err != nil {
		return transport.TaskResponse{}, err
	}
	if string(target) != task.Status {
		s.log.Transition("task", id.String(), task.Status, string(target))
	}

	moved, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.TaskResponse{}, err
	}
	return toResponse(moved), nil
}

// Reorder replaces the order of one column of the actor's board.
func (s *Service) Reorder(ctx context.Context, actor access.Actor, req transport.ReorderRequest) error {
	status, err := domain.ParseStatus(req.Status)
	if err != nil {
		return err
	}
	current, err := s.repo.Column(ctx, actor.UserID, string(status))
	if err != nil {
		return err
	}
	if err := domain.ValidateReorder(req.TaskIDs, current); err != nil {
		return err
	}
	if err := s.repo.ApplyOrder(ctx, actor.UserID, []repository.ColumnOrder{{Status: string(status), IDs: req.TaskIDs}}); err != nil {
		return err
	}
	s.log.Info("tasks reordered", "status", status, "count", len(req.TaskIDs))
	return nil
}

// Archive takes a task off the board without deleting it.
func (s *Service) Archive(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	if _, err := s.load(ctx, actor, id); err != nil {
		return err
	}
	return s.repo.Archive(ctx, id)
}

// Delete removes a task for good, archived or not.
func (s *Service) Delete(ctx context.Context, actor access.Actor, id uuid.UUID) error {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := access.CanManageTask(actor, task.SalespersonID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) load(ctx context.Context, actor access.Actor, id uuid.UUID) (repository.Task, error) {
	task, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return repository.Task{}, err
	}
	if err := access.CanManageTask(actor, task.SalespersonID); err != nil {
		return repository.Task{}, err
	}
	if task.ArchivedAt != nil {
		return repository.Task{}, apperr.Gone("task is archived")
	}
	return task, nil
}

func parseDate(value *string) (*time.Time, error) {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil, nil
	}
	d, err := time.Parse(time.DateOnly, strings.TrimSpace(*value))
	if err != nil {
		return nil, apperr.Validation("dueDate must be YYYY-MM-DD")
	}
	return &d, nil
}

func toResponse(t repository.Task) transport.TaskResponse {
	resp := transport.TaskResponse{
		ID:            t.ID,
		SalespersonID: t.SalespersonID,
		Title:         t.Title,
		Description:   t.Description,
		Status:        t.Status,
		Position:      t.Position,
		CompanyID:     t.CompanyID,
		CompanyName:   t.CompanyName,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
	if t.DueDate != nil {
		d := t.DueDate.Format(time.DateOnly)
		resp.DueDate = &d
	}
	return resp
}
