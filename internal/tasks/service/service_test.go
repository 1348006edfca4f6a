package service

import (
	"context"
	"sort"
	"testing"
	"time"

	"predpraznik_backend/internal/access"
	"predpraznik_backend/internal/tasks/repository"
	"predpraznik_backend/internal/tasks/transport"
	"predpraznik_backend/platform/apperr"
	"predpraznik_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	tasks map[uuid.UUID]*repository.Task
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: map[uuid.UUID]*repository.Task{}}
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Task, error) {
	t, ok := f.tasks[id]
	if !ok {
		return repository.Task{}, apperr.NotFound("task not found")
	}
	return *t, nil
}

func (f *fakeRepo) open(owner uuid.UUID) []repository.Task {
	var out []repository.Task
	for _, t := range f.tasks {
		if t.SalespersonID == owner && t.ArchivedAt == nil {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Status != out[j].Status {
			return out[i].Status < out[j].Status
		}
		return out[i].Position < out[j].Position
	})
	return out
}

func (f *fakeRepo) Board(_ context.Context, owner uuid.UUID) ([]repository.Task, error) {
	return f.open(owner), nil
}

func (f *fakeRepo) Column(_ context.Context, owner uuid.UUID, status string) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, t := range f.open(owner) {
		if t.Status == status {
			ids = append(ids, t.ID)
		}
	}
	return ids, nil
}

func (f *fakeRepo) Create(ctx context.Context, p repository.CreateParams) (repository.Task, error) {
	col, _ := f.Column(ctx, p.SalespersonID, p.Status)
	t := &repository.Task{
		ID: uuid.New(), SalespersonID: p.SalespersonID, Title: p.Title, Description: p.Description,
		Status: p.Status, Position: len(col), CompanyID: p.CompanyID, DueDate: p.DueDate,
	}
	f.tasks[t.ID] = t
	return *t, nil
}

func (f *fakeRepo) Update(_ context.Context, p repository.UpdateParams) (repository.Task, error) {
	t := f.tasks[p.ID]
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.ClearDueDate {
		t.DueDate = nil
	} else if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	return *t, nil
}

func (f *fakeRepo) ApplyOrder(_ context.Context, owner uuid.UUID, columns []repository.ColumnOrder) error {
	for _, c := range columns {
		for i, id := range c.IDs {
			t := f.tasks[id]
			t.Status, t.Position = c.Status, i
		}
	}
	return nil
}

func (f *fakeRepo) Archive(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	f.tasks[id].ArchivedAt = &now
	return nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.tasks, id)
	return nil
}

var _ repository.Repository = (*fakeRepo)(nil)

var seller = access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson}

// positions returns the titles of a column in position order and checks
// the positions are exactly 0..n-1.
func positions(t *testing.T, repo *fakeRepo, status string) []string {
	t.Helper()
	var titles []string
	for _, task := range repo.open(seller.UserID) {
		if task.Status == status {
			require.Equal(t, len(titles), task.Position, "positions must be dense in %s", status)
			titles = append(titles, task.Title)
		}
	}
	return titles
}

func seed(t *testing.T, svc *Service, titles ...string) map[string]uuid.UUID {
	t.Helper()
	ids := map[string]uuid.UUID{}
	for _, title := range titles {
		resp, err := svc.Create(context.Background(), seller, transport.CreateTaskRequest{Title: title})
		require.NoError(t, err)
		ids[title] = resp.ID
	}
	return ids
}

func TestCreateAppendsToColumn(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Nop())
	seed(t, svc, "call Acme", "visit Beta", "print labels")

	assert.Equal(t, []string{"call Acme", "visit Beta", "print labels"}, positions(t, repo, "todo"))
}

func TestMoveAcrossColumnsRenumbersBoth(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Nop())
	ids := seed(t, svc, "a", "b", "c")
	_, err := svc.Create(context.Background(), seller, transport.CreateTaskRequest{Title: "x", Status: "done"})
	require.NoError(t, err)

	moved, err := svc.Move(context.Background(), seller, ids["b"], transport.MoveTaskRequest{Status: "done", Position: 0})
	require.NoError(t, err)
	assert.Equal(t, "done", moved.Status)
	assert.Equal(t, 0, moved.Position)

	assert.Equal(t, []string{"a", "c"}, positions(t, repo, "todo"))
	assert.Equal(t, []string{"b", "x"}, positions(t, repo, "done"))
}

func TestMoveWithinColumn(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Nop())
	ids := seed(t, svc, "a", "b", "c")

	_, err := svc.Move(context.Background(), seller, ids["a"], transport.MoveTaskRequest{Status: "todo", Position: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c", "a"}, positions(t, repo, "todo"))
}

func TestReorderRequiresWholeColumn(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Nop())
	ids := seed(t, svc, "a", "b", "c")

	err := svc.Reorder(context.Background(), seller, transport.ReorderRequest{Status: "todo", TaskIDs: []uuid.UUID{ids["c"], ids["a"]}})
	assert.True(t, apperr.Is(err, apperr.KindConflict))

	err = svc.Reorder(context.Background(), seller, transport.ReorderRequest{Status: "todo", TaskIDs: []uuid.UUID{ids["c"], ids["a"], ids["b"]}})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, positions(t, repo, "todo"))
}

func TestArchiveHidesTaskAndBlocksEdits(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Nop())
	ids := seed(t, svc, "a", "b")

	require.NoError(t, svc.Archive(context.Background(), seller, ids["a"]))
	board, err := svc.Board(context.Background(), seller, transport.BoardRequest{})
	require.NoError(t, err)
	require.Len(t, board.Columns, 4)
	assert.Equal(t, "todo", board.Columns[0].Status)
	require.Len(t, board.Columns[0].Tasks, 1)
	assert.Equal(t, "b", board.Columns[0].Tasks[0].Title)

	title := "renamed"
	_, err = svc.Update(context.Background(), seller, ids["a"], transport.UpdateTaskRequest{Title: &title})
	assert.True(t, apperr.Is(err, apperr.KindGone))

	require.NoError(t, svc.Delete(context.Background(), seller, ids["a"]))
	_, err = repo.GetByID(context.Background(), ids["a"])
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestOtherBoardsAreForbidden(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Nop())
	ids := seed(t, svc, "a")
	other := access.Actor{UserID: uuid.New(), Role: access.RoleSalesperson}

	_, err := svc.Move(context.Background(), other, ids["a"], transport.MoveTaskRequest{Status: "done"})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	_, err = svc.Create(context.Background(), other, transport.CreateTaskRequest{Title: "x", SalespersonID: &seller.UserID})
	assert.True(t, apperr.Is(err, apperr.KindForbidden))

	admin := access.Actor{UserID: uuid.New(), Role: access.RoleAdmin}
	board, err := svc.Board(context.Background(), admin, transport.BoardRequest{SalespersonID: seller.UserID.String()})
	require.NoError(t, err)
	assert.Equal(t, seller.UserID, board.SalespersonID)
	assert.Len(t, board.Columns[0].Tasks, 1)
}

func TestUpdateDueDate(t *testing.T) {
	repo := newFakeRepo()
	svc := New(repo, logger.Nop())
	ids := seed(t, svc, "a")

	due := "2025-04-01"
	resp, err := svc.Update(context.Background(), seller, ids["a"], transport.UpdateTaskRequest{DueDate: &due})
	require.NoError(t, err)
	require.NotNil(t, resp.DueDate)
	assert.Equal(t, "2025-04-01", *resp.DueDate)

	empty := ""
	resp, err = svc.Update(context.Background(), seller, ids["a"], transport.UpdateTaskRequest{DueDate: &empty})
	require.NoError(t, err)
	assert.Nil(t, resp.DueDate)

	bad := "01.04.2025"
	_, err = svc.Update(context.Background(), seller, ids["a"], transport.UpdateTaskRequest{DueDate: &bad})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
