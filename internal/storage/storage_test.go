package storage

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aTrapDeer/portfolio-backend/internal/models"
)

// memTable is an in-memory Table that counts List calls.
type memTable[T any] struct {
	mu     sync.Mutex
	rows   map[uint]T
	nextID uint
	lists  int
	setID  func(*T, uint)
	apply  func(*T, map[string]any)
}

func newMemTable[T any](setID func(*T, uint), apply func(*T, map[string]any)) *memTable[T] {
	return &memTable[T]{rows: map[uint]T{}, setID: setID, apply: apply}
}

func (m *memTable[T]) List(context.Context) ([]T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists++

	ids := make([]uint, 0, len(m.rows))
	for id := range m.rows {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := []T{}
	for _, id := range ids {
		out = append(out, m.rows[id])
	}
	return out, nil
}

func (m *memTable[T]) Get(_ context.Context, id uint) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &row, nil
}

func (m *memTable[T]) Create(_ context.Context, row *T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.setID(row, m.nextID)
	m.rows[m.nextID] = *row
	return nil
}

func (m *memTable[T]) Update(_ context.Context, id uint, changes map[string]any) (*T, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	row, ok := m.rows[id]
	if !ok {
		return nil, ErrNotFound
	}
	m.apply(&row, changes)
	m.rows[id] = row
	return &row, nil
}

func (m *memTable[T]) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memTable[T]) listCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lists
}

type fixture struct {
	store       *Storage
	projects    *memTable[models.Project]
	skills      *memTable[models.Skill]
	experiences *memTable[models.Experience]
	messages    *memTable[models.Message]
	now         time.Time
}

func (f *fixture) advance(d time.Duration) { f.now = f.now.Add(d) }

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)}
	f.projects = newMemTable(
		func(p *models.Project, id uint) { p.ID = id },
		func(p *models.Project, c map[string]any) {
			if v, ok := c["title"]; ok {
				p.Title = v.(string)
			}
		})
	f.skills = newMemTable(
		func(s *models.Skill, id uint) { s.ID = id },
		func(s *models.Skill, c map[string]any) {
			if v, ok := c["name"]; ok {
				s.Name = v.(string)
			}
			if v, ok := c["icon"]; ok {
				s.Icon = v.(string)
			}
		})
	f.experiences = newMemTable(
		func(e *models.Experience, id uint) { e.ID = id },
		func(e *models.Experience, c map[string]any) {
			if v, ok := c["role"]; ok {
				e.Role = v.(string)
			}
		})
	f.messages = newMemTable(
		func(m *models.Message, id uint) { m.ID = id },
		func(*models.Message, map[string]any) {})
	f.store = New(Tables{
		Projects:    f.projects,
		Skills:      f.skills,
		Experiences: f.experiences,
		Messages:    f.messages,
	}, Options{CacheTTL: time.Minute, Now: func() time.Time { return f.now }})
	return f
}

func str(s string) *string { return &s }

func skillInput(name string) models.SkillInput {
	return models.SkillInput{Name: str(name), Category: str("Languages")}
}

func TestSkillsListIsCachedWithinTTL(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.CreateSkill(ctx, skillInput("Go"))
	require.NoError(t, err)

	first, err := f.store.Skills(ctx)
	require.NoError(t, err)
	f.advance(30 * time.Second)
	second, err := f.store.Skills(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.skills.listCalls())
}

func TestSkillsCacheExpires(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Skills(ctx)
	require.NoError(t, err)
	f.advance(time.Minute)
	_, err = f.store.Skills(ctx)
	require.NoError(t, err)

	assert.Equal(t, 2, f.skills.listCalls())
}

func TestSkillMutationsAreVisibleToNextList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rows, err := f.store.Skills(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	created, err := f.store.CreateSkill(ctx, skillInput("Go"))
	require.NoError(t, err)
	rows, err = f.store.Skills(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Go", rows[0].Name)

	_, err = f.store.UpdateSkill(ctx, created.ID, models.SkillInput{Name: str("Golang")})
	require.NoError(t, err)
	rows, err = f.store.Skills(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Golang", rows[0].Name)

	require.NoError(t, f.store.DeleteSkill(ctx, created.ID))
	rows, err = f.store.Skills(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.Equal(t, 4, f.skills.listCalls())
}

func TestExperienceMutationsAreVisibleToNextList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Experiences(ctx)
	require.NoError(t, err)

	e, err := f.store.CreateExperience(ctx, models.ExperienceInput{
		Role: str("Engineer"), Organization: str("Acme"), Period: str("2024"), Description: str("x"),
	})
	require.NoError(t, err)
	assert.Equal(t, models.DefaultExperienceType, e.Type)

	rows, err := f.store.Experiences(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	_, err = f.store.UpdateExperience(ctx, e.ID, models.ExperienceInput{Role: str("Lead")})
	require.NoError(t, err)
	rows, err = f.store.Experiences(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Lead", rows[0].Role)

	require.NoError(t, f.store.DeleteExperience(ctx, e.ID))
	rows, err = f.store.Experiences(ctx)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestFailedMutationStillInvalidates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.Skills(ctx)
	require.NoError(t, err)

	_, err = f.store.UpdateSkill(ctx, 42, skillInput("Nope"))
	require.ErrorIs(t, err, ErrNotFound)

	_, err = f.store.Skills(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, f.skills.listCalls())
}

func TestGetBypassesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.store.CreateSkill(ctx, skillInput("Go"))
	require.NoError(t, err)
	_, err = f.store.Skills(ctx)
	require.NoError(t, err)

	// write behind the facade's back; Get must see it, List must not yet
	_, err = f.skills.Update(ctx, s.ID, map[string]any{"name": "Rust"})
	require.NoError(t, err)

	got, err := f.store.GetSkill(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Rust", got.Name)

	rows, err := f.store.Skills(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Go", rows[0].Name)
}

func TestProjectsAreNotCached(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for range 3 {
		_, err := f.store.Projects(ctx)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, f.projects.listCalls())
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.store.GetProject(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.store.GetSkill(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.store.GetExperience(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = f.store.GetMessage(ctx, 7)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, f.store.DeleteProject(ctx, 7), ErrNotFound)
	assert.ErrorIs(t, f.store.DeleteMessage(ctx, 7), ErrNotFound)
}

func TestUpdateWithEmptyInputKeepsRow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	s, err := f.store.CreateSkill(ctx, models.SkillInput{Name: str("Go"), Category: str("Languages"), Icon: str("Gopher")})
	require.NoError(t, err)

	got, err := f.store.UpdateSkill(ctx, s.ID, models.SkillInput{})
	require.NoError(t, err)
	assert.Equal(t, *s, *got)
}

func TestCreateProjectDefaults(t *testing.T) {
	f := newFixture(t)

	p, err := f.store.CreateProject(context.Background(), models.ProjectInput{
		Title: str("Site"), Description: str("d"), ImageURL: str("/uploads/a.png"), Category: str("Web"),
	})
	require.NoError(t, err)

	assert.NotZero(t, p.ID)
	require.NotNil(t, p.TechStack)
	assert.Empty(t, p.TechStack)
	assert.Nil(t, p.Motivation)
}

func TestCreateMessageStampsTime(t *testing.T) {
	f := newFixture(t)

	m, err := f.store.CreateMessage(context.Background(), models.MessageInput{
		Name: str("Ann"), Email: str("ann@example.com"), Message: str("hello"),
	})
	require.NoError(t, err)

	assert.Equal(t, f.now, m.CreatedAt)
	assert.Equal(t, "", m.Subject)
}

// failingSkills lets tests script persistence faults.
type failingSkills struct {
	mock.Mock
}

func (m *failingSkills) List(ctx context.Context) ([]models.Skill, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Skill), args.Error(1)
}

func (m *failingSkills) Get(ctx context.Context, id uint) (*models.Skill, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Skill), args.Error(1)
}

func (m *failingSkills) Create(ctx context.Context, row *models.Skill) error {
	return m.Called(ctx, row).Error(0)
}

func (m *failingSkills) Update(ctx context.Context, id uint, changes map[string]any) (*models.Skill, error) {
	args := m.Called(ctx, id, changes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Skill), args.Error(1)
}

func (m *failingSkills) Delete(ctx context.Context, id uint) error {
	return m.Called(ctx, id).Error(0)
}

func TestStorageFaultsPropagateAndAreNotCached(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("connection refused")

	skills := new(failingSkills)
	skills.On("List", ctx).Return(nil, boom).Once()
	skills.On("List", ctx).Return([]models.Skill{{ID: 1, Name: "Go"}}, nil).Once()
	skills.On("Get", ctx, uint(1)).Return(nil, boom)

	store := New(Tables{Skills: skills}, Options{CacheTTL: time.Minute})

	_, err := store.Skills(ctx)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrNotFound)

	rows, err := store.Skills(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	_, err = store.GetSkill(ctx, 1)
	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "get skill")

	skills.AssertExpectations(t)
}
