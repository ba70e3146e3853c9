package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/aTrapDeer/portfolio-backend/internal/cache"
	"github.com/aTrapDeer/portfolio-backend/internal/metrics"
	"github.com/aTrapDeer/portfolio-backend/internal/models"
)

// DefaultCacheTTL is how long the skills and experiences lists are served
// from memory.
const DefaultCacheTTL = 60 * time.Second

// Tables groups the persistence adapters the facade writes through.
type Tables struct {
	Projects    Table[models.Project]
	Skills      Table[models.Skill]
	Experiences Table[models.Experience]
	Messages    Table[models.Message]
}

type Options struct {
	CacheTTL time.Duration
	Now      func() time.Time
}

// Storage mediates every read and write of portfolio content. Skills and
// experiences are read far more often than written, so their full lists sit
// in a TTL cache that every mutation clears before returning.
type Storage struct {
	tables Tables
	now    func() time.Time

	skillCache      *cache.Collection[models.Skill]
	experienceCache *cache.Collection[models.Experience]
}

func New(tables Tables, opts Options) *Storage {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Storage{
		tables:          tables,
		now:             opts.Now,
		skillCache:      cache.New[models.Skill](opts.CacheTTL, opts.Now),
		experienceCache: cache.New[models.Experience](opts.CacheTTL, opts.Now),
	}
}

// NewGorm wires the facade to gorm tables on db.
func NewGorm(db *gorm.DB, cacheTTL time.Duration) *Storage {
	return New(Tables{
		Projects:    NewGormTable[models.Project](db),
		Skills:      NewGormTable[models.Skill](db),
		Experiences: NewGormTable[models.Experience](db),
		Messages:    NewGormTable[models.Message](db),
	}, Options{CacheTTL: cacheTTL})
}

// cachedList serves the list from c when fresh, otherwise reads it from the
// table and repopulates c.
func cachedList[T any](ctx context.Context, name string, c *cache.Collection[T], t Table[T]) ([]T, error) {
	rows, version, ok := c.Get()
	if ok {
		metrics.CacheLookups.WithLabelValues(name, "hit").Inc()
		return rows, nil
	}
	metrics.CacheLookups.WithLabelValues(name, "miss").Inc()

	rows, err := t.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", name, err)
	}
	c.Set(rows, version)
	return rows, nil
}

func invalidate[T any](name string, c *cache.Collection[T]) {
	c.Invalidate()
	metrics.CacheInvalidations.WithLabelValues(name).Inc()
}

// Projects

func (s *Storage) Projects(ctx context.Context) ([]models.Project, error) {
	rows, err := s.tables.Projects.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return rows, nil
}

func (s *Storage) GetProject(ctx context.Context, id uint) (*models.Project, error) {
	row, err := s.tables.Projects.Get(ctx, id)
	return row, wrapErr(err, "get project")
}

func (s *Storage) CreateProject(ctx context.Context, in models.ProjectInput) (*models.Project, error) {
	p := in.ToProject()
	if p.TechStack == nil {
		p.TechStack = datatypes.JSONSlice[string]{}
	}
	if err := s.tables.Projects.Create(ctx, &p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	return &p, nil
}

func (s *Storage) UpdateProject(ctx context.Context, id uint, in models.ProjectInput) (*models.Project, error) {
	row, err := s.tables.Projects.Update(ctx, id, in.Changes())
	return row, wrapErr(err, "update project")
}

func (s *Storage) DeleteProject(ctx context.Context, id uint) error {
	return wrapErr(s.tables.Projects.Delete(ctx, id), "delete project")
}

// Skills

func (s *Storage) Skills(ctx context.Context) ([]models.Skill, error) {
	return cachedList(ctx, "skills", s.skillCache, s.tables.Skills)
}

func (s *Storage) GetSkill(ctx context.Context, id uint) (*models.Skill, error) {
	row, err := s.tables.Skills.Get(ctx, id)
	return row, wrapErr(err, "get skill")
}

func (s *Storage) CreateSkill(ctx context.Context, in models.SkillInput) (*models.Skill, error) {
	defer invalidate("skills", s.skillCache)

	sk := in.ToSkill()
	if err := s.tables.Skills.Create(ctx, &sk); err != nil {
		return nil, fmt.Errorf("create skill: %w", err)
	}
	return &sk, nil
}

func (s *Storage) UpdateSkill(ctx context.Context, id uint, in models.SkillInput) (*models.Skill, error) {
	defer invalidate("skills", s.skillCache)
	row, err := s.tables.Skills.Update(ctx, id, in.Changes())
	return row, wrapErr(err, "update skill")
}

func (s *Storage) DeleteSkill(ctx context.Context, id uint) error {
	defer invalidate("skills", s.skillCache)
	return wrapErr(s.tables.Skills.Delete(ctx, id), "delete skill")
}

// Experiences

func (s *Storage) Experiences(ctx context.Context) ([]models.Experience, error) {
	return cachedList(ctx, "experiences", s.experienceCache, s.tables.Experiences)
}

func (s *Storage) GetExperience(ctx context.Context, id uint) (*models.Experience, error) {
	row, err := s.tables.Experiences.Get(ctx, id)
	return row, wrapErr(err, "get experience")
}

func (s *Storage) CreateExperience(ctx context.Context, in models.ExperienceInput) (*models.Experience, error) {
	defer invalidate("experiences", s.experienceCache)

	e := in.ToExperience()
	if err := s.tables.Experiences.Create(ctx, &e); err != nil {
		return nil, fmt.Errorf("create experience: %w", err)
	}
	return &e, nil
}

func (s *Storage) UpdateExperience(ctx context.Context, id uint, in models.ExperienceInput) (*models.Experience, error) {
	defer invalidate("experiences", s.experienceCache)
	row, err := s.tables.Experiences.Update(ctx, id, in.Changes())
	return row, wrapErr(err, "update experience")
}

func (s *Storage) DeleteExperience(ctx context.Context, id uint) error {
	defer invalidate("experiences", s.experienceCache)
	return wrapErr(s.tables.Experiences.Delete(ctx, id), "delete experience")
}

// Messages

func (s *Storage) Messages(ctx context.Context) ([]models.Message, error) {
	rows, err := s.tables.Messages.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return rows, nil
}

func (s *Storage) GetMessage(ctx context.Context, id uint) (*models.Message, error) {
	row, err := s.tables.Messages.Get(ctx, id)
	return row, wrapErr(err, "get message")
}

// CreateMessage stamps CreatedAt with the server clock; it never changes after.
func (s *Storage) CreateMessage(ctx context.Context, in models.MessageInput) (*models.Message, error) {
	m := in.ToMessage()
	m.CreatedAt = s.now().UTC()
	if err := s.tables.Messages.Create(ctx, &m); err != nil {
		return nil, fmt.Errorf("create message: %w", err)
	}
	return &m, nil
}

func (s *Storage) DeleteMessage(ctx context.Context, id uint) error {
	return wrapErr(s.tables.Messages.Delete(ctx, id), "delete message")
}

// wrapErr adds context to storage faults and passes ErrNotFound through as is.
func wrapErr(err error, op string) error {
	if err == nil || errors.Is(err, ErrNotFound) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
