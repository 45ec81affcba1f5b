package app

import (
	"context"
	"errors"
	"time"

	"learnfinity/internal/config"
	"learnfinity/internal/database"
	dbpostgres "learnfinity/internal/database/postgres"
	"learnfinity/internal/events"
	"learnfinity/internal/infrastructure/cache"
	"learnfinity/internal/llm"
	"learnfinity/internal/metrics"
	"learnfinity/internal/pkg/jwt"
	"learnfinity/internal/pkg/logger"
	"learnfinity/internal/repository"
	"learnfinity/internal/usecase"
	"learnfinity/internal/worker"
	"learnfinity/internal/ws"
)

type Repositories struct {
	Taxonomy  *repository.PostgresTaxonomyRepository
	Employees *repository.PostgresEmployeeRepository
	Skills    *repository.PostgresEmployeeSkillRepository
	Logs      *repository.PostgresNormalizationLogRepository
	Positions *repository.PostgresPositionRepository
	Courses   *repository.PostgresCourseRepository
	Content   *repository.PostgresContentRepository
	Jobs      *repository.PostgresPersonalizationJobRepository
	Profiles  *repository.PostgresUserProfileRepository
	Invites   *repository.PostgresInviteRepository
	Paths     *repository.PostgresLearningPathRepository
}

type Usecases struct {
	Taxonomy        *usecase.Taxonomy
	Normalization   *usecase.Normalization
	Employees       *usecase.Employees
	Skills          *usecase.EmployeeSkills
	Positions       *usecase.Positions
	Gaps            *usecase.Gaps
	CV              *usecase.CV
	Personalization *usecase.Personalization
	LearningPaths   *usecase.LearningPaths
	Courses         *usecase.Courses
	Chat            *usecase.Chat
	Users           *usecase.Users
	Invites         *usecase.Invites
	Sessions        *usecase.Sessions
}

// Container owns every long-lived dependency of a process. Both the HTTP
// server and the CLI build one.
type Container struct {
	Config config.Config
	Log    *logger.Logger
	DB     database.DB
	Redis  *cache.Redis
	LLM    *llm.Client
	JWT    *jwt.HMACService
	Hub    *ws.Hub
	Events events.Publisher
	Repos  Repositories
	UC     Usecases

	amqp      *events.AMQPPublisher
	completer llm.Completer
}

type Option func(*Container)

// WithCompleter replaces the model client used by the usecases.
func WithCompleter(completer llm.Completer) Option {
	return func(c *Container) { c.completer = completer }
}

func NewContainer(cfg config.Config, log *logger.Logger, opts ...Option) (*Container, error) {
	if log == nil {
		log = logger.Nop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := dbpostgres.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	c := &Container{Config: cfg, Log: log, DB: db}
	for _, opt := range opts {
		opt(c)
	}
	c.Redis = cache.NewRedis(ctx, cfg.Redis, log.With("component", "redis"))
	c.LLM = llm.New(cfg.LLM, cfg.Features.EnableLLM, log.With("component", "llm"))
	c.JWT = jwt.NewHMACService(cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret, cfg.JWT.AccessExpiresIn, cfg.JWT.RefreshExpiresIn)

	publishers := events.Fanout{}
	if cfg.Features.EnableWebSocket {
		c.Hub = ws.NewHub(log.With("component", "ws"))
		publishers = append(publishers, c.Hub)
	}
	if cfg.Features.EnableEvents {
		amqp, err := events.NewAMQPPublisher(cfg.Events, log.With("component", "events"))
		if err != nil {
			// Events are best effort; the rest of the service still works.
			log.Warn("event publisher unavailable", "error", err)
		} else {
			c.amqp = amqp
			publishers = append(publishers, amqp)
		}
	}
	c.Events = publishers

	c.Repos = newRepositories(db)
	if c.completer == nil {
		c.completer = c.LLM
	}
	c.UC = newUsecases(cfg, log, c.Repos, c.Redis, c.completer, c.Events, c.JWT)
	return c, nil
}

func newRepositories(db database.DB) Repositories {
	return Repositories{
		Taxonomy:  repository.NewPostgresTaxonomyRepository(db),
		Employees: repository.NewPostgresEmployeeRepository(db),
		Skills:    repository.NewPostgresEmployeeSkillRepository(db),
		Logs:      repository.NewPostgresNormalizationLogRepository(db),
		Positions: repository.NewPostgresPositionRepository(db),
		Courses:   repository.NewPostgresCourseRepository(db),
		Content:   repository.NewPostgresContentRepository(db),
		Jobs:      repository.NewPostgresPersonalizationJobRepository(db),
		Profiles:  repository.NewPostgresUserProfileRepository(db),
		Invites:   repository.NewPostgresInviteRepository(db),
		Paths:     repository.NewPostgresLearningPathRepository(db),
	}
}

func newUsecases(cfg config.Config, log *logger.Logger, r Repositories, redis *cache.Redis, completer llm.Completer, publisher events.Publisher, tokens jwt.Service) Usecases {
	var uc Usecases
	uc.Taxonomy = usecase.NewTaxonomyUsecase(r.Taxonomy, redis, log)
	uc.Normalization = usecase.NewNormalizationUsecase(uc.Taxonomy, r.Taxonomy, r.Skills, r.Employees, r.Logs, publisher, log)
	uc.Employees = usecase.NewEmployeeUsecase(r.Employees, r.Positions)
	uc.Skills = usecase.NewEmployeeSkillUsecase(r.Skills, r.Employees, r.Taxonomy, uc.Normalization, log)
	uc.Positions = usecase.NewPositionUsecase(r.Positions, r.Taxonomy)
	uc.Gaps = usecase.NewGapUsecase(r.Employees, r.Skills, r.Positions)
	uc.CV = usecase.NewCVUsecase(r.Employees, r.Skills, uc.Normalization, completer, log)
	uc.Personalization = usecase.NewPersonalizationUsecase(usecase.PersonalizationDeps{
		Courses:   r.Courses,
		Employees: r.Employees,
		Content:   r.Content,
		Jobs:      r.Jobs,
		Gaps:      uc.Gaps,
		LLM:       completer,
		Cache:     redis,
		Events:    publisher,
	}, cfg, log)
	uc.LearningPaths = usecase.NewLearningPathUsecase(usecase.LearningPathDeps{
		Paths:     r.Paths,
		Courses:   r.Courses,
		Employees: r.Employees,
		Gaps:      uc.Gaps,
		LLM:       completer,
		Cache:     redis,
		Events:    publisher,
	}, cfg, log)
	uc.Courses = usecase.NewCourseUsecase(r.Courses, r.Employees, r.Content, uc.Gaps, uc.Personalization, cfg.Features, log)
	uc.Chat = usecase.NewChatUsecase(completer, cfg.Features, log)
	uc.Users = usecase.NewUserUsecase(r.Profiles)
	uc.Invites = usecase.NewInviteUsecase(r.Invites, r.Profiles, cfg.Invite, log)
	uc.Sessions = usecase.NewSessionUsecase(tokens, uc.Users, log)
	return uc
}

// ExportGauges publishes pool and websocket occupancy. The server calls it
// once; the collectors are process-wide.
func (c *Container) ExportGauges() {
	if p, ok := c.DB.(interface{ Stats() (int32, int32, int32) }); ok {
		metrics.WatchPool(p.Stats)
	}
	if c.Hub != nil {
		metrics.WatchHub(c.Hub.ClientCount)
	}
}

// QueueWorker builds the personalization worker over the job table.
func (c *Container) QueueWorker() *worker.QueueWorker {
	return worker.NewQueueWorker(c.Repos.Jobs, c.UC.Personalization, c.Config.Worker, c.Log.With("component", "worker"))
}

func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	var errs []error
	if c.amqp != nil {
		errs = append(errs, c.amqp.Close())
	}
	if c.Redis != nil {
		errs = append(errs, c.Redis.Close())
	}
	if c.DB != nil {
		errs = append(errs, c.DB.Close())
	}
	return errors.Join(errs...)
}
