package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"newsletter-backend/internal/config"
	infraCache "newsletter-backend/internal/infrastructure/cache"
	"newsletter-backend/internal/infrastructure/database"
	"newsletter-backend/internal/infrastructure/sanitize"
	"newsletter-backend/internal/infrastructure/search"
	"newsletter-backend/internal/infrastructure/storage"
	"newsletter-backend/pkg/cache"
	"newsletter-backend/pkg/jwt"

	auditHandler "newsletter-backend/internal/domains/audit/handler"
	auditRepo "newsletter-backend/internal/domains/audit/repository"
	auditService "newsletter-backend/internal/domains/audit/service"
	issueHandler "newsletter-backend/internal/domains/issue/handler"
	issueRepo "newsletter-backend/internal/domains/issue/repository"
	issueService "newsletter-backend/internal/domains/issue/service"
	lockHandler "newsletter-backend/internal/domains/lock/handler"
	lockRepo "newsletter-backend/internal/domains/lock/repository"
	lockService "newsletter-backend/internal/domains/lock/service"
	mediaHandler "newsletter-backend/internal/domains/media/handler"
	mediaRepo "newsletter-backend/internal/domains/media/repository"
	mediaService "newsletter-backend/internal/domains/media/service"
	sectionHandler "newsletter-backend/internal/domains/section/handler"
	sectionRepo "newsletter-backend/internal/domains/section/repository"
	sectionService "newsletter-backend/internal/domains/section/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph. One instance per
// process; everything in it is a singleton.
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================

	Config     *config.Config
	DB         *database.PostgresDB
	Cache      cache.Cache
	JWTManager *jwt.Manager
	Storage    *storage.MinIOStorage
	Search     *search.Meili
	Sanitizer  *sanitize.Sanitizer

	// ========================================
	// REPOSITORY LAYER (DATA ACCESS)
	// ========================================

	AuditRepo   auditRepo.AuditRepository
	LockRepo    lockRepo.LockRepository
	IssueRepo   issueRepo.IssueRepository
	SectionRepo sectionRepo.SectionRepository
	MediaRepo   mediaRepo.MediaRepository

	// ========================================
	// SERVICE LAYER (BUSINESS LOGIC)
	// ========================================

	AuditService   auditService.ServiceInterface
	LockService    lockService.ServiceInterface
	IssueService   issueService.ServiceInterface
	SectionService sectionService.ServiceInterface
	MediaService   mediaService.ServiceInterface

	// ========================================
	// HANDLER LAYER (HTTP)
	// ========================================

	AuditHandler   *auditHandler.AuditHandler
	LockHandler    *lockHandler.LockHandler
	IssueHandler   *issueHandler.IssueHandler
	SectionHandler *sectionHandler.SectionHandler
	MediaHandler   *mediaHandler.MediaHandler
	SearchHandler  *issueHandler.SearchHandler
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer initializes the whole dependency graph in order:
// config, infrastructure, repositories, services, handlers. A wrong
// order would be a nil pointer at startup, so the steps are explicit.
func NewContainer() (*Container, error) {
	log.Println("[Container] Initializing...")

	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("[Container] Config loaded (environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE DATABASE
	// ========================================
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	log.Println("[Container] Database connected")

	// ========================================
	// STEP 3: INITIALIZE CACHE
	// ========================================
	redisCache := infraCache.NewRedisCache(
		cfg.Redis.Host,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)

	// Redis failure is non-critical: the cache layer degrades to
	// straight database reads.
	if rc, ok := redisCache.(*infraCache.RedisCache); ok {
		if err := rc.Connect(context.Background()); err != nil {
			log.Printf("[Container] Redis connection failed (non-critical): %v", err)
		}
	}
	c.Cache = redisCache

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret)

	// ========================================
	// STEP 4: INITIALIZE STORAGE AND SEARCH
	// ========================================
	minioStorage, err := storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		return nil, fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Storage = minioStorage
	log.Println("[Container] Object storage ready")

	c.Search = search.NewMeili(cfg.Meili.URL, cfg.Meili.APIKey)
	c.Sanitizer = sanitize.NewSanitizer()

	// ========================================
	// STEP 5: REPOSITORIES
	// ========================================
	pool := c.DB.Pool

	c.AuditRepo = auditRepo.NewPostgresAuditRepository(pool)
	c.LockRepo = lockRepo.NewPostgresLockRepository(pool)
	c.IssueRepo = issueRepo.NewPostgresIssueRepository(pool)
	c.SectionRepo = sectionRepo.NewPostgresSectionRepository(pool)
	c.MediaRepo = mediaRepo.NewPostgresMediaRepository(pool)

	// ========================================
	// STEP 6: SERVICES
	// ========================================
	c.AuditService = auditService.NewAuditService(c.AuditRepo)
	c.LockService = lockService.NewLockService(
		c.LockRepo,
		time.Duration(cfg.Lock.StaleThresholdSeconds)*time.Second,
	)
	c.SectionService = sectionService.NewSectionService(
		c.SectionRepo,
		c.AuditService,
		c.Cache,
		c.Sanitizer.Clean,
	)
	c.IssueService = issueService.NewIssueService(
		c.IssueRepo,
		c.SectionRepo,
		c.AuditService,
		c.Cache,
		c.Search,
	)
	c.MediaService = mediaService.NewMediaService(
		c.MediaRepo,
		c.Storage,
		c.AuditService,
	)

	// ========================================
	// STEP 7: HANDLERS
	// ========================================
	c.AuditHandler = auditHandler.NewAuditHandler(c.AuditService)
	c.LockHandler = lockHandler.NewLockHandler(c.LockService)
	c.IssueHandler = issueHandler.NewIssueHandler(c.IssueService)
	c.SectionHandler = sectionHandler.NewSectionHandler(c.SectionService)
	c.MediaHandler = mediaHandler.NewMediaHandler(c.MediaService)
	c.SearchHandler = issueHandler.NewSearchHandler(c.Search)

	log.Println("[Container] Initialized successfully")
	return c, nil
}

// ========================================
// CLEANUP
// ========================================

// Cleanup closes external connections in reverse initialization order.
func (c *Container) Cleanup() {
	log.Println("[Container] Cleaning up...")

	if c.Search != nil {
		c.Search.Close()
	}

	if rc, ok := c.Cache.(*infraCache.RedisCache); ok {
		if err := rc.Close(); err != nil {
			log.Printf("[Container] Failed to close Redis: %v", err)
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Println("[Container] Cleanup complete")
}
