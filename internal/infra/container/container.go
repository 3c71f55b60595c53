package container

import (
	"context"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3" // sqlite driver, shared by bun and whatsmeow's sqlstore
	"github.com/uptrace/bun"
	"go.mau.fi/whatsmeow/store/sqlstore"

	"botfleet/internal/domain/bot"
	"botfleet/internal/domain/registry"
	domainworker "botfleet/internal/domain/worker"
	"botfleet/internal/infra/adminauth"
	"botfleet/internal/infra/broadcast"
	"botfleet/internal/infra/config"
	"botfleet/internal/infra/credential"
	"botfleet/internal/infra/database"
	"botfleet/internal/infra/database/migrations"
	"botfleet/internal/infra/guestauth"
	"botfleet/internal/infra/guestsession"
	infraLogger "botfleet/internal/infra/logger"
	"botfleet/internal/infra/repository"
	infrarpc "botfleet/internal/infra/rpc"
	"botfleet/internal/infra/worker"
	botuc "botfleet/internal/usecases/bot"
	guestuc "botfleet/internal/usecases/guest"
	registryuc "botfleet/internal/usecases/registry"
	rpcuc "botfleet/internal/usecases/rpc"
	"botfleet/pkg/logger"
	"botfleet/pkg/validator"
)

// guestSweepInterval is how often the Container sweeps expired guest
// sessions and OTPs out of the in-memory Store.
const guestSweepInterval = 5 * time.Minute

// Container holds every infrastructure and use-case dependency this
// tenancy process needs, wired once at startup.
type Container struct {
	Config *config.Config

	Logger    logger.Logger
	Validator validator.Validator
	DB        *bun.DB

	DBConnection database.Connection
	Migrator     *migrations.Migrator

	Tenancy bot.TenancyName

	BotRepo          bot.Repository
	ServerRepo       registry.ServerRepository
	ActivityRepo     registry.ActivityRepository
	CommandRepo      registry.CommandRepository
	RegistrationRepo registry.GlobalRegistrationRepository
	OfferRepo        registry.OfferRepository

	WhatsAppStore *sqlstore.Container
	WorkerFactory domainworker.Factory
	Supervisor    *worker.Supervisor
	Broadcaster   *broadcast.Broadcaster
	UnitOfWork    *repository.UnitOfWork

	Vault         *credential.Vault
	GuestSessions *guestsession.Store
	GuestTokens   *guestauth.Issuer
	AdminAuth     *adminauth.Issuer
	RPCSigner     *infrarpc.Signer
	RPCClient     *infrarpc.Client

	Placement     *registryuc.PlacementEngine
	RPCDispatcher *rpcuc.Dispatcher
	DirectUpdater *rpcuc.DirectUpdater
	GuestUseCase  *guestuc.UseCase
	BotRegister   *botuc.RegisterUseCase
	BotLifecycle  *botuc.LifecycleUseCase
	BotQuery      *botuc.QueryUseCase
	BotControl    *botuc.ControlUseCase

	isInitialized bool
	cancelSweeper context.CancelFunc
}

// New creates and wires a Container for a single tenancy process.
func New(cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}
	if err := c.initialize(); err != nil {
		return nil, fmt.Errorf("failed to initialize container: %w", err)
	}
	return c, nil
}

func (c *Container) initialize() error {
	c.initializeLogger()
	c.Logger.Info("initializing infrastructure container")

	c.initializeValidator()

	if err := c.initializeDatabase(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := c.initializeTenancy(); err != nil {
		return fmt.Errorf("failed to initialize tenancy: %w", err)
	}

	c.initializeRepositories()

	if err := c.initializeWhatsAppStore(); err != nil {
		return fmt.Errorf("failed to initialize whatsapp store: %w", err)
	}

	c.initializeSecurity()
	c.initializeWorker()
	c.initializeUseCases()

	c.isInitialized = true
	c.Logger.Info("infrastructure container initialized successfully")
	return nil
}

func (c *Container) initializeLogger() {
	c.Logger = infraLogger.New(&c.Config.Log)
}

func (c *Container) initializeValidator() {
	c.Validator = validator.New()
}

func (c *Container) initializeDatabase() error {
	dbConn, err := database.New(&c.Config.Database, c.Logger)
	if err != nil {
		return fmt.Errorf("failed to create database connection: %w", err)
	}
	c.DBConnection = dbConn
	c.DB = dbConn.GetDB()

	c.Migrator = migrations.NewMigrator(c.DB, c.Logger)
	if c.Config.Database.AutoMigrate {
		if err := c.Migrator.Migrate(context.Background()); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
	}
	return nil
}

// initializeTenancy resolves this process's canonical tenancy name and
// ensures a matching row exists in the Server catalog, self-registering it
// on first boot with the configured default bot capacity.
func (c *Container) initializeTenancy() error {
	name := c.Config.EffectiveServerName()
	tenancy, err := bot.NewTenancyName(name)
	if err != nil {
		return fmt.Errorf("invalid tenancy server name %q: %w", name, err)
	}
	c.Tenancy = tenancy

	repo := repository.NewServerRepository(c.DB, c.Logger)
	ctx := context.Background()
	if _, err := repo.GetByName(ctx, tenancy.String()); err != nil {
		self := &registry.Server{
			Name:     tenancy.String(),
			Capacity: c.Config.Tenancy.BotCount,
			Healthy:  true,
		}
		if err := repo.Create(ctx, self); err != nil {
			return fmt.Errorf("failed to self-register tenancy %q: %w", tenancy.String(), err)
		}
		c.Logger.InfoWithFields("self-registered tenancy in server catalog", logger.Fields{
			"tenancy": tenancy.String(), "capacity": self.Capacity,
		})
	}
	c.ServerRepo = repo
	return nil
}

func (c *Container) initializeRepositories() {
	c.BotRepo = repository.NewBotRepository(c.DB, c.Logger)
	c.ActivityRepo = repository.NewActivityRepository(c.DB, c.Logger)
	c.CommandRepo = repository.NewCommandRepository(c.DB, c.Logger)
	c.RegistrationRepo = repository.NewGlobalRegistrationRepository(c.DB, c.Logger)
	c.OfferRepo = repository.NewOfferRepository(c.DB, c.Logger)
	c.Logger.Info("repositories initialized")
}

// initializeWhatsAppStore creates the shared whatsmeow device container on
// the same database as everything else, the way the teacher's container
// did it, now shared by every Worker the Supervisor spins up.
func (c *Container) initializeWhatsAppStore() error {
	dbURL := c.Config.Database.URL
	dbDriver := c.Config.Database.Driver

	switch dbDriver {
	case "sqlite", "sqlite3":
		dbDriver = "sqlite3"
		if !strings.Contains(dbURL, ":memory:") && !strings.Contains(dbURL, "mode=memory") && !strings.Contains(dbURL, "_foreign_keys") {
			if strings.Contains(dbURL, "?") {
				dbURL += "&_foreign_keys=on"
			} else {
				dbURL += "?_foreign_keys=on"
			}
		}
	case "postgres", "postgresql":
		dbDriver = "postgres"
	default:
		return fmt.Errorf("unsupported database driver for whatsapp store: %s", dbDriver)
	}

	waLogger := worker.NewLoggerAdapter(c.Logger, "whatsmeow")
	store, err := sqlstore.New(context.Background(), dbDriver, dbURL, waLogger)
	if err != nil {
		return fmt.Errorf("failed to create whatsapp store: %w", err)
	}
	if err := store.Upgrade(context.Background()); err != nil {
		return fmt.Errorf("failed to upgrade whatsapp store: %w", err)
	}
	c.WhatsAppStore = store
	return nil
}

// initializeSecurity wires the three auth planes and the credential vault.
// The admin and guest token issuers are each keyed by their own
// environment-injected secret; RPC shared secrets come from the Server catalog.
func (c *Container) initializeSecurity() {
	c.Vault = credential.NewVault("./auth", c.Logger)
	c.GuestSessions = guestsession.NewStore(c.Logger)
	c.GuestTokens = guestauth.NewIssuer(c.Config.Guest.JWTSecret, c.Config.RPC.ClockSkewTolerance)
	c.AdminAuth = adminauth.NewIssuer(c.Config.Admin.BootstrapPassword, c.Config.Admin.JWTSecret, c.Config.RPC.ClockSkewTolerance)
	c.RPCSigner = infrarpc.NewSigner(c.Config.RPC.ClockSkewTolerance)
	c.RPCClient = infrarpc.NewClient(c.Tenancy.String(), c.Config.RPC.RequestTimeout, c.Config.RPC.ClockSkewTolerance, c.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelSweeper = cancel
	go c.GuestSessions.RunSweeper(ctx, guestSweepInterval)
}

func (c *Container) initializeWorker() {
	c.WorkerFactory = worker.NewFactory(c.WhatsAppStore, c.Logger)
	c.Broadcaster = broadcast.NewBroadcaster(256)
	c.Supervisor = worker.NewSupervisor(c.Tenancy, c.WorkerFactory, c.BotRepo, c.ActivityRepo, c.RegistrationRepo, c.ServerRepo, c.Broadcaster, c.Logger)
}

func (c *Container) initializeUseCases() {
	c.UnitOfWork = repository.NewUnitOfWork(c.DB, c.Logger)
	c.Placement = registryuc.NewPlacementEngine(c.ServerRepo, c.RegistrationRepo, c.BotRepo, c.UnitOfWork, c.Logger)
	c.RPCDispatcher = rpcuc.NewDispatcher(c.BotRepo, c.ActivityRepo, c.Supervisor, c.Tenancy, c.Logger)
	c.DirectUpdater = rpcuc.NewDirectUpdater(c.BotRepo, c.RegistrationRepo, c.ActivityRepo, c.Logger)
	c.GuestUseCase = guestuc.NewUseCase(c.BotRepo, c.RegistrationRepo, c.GuestSessions, c.GuestTokens, c.Vault, c.Supervisor, c.Tenancy, c.Logger)

	c.BotRegister = botuc.NewRegisterUseCase(c.BotRepo, c.OfferRepo, c.Placement, c.Vault, c.Tenancy.String(), c.Logger, c.Validator)
	c.BotLifecycle = botuc.NewLifecycleUseCase(c.BotRepo, c.Supervisor, c.Placement, c.Logger)
	c.BotQuery = botuc.NewQueryUseCase(c.BotRepo, c.Supervisor)
	c.BotControl = botuc.NewControlUseCase(c.BotRepo, c.Supervisor)
}

// ResumeBots starts every eligible approved bot's Worker, staggered by the
// Supervisor. Called once at process startup, after routes are mounted.
func (c *Container) ResumeBots(ctx context.Context) error {
	return c.Supervisor.ResumeAll(ctx, c.Tenancy)
}

// Close gracefully shuts down every infrastructure component that owns a
// background goroutine or an external connection.
func (c *Container) Close() error {
	if !c.isInitialized {
		return nil
	}
	c.Logger.Info("shutting down infrastructure container")

	var errs []error

	if c.cancelSweeper != nil {
		c.cancelSweeper()
	}

	if c.WhatsAppStore != nil {
		if err := c.WhatsAppStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close whatsapp store: %w", err))
		}
	}

	if c.DBConnection != nil {
		if err := c.DBConnection.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database connection: %w", err))
		}
	}

	if len(errs) > 0 {
		for _, err := range errs {
			c.Logger.ErrorWithError("error during container shutdown", err, nil)
		}
		return fmt.Errorf("multiple errors during shutdown: %v", errs)
	}

	c.Logger.Info("infrastructure container shut down successfully")
	return nil
}

// Health reports whether the database connection is reachable.
func (c *Container) Health() error {
	if !c.isInitialized {
		return fmt.Errorf("container not initialized")
	}
	if err := c.DBConnection.Health(); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}

// IsInitialized returns true once initialize has completed successfully.
func (c *Container) IsInitialized() bool {
	return c.isInitialized
}

// GetDatabaseStats returns the underlying sql.DB connection pool stats.
func (c *Container) GetDatabaseStats() interface{} {
	if c.DB == nil {
		return nil
	}
	return c.DB.DB.Stats()
}

// ResetDatabase drops and recreates all database tables.
func (c *Container) ResetDatabase() error {
	if c.Migrator == nil {
		return fmt.Errorf("migrator not initialized")
	}
	c.Logger.Warn("resetting database")
	return c.Migrator.Reset(context.Background())
}

// MigrateDatabase runs database migrations.
func (c *Container) MigrateDatabase() error {
	if c.Migrator == nil {
		return fmt.Errorf("migrator not initialized")
	}
	c.Logger.Info("running database migrations")
	return c.Migrator.Migrate(context.Background())
}
