package migrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"botfleet/internal/infra/database"
	"botfleet/pkg/logger"
)

// Migrator handles database migrations
type Migrator struct {
	db     *bun.DB
	logger logger.Logger
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *bun.DB, log logger.Logger) *Migrator {
	return &Migrator{
		db:     db,
		logger: log,
	}
}

func (m *Migrator) models() []interface{} {
	return []interface{}{
		(*database.BotInstanceModel)(nil),
		(*database.ServerModel)(nil),
		(*database.ActivityModel)(nil),
		(*database.CommandModel)(nil),
		(*database.GlobalRegistrationModel)(nil),
		(*database.OfferConfigModel)(nil),
	}
}

func tableNameOf(model interface{}) string {
	switch model.(type) {
	case *database.BotInstanceModel:
		return "bot_instances"
	case *database.ServerModel:
		return "servers"
	case *database.ActivityModel:
		return "activities"
	case *database.CommandModel:
		return "commands"
	case *database.GlobalRegistrationModel:
		return "global_registrations"
	case *database.OfferConfigModel:
		return "offer_configs"
	default:
		return "unknown"
	}
}

// Migrate runs all database migrations
func (m *Migrator) Migrate(ctx context.Context) error {
	m.logger.Info("starting database migrations")

	for _, model := range m.models() {
		if err := m.createTable(ctx, model); err != nil {
			return fmt.Errorf("failed to create table for model %T: %w", model, err)
		}
	}

	if err := m.createIndexes(ctx); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	if err := m.createTriggers(ctx); err != nil {
		return fmt.Errorf("failed to create triggers: %w", err)
	}

	m.logger.Info("database migrations completed successfully")
	return nil
}

// createTable creates a table if it doesn't exist
func (m *Migrator) createTable(ctx context.Context, model interface{}) error {
	tableName := tableNameOf(model)

	m.logger.InfoWithFields("creating table", logger.Fields{
		"table": tableName,
	})

	query := m.db.NewCreateTable().
		Model(model).
		IfNotExists()

	sqlQuery, args := query.AppendQuery(m.db.Formatter(), nil)
	m.logger.DebugWithFields("executing create table query", logger.Fields{
		"table": tableName,
		"sql":   string(sqlQuery),
		"args":  args,
	})

	if _, err := query.Exec(ctx); err != nil {
		m.logger.ErrorWithError("failed to create table", err, logger.Fields{
			"table": tableName,
			"sql":   string(sqlQuery),
		})
		return err
	}

	m.logger.InfoWithFields("table created or verified", logger.Fields{
		"table": tableName,
	})

	return nil
}

// createIndexes creates database indexes
func (m *Migrator) createIndexes(ctx context.Context) error {
	indexes := []string{
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_bot_instances_server_name ON bot_instances(server_name, name)",
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_bot_instances_server_phone ON bot_instances(server_name, phone_number)",
		"CREATE INDEX IF NOT EXISTS idx_bot_instances_status ON bot_instances(status)",
		"CREATE INDEX IF NOT EXISTS idx_bot_instances_approval_status ON bot_instances(approval_status)",
		"CREATE INDEX IF NOT EXISTS idx_bot_instances_phone_number ON bot_instances(phone_number)",

		"CREATE INDEX IF NOT EXISTS idx_activities_tenancy ON activities(tenancy)",
		"CREATE INDEX IF NOT EXISTS idx_activities_bot_id ON activities(bot_id)",
		"CREATE INDEX IF NOT EXISTS idx_activities_created_at ON activities(created_at)",

		"CREATE UNIQUE INDEX IF NOT EXISTS idx_commands_tenancy_trigger ON commands(tenancy, trigger)",

		"CREATE UNIQUE INDEX IF NOT EXISTS idx_global_registrations_phone ON global_registrations(phone_number)",
		"CREATE INDEX IF NOT EXISTS idx_global_registrations_tenancy ON global_registrations(tenancy)",
	}

	for _, indexSQL := range indexes {
		if _, err := m.db.ExecContext(ctx, indexSQL); err != nil {
			return fmt.Errorf("failed to create index: %s: %w", indexSQL, err)
		}
	}

	m.logger.InfoWithFields("database indexes created", logger.Fields{
		"count": len(indexes),
	})

	return nil
}

// createTriggers creates database triggers for automatic updated_at timestamps
func (m *Migrator) createTriggers(ctx context.Context) error {
	dialectName := fmt.Sprintf("%T", m.db.Dialect())

	tablesWithUpdatedAt := []string{"bot_instances", "servers", "commands", "global_registrations", "offer_configs"}

	var triggers []string

	switch dialectName {
	case "*sqlitedialect.Dialect":
		for _, table := range tablesWithUpdatedAt {
			pk := "id"
			if table == "servers" {
				pk = "name"
			} else if table == "global_registrations" {
				pk = "phone_number"
			} else if table == "offer_configs" {
				pk = "tenancy"
			}
			triggers = append(triggers, fmt.Sprintf(
				`CREATE TRIGGER IF NOT EXISTS update_%s_updated_at
				 AFTER UPDATE ON %s
				 BEGIN
				   UPDATE %s SET updated_at = CURRENT_TIMESTAMP WHERE %s = NEW.%s;
				 END`, table, table, table, pk, pk))
		}
	case "*pgdialect.Dialect":
		triggers = append(triggers, `CREATE OR REPLACE FUNCTION update_updated_at_column()
			 RETURNS TRIGGER AS $$
			 BEGIN
			   NEW.updated_at = CURRENT_TIMESTAMP;
			   RETURN NEW;
			 END;
			 $$ language 'plpgsql'`)
		for _, table := range tablesWithUpdatedAt {
			triggers = append(triggers,
				fmt.Sprintf(`DROP TRIGGER IF EXISTS update_%s_updated_at ON %s`, table, table),
				fmt.Sprintf(`CREATE TRIGGER update_%s_updated_at
				 BEFORE UPDATE ON %s
				 FOR EACH ROW EXECUTE FUNCTION update_updated_at_column()`, table, table))
		}
	default:
		m.logger.WarnWithFields("unknown database type, skipping triggers", logger.Fields{
			"database": dialectName,
		})
		return nil
	}

	for _, triggerSQL := range triggers {
		if _, err := m.db.ExecContext(ctx, triggerSQL); err != nil {
			return fmt.Errorf("failed to create trigger: %s: %w", triggerSQL, err)
		}
	}

	m.logger.InfoWithFields("database triggers created", logger.Fields{
		"count":    len(triggers),
		"database": dialectName,
	})

	return nil
}

// Drop drops all tables (useful for testing)
func (m *Migrator) Drop(ctx context.Context) error {
	m.logger.Warn("dropping all database tables")

	for _, model := range m.models() {
		if err := m.dropTable(ctx, model); err != nil {
			return fmt.Errorf("failed to drop table for model %T: %w", model, err)
		}
	}

	m.logger.Info("all database tables dropped")
	return nil
}

// dropTable drops a table
func (m *Migrator) dropTable(ctx context.Context, model interface{}) error {
	_, err := m.db.NewDropTable().
		Model(model).
		IfExists().
		Exec(ctx)

	if err != nil {
		return err
	}

	m.logger.InfoWithFields("table dropped", logger.Fields{
		"table": tableNameOf(model),
	})

	return nil
}

// Reset drops and recreates all tables
func (m *Migrator) Reset(ctx context.Context) error {
	m.logger.Warn("resetting database (drop and recreate all tables)")

	if err := m.Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}

	if err := m.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to recreate tables: %w", err)
	}

	m.logger.Info("database reset completed")
	return nil
}
