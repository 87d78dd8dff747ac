package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/XrOne/studio-jenial-sub004/internal/logger"
	"github.com/XrOne/studio-jenial-sub004/internal/types"
	"github.com/XrOne/studio-jenial-sub004/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	log.Info("Loading environment variables...")
	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "storyboard", log)
	log.Debug("Environment variables loaded")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("Failed to connect to Postgres: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.Project{},
		&types.Track{},
		&types.Segment{},
		&types.Revision{},
		&types.Asset{},
		&types.Keyframe{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{"fk_track_project_id", `
			ALTER TABLE "track"
			ADD CONSTRAINT "fk_track_project_id"
			FOREIGN KEY ("project_id")
			REFERENCES "project"("id")
			ON DELETE CASCADE`},
		{"fk_segment_track_id", `
			ALTER TABLE "segment"
			ADD CONSTRAINT "fk_segment_track_id"
			FOREIGN KEY ("track_id")
			REFERENCES "track"("id")
			ON DELETE CASCADE`},
		{"fk_revision_segment_id", `
			ALTER TABLE "revision"
			ADD CONSTRAINT "fk_revision_segment_id"
			FOREIGN KEY ("segment_id")
			REFERENCES "segment"("id")
			ON DELETE CASCADE`},
		{"fk_keyframe_revision_id", `
			ALTER TABLE "keyframe"
			ADD CONSTRAINT "fk_keyframe_revision_id"
			FOREIGN KEY ("revision_id")
			REFERENCES "revision"("id")
			ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		stmt := fmt.Sprintf(`
			DO $$ BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					%s;
				END IF;
			END $$;`, c.name, c.stmt)
		if err := s.db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("Failed to add %s: %w", c.name, err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
