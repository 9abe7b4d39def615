package repository

import (
	"gorm.io/gorm"

	"github.com/navin3756/shipit/internal/models"
)

// ChangeChannel is the Postgres NOTIFY channel fired on any projects row change.
const ChangeChannel = "projects_changed"

// registerModels returns all models that need migration
func registerModels() []interface{} {
	return []interface{}{
		&models.ProjectRow{},
	}
}

// Migrate creates or updates the remote schema.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(registerModels()...); err != nil {
		return err
	}
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		addProjectChangeTrigger,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

// addProjectChangeTrigger publishes a notification for every statement that
// touches the projects table. Payload is the operation name only.
func addProjectChangeTrigger(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE OR REPLACE FUNCTION notify_projects_changed() RETURNS trigger AS $$
		BEGIN
			PERFORM pg_notify('` + ChangeChannel + `', TG_OP);
			RETURN NULL;
		END;
		$$ LANGUAGE plpgsql
	`).Error; err != nil {
		return err
	}
	if err := db.Exec(`DROP TRIGGER IF EXISTS projects_changed ON projects`).Error; err != nil {
		return err
	}
	return db.Exec(`
		CREATE TRIGGER projects_changed
		AFTER INSERT OR UPDATE OR DELETE ON projects
		FOR EACH STATEMENT EXECUTE FUNCTION notify_projects_changed()
	`).Error
}
