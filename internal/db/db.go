package db

import (
	"fmt"

	"podsum/internal/auth"
	"podsum/internal/podcast"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(dsn string) (*gorm.DB, error) {
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	return gdb, nil
}

func AutoMigrateAndIndexes(gdb *gorm.DB) error {
	// Tables
	if err := gdb.AutoMigrate(
		&podcast.Podcast{},
		&auth.User{},
	); err != nil {
		return err
	}

	// Helpful indexes
	stmts := []string{
		`create index if not exists idx_podcasts_user_created on podcasts(user_id, created_at desc);`,
		`create index if not exists idx_podcasts_user_status on podcasts(user_id, status);`,
	}
	for _, s := range stmts {
		if err := gdb.Exec(s).Error; err != nil {
			return fmt.Errorf("index exec failed: %w (sql=%s)", err, s)
		}
	}

	// Guest user backs no-auth mode; every unauthenticated request is scoped
	// to this row.
	if err := gdb.Exec(`
insert into users (id, username, password_hash, created_at)
values (?, ?, ?, now())
on conflict (id) do nothing
`, auth.Guest.UserID, auth.Guest.Username, "nopass").Error; err != nil {
		return err
	}

	return nil
}
