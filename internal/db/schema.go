package db

import "gorm.io/gorm"

// EnsureSchema creates the named Postgres schema if it does not exist yet.
// Feature packages call this from their Init before migrating tables.
func EnsureSchema(d *gorm.DB, schema string) error {
	return d.Exec(`CREATE SCHEMA IF NOT EXISTS "` + schema + `"`).Error
}
