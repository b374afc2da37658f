package main

import (
	"gorm.io/gorm"

	"school-sos-go/internal/config"
	"school-sos-go/internal/db"
	"school-sos-go/pkg/logger"
)

// withDB opens only the database; migrate commands must work before the
// schema the services expect exists.
func withDB(log logger.Logger, fn func(conn *gorm.DB) error) error {
	cfg, err := config.Load(log)
	if err != nil {
		return err
	}
	dbConn, err := db.NewPostgres(cfg.DB, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(dbConn); err != nil {
			log.Error("schoolctl: close failed", "err", err)
		}
	}()
	return fn(dbConn)
}
