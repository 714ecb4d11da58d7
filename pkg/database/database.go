package database

import (
	"adaptive_assessment_backend/internal/config"
	"adaptive_assessment_backend/internal/model"
	"fmt"
	"log"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func InitDB(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=%t&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DBName,
		cfg.Charset,
		cfg.ParseTime,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Info),
	})

	if err != nil {
		return nil, err
	}

	log.Println("Database connection established")

	if err := Migrate(db); err != nil {
		return nil, err
	}

	log.Println("Database migration completed")

	seedTaxonomy(db)

	return db, nil
}

// Migrate applies the schema. Shared with the sqlite-backed test harness.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.Tag{},
		&model.Category{},
		&model.Question{},
		&model.QuestionVersion{},
		&model.Assessment{},
		&model.AssessmentQuestion{},
		&model.Attempt{},
	)
}

// seedTaxonomy inserts a starter taxonomy on an empty database.
func seedTaxonomy(db *gorm.DB) {
	var count int64
	db.Model(&model.Category{}).Count(&count)
	if count == 0 {
		defaults := []string{"Mathematics", "Science", "Language", "Programming"}
		for _, name := range defaults {
			db.Create(&model.Category{Name: name})
		}
	}

	db.Model(&model.Tag{}).Count(&count)
	if count == 0 {
		defaults := []string{"practice", "exam", "review", "diagnostic"}
		for _, name := range defaults {
			db.Create(&model.Tag{Name: name})
		}
	}
}
