package database

import (
	"fmt"
	"time"

	"orubacontacts/internal/models"

	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Driver       string
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	DSN          string
	MaxIdleConns int
	MaxOpenConns int
	LogSQL       bool
}

func dialector(config Config) (gorm.Dialector, error) {
	switch config.Driver {
	case "", "postgres":
		dsn := config.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode,
			)
		}
		return postgres.Open(dsn), nil
	case "mysql":
		dsn := config.DSN
		if dsn == "" {
			dsn = fmt.Sprintf(
				"%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
				config.User, config.Password, config.Host, config.Port, config.DBName,
			)
		}
		return mysql.Open(dsn), nil
	case "sqlite":
		dsn := config.DSN
		if dsn == "" {
			dsn = config.DBName + ".db"
		}
		return sqlite.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", config.Driver)
	}
}

func Connect(config Config, log *zap.Logger) (*gorm.DB, error) {
	dial, err := dialector(config)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Warn
	if config.LogSQL {
		logLevel = logger.Info
	}

	db, err := gorm.Open(dial, &gorm.Config{
		Logger: logger.New(zap.NewStdLog(log), logger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      logLevel,

			// пустая очередь - штатная ситуация, не ошибка
			IgnoreRecordNotFoundError: true,
		}),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
		// нарушения уникальности приходят как gorm.ErrDuplicatedKey
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if config.Driver == "sqlite" {
		// sqlite допускает одного писателя
		sqlDB.SetMaxOpenConns(1)
		if err := db.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
		}
	} else {
		sqlDB.SetMaxIdleConns(config.MaxIdleConns)
		sqlDB.SetMaxOpenConns(config.MaxOpenConns)
		sqlDB.SetConnMaxLifetime(time.Hour)
	}

	log.Info("Database connected", zap.String("driver", db.Dialector.Name()))
	return db, nil
}

func Migrate(db *gorm.DB, log *zap.Logger) error {
	err := db.AutoMigrate(
		&models.RawRecord{},
		&models.Phone{},
		&models.Email{},
		&models.JobTitle{},
		&models.City{},
		&models.HospitalType{},
		&models.HospitalSubtype{},
		&models.HospitalReference{},
		&models.Contact{},
		&models.ImportRun{},
	)
	if err != nil {
		return fmt.Errorf("failed to migrate models: %w", err)
	}

	if err := createIndexes(db); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.Info("Database migration completed")
	return nil
}

func createIndexes(db *gorm.DB) error {
	// выбор следующей записи: is_fully_matched = false, сортировка по created_at
	if !db.Migrator().HasIndex(&models.RawRecord{}, "idx_raw_records_queue") {
		if err := db.Exec("CREATE INDEX idx_raw_records_queue ON raw_records(is_fully_matched, locked_by, created_at)").Error; err != nil {
			return err
		}
	}

	if !db.Migrator().HasIndex(&models.Phone{}, "idx_phones_record_matched") {
		if err := db.Exec("CREATE INDEX idx_phones_record_matched ON phones(raw_record_id, is_matched)").Error; err != nil {
			return err
		}
	}

	if !db.Migrator().HasIndex(&models.Email{}, "idx_emails_record_matched") {
		if err := db.Exec("CREATE INDEX idx_emails_record_matched ON emails(raw_record_id, is_matched)").Error; err != nil {
			return err
		}
	}

	return nil
}
