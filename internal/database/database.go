package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/joho/godotenv/autoload"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Jaychangani2005/StackIt/internal/models"
)

// Database is a plain database/sql connection (pgx driver) used for the
// startup schema step: constraints the ORM's AutoMigrate cannot
// express.
type Database struct {
	DB *sql.DB
}

func NewDatabase() (*Database, error) {
	db, err := sql.Open("pgx", dsnFromEnv())
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	log.Println("✅ Database connected successfully")

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	return d.DB.Close()
}

// Initialize applies the vote-ledger constraints. It runs once during
// process bootstrap, after AutoMigrate has created the tables; request
// handlers never touch the schema.
func (d *Database) Initialize() error {
	if err := EnforceLedgerSchema(d.DB); err != nil {
		return fmt.Errorf("error enforcing ledger schema: %w", err)
	}

	log.Println("✅ Database ledger constraints verified")
	return nil
}

// EnforceLedgerSchema installs the constraints that make the vote
// ledger trustworthy: one vote per (user, target), a valid direction,
// and exactly one of question_id/answer_id per row. Partial unique
// indexes are used because plain unique indexes on nullable columns do
// not constrain NULLs in Postgres.
func EnforceLedgerSchema(db *sql.DB) error {
	ddl := `
    ALTER TABLE votes DROP CONSTRAINT IF EXISTS votes_vote_type_check;
    ALTER TABLE votes ADD CONSTRAINT votes_vote_type_check CHECK (vote_type IN (-1, 1));

    ALTER TABLE votes DROP CONSTRAINT IF EXISTS votes_single_target_check;
    ALTER TABLE votes ADD CONSTRAINT votes_single_target_check
        CHECK ((question_id IS NULL) <> (answer_id IS NULL));

    CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_voter_question
        ON votes (user_id, question_id) WHERE question_id IS NOT NULL;
    CREATE UNIQUE INDEX IF NOT EXISTS idx_votes_voter_answer
        ON votes (user_id, answer_id) WHERE answer_id IS NOT NULL;
    `

	if _, err := db.Exec(ddl); err != nil {
		return err
	}
	return nil
}

// Service represents a service that interacts with a database.
type Service interface {
	// Health returns a map of health status information.
	// The keys and values in the map are service-specific.
	Health() map[string]string

	// Close terminates the database connection.
	// It returns an error if the connection cannot be closed.
	Close() error
	GetDB() *gorm.DB
}

type service struct {
	db *gorm.DB
}

var dbInstance *service

func dsnFromEnv() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		os.Getenv("DB_HOST"),
		os.Getenv("DB_PORT"),
		os.Getenv("DB_USER"),
		os.Getenv("DB_PASSWORD"),
		os.Getenv("DB_NAME"),
		os.Getenv("DB_SSLMODE"),
	)
}

// Connect opens a GORM connection and migrates the schema. Exposed so
// tests can point it at a throwaway database.
func Connect(dsn string) (*gorm.DB, error) {
	gormLogger := logger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  true,
		},
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger,
		TranslateError: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Tag{},
		&models.Question{},
		&models.Answer{},
		&models.Vote{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return db, nil
}

func New() Service {
	// Reuse Connection
	if dbInstance != nil {
		return dbInstance
	}

	db, err := Connect(dsnFromEnv())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	log.Println("✅ Database connected successfully")
	log.Println("✅ Database migrations completed")

	// Configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	seedAdmin(db)

	dbInstance = &service{
		db: db,
	}

	return dbInstance
}

// seedAdmin creates the bootstrap admin account when ADMIN_EMAIL and
// ADMIN_PASSWORD are set and no user with that email exists yet.
func seedAdmin(db *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	if email == "" || password == "" {
		return
	}

	var count int64
	db.Model(&models.User{}).Where("email = ?", email).Count(&count)
	if count > 0 {
		return
	}

	admin := models.User{
		Username: "admin",
		Email:    email,
		Role:     models.RoleAdmin,
	}
	if err := admin.SetPassword(password); err != nil {
		log.Printf("Failed to hash admin password: %v", err)
		return
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("Failed to seed admin user: %v", err)
		return
	}
	log.Println("✅ Admin user seeded")
}

func (s *service) GetDB() *gorm.DB {
	return s.db
}

// Health checks the health of the database connection by pinging the database.
func (s *service) Health() map[string]string {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	stats := make(map[string]string)

	// Get underlying SQL DB
	sqlDB, err := s.db.DB()
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db error: %v", err)
		return stats
	}

	// Ping the database
	err = sqlDB.PingContext(ctx)
	if err != nil {
		stats["status"] = "down"
		stats["error"] = fmt.Sprintf("db down: %v", err)
		return stats
	}

	// Database is up
	stats["status"] = "up"
	stats["message"] = "It's healthy"

	// Get database stats
	dbStats := sqlDB.Stats()
	stats["open_connections"] = fmt.Sprintf("%d", dbStats.OpenConnections)
	stats["in_use"] = fmt.Sprintf("%d", dbStats.InUse)
	stats["idle"] = fmt.Sprintf("%d", dbStats.Idle)

	return stats
}

// Close closes the database connection.
func (s *service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}

	log.Printf("Disconnected from database: %s", os.Getenv("DB_NAME"))
	return sqlDB.Close()
}
