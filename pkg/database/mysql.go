package database

import (
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/dreamtoapp/amwaj-messaging/environments"
	"github.com/dreamtoapp/amwaj-messaging/pkg/logger"
)

// DSN renders cfg as a go-sql-driver connection string.
func DSN(cfg environments.DatabaseConfig) string {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = cfg.Host + ":" + cfg.Port
	mc.DBName = cfg.DBName
	mc.ParseTime = true
	mc.Collation = "utf8mb4_unicode_ci"
	mc.Params = map[string]string{"charset": "utf8mb4"}

	return mc.FormatDSN()
}

func NewMySQLDB(cfg environments.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("mysql", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	logger.Infof("Connected to MySQL database %s at %s:%s", cfg.DBName, cfg.Host, cfg.Port)
	return db, nil
}

func RunMigrations(db *sqlx.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		kind VARCHAR(16) NOT NULL DEFAULT 'text',
		phone_number VARCHAR(32) NOT NULL,
		content TEXT NOT NULL,
		template_language VARCHAR(16),
		template_params TEXT,
		status VARCHAR(20) NOT NULL DEFAULT 'pending',
		message_id VARCHAR(128),
		error TEXT,
		sent_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_messages_status (status),
		INDEX idx_messages_phone_number (phone_number),
		INDEX idx_messages_created_at (created_at),
		INDEX idx_messages_sent_at (sent_at)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logger.Infof("Database migrations completed")

	return nil
}

// SeedTestData queues a handful of text messages for the outbox when the
// table is empty.
func SeedTestData(db *sqlx.DB) error {
	var count int
	if err := db.Get(&count, "SELECT COUNT(*) FROM messages"); err != nil {
		return err
	}

	if count > 0 {
		logger.Infof("Database already has %d messages, skipping seed", count)
		return nil
	}

	testMessages := []struct {
		content     string
		phoneNumber string
	}{
		{"مرحباً! هذه رسالة تجريبية من أمواج", "966500000001"},
		{"تم استلام طلبك وسيتم التواصل معك قريباً", "966500000002"},
		{"Your delivery location has been saved.", "966500000003"},
		{"شكراً لتواصلك معنا. سنرد عليك في أقرب وقت ممكن", "966500000004"},
		{"Reminder: your order is on the way.", "966500000005"},
		{"رسالة نصية بسيطة", "966500000006"},
	}

	for _, msg := range testMessages {
		_, err := db.Exec(
			"INSERT INTO messages (kind, content, phone_number, status) VALUES ('text', ?, ?, 'pending')",
			msg.content, msg.phoneNumber,
		)
		if err != nil {
			return fmt.Errorf("failed to seed test data: %w", err)
		}
	}

	logger.Infof("Seeded %d test messages", len(testMessages))
	return nil
}
