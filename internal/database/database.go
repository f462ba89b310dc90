package database

import (
	"log"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	_ "modernc.org/sqlite"

	"medislot/internal/domain"
)

func Connect(dsn string) (*gorm.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		log.Println("Connecting to PostgreSQL...")
		return gorm.Open(postgres.Open(dsn), &gorm.Config{})
	}

	log.Println("Using SQLite for local development:", dsn)

	return gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		&gorm.Config{},
	)
}

// Migrate creates the schema and the partial unique index that backs the
// one-active-booking-per-slot invariant. The index is a second line of
// defense behind the slot row lock: if a writer ever slips past the lock,
// the insert fails with a unique violation instead of double-booking.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&domain.User{},
		&domain.Doctor{},
		&domain.Slot{},
		&domain.Booking{},
	); err != nil {
		return err
	}

	return db.Exec(`
CREATE UNIQUE INDEX IF NOT EXISTS idx_one_active_booking
ON bookings (slot_id)
WHERE status IN ('PENDING', 'CONFIRMED', 'BUFFER')
`).Error
}
