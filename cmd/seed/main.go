package main

import (
	"log"
	"time"

	"golang.org/x/crypto/bcrypt"

	"medislot/internal/config"
	"medislot/internal/database"
	"medislot/internal/domain"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	db.Exec("DELETE FROM bookings")
	db.Exec("DELETE FROM slots")
	db.Exec("DELETE FROM doctors")
	db.Exec("DELETE FROM users")

	log.Println("Creating users...")

	adminHash, _ := bcrypt.GenerateFromPassword([]byte("admin123"), bcrypt.DefaultCost)
	admin := domain.User{
		Email:        "admin@medislot.dev",
		PasswordHash: string(adminHash),
		Role:         domain.RoleAdmin,
		Name:         "Admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Fatal("create admin:", err)
	}

	patientHash, _ := bcrypt.GenerateFromPassword([]byte("patient123"), bcrypt.DefaultCost)
	patient := domain.User{
		Email:        "patient@medislot.dev",
		PasswordHash: string(patientHash),
		Role:         domain.RolePatient,
		Name:         "Demo Patient",
	}
	if err := db.Create(&patient).Error; err != nil {
		log.Fatal("create patient:", err)
	}

	log.Println("Creating doctors and slots...")

	doctors := []domain.Doctor{
		{Name: "Dr. Sarah Kim", Specialization: "Cardiology"},
		{Name: "Dr. James Okoye", Specialization: "Dermatology"},
		{Name: "Dr. Elena Petrova", Specialization: "Pediatrics"},
	}

	// A week of hourly slots per doctor, 09:00-17:00.
	dayStart := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	for i := range doctors {
		if err := db.Create(&doctors[i]).Error; err != nil {
			log.Fatal("create doctor:", err)
		}

		for day := 0; day < 7; day++ {
			for hour := 9; hour < 17; hour++ {
				slot := domain.Slot{
					DoctorID:  doctors[i].ID,
					StartTime: dayStart.AddDate(0, 0, day).Add(time.Duration(hour) * time.Hour),
				}
				if err := db.Create(&slot).Error; err != nil {
					log.Fatal("create slot:", err)
				}
			}
		}
	}

	log.Printf("Seed complete: %d doctors, admin=%s patient=%s", len(doctors), admin.Email, patient.Email)
}
