package database

import (
	"log"
	"os"
	"time"

	"vertigo/internal/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedAdminUser creates the default admin account if no admin exists yet.
// Password comes from VERTIGO_ADMIN_PASSWORD, falling back to "changeme"
// for local setups.
func SeedAdminUser(db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", "admin").Count(&count)
	if count > 0 {
		return
	}

	password := os.Getenv("VERTIGO_ADMIN_PASSWORD")
	if password == "" {
		password = "changeme"
		log.Println("⚠️ VERTIGO_ADMIN_PASSWORD not set, seeding admin with default password")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("❌ Failed to hash admin password: %v", err)
		return
	}

	admin := models.User{
		Username:     "admin",
		PasswordHash: string(hash),
		DisplayName:  "Admin",
		Role:         "admin",
	}
	if err := db.Create(&admin).Error; err != nil {
		log.Printf("❌ Failed to seed admin user: %v", err)
		return
	}
	log.Println("🌱 Seeded admin user")
}

// SeedEntries populates the DB with a small demo feed so a fresh install
// has something to scroll through.
func SeedEntries(db *gorm.DB) {
	var count int64
	db.Model(&models.Entry{}).Count(&count)
	if count > 0 {
		return
	}

	now := time.Now().UTC()
	entries := []models.Entry{
		{
			PublicID:    uuid.NewString(),
			Kind:        "video",
			Title:       "Welcome",
			AccessTier:  "public",
			PlaylistKey: "demo/welcome/master.m3u8",
			FallbackKey: "demo/welcome/fallback.mp4",
			PosterKey:   "demo/welcome/poster.jpg",
			Duration:    12.5,
			PublishedAt: now.Add(-3 * time.Hour),
			IsPublished: true,
		},
		{
			PublicID:    uuid.NewString(),
			Kind:        "markup",
			Title:       "About",
			AccessTier:  "public",
			Body:        "<h1>Welcome to the feed</h1><p>Swipe up for more.</p>",
			PublishedAt: now.Add(-2 * time.Hour),
			IsPublished: true,
		},
		{
			PublicID:    uuid.NewString(),
			Kind:        "video",
			Title:       "Members Only",
			AccessTier:  "restricted",
			PlaylistKey: "demo/members/master.m3u8",
			FallbackKey: "demo/members/fallback.mp4",
			PosterKey:   "demo/members/poster.jpg",
			Duration:    34.0,
			PublishedAt: now.Add(-1 * time.Hour),
			IsPublished: true,
		},
	}

	log.Printf("🌱 Seeding %d Entries...", len(entries))
	for _, e := range entries {
		db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "public_id"}},
			DoNothing: true,
		}).Create(&e)
	}
}
