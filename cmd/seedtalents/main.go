package main

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/talentchain/marketplace/backend/pkg/common"
	"github.com/talentchain/marketplace/backend/pkg/common/db"
	"github.com/talentchain/marketplace/backend/pkg/common/migrations"
	"github.com/talentchain/marketplace/backend/services/talent"
	"github.com/talentchain/marketplace/backend/services/talent/models"
)

// Seeds the talents table with sample profiles for local development.
// Replaces whatever is there. Rates are wei.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment as-is")
	}

	cfg := common.LoadConfig()
	database, err := db.Connect(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer database.Close()

	if err := migrations.RunMigrations(database, cfg.MigrationsDir); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	ctx := context.Background()
	if _, err := database.ExecContext(ctx, "DELETE FROM talents"); err != nil {
		log.Fatalf("Failed to clear talents: %v", err)
	}

	store := talent.NewPostgresStore(database)
	for _, profile := range sampleTalents() {
		created, err := store.Create(ctx, profile)
		if err != nil {
			log.Fatalf("Failed to seed talent %s: %v", profile.Name, err)
		}
		log.Printf("Seeded talent %s (%s)", created.Name, created.ID)
	}
	log.Printf("Seeding completed")
}

func sampleTalents() []models.Talent {
	return []models.Talent{
		{
			ID:          uuid.NewString(),
			Name:        "John Doe",
			Description: "Full Stack Blockchain Developer",
			Skills: []models.Skill{
				{Name: ".NET", HourlyRate: "100000000000000000", YearsOfExperience: 5},
				{Name: "Solidity", HourlyRate: "150000000000000000", YearsOfExperience: 3},
			},
			Availability:  true,
			Experience:    models.ExperienceExpert,
			Location:      "New York",
			WalletAddress: "0xa4aa70a49461b5fa3726a88f90fca2a6a56fe9cf",
		},
		{
			ID:          uuid.NewString(),
			Name:        "Jane Smith",
			Description: "Smart Contract Developer",
			Skills: []models.Skill{
				{Name: "Solidity", HourlyRate: "200000000000000000", YearsOfExperience: 4},
				{Name: "Rust", HourlyRate: "180000000000000000", YearsOfExperience: 2},
			},
			Availability:  true,
			Experience:    models.ExperienceIntermediate,
			Location:      "London",
			WalletAddress: "0xe6dc71a74f9223763520d5ae7d28bf9883336dd4",
		},
		{
			ID:          uuid.NewString(),
			Name:        "Bob Wilson",
			Description: ".NET Developer",
			Skills: []models.Skill{
				{Name: ".NET", HourlyRate: "80000000000000000", YearsOfExperience: 6},
				{Name: "Azure", HourlyRate: "90000000000000000", YearsOfExperience: 4},
			},
			Availability:  false,
			Experience:    models.ExperienceExpert,
			Location:      "Berlin",
			WalletAddress: "0xd8d3eac5a5361dbc60fcb8abd200467998804810",
		},
	}
}
