// Schema migration and seeding for the referral API.
// cmd/migrate/main.go
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"referral-tracking-api/config"
	"referral-tracking-api/models"
	"referral-tracking-api/repository"
	"referral-tracking-api/services"
	"referral-tracking-api/utils"

	"github.com/joho/godotenv"
)

func main() {
	seed := flag.Bool("seed", true, "insert default departments and email templates that are missing")
	rehash := flag.Bool("rehash", false, "bcrypt any password_hash value that is not a bcrypt hash yet")
	promote := flag.String("promote", "", "emp_id to give the ADMIN role")
	flag.Parse()

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	// Initialize database
	config.InitDB()

	if err := repository.AutoMigrate(config.DB); err != nil {
		log.Fatal("Failed to migrate schema:", err)
	}
	log.Println("Schema is up to date")

	ctx := context.Background()
	store := repository.NewStore(config.DB)

	if *seed {
		n, err := services.SeedEmailTemplates(ctx, store)
		if err != nil {
			log.Fatal("Failed to seed email templates:", err)
		}
		log.Printf("Seeded %d email templates", n)

		n, err = services.SeedDepartments(ctx, store)
		if err != nil {
			log.Fatal("Failed to seed departments:", err)
		}
		log.Printf("Seeded %d departments", n)
	}

	if *rehash {
		rehashPasswords()
	}

	if empID := strings.TrimSpace(*promote); empID != "" {
		user, err := store.FindUserByEmpID(ctx, empID)
		if err != nil {
			log.Fatalf("Failed to find user %s: %v", empID, err)
		}
		user.Role = models.RoleAdmin
		if err := store.SaveUser(ctx, user); err != nil {
			log.Fatalf("Failed to promote user %s: %v", empID, err)
		}
		log.Printf("User %s is now ADMIN", empID)
	}

	log.Println("Migration completed!")
}

// rehashPasswords converts rows imported with plaintext passwords.
func rehashPasswords() {
	var users []models.User
	if err := config.DB.Find(&users).Error; err != nil {
		log.Fatal("Failed to fetch users:", err)
	}

	for _, user := range users {
		// Skip if already hashed (bcrypt hashes start with $2)
		if user.PasswordHash == "" || strings.HasPrefix(user.PasswordHash, "$2") {
			continue
		}

		hashedPassword, err := utils.HashPassword(user.PasswordHash)
		if err != nil {
			log.Printf("Failed to hash password for user %s: %v\n", user.EmpID, err)
			continue
		}

		if err := config.DB.Model(&user).Update("password_hash", hashedPassword).Error; err != nil {
			log.Printf("Failed to update password for user %s: %v\n", user.EmpID, err)
			continue
		}

		log.Printf("Successfully updated password for user %s\n", user.EmpID)
	}
}
