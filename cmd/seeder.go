package cmd

import (
	"context"
	"fmt"
	"log"

	"github.com/frahmantamala/campaign-management/internal/auth"
	"github.com/frahmantamala/campaign-management/internal/user"
	userPostgres "github.com/frahmantamala/campaign-management/internal/user/postgres"
	"github.com/frahmantamala/campaign-management/pkg/logger"
	"github.com/spf13/cobra"
)

const seedPassword = "password"

var seedUsers = []user.User{
	{FirstName: "Asha", LastName: "Patil", Email: "asha@mail.com", PhoneNumber: "9800000001", PANCardNumber: "ABCDE1234F", Role: auth.RoleCitizen, IsVerified: true},
	{FirstName: "Ravi", LastName: "Kumar", Email: "ravi@mail.com", PhoneNumber: "9800000002", PANCardNumber: "PQRST6789Z", Role: auth.RoleCitizen, IsVerified: true},
	{FirstName: "Meera", LastName: "Shah", Email: "meera@mail.com", PhoneNumber: "9800000003", PANCardNumber: "LMNOP4321K", Role: auth.RoleCitizen, IsVerified: true},
	{FirstName: "Padil", LastName: "Admin", Email: "admin@mail.com", PhoneNumber: "9800000000", PANCardNumber: "ADMIN0000A", Role: auth.RoleAdmin, IsVerified: true},
}

// clearTables is ordered so link rows go before the rows they reference.
var clearTables = []string{"invoices", "user_campaigns", "campaigns", "users"}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		db, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer db.Close()

		gdb, err := initGorm(db)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			for _, table := range clearTables {
				if err := gdb.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := auth.HashPassword(seedPassword, cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		users := user.NewService(userPostgres.NewUserRepository(gdb), logger.LoggerWrapper())

		for _, u := range seedUsers {
			var exists int
			row := gdb.Raw("SELECT 1 FROM users WHERE email = ?", u.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Println("user already exists:", u.Email)
				continue
			}

			u.PasswordHash = hash
			if err := users.Create(ctx, &u); err != nil {
				log.Fatalf("failed to insert user %s: %v", u.Email, err)
			}
			fmt.Printf("Seeded %s user: %s (PAN %s)\n", u.Role, u.Email, u.PANCardNumber)
		}

		fmt.Println("Users seeded successfully; password for all accounts:", seedPassword)
	},
}
