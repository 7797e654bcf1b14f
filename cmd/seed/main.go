// Command seed creates an account directly against the configured database,
// for bootstrapping environments without ADMIN_EMAIL/ADMIN_PASSWORD set.
package main

import (
	"context"
	"flag"
	"log"

	"go.uber.org/zap"

	"github.com/sopforge/sop-engine/pkg/audit"
	"github.com/sopforge/sop-engine/pkg/config"
	"github.com/sopforge/sop-engine/pkg/crypto"
	"github.com/sopforge/sop-engine/pkg/database"
	"github.com/sopforge/sop-engine/pkg/logging"
	"github.com/sopforge/sop-engine/pkg/models"
	"github.com/sopforge/sop-engine/pkg/repositories"
	"github.com/sopforge/sop-engine/pkg/services"
)

func main() {
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "login password")
	role := flag.String("role", models.RoleUser, "USER or ADMIN")
	flag.Parse()

	if *email == "" || *password == "" {
		log.Fatal("both -email and -password are required")
	}
	if *name == "" {
		*name = *email
	}

	cfg, err := config.Load("seed")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := logging.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg.Database.URL(), database.Options{MaxConnections: 2})
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	encryptor, err := crypto.NewCredentialEncryptor(cfg.CredentialsKey)
	if err != nil {
		logger.Fatal("credential encryptor init failed", zap.Error(err))
	}

	users := services.NewUserService(
		repositories.NewUserRepository(db),
		encryptor,
		audit.NewSecurityAuditor(logger),
		logger)

	user, err := users.Create(ctx, *name, *email, *password, *role)
	if err != nil {
		logger.Fatal("account creation failed", zap.Error(err))
	}
	logger.Info("account created",
		zap.String("id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("role", user.Role))
}
