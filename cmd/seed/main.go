package main

import (
	"context"
	"flag"
	"log"
	"time"

	"equiprent/internal/config"
	"equiprent/internal/database"
	"equiprent/internal/domain"
	"equiprent/internal/pkg/logging"
	"equiprent/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var sampleEquipment = []domain.Equipment{
	{ID: "PHY-001", Name: "Digital Oscilloscope", Department: domain.DepartmentPhysics, Quantity: 4},
	{ID: "PHY-002", Name: "Laser Interferometer Kit", Department: domain.DepartmentPhysics, Quantity: 2},
	{ID: "CHE-001", Name: "Rotary Evaporator", Department: domain.DepartmentChemistry, Quantity: 1},
	{ID: "CHE-002", Name: "pH Meter", Department: domain.DepartmentChemistry, Quantity: 10},
	{ID: "IT-001", Name: "Raspberry Pi 5 Kit", Department: domain.DepartmentIT, Quantity: 20},
	{ID: "IT-002", Name: "Logic Analyzer", Department: domain.DepartmentIT, Quantity: 3},
	{ID: "ENG-001", Name: "3D Printer", Department: domain.DepartmentEngineering, Quantity: 2},
	{ID: "ENG-002", Name: "Thermal Camera", Department: domain.DepartmentEngineering, Quantity: 1},
	{ID: "SHR-001", Name: "Projector", Department: domain.DepartmentShared, Quantity: 5},
}

func main() {
	adminPassword := flag.String("admin-password", "admin123", "password for the seeded admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(logging.Config{Env: cfg.AppEnv, Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logging.Sync(logger)

	db, err := database.Connect(cfg.DatabaseURL, logger)
	if err != nil {
		logger.Fatal("db connect failed", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("migration failed", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	equipments := repository.NewEquipmentRepository(db)
	created := 0
	for _, e := range sampleEquipment {
		exists, err := equipments.ExistsByID(ctx, e.ID)
		if err != nil {
			logger.Fatal("equipment lookup failed", zap.String("equipment_id", e.ID), zap.Error(err))
		}
		if exists {
			continue
		}
		e.AvailableQuantity = e.Quantity
		if err := equipments.Create(ctx, &e); err != nil {
			logger.Fatal("equipment insert failed", zap.String("equipment_id", e.ID), zap.Error(err))
		}
		created++
	}
	logger.Info("equipment seeded", zap.Int("created", created), zap.Int("total", len(sampleEquipment)))

	if cfg.AdminEmail == "" {
		logger.Warn("ADMIN_EMAIL is not set, skipping admin account")
		return
	}

	users := repository.NewUserRepository(db)
	exists, err := users.ExistsByEmail(ctx, cfg.AdminEmail)
	if err != nil {
		logger.Fatal("user lookup failed", zap.Error(err))
	}
	if exists {
		logger.Info("admin account already present", zap.String("email", cfg.AdminEmail))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*adminPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Fatal("hash admin password", zap.Error(err))
	}
	if err := users.Create(ctx, &domain.User{Email: cfg.AdminEmail, PasswordHash: string(hash)}); err != nil {
		logger.Fatal("admin insert failed", zap.Error(err))
	}
	logger.Info("admin account created", zap.String("email", cfg.AdminEmail))
}
