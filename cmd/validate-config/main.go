package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"github.com/vladimiradmaev/diabetes-tracker/internal/config"
)

func main() {
	fmt.Println("🔍 Checking configuration...")

	if err := godotenv.Load(); err != nil {
		color.Yellow("⚠️  .env file not found: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		color.Red("❌ Configuration is invalid:\n%v", err)
		os.Exit(1)
	}

	color.Green("✅ Configuration is valid!")
	fmt.Printf("📋 Configuration details:\n")
	fmt.Printf("  - HTTP Addr: %s (read %s, write %s)\n", cfg.HTTP.Addr, cfg.HTTP.ReadTimeout, cfg.HTTP.WriteTimeout)
	fmt.Printf("  - DB Driver: %s\n", cfg.DB.Driver)
	switch cfg.DB.Driver {
	case config.DriverPostgres:
		fmt.Printf("  - DB Host: %s\n", cfg.DB.Host)
		fmt.Printf("  - DB Port: %s\n", cfg.DB.Port)
		fmt.Printf("  - DB User: %s\n", cfg.DB.User)
		fmt.Printf("  - DB Password: %s\n", maskToken(cfg.DB.Password))
		fmt.Printf("  - DB Name: %s\n", cfg.DB.DBName)
	case config.DriverSQLite:
		fmt.Printf("  - SQLite Path: %s\n", cfg.DB.SQLitePath)
	}
	if cfg.Redis.Enabled() {
		fmt.Printf("  - Redis: %s (password %s)\n", cfg.Redis.Addr(), maskToken(cfg.Redis.Password))
	} else {
		fmt.Printf("  - Redis: <disabled, in-process cache>\n")
	}
	fmt.Printf("  - Analysis Cache TTL: %s\n", cfg.AnalysisCacheTTL)
	fmt.Printf("  - Audit Timeout: %s\n", cfg.AuditTimeout)
	fmt.Printf("  - Glucose Clamp: %t\n", cfg.Estimator.ClampToPhysiologicalRange)
	fmt.Printf("  - Default User: %s\n", cfg.DefaultUserID)
	fmt.Printf("  - Telegram Token: %s\n", maskToken(cfg.TelegramToken))
	fmt.Printf("  - Log Level: %v\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
