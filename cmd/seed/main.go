package main

import (
	"fmt"
	"log"

	"github.com/hostdeck/panel/backend/internal/cache"
	"github.com/hostdeck/panel/backend/internal/config"
	"github.com/hostdeck/panel/backend/internal/database"
	"github.com/hostdeck/panel/backend/internal/models"
	"github.com/hostdeck/panel/backend/internal/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	db, err := database.Connect(cfg.DatabasePath)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := db.AutoMigrate(models.All()...); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}
	fmt.Println("✓ Database migrated successfully")

	// Owner session
	ownerID := cfg.OwnerOpenID
	if ownerID == "" {
		ownerID = "seed-owner"
	}
	auth := services.NewAuthService(db, cfg)
	token, err := auth.SignSession(ownerID, "Seed Owner", "owner@example.com", "seed")
	if err != nil {
		log.Fatal("Failed to sign session:", err)
	}
	owner, err := auth.VerifyToken(token)
	if err != nil {
		log.Fatal("Failed to create owner:", err)
	}
	fmt.Printf("✓ Owner user: %s (role %s)\n", owner.OpenID, owner.Role)

	// Websites
	websites := services.NewWebsiteService(db, cache.New())
	sites := []models.Website{
		{Name: "Company Site", Domain: "www.example.com", Path: "/var/www/example", Port: 80, Status: models.WebsiteRunning},
		{Name: "Blog", Domain: "blog.example.com", Path: "/var/www/blog", Port: 443, SSLEnabled: true, Status: models.WebsiteRunning},
		{Name: "Staging", Domain: "staging.example.com", Path: "/var/www/staging", Port: 8080},
	}
	for _, site := range sites {
		var count int64
		db.Model(&models.Website{}).Where("domain = ?", site.Domain).Count(&count)
		if count > 0 {
			fmt.Printf("  Website already exists: %s\n", site.Domain)
			continue
		}
		site.CreatedBy = owner.ID
		if err := websites.Create(&site); err != nil {
			log.Printf("Failed to seed website %s: %v", site.Domain, err)
			continue
		}
		fmt.Printf("✓ Created website: %s\n", site.Domain)
	}

	// Firewall rules
	rules := []models.FirewallRule{
		{Name: "SSH", Port: 22, Protocol: models.ProtocolTCP, Action: models.ActionAllow},
		{Name: "HTTP", Port: 80, Protocol: models.ProtocolTCP, Action: models.ActionAllow},
		{Name: "HTTPS", Port: 443, Protocol: models.ProtocolTCP, Action: models.ActionAllow},
		{Name: "Block MySQL", Port: 3306, Protocol: models.ProtocolTCP, Action: models.ActionDeny},
	}
	for _, rule := range rules {
		rule.CreatedBy = owner.ID
		result := db.Where("name = ? AND port = ?", rule.Name, rule.Port).FirstOrCreate(&rule)
		if result.Error != nil {
			log.Printf("Failed to seed firewall rule %s: %v", rule.Name, result.Error)
		} else if result.RowsAffected > 0 {
			fmt.Printf("✓ Created firewall rule: %s (%d/%s)\n", rule.Name, rule.Port, rule.Protocol)
		} else {
			fmt.Printf("  Firewall rule already exists: %s\n", rule.Name)
		}
	}

	// Whitelist
	whitelist := services.NewWhitelistService(db)
	for _, entry := range []models.IPWhitelist{
		{IPAddress: "127.0.0.1", Description: "loopback"},
		{IPAddress: "10.0.0.0/8", Description: "office network"},
	} {
		if err := whitelist.Create(&entry); err != nil {
			fmt.Printf("  Whitelist entry skipped: %s (%v)\n", entry.IPAddress, err)
			continue
		}
		fmt.Printf("✓ Whitelisted: %s\n", entry.IPAddress)
	}

	// Deployment target
	deployments := services.NewDeploymentService(db, services.NewAuditService(db))
	var servers int64
	db.Model(&models.ServerConnection{}).Count(&servers)
	if servers == 0 {
		srv, err := deployments.CreateServer(services.CreateServerInput{
			Name:        "Staging VM",
			Host:        "staging.internal",
			Port:        22,
			Username:    "deploy",
			AuthType:    models.AuthTypePassword,
			Password:    "change-me",
			Description: "Staging environment",
		}, owner.ID)
		if err != nil {
			log.Printf("Failed to seed server: %v", err)
		} else {
			fmt.Printf("✓ Created server: %s (%s:%d)\n", srv.Name, srv.Host, srv.Port)
		}
	}

	fmt.Println()
	fmt.Println("Session token for the owner (valid 24h):")
	fmt.Println(token)
}
