package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"skillpulse/internal/app"
	"skillpulse/internal/pkg/jwt"
)

func main() {
	subject := flag.String("subject", "admin", "token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime (default ADMIN_TOKEN_TTL)")
	flag.Parse()

	logger := log.New(os.Stderr, "", 0)

	cfg, err := app.LoadConfig(logger)
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	expires := cfg.Auth.AdminTokenTTL
	if *ttl > 0 {
		expires = *ttl
	}

	tok, err := jwt.NewHMACService(cfg.Auth.AdminTokenSecret, expires).GenerateAdminToken(*subject)
	if err != nil {
		logger.Fatalf("failed to sign token: %v", err)
	}
	fmt.Println(tok)
}
