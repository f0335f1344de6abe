// Command keygen prints a fresh ENCRYPTION_KEY and, with -user, a session
// token for calling the API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	config "github.com/maheshrc27/crosspost/configs"
	"github.com/maheshrc27/crosspost/pkg/utils"
)

func main() {
	userID := flag.String("user", "", "also print a session token for this user id (needs SECRET_KEY)")
	ttl := flag.Duration("ttl", 24*time.Hour, "session token lifetime")
	flag.Parse()

	key, err := utils.GenerateEncryptionKey()
	if err != nil {
		log.Fatalf("Failed to generate key: %v", err)
	}
	fmt.Printf("ENCRYPTION_KEY=%s\n", key)

	if *userID == "" {
		return
	}

	_ = godotenv.Load()
	cfg := config.LoadConfig()
	token, err := utils.GenerateToken(cfg.SecretKey, *userID, *ttl)
	if err != nil {
		log.Fatalf("Failed to sign session token: %v", err)
	}
	fmt.Printf("SESSION_TOKEN=%s\n", token)
}
