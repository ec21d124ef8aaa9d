// Command tokengen mints staff access tokens for the management API. There
// is no account database: a token signed with the shared JWT_SECRET is the
// whole credential, so new staff members get one from an operator running
// this tool.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ishcherbinin/telegram-bot-booking/internal/utils"
)

func main() {
	userID := flag.String("user", "", "stable staff user id (required)")
	name := flag.String("name", "", "display name recorded on bookings")
	ttl := flag.Duration("ttl", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	if *userID == "" {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("missing required env var: JWT_SECRET")
	}

	tok, err := utils.NewStaffToken(secret, *userID, *name, *ttl)
	if err != nil {
		log.Fatalf("sign token: %v", err)
	}
	fmt.Println(tok.Token)
	fmt.Fprintf(os.Stderr, "expires %s\n", tok.Exp.Format(time.RFC3339))
}
