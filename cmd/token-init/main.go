// Command token-init mints a bearer token for a seeded society user, for
// calling the API with AUTH_DISABLED=false.
//
//	token-init -user U004 [-role accountant] [-ttl 24h]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"society/internal/auth"
	"society/internal/core"
	"society/internal/ledger/memory"
)

func main() {
	_ = godotenv.Load()

	userID := flag.String("user", os.Getenv("DEMO_USER_ID"), "seeded user id")
	roleFlag := flag.String("role", "", "role override (resident, admin, accountant)")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	seed := flag.String("seed", os.Getenv("SEED_FILE"), "seed file, embedded default when empty")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if len(secret) < 16 {
		log.Fatalf("set JWT_SECRET (at least 16 characters)")
	}
	if *userID == "" {
		log.Fatalf("set -user or DEMO_USER_ID")
	}

	store, err := memory.NewFromFile(*seed)
	if err != nil {
		log.Fatalf("load seed: %v", err)
	}
	user, err := store.User(context.Background(), *userID)
	if err != nil {
		log.Fatalf("user %s: %v", *userID, err)
	}

	var role core.Role
	if *roleFlag != "" {
		if role, err = core.ParseRole(*roleFlag); err != nil {
			log.Fatalf("role: %v", err)
		}
	}

	id := auth.IdentityFromUser(user, role)
	tok, err := auth.IssueToken([]byte(secret), id, *ttl, time.Now())
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Fprintf(os.Stderr, "Token for %s (%s, flat %s), valid %s:\n", id.Subject, id.Role, id.FlatNo, *ttl)
	fmt.Println(tok)
}
