// seed inserts a confirmed test user and a handful of contacts into the
// local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ErlanBelekov/contacts-api/internal/auth"
	"github.com/ErlanBelekov/contacts-api/internal/domain"
	"github.com/ErlanBelekov/contacts-api/internal/infrastructure/postgres"
)

const (
	seedEmail    = "seed@test.local"
	seedUsername = "seeduser"
	seedPassword = "qwerty123"
)

type contactSpec struct {
	first, last, email, phone string
	birthday                  string // YYYY-MM-DD, empty for unknown
	favorite                  bool
}

var contacts = []contactSpec{
	{"Ada", "Lovelace", "ada@example.com", "+44 20 0000 0001", "1815-12-10", true},
	{"Alan", "Turing", "alan@example.com", "+44 20 0000 0002", "1912-06-23", false},
	{"Grace", "Hopper", "grace@example.com", "+1 212 000 0003", "1906-12-09", true},
	{"Edsger", "Dijkstra", "edsger@example.com", "+31 20 000 0004", "1930-05-11", false},
	{"Barbara", "Liskov", "barbara@example.com", "+1 617 000 0005", "1939-11-07", false},
	{"Ken", "Thompson", "ken@example.com", "+1 908 000 0006", "", false},
	{"Rob", "Pike", "rob@example.com", "+1 650 000 0007", "", true},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set, run: direnv allow")
	}

	pool, err := postgres.NewPool(ctx, dbURL)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	users := postgres.NewUserRepository(pool)
	user, err := users.FindByEmail(ctx, seedEmail)
	if errors.Is(err, domain.ErrUserNotFound) {
		hash, hashErr := auth.NewHasher(0).HashPassword(seedPassword)
		if hashErr != nil {
			log.Fatalf("hash: %v", hashErr)
		}
		user, err = users.Create(ctx, domain.NewUser{Username: seedUsername, Email: seedEmail, PasswordHash: hash})
	}
	if err != nil {
		log.Fatalf("seed user: %v", err)
	}
	if err := users.SetConfirmed(ctx, seedEmail); err != nil {
		log.Fatalf("confirm user: %v", err)
	}

	// Insert contacts, skip any that already exist (idempotent re-runs)
	repo := postgres.NewContactRepository(pool)
	var inserted, skipped int
	for _, s := range contacts {
		c := &domain.Contact{
			UserID:    user.ID,
			FirstName: s.first,
			LastName:  s.last,
			Email:     s.email,
			Phone:     s.phone,
			Favorite:  s.favorite,
		}
		if s.birthday != "" {
			b, err := time.Parse("2006-01-02", s.birthday)
			if err != nil {
				log.Fatalf("birthday %s: %v", s.birthday, err)
			}
			c.Birthday = &b
		}

		_, err := repo.Create(ctx, c)
		switch {
		case errors.Is(err, domain.ErrDuplicateContact):
			skipped++
		case err != nil:
			log.Fatalf("insert contact %s: %v", s.email, err)
		default:
			inserted++
		}
	}

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  User:             %s / %s\n", seedEmail, seedPassword)
	fmt.Printf("  User ID:          %s\n", user.ID)
	fmt.Printf("  Contacts created: %d  (skipped %d already existing)\n", inserted, skipped)
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1, log in:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/api/auth/login \\\n")
	fmt.Printf("      -d 'username=%s&password=%s'\n", seedEmail, seedPassword)
	fmt.Println("    # → {\"access_token\":\"eyJ...\",\"refresh_token\":\"eyJ...\",\"token_type\":\"bearer\"}")
	fmt.Println()
	fmt.Println("  Step 2, list contacts:")
	fmt.Println()
	fmt.Println("    export JWT=eyJ...")
	fmt.Println("    curl -s 'http://localhost:8080/api/contacts?limit=3' -H \"Authorization: Bearer $JWT\"")
	fmt.Println()
	fmt.Println("  More than 3 requests in 5 seconds to the list endpoint returns 429.")
}
