// seed creates a password user in the local dev database.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/ErlanBelekov/auth-service/internal/domain"
	"github.com/ErlanBelekov/auth-service/internal/infrastructure/store"
	"github.com/ErlanBelekov/auth-service/internal/password"
	"github.com/caarlos0/env/v11"
)

const seedEmail = "seed@test.local"

type seedConfig struct {
	DatabaseURL  string `env:"DATABASE_URL,required,notEmpty"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"auth"`
	Password     string `env:"SEED_PASSWORD" envDefault:"password123"`
}

func main() {
	ctx := context.Background()

	cfg, err := env.ParseAs[seedConfig]()
	if err != nil {
		log.Fatalf("%v (run: direnv allow)", err)
	}
	plain := cfg.Password

	st, err := store.Open(ctx, cfg.DatabaseURL, cfg.DatabaseName)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}

	user, err := st.Users.FindByEmail(ctx, seedEmail)
	created := false
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserNotFound):
		hash, herr := password.NewBcryptHasher(password.DefaultCost).Hash(plain)
		if herr != nil {
			st.Close()
			log.Fatalf("hash password: %v", herr)
		}
		user, err = st.Users.Create(ctx, seedEmail, hash)
		if err != nil {
			st.Close()
			log.Fatalf("create user: %v", err)
		}
		created = true
	default:
		st.Close()
		log.Fatalf("find user: %v", err)
	}

	st.Close()

	fmt.Println("Seed complete")
	fmt.Println()
	fmt.Printf("  Backend:  %s\n", st.Backend)
	fmt.Printf("  User:     %s\n", user.Email)
	fmt.Printf("  User ID:  %s\n", user.ID)
	if created {
		fmt.Printf("  Password: %s\n", plain)
	} else {
		fmt.Println("  Password: unchanged (user already existed)")
	}
	fmt.Println()
	fmt.Println("How to test:")
	fmt.Println()
	fmt.Println("  Step 1: log in to get a JWT:")
	fmt.Println()
	fmt.Printf("    curl -s -X POST http://localhost:8080/api/auth/login \\\n")
	fmt.Printf("      -H 'Content-Type: application/json' \\\n")
	fmt.Printf("      -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", seedEmail, plain)
	fmt.Println("    # {\"token\":\"eyJ...\",\"user\":{\"email\":\"seed@test.local\"}}")
	fmt.Println()
	fmt.Println("  Step 2: call the protected endpoint:")
	fmt.Println()
	fmt.Println("    export JWT=eyJ...")
	fmt.Println("    curl -s http://localhost:8080/api/auth/me -H \"Authorization: Bearer $JWT\"")
}

