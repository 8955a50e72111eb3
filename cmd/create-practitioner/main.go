// CLI tool to create a practitioner account with a bcrypt-hashed password.
// Usage: go run ./cmd/create-practitioner (from the repo root)
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

// minPasswordLen rejects trivially short passwords at creation time.
const minPasswordLen = 8

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		os.Exit(1)
	}

	conn, err := pgx.Connect(context.Background(), os.Getenv("DB_URL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Unable to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer conn.Close(context.Background())

	reader := bufio.NewReader(os.Stdin)
	username := prompt(reader, "Username")
	email := prompt(reader, "Email")
	password := prompt(reader, "Password")

	if username == "" || email == "" {
		fmt.Fprintln(os.Stderr, "Username and email are required")
		os.Exit(1)
	}
	if len(password) < minPasswordLen {
		fmt.Fprintf(os.Stderr, "Password must be at least %d characters\n", minPasswordLen)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error hashing password: %v\n", err)
		os.Exit(1)
	}

	authToken := uuid.New().String()

	var practitionerID int
	err = conn.QueryRow(context.Background(),
		`INSERT INTO practitioners (username, email, password, auth_token)
		 VALUES ($1, $2, $3, $4) RETURNING id`,
		username, email, string(hash), authToken,
	).Scan(&practitionerID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating practitioner: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nPractitioner created successfully!\n")
	fmt.Printf("  ID:         %d\n", practitionerID)
	fmt.Printf("  Username:   %s\n", username)
	fmt.Printf("  Auth Token: %s\n", authToken)
}

// prompt prints label and returns the trimmed line typed by the user.
func prompt(r *bufio.Reader, label string) string {
	fmt.Print(label + ": ")
	line, _ := r.ReadString('\n')
	return strings.TrimSpace(line)
}
