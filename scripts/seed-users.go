package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/photoshare/photoshare/internal/model"
	"github.com/photoshare/photoshare/internal/repository"
	"github.com/photoshare/photoshare/internal/synthuser"
)

type output struct {
	Inserted int      `json:"inserted"`
	Logins   []string `json:"logins"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		sourceURL   = flag.String("source-url", envOrDefault("PROFILE_SOURCE_URL", "https://randomuser.me/api/"), "Synthetic profile source URL")
		count       = flag.Int("count", 10, "Number of synthetic users to insert")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}
	if *count <= 0 {
		fmt.Fprintln(os.Stderr, "count must be positive")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	source := synthuser.NewClient(*sourceURL, 10*time.Second)
	fetched, err := source.Fetch(ctx, *count)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fetch profiles:", err)
		os.Exit(1)
	}

	users := make([]*model.User, len(fetched))
	for i := range fetched {
		users[i] = &fetched[i]
	}

	if err := repo.InsertUsers(ctx, users); err != nil {
		fmt.Fprintln(os.Stderr, "insert users:", err)
		os.Exit(1)
	}

	out := output{Inserted: len(users)}
	for _, user := range users {
		out.Logins = append(out.Logins, user.GithubLogin)
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("inserted %d users\n", out.Inserted)
		for _, login := range out.Logins {
			fmt.Println(login)
		}
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
