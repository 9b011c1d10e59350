// Command hashpw prints a bcrypt hash for ADMIN_PASSWORD_HASH, or with -check
// verifies a password against the configured local operator account.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/flowersdz/gallery-admin/internal/config"
	"github.com/flowersdz/gallery-admin/internal/domain/auth"
	"github.com/flowersdz/gallery-admin/internal/pkg/password"
)

func main() {
	cost := flag.Int("cost", password.DefaultCost, "bcrypt cost")
	check := flag.Bool("check", false, "verify the password against ADMIN_EMAIL / ADMIN_PASSWORD_HASH")
	flag.Parse()

	secret, err := readSecret(os.Stdin)
	if err != nil {
		log.Fatalf("Failed to read password: %v", err)
	}

	if *check {
		cfg := config.Load()
		if err := checkLocal(cfg, secret); err != nil {
			log.Fatalf("Sign-in check failed: %v", err)
		}
		fmt.Println("OK: password matches", cfg.AdminEmail)
		return
	}

	hash, err := password.HashWithCost(secret, *cost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}
	fmt.Println(hash)
}

// readSecret reads the first line of r without its line ending
func readSecret(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", fmt.Errorf("empty password")
	}
	return line, nil
}

func checkLocal(cfg *config.Config, secret string) error {
	provider := auth.NewLocalProvider(cfg.AdminEmail, cfg.AdminPasswordHash, cfg.AdminUID)
	_, err := provider.SignInWithPassword(context.Background(), cfg.AdminEmail, secret)
	return err
}
