// Command devtoken mints HS256 tokens the gateway accepts, for local testing.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/md-rashed-zaman/apptbook/libs/auth"
	"github.com/md-rashed-zaman/apptbook/libs/config"
)

func main() {
	_ = config.LoadDotEnv()
	var (
		secret = flag.String("secret", config.String("JWT_SECRET", ""), "HS256 signing secret")
		user   = flag.String("user-id", config.String("USER_ID", ""), "subject; a random uuid when empty")
		org    = flag.String("organization-id", config.String("ORGANIZATION_ID", ""), "organization claim")
		role   = flag.String("role", config.String("ROLE", "USER"), "ADMIN or USER")
		ttl    = flag.Duration("ttl", time.Hour, "token lifetime")
		email  = flag.String("email", config.String("USER_EMAIL", "dev@example.com"), "email claim; booking-service records it for notifications")
		first  = flag.String("first-name", config.String("USER_FIRST_NAME", "Dev"), "first_name claim")
		last   = flag.String("last-name", config.String("USER_LAST_NAME", "User"), "last_name claim")
	)
	flag.Parse()

	token, err := mint(*secret, *user, *org, *role, *ttl, profile{email: *email, firstName: *first, lastName: *last})
	if err != nil {
		fatal(err.Error())
	}
	fmt.Println(token)
}

type profile struct {
	email, firstName, lastName string
}

func mint(secret, userID, orgID, role string, ttl time.Duration, p profile) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("JWT_SECRET is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	role = strings.ToUpper(strings.TrimSpace(role))
	if role != "ADMIN" && role != "USER" {
		return "", fmt.Errorf("role must be ADMIN or USER, got %q", role)
	}
	if userID == "" {
		userID = uuid.NewString()
	}
	claims := auth.NewClaims(userID, orgID, role, ttl).WithProfile(p.email, p.firstName, p.lastName)
	return auth.SignHS256(claims, secret)
}

func fatal(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(2)
}
