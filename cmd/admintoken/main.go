// Command admintoken prints a signed bearer token for the admin API.
//
//	admintoken -sub ops@example.com -ttl 24h
//
// The subject must also be listed under admin.subjects, or hold the admin role
// in the policy table, for the token to pass authorization.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go-directory-app/internal/auth"
	"go-directory-app/internal/config"
)

func main() {
	subject := flag.String("sub", "", "subject the token is issued to")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "admintoken: -sub is required")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	tokens := auth.NewTokenVerifier(cfg.Admin.JWTSecret, cfg.Admin.JWTIssuer)
	if tokens == nil {
		fmt.Fprintln(os.Stderr, "admintoken: admin.jwt_secret is not set")
		os.Exit(1)
	}

	token, err := tokens.Issue(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to sign token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
