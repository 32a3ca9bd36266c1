// Command admintoken mints an admin bearer token for the records endpoints.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/platform/config"
)

func main() {
	subject := flag.String("subject", "", "admin identity recorded in the token")
	ttl := flag.Duration("ttl", time.Hour, "token lifetime")
	flag.Parse()

	if *subject == "" {
		fmt.Fprintln(os.Stderr, "admintoken: -subject is required")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "admintoken: %v\n", err)
		os.Exit(1)
	}

	token, err := jwttoken.NewJWTService(cfg.Server.AdminJWTSecret, "docverify", "docverify-admin").
		GenerateAdminToken(*subject, *ttl)
	if err != nil {
		fmt.Fprintf(os.Stderr, "admintoken: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
