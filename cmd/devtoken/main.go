// Command devtoken mints a bearer token for local testing of the API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"rollbook/internal/auth"
	"rollbook/internal/config"
)

func main() {
	cfg := config.Load()
	subject := flag.String("sub", "faculty-dev", "token subject, recorded as marked_by")
	role := flag.String("role", "faculty", "token role")
	ttl := flag.Duration("ttl", 12*time.Hour, "token lifetime")
	flag.Parse()

	token, exp, err := auth.Issue(*subject, *role, cfg.JWTIssuer, cfg.JWTSigningKey, *ttl)
	if err != nil {
		log.Fatalf("issue token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires %s", exp.Format(time.RFC3339))
}
