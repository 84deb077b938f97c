// Test program to mint bearer tokens against a local JWT_SECRET
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Togather-Foundation/localevents/internal/auth"
	"github.com/Togather-Foundation/localevents/internal/domain/ids"
)

func main() {
	var (
		userID = flag.String("user", "", "Subject: the UUID of a registered user")
		role   = flag.String("role", string(auth.RoleOrganizer), "Role claim: organizer or attendee")
		expiry = flag.Duration("expiry", 24*time.Hour, "Token lifetime")
		issuer = flag.String("issuer", "localevents", "Issuer claim")
	)
	flag.Parse()

	if err := ids.ValidateUUID(*userID); err != nil {
		fmt.Fprintln(os.Stderr, "Error: --user must be the UUID of a registered user")
		os.Exit(1)
	}

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		fmt.Fprintln(os.Stderr, "Error: JWT_SECRET must be set")
		os.Exit(1)
	}

	manager := auth.NewJWTManager(secret, *expiry, *issuer)
	token, err := manager.Generate(*userID, string(auth.NormalizeRole(*role)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("JWT Token:")
	fmt.Println(token)
	fmt.Printf("Expires: %s\n", time.Now().Add(manager.Expiry()).UTC().Format(time.RFC3339))
	fmt.Println("\nTest with:")
	fmt.Printf("curl -H 'Authorization: Bearer %s' http://localhost:5000/api/events\n", token)
}
