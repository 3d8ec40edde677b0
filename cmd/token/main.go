// Command token mints an operator access token for the payroll API.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/cmlabs-hris/resto-payroll/internal/config"
	"github.com/cmlabs-hris/resto-payroll/internal/pkg/jwt"
)

func main() {
	operatorID := flag.String("operator", "", "operator id recorded as paid_by")
	name := flag.String("name", "", "operator display name")
	expiration := flag.String("exp", "", "token lifetime, defaults to JWT_ACCESS_EXPIRATION_TIME")
	flag.Parse()

	if *operatorID == "" {
		fmt.Fprintln(os.Stderr, "-operator is required")
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		os.Exit(1)
	}
	if *expiration == "" {
		*expiration = cfg.JWT.AccessExpiration
	}

	token, expiresAt, err := jwt.NewJWTService(cfg.JWT.Secret, *expiration).GenerateAccessToken(*operatorID, *name)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error generating token:", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stderr, "expires at %s\n", time.Unix(expiresAt, 0).Format(time.RFC3339))
	fmt.Println(token)
}
