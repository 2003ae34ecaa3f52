package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/tutormatematica/tutorchat/internal/auth"
)

type output struct {
	JWTSecret    string `json:"jwt_secret"`
	CookieSecret string `json:"cookie_secret"`
}

func main() {
	var (
		size   = flag.Int("bytes", auth.MinSecretBytes, "Random bytes per secret (minimum 32)")
		format = flag.String("format", "env", "Output format: env or json")
	)
	flag.Parse()

	jwtSecret, err := auth.GenerateSecret(*size)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cookieSecret, err := auth.GenerateSecret(*size)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	switch *format {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(output{JWTSecret: jwtSecret, CookieSecret: cookieSecret}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	case "env":
		fmt.Printf("JWT_SECRET=%s\n", jwtSecret)
		fmt.Printf("COOKIE_SECRET=%s\n", cookieSecret)
	default:
		fmt.Fprintf(os.Stderr, "unknown format %q\n", *format)
		os.Exit(2)
	}
}
