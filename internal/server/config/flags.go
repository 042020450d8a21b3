package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/photogallery/internal/flagx"
)

// parseFlags populates server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., "0.0.0.0")
//	-p int      bind port
//	-d string   PostgreSQL DSN
//	-b string   gallery base URL
//	-n int      default photos per page
//	-x int      max photos per page
//	-t string   template directory
//	-s string   API token signing key
//	-k string   preview session secret
//	-v int      API token validity, minutes
//	-r int      API requests per minute per client
//	-m bool     run migrations at startup (use -m=true)
//	-l string   log level
//
// Notes:
//   - os.Args is filtered to the flags recognized here using
//     flagx.FilterArgs, so -c/-config and unknown flags do not collide.
//   - Parse errors panic.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-p", "-d", "-b", "-n", "-x", "-t", "-s", "-k", "-v", "-r", "-m", "-l",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.Address, "a", config.Address, "address to bind to")
	fs.IntVar(&config.Port, "p", config.Port, "port to bind to")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.BaseURL, "b", config.BaseURL, "gallery base URL")
	fs.IntVar(&config.DefaultPhotosPerPage, "n", config.DefaultPhotosPerPage, "default number of photos per gallery page")
	fs.IntVar(&config.MaxPhotosPerPage, "x", config.MaxPhotosPerPage, "max number of photos per gallery page")
	fs.StringVar(&config.TemplatePath, "t", config.TemplatePath, "path to templates directory")
	fs.StringVar(&config.TokenSigningKey, "s", config.TokenSigningKey, "API token signing key")
	fs.StringVar(&config.SessionSecret, "k", config.SessionSecret, "preview session secret")

	tokenValidityDuration := fs.Int("v", int(config.TokenValidityDuration.Minutes()), "token_validity_duration (in minutes)")

	fs.IntVar(&config.APIRateLimit, "r", config.APIRateLimit, "API requests per minute per client")
	fs.BoolVar(&config.Migrate, "m", config.Migrate, "apply migrations at startup")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenValidityDuration = time.Duration(*tokenValidityDuration) * time.Minute
}
