// Package config provides configuration management for Stargazer.
//
// Configuration is loaded from environment variables using the env package.
// An optional env file (".env" by default) is read first with godotenv; values
// already present in the process environment are never overridden by it.
//
// ADVICE_URL, NASA_APOD_URL and NASA_API_KEY are required. Everything else has
// a default suitable for development.
//
// Example usage:
//
//	cfg, err := config.Load(config.DefaultEnvFile)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
