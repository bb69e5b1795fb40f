// Package config provides configuration management for the item API.
//
// Configuration is loaded from environment variables using the env package.
// The only variable a deployment normally sets is PORT; everything else has
// a default suitable for running in a container.
//
// Example usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Printf("HTTP server will listen on %s\n", cfg.GetHTTPAddr())
package config
