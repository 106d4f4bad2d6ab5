// Package config loads process configuration from environment variables.
//
// It wraps `github.com/joho/godotenv` and `github.com/caarlos0/env/v11`:
//
//   - LoadEnv reads one or more `.env` files into the process environment.
//     Missing files are ignored, the deployment environment always wins over
//     values from disk.
//   - Load parses the environment into any struct annotated with `env` tags
//     and, when the struct implements Validator, runs its Validate method so
//     that cross-field requirements fail at startup.
//
// # Usage
//
//	type MailConfig struct {
//	    Provider string `env:"EMAIL_PROVIDER" envDefault:"smtp"`
//	    User     string `env:"EMAIL_USER"`
//	}
//
//	func (c MailConfig) Validate() error {
//	    if c.Provider == "smtp" && c.User == "" {
//	        return errors.New("EMAIL_USER is required for smtp")
//	    }
//	    return nil
//	}
//
//	var cfg MailConfig
//	if err := config.Load(&cfg); err != nil {
//	    // configuration errors are fatal
//	}
//
// # Error Handling
//
// Errors can be compared with `errors.Is`:
//
//   - ErrParsingConfig  – env vars could not be parsed into the struct.
//   - ErrInvalidConfig  – the struct parsed but Validate rejected it.
//   - ErrNilPointer     – a nil pointer was passed to Load/MustLoad.
package config
