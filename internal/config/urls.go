// Package config provides configuration management for the session service.
package config

// ServiceURLs contains URLs for the session service API based on environment.
// URLs are automatically configured based on the current environment setting.
type ServiceURLs struct {
	// AuthServiceBaseURL is the base URL for the session service auth API.
	// Client-side components (the resilience handler and session validator)
	// use it to reach the validate-session and logout endpoints.
	AuthServiceBaseURL string
}

// GetServiceURLs returns environment-appropriate URLs for the session service.
// It reads the environment from the config and returns the corresponding URLs.
// Calling code does not need to know about the environment - it's handled internally.
//
// Example usage:
//
//	cfg, _ := config.Load()
//	urls := cfg.GetServiceURLs()
//	validator := client.NewSessionValidator(urls.AuthServiceBaseURL, logger)
func (c *Config) GetServiceURLs() ServiceURLs {
	switch c.Environment.Environment {
	case NonProd:
		fallthrough
	case Prod:
		return ServiceURLs{
			AuthServiceBaseURL: "http://session-service.portal.svc.cluster.local:8080/api/v1/auth",
		}
	case Local:
		fallthrough
	default:
		return ServiceURLs{
			AuthServiceBaseURL: "http://localhost:8080/api/v1/auth",
		}
	}
}
