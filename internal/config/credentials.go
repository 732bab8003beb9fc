package config

import "os"

// Credentials holds secrets read from the environment at startup.
// They are never written to the config file or the audit store.
type Credentials struct {
	GeminiAPIKey string

	GoogleSearchAPIKey   string
	GoogleSearchEngineID string

	AlphaVantageAPIKey string

	SMTPServer       string
	SMTPUsername     string
	SMTPPassword     string
	SenderEmail      string
	DestinationEmail string
}

// CredentialsFromEnv reads all secrets from the process environment.
// Missing values are left empty; each consumer decides whether its
// credential is required.
func CredentialsFromEnv() Credentials {
	smtpServer := os.Getenv("SMTP_SERVER_IP")
	if smtpServer == "" {
		smtpServer = "localhost"
	}
	return Credentials{
		GeminiAPIKey:         os.Getenv("GEMINI_API_KEY"),
		GoogleSearchAPIKey:   os.Getenv("GOOGLE_SEARCH_API_KEY"),
		GoogleSearchEngineID: os.Getenv("GOOGLE_SEARCH_ENGINE_ID"),
		AlphaVantageAPIKey:   os.Getenv("ALPHA_VANTAGE_API_KEY"),
		SMTPServer:           smtpServer,
		SMTPUsername:         os.Getenv("SMTP_USERNAME"),
		SMTPPassword:         os.Getenv("SMTP_PASSWORD"),
		SenderEmail:          os.Getenv("SENDER_EMAIL"),
		DestinationEmail:     os.Getenv("DESTINATION_EMAIL"),
	}
}
