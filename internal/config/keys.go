package config

import "os"

// CredentialSource represents where a credential comes from.
type CredentialSource string

const (
	KeySourceEnv    CredentialSource = "env"
	KeySourceConfig CredentialSource = "config"
	KeySourceNone   CredentialSource = "none"
)

// KeyStatus represents the status of a credential.
type KeyStatus struct {
	Name   string           `json:"name"`
	Source CredentialSource `json:"source"`
	IsSet  bool             `json:"is_set"`
	Masked string           `json:"masked,omitempty"` // e.g., "abc...xyz"
}

// CheckCredentials returns the status of all credentials the monitor may need.
func CheckCredentials(cfg *Config) []KeyStatus {
	return []KeyStatus{
		checkKey("SMTP Username", cfg.Notify.Username, "INSIDERWATCH_NOTIFY_USERNAME"),
		checkKey("SMTP Password", cfg.Notify.Password, "INSIDERWATCH_NOTIFY_SMTP_PASSWORD"),
	}
}

// checkKey checks if a credential is set and where it came from.
func checkKey(name, value, envVar string) KeyStatus {
	status := KeyStatus{
		Name:  name,
		IsSet: value != "",
	}

	if value != "" {
		if os.Getenv(envVar) != "" {
			status.Source = KeySourceEnv
		} else {
			status.Source = KeySourceConfig
		}
		status.Masked = maskKey(value)
	} else {
		status.Source = KeySourceNone
	}

	return status
}

// maskKey masks a credential for display, showing only first 3 and last 3 chars.
func maskKey(key string) string {
	if len(key) <= 8 {
		return "***"
	}
	return key[:3] + "..." + key[len(key)-3:]
}
