package understanding

import (
	"os"

	"google.golang.org/api/option"
)

// GoogleCredentialOptions returns client options for Google Cloud clients.
// Inline JSON in GOOGLE_CREDENTIALS wins over a GOOGLE_APPLICATION_CREDENTIALS
// path. With neither set, nil is returned and application default credentials apply.
func GoogleCredentialOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}
