package config

// AuthenticationEndpoint is the path the browser media SDK calls for signed upload parameters.
const AuthenticationEndpoint = "/.netlify/functions/imagekit-auth"

// ClientConfig is the browser-safe runtime environment object. It never carries the
// media API private key.
type ClientConfig struct {
	FirebaseAPIKey         string `json:"FIREBASE_API_KEY"`
	FirebaseAuthDomain     string `json:"FIREBASE_AUTH_DOMAIN"`
	FirebaseDBURL          string `json:"FIREBASE_DB_URL"`
	FirebaseProjectID      string `json:"FIREBASE_PROJECT_ID"`
	FirebaseStorageBucket  string `json:"FIREBASE_STORAGE_BUCKET"`
	FirebaseSenderID       string `json:"FIREBASE_SENDER_ID"`
	FirebaseAppID          string `json:"FIREBASE_APP_ID"`
	ImageKitPublicKey      string `json:"IMAGEKIT_PUBLIC_KEY"`
	ImageKitURLEndpoint    string `json:"IMAGEKIT_URL_ENDPOINT"`
	AuthenticationEndpoint string `json:"AUTHENTICATION_ENDPOINT"`
}

// Client builds the runtime environment object. Unset values fall back to their
// build-time placeholder, e.g. "${FIREBASE_API_KEY}".
func (c *Config) Client() ClientConfig {
	return ClientConfig{
		FirebaseAPIKey:         orPlaceholder(c.Firebase.APIKey, "FIREBASE_API_KEY"),
		FirebaseAuthDomain:     orPlaceholder(c.Firebase.AuthDomain, "FIREBASE_AUTH_DOMAIN"),
		FirebaseDBURL:          orPlaceholder(c.Firebase.DatabaseURL, "FIREBASE_DB_URL"),
		FirebaseProjectID:      orPlaceholder(c.Firebase.ProjectID, "FIREBASE_PROJECT_ID"),
		FirebaseStorageBucket:  orPlaceholder(c.Firebase.StorageBucket, "FIREBASE_STORAGE_BUCKET"),
		FirebaseSenderID:       orPlaceholder(c.Firebase.MessagingSenderID, "FIREBASE_SENDER_ID"),
		FirebaseAppID:          orPlaceholder(c.Firebase.AppID, "FIREBASE_APP_ID"),
		ImageKitPublicKey:      orPlaceholder(c.ImageKitPublicKey, "IMAGEKIT_PUBLIC_KEY"),
		ImageKitURLEndpoint:    orPlaceholder(c.ImageKitURLEndpoint, "IMAGEKIT_URL_ENDPOINT"),
		AuthenticationEndpoint: AuthenticationEndpoint,
	}
}

func orPlaceholder(value, name string) string {
	if value != "" {
		return value
	}
	return "${" + name + "}"
}
