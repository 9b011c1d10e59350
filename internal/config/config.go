package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Media backends
const (
	MediaBackendImageKit = "imagekit"
	MediaBackendR2       = "r2"
	MediaBackendS3       = "s3"
	MediaBackendLocal    = "local"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database (empty = in-memory record store)
	DatabaseURL string

	// Redis (empty = process-local change feed)
	RedisURL string

	// JWT
	JWTSecret    string
	JWTAccessTTL time.Duration

	// CORS
	AllowedOrigins []string

	// Firebase (identity provider + browser config)
	Firebase FirebaseConfig

	// ImageKit
	ImageKitPublicKey   string
	ImageKitPrivateKey  string
	ImageKitURLEndpoint string
	ImageKitUploadURL   string
	ImageKitAPIURL      string

	// Media backend: imagekit, r2, s3 or local
	MediaBackend string

	// Storage (R2)
	R2AccountID       string
	R2AccessKeyID     string
	R2AccessKeySecret string
	R2BucketName      string
	R2PublicURL       string

	// Storage (S3 / MinIO)
	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	// Storage (local)
	LocalStoragePath string
	LocalStorageURL  string

	// Uploads
	MediaFolder       string
	MediaTag          string
	UploadConcurrency int
	UploadMaxBytes    int64

	// Relays
	RelayBaseURL     string
	RelayToken       string
	RelayRequireAuth bool
	RelayRateLimit   string

	// Outgoing HTTP
	HTTPClientTimeout time.Duration

	// Local operator (used when Firebase is not configured)
	AdminEmail        string
	AdminPasswordHash string
	AdminUID          string

	// Logging
	LogLevel string
}

// FirebaseConfig holds the identity provider project identifiers.
type FirebaseConfig struct {
	APIKey            string
	AuthDomain        string
	DatabaseURL       string
	ProjectID         string
	StorageBucket     string
	MessagingSenderID string
	AppID             string
}

func Load() *Config {
	// Load .env file in development
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	return &Config{
		// Server
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),

		// Database
		DatabaseURL: getEnv("DATABASE_URL", ""),

		// Redis
		RedisURL: getEnv("REDIS_URL", ""),

		// JWT
		JWTSecret:    getEnv("JWT_SECRET", "super-secret-key-change-me"),
		JWTAccessTTL: parseDuration(getEnv("JWT_ACCESS_TTL", "12h"), 12*time.Hour),

		// CORS
		AllowedOrigins: parseStringSlice(getEnv("ALLOWED_ORIGINS", "http://localhost:3000")),

		// Firebase
		Firebase: FirebaseConfig{
			APIKey:            getEnv("FIREBASE_API_KEY", ""),
			AuthDomain:        getEnv("FIREBASE_AUTH_DOMAIN", ""),
			DatabaseURL:       getEnv("FIREBASE_DB_URL", ""),
			ProjectID:         getEnv("FIREBASE_PROJECT_ID", ""),
			StorageBucket:     getEnv("FIREBASE_STORAGE_BUCKET", ""),
			MessagingSenderID: getEnv("FIREBASE_SENDER_ID", ""),
			AppID:             getEnv("FIREBASE_APP_ID", ""),
		},

		// ImageKit
		ImageKitPublicKey:   getEnv("IMAGEKIT_PUBLIC_KEY", ""),
		ImageKitPrivateKey:  getEnv("IMAGEKIT_PRIVATE_KEY", ""),
		ImageKitURLEndpoint: getEnv("IMAGEKIT_URL_ENDPOINT", ""),
		ImageKitUploadURL:   getEnv("IMAGEKIT_UPLOAD_URL", "https://upload.imagekit.io/api/v1/files/upload"),
		ImageKitAPIURL:      getEnv("IMAGEKIT_API_URL", "https://api.imagekit.io/v1"),

		MediaBackend: getEnv("MEDIA_BACKEND", MediaBackendImageKit),

		// Storage (R2)
		R2AccountID:       getEnv("R2_ACCOUNT_ID", ""),
		R2AccessKeyID:     getEnv("R2_ACCESS_KEY_ID", ""),
		R2AccessKeySecret: getEnv("R2_ACCESS_KEY_SECRET", ""),
		R2BucketName:      getEnv("R2_BUCKET_NAME", "flowersdz-media"),
		R2PublicURL:       getEnv("R2_PUBLIC_URL", ""),

		// Storage (S3)
		S3Endpoint:  getEnv("S3_ENDPOINT", ""),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", "flowersdz-media"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", ""),
		S3SecretKey: getEnv("S3_SECRET_KEY", ""),
		S3PublicURL: getEnv("S3_PUBLIC_URL", ""),

		// Storage (local)
		LocalStoragePath: getEnv("LOCAL_STORAGE_PATH", "./uploads"),
		LocalStorageURL:  getEnv("LOCAL_STORAGE_URL", "http://localhost:8080/media"),

		// Uploads
		MediaFolder:       getEnv("MEDIA_FOLDER", "/flowersdz"),
		MediaTag:          getEnv("MEDIA_TAG", "flowersdz"),
		UploadConcurrency: parseInt(getEnv("UPLOAD_CONCURRENCY", "1"), 1),
		UploadMaxBytes:    int64(parseInt(getEnv("UPLOAD_MAX_BYTES", "104857600"), 100*1024*1024)),

		// Relays
		RelayBaseURL:     getEnv("RELAY_BASE_URL", ""),
		RelayToken:       getEnv("RELAY_TOKEN", ""),
		RelayRequireAuth: parseBool(getEnv("RELAY_REQUIRE_AUTH", "false"), false),
		RelayRateLimit:   getEnv("RELAY_RATE_LIMIT", "60-M"),

		HTTPClientTimeout: parseDuration(getEnv("HTTP_CLIENT_TIMEOUT", "60s"), 60*time.Second),

		// Local operator
		AdminEmail:        getEnv("ADMIN_EMAIL", ""),
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminUID:          getEnv("ADMIN_UID", "local-admin"),

		// Logging
		LogLevel: getEnv("LOG_LEVEL", "debug"),
	}
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseBool(s string, defaultValue bool) bool {
	value, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseInt(s string, defaultValue int) int {
	value, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return value
}

func parseStringSlice(s string) []string {
	if s == "" {
		return []string{}
	}
	// Simple split by comma
	var result []string
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if start < i {
				result = append(result, s[start:i])
			}
			start = i + 1
		}
	}
	return result
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// UsesFirebaseAuth reports whether the hosted identity provider is configured.
func (c *Config) UsesFirebaseAuth() bool {
	return c.Firebase.APIKey != ""
}
