package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// IdPの種類
const (
	IdentityProviderFirebase = "firebase"
	IdentityProviderKratos   = "kratos"
)

// プロフィールストアの種類
const (
	ProfileStoreFirestore = "firestore"
	ProfileStorePostgres  = "postgres"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string
	Debug      bool

	// Backends
	IdentityProvider string
	ProfileStore     string

	// Firebase / Firestore
	FirebaseCredentialsFile string
	FirebaseProjectID       string
	ProfileCollection       string

	// Kratos
	KratosPublicURL string
	KratosAdminURL  string
	KratosSchemaID  string

	// Database
	DatabaseURL string

	// External calls
	ExternalCallTimeout time.Duration

	// CORS
	CORSAllowedOrigins []string
}

// UsesFirebase はFirebaseアプリの初期化が必要な構成かどうかを返す。
func (c *Config) UsesFirebase() bool {
	return c.IdentityProvider == IdentityProviderFirebase || c.ProfileStore == ProfileStoreFirestore
}

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定、または値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.ServerPort = getEnvString("SERVER_PORT", "5000")
	cfg.Debug = getEnvBool("DEBUG", false)
	cfg.IdentityProvider = strings.ToLower(getEnvString("IDENTITY_PROVIDER", IdentityProviderFirebase))
	cfg.ProfileStore = strings.ToLower(getEnvString("PROFILE_STORE", ProfileStoreFirestore))
	cfg.FirebaseCredentialsFile = getEnvString("FIREBASE_CREDENTIALS_FILE", "serviceAccountKey.json")
	cfg.FirebaseProjectID = os.Getenv("FIREBASE_PROJECT_ID")
	cfg.ProfileCollection = getEnvString("PROFILE_COLLECTION", "users")
	cfg.KratosPublicURL = os.Getenv("KRATOS_PUBLIC_URL")
	cfg.KratosAdminURL = os.Getenv("KRATOS_ADMIN_URL")
	cfg.KratosSchemaID = getEnvString("KRATOS_SCHEMA_ID", "default")
	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	timeout, timeoutOK := getEnvDuration("EXTERNAL_CALL_TIMEOUT", 10*time.Second)
	cfg.ExternalCallTimeout = timeout
	cfg.CORSAllowedOrigins = getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"})

	var invalid []string
	var missing []string

	switch cfg.IdentityProvider {
	case IdentityProviderFirebase:
	case IdentityProviderKratos:
		if cfg.KratosPublicURL == "" {
			missing = append(missing, "KRATOS_PUBLIC_URL")
		}
		if cfg.KratosAdminURL == "" {
			missing = append(missing, "KRATOS_ADMIN_URL")
		}
	default:
		invalid = append(invalid, fmt.Sprintf("IDENTITY_PROVIDER=%q", cfg.IdentityProvider))
	}

	switch cfg.ProfileStore {
	case ProfileStoreFirestore:
	case ProfileStorePostgres:
		if cfg.DatabaseURL == "" {
			missing = append(missing, "DATABASE_URL")
		}
	default:
		invalid = append(invalid, fmt.Sprintf("PROFILE_STORE=%q", cfg.ProfileStore))
	}

	if !timeoutOK || cfg.ExternalCallTimeout <= 0 {
		invalid = append(invalid, fmt.Sprintf("EXTERNAL_CALL_TIMEOUT=%q", os.Getenv("EXTERNAL_CALL_TIMEOUT")))
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}
	if len(invalid) > 0 {
		return nil, fmt.Errorf("invalid environment variables: %v", invalid)
	}

	return cfg, nil
}

// LoadDotEnv はpathsの.envファイルを環境変数に読み込む。
// 既に設定されている環境変数は上書きしない。ファイルが存在しない場合は何もしない。
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, path := range paths {
		if err := godotenv.Load(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

// getEnvDuration は環境変数をtime.Durationとして返す。
// 未設定の場合はdefaultValを返し、解析できない場合はokがfalseになる。
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, bool) {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal, true
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal, false
	}
	return d, true
}

// getEnvList はカンマ区切りの環境変数を空要素を除いたスライスとして返す。
func getEnvList(key string, defaultVal []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}
