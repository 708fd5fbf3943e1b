package config

import "github.com/caarlos0/env/v9"

type Config struct {
	Port string `env:"PORT" envDefault:"8080"`

	DBDriver               string `env:"DB_DRIVER" envDefault:"mysql"` // mysql or sqlite
	DBUser                 string `env:"DB_USER"`
	DBPassword             string `env:"DB_PASSWORD"`
	DBHost                 string `env:"DB_HOST"` // e.g. tcp(host:3306) or unix(/cloudsql/instance)
	DBName                 string `env:"DB_NAME"`
	DBPort                 string `env:"DB_PORT" envDefault:"3306"`
	InstanceConnectionName string `env:"INSTANCE_CONNECTION_NAME"`
	SQLitePath             string `env:"SQLITE_PATH" envDefault:"carbon.db"`

	StoreBackend          string `env:"STORE_BACKEND" envDefault:"db"` // db, memory or gcs
	StorageBucket         string `env:"STORAGE_BUCKET"`
	StoragePrefix         string `env:"STORAGE_PREFIX" envDefault:"kv"`
	GoogleCredentialsFile string `env:"GOOGLE_CREDENTIALS_FILE"`

	FirebaseProjectID string `env:"FIREBASE_PROJECT_ID"`
	OfficialUsername  string `env:"OFFICIAL_USERNAME" envDefault:"official"`
	OfficialPassword  string `env:"OFFICIAL_PASSWORD" envDefault:"password"`

	InitialLoginBalance int64 `env:"INITIAL_LOGIN_BALANCE" envDefault:"42"`
	SignupBalance       int64 `env:"SIGNUP_BALANCE" envDefault:"0"`
	LedgerWriteRetries  int   `env:"LEDGER_WRITE_RETRIES" envDefault:"2"`

	VerifyBaseURL      string `env:"VERIFY_BASE_URL" envDefault:"http://localhost:5173"`
	GeminiTreeModel    string `env:"GEMINI_TREE_MODEL" envDefault:"gemini-2.5-flash"`
	CO2EstimateEnabled bool   `env:"CO2_ESTIMATE_ENABLED" envDefault:"false"`

	PDFFontFile     string `env:"PDF_FONT_FILE"` // UTF-8 TTF; the embedded DejaVu is used when empty
	PDFFontBoldFile string `env:"PDF_FONT_BOLD_FILE"`

	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogDevelopment bool   `env:"LOG_DEVELOPMENT" envDefault:"false"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
