package config

import (
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port         string        `envconfig:"PORT" default:"3000"`
	GinMode      string        `envconfig:"GIN_MODE" default:"release"`
	LogLevel     string        `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat    string        `envconfig:"LOG_FORMAT" default:"console"`
	SessionDir   string        `envconfig:"SESSION_DIR" default:"./whatsapp-session"`
	UploadDir    string        `envconfig:"UPLOAD_DIR" default:"uploads"`
	PublicDir    string        `envconfig:"PUBLIC_DIR" default:"public"`
	SendInterval time.Duration `envconfig:"SEND_INTERVAL" default:"1s"`
	InitDelay    time.Duration `envconfig:"INIT_DELAY" default:"2s"`
	DemoDelay    time.Duration `envconfig:"DEMO_DELAY" default:"1s"`
	SeedData     bool          `envconfig:"SEED_DATA" default:"true"`
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
