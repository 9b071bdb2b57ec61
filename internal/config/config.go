package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Port                          string `mapstructure:"PORT"`
	DatabaseDriver                string `mapstructure:"DATABASE_DRIVER"`
	DatabasePath                  string `mapstructure:"DATABASE_PATH"`
	DatabaseDSN                   string `mapstructure:"DATABASE_DSN"`
	DBMaxOpenConns                int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns                int    `mapstructure:"DB_MAX_IDLE_CONNS"`
	DiscordClientID               string `mapstructure:"DISCORD_CLIENT_ID"`
	DiscordClientSecret           string `mapstructure:"DISCORD_CLIENT_SECRET"`
	DiscordRedirectURL            string `mapstructure:"DISCORD_REDIRECT_URL"`
	DiscordBotToken               string `mapstructure:"DISCORD_BOT_TOKEN"`
	DiscordNotificationsChannelID string `mapstructure:"DISCORD_NOTIFICATIONS_CHANNEL_ID"`
	AMQPURL                       string `mapstructure:"AMQP_URL"`
	AMQPExchange                  string `mapstructure:"AMQP_EXCHANGE"`
	OTLPEndpoint                  string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	JWTSecret                     string `mapstructure:"JWT_SECRET"`
	FrontendURL                   string `mapstructure:"FRONTEND_URL"`
	EnableCORS                    bool   `mapstructure:"ENABLE_CORS"`
	BookingMaxAttempts            int    `mapstructure:"BOOKING_MAX_ATTEMPTS"`
}

// LoadConfig reads the configuration from the environment using the global viper
// instance.
func LoadConfig() *Config {
	return Load(viper.GetViper())
}

// Load fills a Config from v. Command line tools bind their flags into v before
// calling it so that flags override the environment.
func Load(v *viper.Viper) *Config {
	v.SetDefault("PORT", "8080")
	v.SetDefault("DATABASE_DRIVER", "sqlite")
	v.SetDefault("DATABASE_PATH", "workshops.db")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DISCORD_REDIRECT_URL", "http://127.0.0.1:8080/auth/discord/callback")
	v.SetDefault("FRONTEND_URL", "http://127.0.0.1:3000/parent-dashboard")
	v.SetDefault("AMQP_EXCHANGE", "workshops")
	v.SetDefault("BOOKING_MAX_ATTEMPTS", 3)

	v.BindEnv("DATABASE_DSN")
	v.BindEnv("DISCORD_CLIENT_ID")
	v.BindEnv("DISCORD_CLIENT_SECRET")
	v.BindEnv("DISCORD_BOT_TOKEN")
	v.BindEnv("DISCORD_NOTIFICATIONS_CHANNEL_ID")
	v.BindEnv("AMQP_URL")
	v.BindEnv("OTEL_EXPORTER_OTLP_ENDPOINT")
	v.BindEnv("JWT_SECRET")
	v.BindEnv("ENABLE_CORS")

	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}

	return &config
}
