package configuration

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppPort    int `envconfig:"APP_PORT" default:"8080"`
	SocketPort int `envconfig:"SOCKET_PORT" default:"8081"`

	MongoURI           string `envconfig:"MONGO_URI" default:"mongodb://localhost:27017"`
	MongoDatabase      string `envconfig:"MONGO_DATABASE" default:"swappio"`
	MessagesCollection string `envconfig:"MESSAGES_COLLECTION" default:"messages"`
	UsersCollection    string `envconfig:"USERS_COLLECTION" default:"users"`
	ListingsCollection string `envconfig:"LISTINGS_COLLECTION" default:"listings"`

	SocketRoute string `envconfig:"SOCKET_ROUTE" default:"chat"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	JWTTTLMin int    `envconfig:"JWT_TTL_MIN" default:"1440"`

	AllowedOrigins []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:4200"`
}

// TokenTTL returns the configured JWT lifetime.
func (c *Config) TokenTTL() time.Duration {
	return time.Duration(c.JWTTTLMin) * time.Minute
}

// LoadConfig reads configuration from the environment, with .env as an
// optional local override file.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // .env is optional; real deployments set the env directly

	var config Config
	if err := envconfig.Process("", &config); err != nil {
		return nil, err
	}
	return &config, nil
}
