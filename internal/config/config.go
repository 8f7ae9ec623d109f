package config

import (
	"flag"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
)

/*
run address: RUN_ADDRESS or -a;
database DSN: DATABASE_URI or -d;
JWT signing secret: JWT_SECRET or -s;
NATS relay url, empty to run single instance: NATS_URL or -n.
*/

type ServerConfig struct {
	RunAddress      string        `env:"RUN_ADDRESS"`
	DatabaseDSN     string        `env:"DATABASE_URI"`
	SecretKey       string        `env:"JWT_SECRET"`
	NATSURL         string        `env:"NATS_URL"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"30m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	AdminUsername   string        `env:"ADMIN_USERNAME"`
	AdminPassword   string        `env:"ADMIN_PASSWORD"`

	Secret []byte
}

// NewConfig reads the environment first; flags fill whatever is unset.
func NewConfig() (*ServerConfig, error) {
	return parse(flag.CommandLine, os.Args[1:])
}

func parse(fs *flag.FlagSet, args []string) (*ServerConfig, error) {
	var params ServerConfig
	err := env.Parse(&params)
	if err != nil {
		return nil, err
	}

	var commandLineParams ServerConfig

	fs.StringVar(&commandLineParams.RunAddress, "a", "localhost:8080", "Base address to listen on")
	fs.StringVar(&commandLineParams.DatabaseDSN, "d", "postgres://postgres@localhost:5432/laundry?sslmode=disable", "Database DSN")
	fs.StringVar(&commandLineParams.SecretKey, "s", "secret", "JWT signing secret")
	fs.StringVar(&commandLineParams.NATSURL, "n", "", "NATS url for cross-instance fan-out")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if params.RunAddress == "" {
		params.RunAddress = commandLineParams.RunAddress
	}
	if params.DatabaseDSN == "" {
		params.DatabaseDSN = commandLineParams.DatabaseDSN
	}
	if params.SecretKey == "" {
		params.SecretKey = commandLineParams.SecretKey
	}
	if params.NATSURL == "" {
		params.NATSURL = commandLineParams.NATSURL
	}
	params.Secret = []byte(params.SecretKey)

	return &params, nil
}
