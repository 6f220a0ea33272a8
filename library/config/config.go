package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"github.com/AliMakkawi/library-management/pkg/ai"
	"github.com/AliMakkawi/library-management/pkg/cache"
	"github.com/AliMakkawi/library-management/pkg/kafka"
	"github.com/AliMakkawi/library-management/pkg/logger"
	"github.com/AliMakkawi/library-management/pkg/postgres"
	"github.com/kelseyhightower/envconfig"
)

type HTTPServer struct {
	Host         string        `yaml:"host" envconfig:"LIBRARY_HTTP_HOST" default:"0.0.0.0"`
	Port         string        `yaml:"port" envconfig:"LIBRARY_HTTP_PORT" default:"8080"`
	ReadTimeout  time.Duration `yaml:"readTimeout" envconfig:"HTTP_READ" default:"15s"`
	WriteTimeout time.Duration
}

type JWT struct {
	Secret string        `json:"-" envconfig:"JWT_SECRET" required:"true"`
	TTL    time.Duration `yaml:"ttl" envconfig:"JWT_TTL" default:"24h"`
}

// Loan holds the workflow periods.
type Loan struct {
	Period        time.Duration `yaml:"period" envconfig:"LOAN_PERIOD" default:"336h"`
	InvitationTTL time.Duration `yaml:"invitationTTL" envconfig:"INVITATION_TTL" default:"168h"`
}

type Config struct {
	Server   HTTPServer  `yaml:"server"`
	Database postgres.DB `yaml:"db"`
	Kafka    kafka.Config
	Log      logger.Log `yaml:"log"`
	JWT      JWT
	AI       ai.Config `json:"-"`
	Cache    cache.Config
	Loan     Loan
}

var (
	once sync.Once
	cfg  *Config
)

// NewConfig reads config from environment.
func NewConfig(ops ...Option) *Config {
	once.Do(func() {
		var config Config
		for _, op := range ops {
			op(&config)
		}
		err := envconfig.Process("", &config)
		if err != nil {
			log.Fatal("NewConfig ", err)
		}
		cfg = &config
		printConfig(os.Stdout, cfg)
	})

	return cfg
}

// printConfig dumps the effective config; secrets carry json:"-" and stay out of it.
func printConfig(w io.Writer, cfg *Config) {
	jscfg, _ := json.MarshalIndent(cfg, "", "	") //nolint:errcheck
	fmt.Fprintln(w, string(jscfg))
}
