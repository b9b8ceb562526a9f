package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	envPrefix         = "STOREFRONT"
	configFileEnvName = envPrefix + "_CONFIG_FILE"
)

const (
	SessionMemory = "memory"
	SessionRedis  = "redis"

	ImagesLocal = "local"
	ImagesS3    = "s3"
)

type session struct {
	Backend      string        `mapstructure:"backend"`
	RedisURL     string        `mapstructure:"redis_url"`
	TTL          time.Duration `mapstructure:"ttl"`
	CookieName   string        `mapstructure:"cookie_name"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
}

type auth struct {
	// RememberSecret signs the remember-me cookie. Empty disables it.
	RememberSecret string        `mapstructure:"remember_secret"`
	RememberTTL    time.Duration `mapstructure:"remember_ttl"`
	PasswordCost   int           `mapstructure:"password_cost"`
}

type images struct {
	Backend   string `mapstructure:"backend"`
	Dir       string `mapstructure:"dir"`
	URLPrefix string `mapstructure:"url_prefix"`
	S3Bucket  string `mapstructure:"s3_bucket"`
	S3Region  string `mapstructure:"s3_region"`
	S3BaseURL string `mapstructure:"s3_base_url"`
}

type importFile struct {
	// File is imported at startup when set.
	File      string `mapstructure:"file"`
	Delimiter string `mapstructure:"delimiter"`
	OnError   string `mapstructure:"on_error"`
}

type brokerTLS struct {
	Enabled  bool   `mapstructure:"enabled"`
	CAFile   string `mapstructure:"ca_file"`
	CertFile string `mapstructure:"cert_file"`
	KeyFile  string `mapstructure:"key_file"`
}

type topics struct {
	ProductsCreated string `mapstructure:"products_created"`
	ProductsFeed    string `mapstructure:"products_feed"`
}

type consumers struct {
	ProductsFeedGroup string `mapstructure:"products_feed_group"`
}

type broker struct {
	Enabled            bool      `mapstructure:"enabled"`
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	TLS                brokerTLS `mapstructure:"tls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
}

type tracing struct {
	Stdout bool `mapstructure:"stdout"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	SQLMigrate     bool       `mapstructure:"sql_migrate"`
	Session        session    `mapstructure:"session"`
	Auth           auth       `mapstructure:"auth"`
	Images         images     `mapstructure:"images"`
	Import         importFile `mapstructure:"import"`
	Broker         broker     `mapstructure:"broker"`
	Tracing        tracing    `mapstructure:"tracing"`
}

var defaults = map[string]any{
	"log_level":                            "info",
	"http_server_addr":                     ":8000",
	"sql_db":                               "",
	"sql_migrate":                          true,
	"session.backend":                      SessionMemory,
	"session.redis_url":                    "",
	"session.ttl":                          "24h",
	"session.cookie_name":                  "session_id",
	"session.cookie_secure":                false,
	"auth.remember_secret":                 "",
	"auth.remember_ttl":                    "720h",
	"auth.password_cost":                   10,
	"images.backend":                       ImagesLocal,
	"images.dir":                           "static/img/products",
	"images.url_prefix":                    "/static/img/products/",
	"images.s3_bucket":                     "",
	"images.s3_region":                     "",
	"images.s3_base_url":                   "",
	"import.file":                          "",
	"import.delimiter":                     "| ",
	"import.on_error":                      "fail",
	"broker.enabled":                       false,
	"broker.seed_brokers":                  []string{},
	"broker.schema_registry_urls":          []string{},
	"broker.tls.enabled":                   false,
	"broker.tls.ca_file":                   "",
	"broker.tls.cert_file":                 "",
	"broker.tls.key_file":                  "",
	"broker.topics.products_created":       "storefront.products.created",
	"broker.topics.products_feed":          "storefront.products.feed",
	"broker.consumers.products_feed_group": "storefront-products-feed",
	"tracing.stdout":                       false,
}

// Load reads the config file named by the --config flag or the
// STOREFRONT_CONFIG_FILE variable. A .env file in the working directory is
// loaded first. The process exits on any error.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		die(err)
	}

	cfg, err := Read(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// Read builds the config from defaults, the optional file at path and
// STOREFRONT_ prefixed environment variables, in increasing priority.
func Read(path string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if c.SQLDB == "" {
		errs = append(errs, errors.New("sql_db: required"))
	}

	switch c.Session.Backend {
	case SessionMemory:
	case SessionRedis:
		if c.Session.RedisURL == "" {
			errs = append(errs, errors.New("session.redis_url: required for redis backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("session.backend: unknown %q", c.Session.Backend))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl: must be positive"))
	}

	if c.Auth.RememberSecret != "" && c.Auth.RememberTTL <= 0 {
		errs = append(errs, errors.New("auth.remember_ttl: must be positive"))
	}

	switch c.Images.Backend {
	case ImagesLocal:
		if c.Images.Dir == "" {
			errs = append(errs, errors.New("images.dir: required for local backend"))
		}
	case ImagesS3:
		if c.Images.S3Bucket == "" {
			errs = append(errs, errors.New("images.s3_bucket: required for s3 backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("images.backend: unknown %q", c.Images.Backend))
	}

	if c.Import.File != "" && c.Import.Delimiter == "" {
		errs = append(errs, errors.New("import.delimiter: required"))
	}

	if c.Broker.Enabled {
		if len(c.Broker.SeedBrokers) == 0 {
			errs = append(errs, errors.New("broker.seed_brokers: required"))
		}
		if len(c.Broker.SchemaRegistryURLs) == 0 {
			errs = append(errs, errors.New("broker.schema_registry_urls: required"))
		}
	}

	return errors.Join(errs...)
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config: %v\n", err)
	os.Exit(2)
}

func (c Config) Print() {
	template := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB=%q
	SQLMigrate=%t

	Session:
	Backend=%q
	RedisURL=%q
	TTL=%s
	CookieName=%q

	Auth:
	RememberSecret=%q
	RememberTTL=%s
	PasswordCost=%d

	Images:
	Backend=%q
	Dir=%q
	S3Bucket=%q

	Import:
	File=%q
	Delimiter=%q
	OnError=%q

	Broker:
	Enabled=%t
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		ProductsCreated=%q
		ProductsFeed=%q
	Consumers:
		ProductsFeedGroup=%q

	Tracing:
	Stdout=%t

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(template, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		redactURL(c.SQLDB),
		c.SQLMigrate,
		c.Session.Backend,
		redactURL(c.Session.RedisURL),
		c.Session.TTL,
		c.Session.CookieName,
		mask(c.Auth.RememberSecret),
		c.Auth.RememberTTL,
		c.Auth.PasswordCost,
		c.Images.Backend,
		c.Images.Dir,
		c.Images.S3Bucket,
		c.Import.File,
		c.Import.Delimiter,
		c.Import.OnError,
		c.Broker.Enabled,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.Broker.TLS.Enabled,
		c.Broker.Topics.ProductsCreated,
		c.Broker.Topics.ProductsFeed,
		c.Broker.Consumers.ProductsFeedGroup,
		c.Tracing.Stdout,
	)
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return mask(raw)
	}
	return u.Redacted()
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "****"
}
