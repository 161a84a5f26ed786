package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "REWARDS_DB_DSN"
	EnvDBHost = "REWARDS_DB_HOST"
	EnvDBUser = "REWARDS_DB_USER"
	EnvDBName = "REWARDS_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Shopify      ShopifyConfig
	Mailchimp    MailchimpConfig
	Rewards      RewardsConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REWARDS_APP_ENV" required:"true"`
	Port         string `envconfig:"REWARDS_APP_PORT" default:"8080"`
	LogLevel     string `envconfig:"REWARDS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REWARDS_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"REWARDS_DB_DSN"`
	Driver string `envconfig:"REWARDS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REWARDS_DB_HOST"`
	LegacyPort     int    `envconfig:"REWARDS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REWARDS_DB_USER"`
	LegacyPassword string `envconfig:"REWARDS_DB_PASSWORD"`
	LegacyName     string `envconfig:"REWARDS_DB_NAME"`
	LegacySSLMode  string `envconfig:"REWARDS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REWARDS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REWARDS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REWARDS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REWARDS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REWARDS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"REWARDS_REDIS_ADDR"`
	Password     string        `envconfig:"REWARDS_REDIS_PASSWORD"`
	DB           int           `envconfig:"REWARDS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REWARDS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REWARDS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REWARDS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REWARDS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REWARDS_REDIS_WRITE_TIMEOUT" default:"5s"`

	IdempotencyTTL time.Duration `envconfig:"REWARDS_REDIS_IDEMPOTENCY_TTL" default:"168h"`
}

type ShopifyConfig struct {
	StoreDomain   string        `envconfig:"REWARDS_SHOPIFY_STORE_DOMAIN"`
	AdminToken    string        `envconfig:"REWARDS_SHOPIFY_ADMIN_TOKEN"`
	APIVersion    string        `envconfig:"REWARDS_SHOPIFY_API_VERSION" default:"2024-01"`
	WebhookSecret string        `envconfig:"REWARDS_SHOPIFY_WEBHOOK_SECRET"`
	Timeout       time.Duration `envconfig:"REWARDS_SHOPIFY_TIMEOUT" default:"10s"`
}

type MailchimpConfig struct {
	APIKey  string        `envconfig:"REWARDS_MAILCHIMP_API_KEY"`
	ListID  string        `envconfig:"REWARDS_MAILCHIMP_LIST_ID"`
	Timeout time.Duration `envconfig:"REWARDS_MAILCHIMP_TIMEOUT" default:"10s"`
}

// RewardsConfig carries the point economy knobs. The action whitelist and the
// milestone catalog are env-tunable so marketing can adjust them without a
// deploy.
type RewardsConfig struct {
	SignupBonus           int               `envconfig:"REWARDS_SIGNUP_BONUS" default:"5"`
	ReferralSignupBonus   int               `envconfig:"REWARDS_REFERRAL_SIGNUP_BONUS" default:"5"`
	ReferralPurchaseBonus int               `envconfig:"REWARDS_REFERRAL_PURCHASE_BONUS" default:"25"`
	WelcomeDiscount       string            `envconfig:"REWARDS_WELCOME_DISCOUNT" default:"5.00"`
	ReferralBaseURL       string            `envconfig:"REWARDS_REFERRAL_BASE_URL" default:"https://shop.hazelpoint.com"`
	ActionPoints          map[string]int    `envconfig:"REWARDS_ACTION_POINTS" default:"facebook_share:5,instagram_follow:5,twitter_share:5,product_review:10"`
	MilestoneRewards      map[string]string `envconfig:"REWARDS_MILESTONE_REWARDS" default:"5:Free Sticker Pack,10:Free Hoodie"`
}

// MilestoneReward resolves the reward configured for a referral-count
// threshold. Env map keys are decimal strings.
func (r RewardsConfig) MilestoneReward(threshold int) (string, bool) {
	name, ok := r.MilestoneRewards[strconv.Itoa(threshold)]
	return name, ok
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"REWARDS_OUTBOX_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"REWARDS_OUTBOX_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"REWARDS_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"REWARDS_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
