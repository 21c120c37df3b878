package config

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"gitlab.com/vtindex/backoffice_api/featureflags"
	"gitlab.com/vtindex/backoffice_api/lib/sendgrid"
	"gitlab.com/vtindex/backoffice_api/monitor"
	"gitlab.com/vtindex/backoffice_api/mt5"
	"gitlab.com/vtindex/backoffice_api/net/kafka"
)

// Config structure
type Config struct {
	Server          ServerConfig
	DatabaseCluster DatabaseClusterConfig `mapstructure:"database_cluster"`
	MT5             mt5.Config            `mapstructure:"mt5"`
	Kafka           kafka.Config          `mapstructure:"kafka"`
	Crons           Crons                 `mapstructure:"crons"`
	Unleash         featureflags.Config   `mapstructure:"unleash"`
	FeatureFlags    FeatureFlagsConfig    `mapstructure:"feature_flags"`
	Commission      CommissionConfig      `mapstructure:"commission"`
	Emails          []string              `mapstructure:"emails"`
}

// ServerConfig structure
type ServerConfig struct {
	Monitoring monitor.Config  `mapstructure:"monitoring"`
	API        APIConfig       `mapstructure:"api"`
	Admin      AdminConfig     `mapstructure:"admin"`
	Sendgrid   sendgrid.Config `mapstructure:"sendgrid"`
	KYC        KYCConfig       `mapstructure:"kyc"`
	Debug      DebugConfig     `mapstructure:"debug"`
	Reports    ReportsConfig   `mapstructure:"reports"`
}

// APIConfig structure
type APIConfig struct {
	Port                 int
	KeepAlive            bool   `mapstructure:"keep_alive"`
	Domain               string
	CookieDomain         string `mapstructure:"cookie_domain"`
	JWTTokenSecret       string `mapstructure:"jwt_token_secret"`
	JWTRefreshSecret     string `mapstructure:"jwt_refresh_secret"`
	AccessTokenLifetime  int    `mapstructure:"access_token_lifetime"`
	RefreshTokenLifetime int    `mapstructure:"refresh_token_lifetime"`
	LoginOTPTTLSeconds   int    `mapstructure:"login_otp_ttl_seconds"`
}

// AdminConfig structure
type AdminConfig struct {
	Domain string
}

// KYCConfig limits for document uploads
type KYCConfig struct {
	MaxUploadBytes int64    `mapstructure:"max_upload_bytes"`
	AllowedTypes   []string `mapstructure:"allowed_types"`
	UploadDir      string   `mapstructure:"upload_dir"`
}

// DebugConfig structure
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// ReportsConfig - where scheduled summary reports are sent
type ReportsConfig struct {
	Email string `mapstructure:"email"`
}

// FeatureFlagsConfig carries process-wide switches. DisableCommissionCreation
// is the kill switch for the commission engine; the unleash flag of the same
// name can flip it at runtime with this value as the fallback.
type FeatureFlagsConfig struct {
	DisableCommissionCreation bool `mapstructure:"disable_commission_creation"`
}

// CommissionConfig structure
type CommissionConfig struct {
	// MaxDepth bounds the referral chain walk as a defence against
	// corrupted parent links.
	MaxDepth int `mapstructure:"max_depth"`
}

// DatabaseClusterConfig structure
type DatabaseClusterConfig struct {
	Writer      DatabaseConfig `mapstructure:"writer"`
	Reader      DatabaseConfig `mapstructure:"reader"`
	ReaderAdmin DatabaseConfig `mapstructure:"reader_admin"`
}

// DatabaseConfig structure
type DatabaseConfig struct {
	Type            string // postgres / mysql
	Host            string
	Username        string
	Password        string
	Name            string
	SSLmode         string `mapstructure:"sslmode"`
	ApplicationName string `mapstructure:"application_name"`
	Port            int
}

// Crons - mapping of ids to execution frequency
type Crons map[string]string

// LoadConfig Load server configuration from the yaml file
func LoadConfig(viperConf *viper.Viper) Config {
	var config Config

	err := viperConf.Unmarshal(&config)
	if err != nil {
		log.Fatal().Err(err).Msg("Unable to decode config into struct")
	}
	return config
}

// OpenConfig godoc
func OpenConfig(file string) {
	// Don't forget to read config either from cfgFile, from current directory or from home directory!
	if file != "" {
		// Use config file from the flag.
		viper.SetConfigFile(file)
	}

	viper.SetConfigType("yaml")
	viper.SetConfigName(".config")
	viper.AddConfigPath(".")                      // First try to load the config from the current directory
	viper.AddConfigPath("$HOME")                  // Then try to load it from the HOME directory
	viper.AddConfigPath("/etc/backoffice_api/")   // As a last resort try to load it from /etc/
	viper.SetEnvPrefix("CFG")
	viper.AutomaticEnv()
	bindEnvAliases()
	setDefaultVariables()

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		log.Fatal().Err(err).Msg("Unable to read configuration file")
	}
}

// bindEnvAliases keeps the historical un-prefixed variable names working
func bindEnvAliases() {
	_ = viper.BindEnv("feature_flags.disable_commission_creation", "DISABLE_COMMISSION_CREATION")
	_ = viper.BindEnv("server.api.login_otp_ttl_seconds", "LOGIN_OTP_TTL_SECONDS")
	_ = viper.BindEnv("server.api.cookie_domain", "COOKIE_DOMAIN")
	_ = viper.BindEnv("server.sendgrid.batch_size", "EMAIL_BATCH_SIZE")
	_ = viper.BindEnv("server.sendgrid.send_delay_seconds", "EMAIL_SEND_DELAY_SECONDS")
	_ = viper.BindEnv("server.reports.email", "REPORTS_EMAIL_TO")
}

func setDefaultVariables() {
	viper.SetDefault("server.api.login_otp_ttl_seconds", 60)
	viper.SetDefault("server.api.access_token_lifetime", 900)
	viper.SetDefault("server.api.refresh_token_lifetime", 604800)
	viper.SetDefault("server.kyc.max_upload_bytes", 2*1024*1024)
	viper.SetDefault("server.kyc.allowed_types", []string{"image/jpeg", "image/png", "application/pdf"})
	viper.SetDefault("server.kyc.upload_dir", "/var/lib/backoffice_api/kyc")
	viper.SetDefault("commission.max_depth", 16)
	viper.SetDefault("mt5.timeout", 30)
}
