package config

import (
	"errors"
	"io/fs"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Store    StoreConfig    `mapstructure:"store"`
	MySQL    MySQLConfig    `mapstructure:"mysql"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Kafka    KafkaConfig    `mapstructure:"kafka"`
	Business BusinessConfig `mapstructure:"business"`
	Funding  FundingConfig  `mapstructure:"funding"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Seed     SeedConfig     `mapstructure:"seed"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

const (
	StoreDriverMySQL  = "mysql"
	StoreDriverFile   = "file"
	StoreDriverMemory = "memory"
)

// StoreConfig 账本存储后端选择
type StoreConfig struct {
	Driver   string `mapstructure:"driver"`
	FilePath string `mapstructure:"file_path"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type KafkaConfig struct {
	Enabled bool             `mapstructure:"enabled"`
	Brokers []string         `mapstructure:"brokers"`
	Topic   KafkaTopicConfig `mapstructure:"topic"`
}

type KafkaTopicConfig struct {
	LedgerEvents  string `mapstructure:"ledger_events"`
	Notifications string `mapstructure:"notifications"`
}

type BusinessConfig struct {
	MaxRetryCount    int           `mapstructure:"max_retry_count"`
	OutboxInterval   time.Duration `mapstructure:"outbox_interval"`
	SettlementWindow string        `mapstructure:"settlement_window"`
	LockTTL          time.Duration `mapstructure:"lock_ttl"`
}

// FundingConfig 资金规则。所有边界与费率均可通过配置调整
type FundingConfig struct {
	MinInvestment     int64                    `mapstructure:"min_investment"`
	MaxInvestment     int64                    `mapstructure:"max_investment"`
	MinDeposit        int64                    `mapstructure:"min_deposit"`
	MaxDeposit        int64                    `mapstructure:"max_deposit"`
	MinWithdrawal     int64                    `mapstructure:"min_withdrawal"`
	PlatformFeeRate   float64                  `mapstructure:"platform_fee_rate"`
	WithdrawalFeeRate float64                  `mapstructure:"withdrawal_fee_rate"`
	DepositFees       map[string]FeeRuleConfig `mapstructure:"deposit_fees"`
	WithdrawalFees    map[string]FeeRuleConfig `mapstructure:"withdrawal_fees"`
}

// FeeRuleConfig kind 为 flat（固定金额）或 percent（value 为比例，如 0.01）
type FeeRuleConfig struct {
	Kind  string  `mapstructure:"kind"`
	Value float64 `mapstructure:"value"`
}

type GatewayConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

type SeedConfig struct {
	AdminID    string `mapstructure:"admin_id"`
	AdminEmail string `mapstructure:"admin_email"`
}

var GlobalConfig *Config

// LoadConfig 加载配置文件，文件不存在时使用默认值
func LoadConfig(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("读取配置失败: %v", err)
	}
	GlobalConfig = cfg
	return cfg
}

// Load 默认值之上依次叠加配置文件（可选）与 CROWDFUND_* 环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("crowdfund")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			log.Printf("配置文件 %s 不存在，使用默认配置", configPath)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default 内置默认配置，不读文件和环境变量
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		log.Fatalf("解析默认配置失败: %v", err)
	}
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)

	v.SetDefault("store.driver", StoreDriverFile)
	v.SetDefault("store.file_path", "data/ledger.json")

	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.user", "root")
	v.SetDefault("mysql.database", "crowdfund")
	v.SetDefault("mysql.max_open_conns", 20)
	v.SetDefault("mysql.max_idle_conns", 5)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)

	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{"127.0.0.1:9092"})
	v.SetDefault("kafka.topic.ledger_events", "crowdfund.ledger.events")
	v.SetDefault("kafka.topic.notifications", "crowdfund.notifications")

	v.SetDefault("business.max_retry_count", 5)
	v.SetDefault("business.outbox_interval", "500ms")
	v.SetDefault("business.settlement_window", "3-5 business days")
	v.SetDefault("business.lock_ttl", "30s")

	v.SetDefault("funding.min_investment", 500)
	v.SetDefault("funding.max_investment", 50000)
	v.SetDefault("funding.min_deposit", 50)
	v.SetDefault("funding.max_deposit", 50000)
	v.SetDefault("funding.min_withdrawal", 100)
	v.SetDefault("funding.platform_fee_rate", 0.03)
	v.SetDefault("funding.withdrawal_fee_rate", 0.02)
	v.SetDefault("funding.deposit_fees", map[string]interface{}{
		"bank_transfer": map[string]interface{}{"kind": "flat", "value": 5},
		"mobile_wallet": map[string]interface{}{"kind": "percent", "value": 0.01},
		"card":          map[string]interface{}{"kind": "percent", "value": 0.025},
	})
	v.SetDefault("funding.withdrawal_fees", map[string]interface{}{
		"bank_transfer": map[string]interface{}{"kind": "flat", "value": 10},
		"mobile_wallet": map[string]interface{}{"kind": "percent", "value": 0.01},
	})

	v.SetDefault("gateway.delay", "2s")

	v.SetDefault("seed.admin_id", "admin_001")
	v.SetDefault("seed.admin_email", "admin@crowdfund.local")
}
