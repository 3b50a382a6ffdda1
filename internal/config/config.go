package config

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type ProjectCfg struct {
	Name string `mapstructure:"name"`
}

type ServerCfg struct {
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type MysqlCfg struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Database     string `mapstructure:"database"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Charset      string `mapstructure:"charset"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
	LogSQL       bool   `mapstructure:"logSql"`
}

type RabbitCfg struct {
	URL           string `mapstructure:"url"`
	PrefetchCount int    `mapstructure:"prefetchCount"`
}

type RedisCfg struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// 缓存驱动
const (
	CacheDriverRedis  = "redis"
	CacheDriverMemory = "memory"
)

// CacheCfg 令牌、账单方目录与健康统计的存放位置；memory 仅适合单实例部署
type CacheCfg struct {
	Driver        string        `mapstructure:"driver"`
	SweepInterval time.Duration `mapstructure:"sweepInterval"`
}

type SecurityCfg struct {
	InternalToken string `mapstructure:"internalToken"`
}

type RetryCfg struct {
	Times         int           `mapstructure:"times"`
	BackoffFactor time.Duration `mapstructure:"backoffFactor"`
}

// GatewayCfg 账单网关对接参数
type GatewayCfg struct {
	BaseURL         string `mapstructure:"baseUrl"`
	TokenPath       string `mapstructure:"tokenPath"`
	BillersPath     string `mapstructure:"billersPath"`
	FetchBillPath   string `mapstructure:"fetchBillPath"`
	PayBillPath     string `mapstructure:"payBillPath"`
	CheckStatusPath string `mapstructure:"checkStatusPath"`

	UserID        string `mapstructure:"userId"`
	PassKey       string `mapstructure:"passKey"`
	NodeID        string `mapstructure:"nodeId"`
	SyndicateID   string `mapstructure:"syndicateId"`
	BillFetchMode string `mapstructure:"billFetchMode"`
	Version       string `mapstructure:"version"`
	TimeZone      string `mapstructure:"timeZone"`

	// BillersSyncFrequency 账单方目录缓存秒数
	BillersSyncFrequency int `mapstructure:"billersSyncFrequency"`

	EncryptKey string `mapstructure:"encryptKey"`
	EncryptIV  string `mapstructure:"encryptIv"`

	Timeout            time.Duration `mapstructure:"timeout"`
	MaxElapsed         time.Duration `mapstructure:"maxElapsed"`
	InsecureSkipVerify bool          `mapstructure:"insecureSkipVerify"`
	Retry              RetryCfg      `mapstructure:"retry"`

	// HealthThreshold 成功率低于该值标记降级
	HealthThreshold float64 `mapstructure:"healthThreshold"`
}

type NotifyCfg struct {
	TelegramBotToken string `mapstructure:"telegramBotToken"`
	TelegramChatID   string `mapstructure:"telegramChatId"`
}

type LogCfg struct {
	Dir   string `mapstructure:"dir"`
	Level string `mapstructure:"level"`
}

type Root struct {
	Project  ProjectCfg  `mapstructure:"project"`
	Server   ServerCfg   `mapstructure:"server"`
	Mysql    MysqlCfg    `mapstructure:"mysql"`
	RabbitMQ RabbitCfg   `mapstructure:"rabbitmq"`
	Redis    RedisCfg    `mapstructure:"redis"`
	Cache    CacheCfg    `mapstructure:"cache"`
	Security SecurityCfg `mapstructure:"security"`
	Gateway  GatewayCfg  `mapstructure:"gateway"`
	Notify   NotifyCfg   `mapstructure:"notify"`
	Log      LogCfg      `mapstructure:"log"`
}

var C Root

func Init() {
	env := flag.String("env", "dev", "config env: dev|prod")
	flag.Parse()

	_ = godotenv.Load()

	root, err := Load("config/config." + *env + ".yaml")
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	C = *root
}

// Load 读取配置文件，环境变量可覆盖（gateway.passKey -> GATEWAY_PASSKEY）
func Load(path string) (*Root, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file failed: %w", err)
	}
	var root Root
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}
	root.applyDefaults()
	switch root.Cache.Driver {
	case CacheDriverRedis, CacheDriverMemory:
	default:
		return nil, fmt.Errorf("unsupported cache driver %q", root.Cache.Driver)
	}
	return &root, nil
}

// sane defaults
func (r *Root) applyDefaults() {
	if strings.TrimSpace(r.Project.Name) == "" {
		r.Project.Name = "bill-gateway"
	}
	if strings.TrimSpace(r.Server.Port) == "" {
		r.Server.Port = "8080"
	}
	if r.Mysql.Charset == "" {
		r.Mysql.Charset = "utf8mb4"
	}
	if r.Log.Dir == "" {
		r.Log.Dir = "./logs"
	}
	r.Cache.Driver = strings.ToLower(strings.TrimSpace(r.Cache.Driver))
	if r.Cache.Driver == "" {
		r.Cache.Driver = CacheDriverRedis
	}
	if r.Cache.SweepInterval <= 0 {
		r.Cache.SweepInterval = time.Minute
	}

	g := &r.Gateway
	if g.TokenPath == "" {
		g.TokenPath = "/api/v1/token"
	}
	if g.BillersPath == "" {
		g.BillersPath = "/api/v2/fetch-mdm-data"
	}
	if g.FetchBillPath == "" {
		g.FetchBillPath = "/api/v1/fetch-bill"
	}
	if g.PayBillPath == "" {
		g.PayBillPath = "/api/v1/update-bill-payment"
	}
	if g.CheckStatusPath == "" {
		g.CheckStatusPath = "/api/v1/check-bill-status"
	}
	if g.Version == "" {
		g.Version = "v1.3.0"
	}
	if g.BillFetchMode == "" {
		g.BillFetchMode = "SAPI"
	}
	if g.TimeZone == "" {
		g.TimeZone = "Asia/Dhaka"
	}
	if g.BillersSyncFrequency <= 0 {
		g.BillersSyncFrequency = 86400
	}
	if g.Timeout <= 0 {
		g.Timeout = 10 * time.Second
	}
	if g.Retry.Times <= 0 {
		g.Retry.Times = 5
	}
	if g.Retry.BackoffFactor <= 0 {
		g.Retry.BackoffFactor = time.Second
	}
	if g.MaxElapsed <= 0 {
		g.MaxElapsed = 90 * time.Second
	}
	if g.HealthThreshold <= 0 {
		g.HealthThreshold = 60
	}
}
