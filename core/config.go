package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env     string
		Debug   bool
		AppName string
		Build   string

		Server        ServerConfig
		Database      DatabaseConfig
		Redis         RedisConfig
		Client        ClientConfig
		Notifications NotificationsConfig
		EmailJS       EmailJSConfig
		Email         EmailConfig

		SendgridApiKey string
		RollbarToken   string

		defaultFromEmail string
	}

	ServerConfig struct {
		Host            string
		Address         string
		DebugHost       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		URL          string // empty: in-memory storage
		Engine       string
		MaxOpenConns int
	}

	RedisConfig struct {
		URL       string // empty: reports are not cached
		ReportTTL time.Duration
	}

	ClientConfig struct {
		APIBase   string
		StatusTTL time.Duration
		Timeout   time.Duration // 0: no timeout
	}

	NotificationsConfig struct {
		Transport           string // emailjs | sendgrid | console
		AttendanceThreshold float64
	}

	EmailJSConfig struct {
		ServiceID  string
		TemplateID string
		PublicKey  string
		PrivateKey string
		Endpoint   string
	}

	EmailConfig struct {
		AlertRecipients []string
	}
)

// NewConfig loads the configuration from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with ESCOLA_ and nested keys use underscores, eg. ESCOLA_CLIENT_APIBASE.
func NewConfig() *Config {
	v := viper.New()

	// defaults
	v.SetTypeByDefaultValue(true)
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Gestão Escolar")
	v.SetDefault("build", "develop")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.address", ":8000")
	v.SetDefault("server.debugHost", ":4000")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.url", "")
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.maxOpenConns", 10)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.reportTTL", time.Minute)
	v.SetDefault("client.apiBase", "http://127.0.0.1:8000/api")
	v.SetDefault("client.statusTTL", 3*time.Second)
	v.SetDefault("client.timeout", time.Duration(0))
	v.SetDefault("notifications.transport", "emailjs")
	v.SetDefault("notifications.attendanceThreshold", 75.0)
	v.SetDefault("emailjs.serviceID", "")
	v.SetDefault("emailjs.templateID", "")
	v.SetDefault("emailjs.publicKey", "")
	v.SetDefault("emailjs.privateKey", "")
	v.SetDefault("emailjs.endpoint", "https://api.emailjs.com/api/v1.0/email/send")
	v.SetDefault("email.defaultFrom", "Gestão Escolar <nao-responder@sistema-escolar.com>")
	v.SetDefault("email.alertRecipients", []string{})
	v.SetDefault("sendgrid.apiKey", "")
	v.SetDefault("rollbar.token", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (local; default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(Getwd(), "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix("escola")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{
		Env:     env,
		Debug:   v.GetBool("debug"),
		AppName: v.GetString("appName"),
		Build:   v.GetString("build"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Address:         v.GetString("server.address"),
			DebugHost:       v.GetString("server.debugHost"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			URL:          v.GetString("database.url"),
			Engine:       v.GetString("database.engine"),
			MaxOpenConns: v.GetInt("database.maxOpenConns"),
		},
		Redis: RedisConfig{
			URL:       v.GetString("redis.url"),
			ReportTTL: v.GetDuration("redis.reportTTL"),
		},
		Client: ClientConfig{
			APIBase:   strings.TrimRight(v.GetString("client.apiBase"), "/"),
			StatusTTL: v.GetDuration("client.statusTTL"),
			Timeout:   v.GetDuration("client.timeout"),
		},
		Notifications: NotificationsConfig{
			Transport:           strings.ToLower(v.GetString("notifications.transport")),
			AttendanceThreshold: v.GetFloat64("notifications.attendanceThreshold"),
		},
		EmailJS: EmailJSConfig{
			ServiceID:  v.GetString("emailjs.serviceID"),
			TemplateID: v.GetString("emailjs.templateID"),
			PublicKey:  v.GetString("emailjs.publicKey"),
			PrivateKey: v.GetString("emailjs.privateKey"),
			Endpoint:   v.GetString("emailjs.endpoint"),
		},
		Email: EmailConfig{
			AlertRecipients: v.GetStringSlice("email.alertRecipients"),
		},
		SendgridApiKey:   v.GetString("sendgrid.apiKey"),
		RollbarToken:     v.GetString("rollbar.token"),
		defaultFromEmail: v.GetString("email.defaultFrom"),
	}
}

// DefaultFromEmail parses the configured sender address, falling back to a bare address.
func (conf *Config) DefaultFromEmail() mail.Address {
	addr, err := mail.ParseAddress(conf.defaultFromEmail)
	if err != nil {
		return mail.Address{Name: conf.AppName, Address: "nao-responder@sistema-escolar.com"}
	}
	return *addr
}

// Configured reports whether the three credentials required by the EmailJS relay are all set.
func (ejs EmailJSConfig) Configured() bool {
	return ejs.ServiceID != "" && ejs.TemplateID != "" && ejs.PublicKey != ""
}
