package core

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kat-co/vala"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		Addr            string
		DebugAddr       string
		ShutdownTimeout time.Duration
	}

	DatabaseConfig struct {
		Engine        string
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		Host          string
		Port          string
		DisableTLS    bool
	}

	RosterConfig struct {
		// AutoCreateEmailDomain: unknown student emails on this domain are
		// auto-registered as student accounts when added to a roster.
		AutoCreateEmailDomain string
	}

	AccessConfig struct {
		// FailClosed restricts submission listings when the requester id does
		// not resolve to a known user. Defaults to false: the historical
		// behavior treats an unknown requester as a plain student.
		FailClosed bool
	}

	Config struct {
		Debug            bool
		TestMode         bool
		Env              string
		Build            string
		AppName          string
		DefaultFromEmail string
		FrontendBaseURL  string
		SendgridAPIKey   string
		RollbarToken     string

		Server   ServerConfig
		Database DatabaseConfig
		Roster   RosterConfig
		Access   AccessConfig
	}
)

func (c DatabaseConfig) Address() string {
	return c.Host + ":" + c.Port
}

func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("appName", "Darasa")
	v.SetDefault("build", "dev")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.debugAddr", ":8001")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.name", "darasa")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.disableTLS", true)
	v.SetDefault("roster.autoCreateDomain", "union.edu")
	v.SetDefault("access.failClosed", false)

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	return &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		DefaultFromEmail: v.GetString("defaultFromEmail"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		Server: ServerConfig{
			Host:            v.GetString("server.host"),
			Addr:            v.GetString("server.addr"),
			DebugAddr:       v.GetString("server.debugAddr"),
			ShutdownTimeout: v.GetDuration("server.shutdownTimeout"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			Host:          v.GetString("database.host"),
			Port:          v.GetString("database.port"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Roster: RosterConfig{
			AutoCreateEmailDomain: v.GetString("roster.autoCreateDomain"),
		},
		Access: AccessConfig{
			FailClosed: v.GetBool("access.failClosed"),
		},
	}
}

// Validate checks that required settings are present for non-DEV environments.
func (c *Config) Validate() error {
	if c.Debug || c.TestMode {
		return nil
	}
	return vala.BeginValidation().Validate(
		vala.StringNotEmpty(c.Database.Name, "database.name"),
		vala.StringNotEmpty(c.Database.User, "database.user"),
		vala.StringNotEmpty(c.Database.Password, "database.password"),
		vala.StringNotEmpty(c.SendgridAPIKey, "sendgridApiKey"),
		vala.StringNotEmpty(c.RollbarToken, "rollbarToken"),
	).Check()
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (%s, build %s)", c.AppName, c.Env, c.Build)
}
