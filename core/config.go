package core

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host            string
		DebugHost       string
		ReadTimeout     time.Duration
		WriteTimeout    time.Duration
		ShutdownTimeout time.Duration
		DisableReqLogs  bool
	}

	// ServicesConfig holds the base URLs of the remote microservices.
	ServicesConfig struct {
		AcademicURL   string
		AttendanceURL string
		StorageURL    string
		Timeout       time.Duration
	}

	ImagesConfig struct {
		MaxConcurrentLookups int // <= 0: unbounded
		LookupTimeout        time.Duration
	}

	CalendarConfig struct {
		MaxDays int
	}

	Config struct {
		Env          string // DEV (local; default), TEST, QA, PROD
		Build        string
		Debug        bool
		TestMode     bool
		AppName      string
		SecretKey    string
		RollbarToken string
		WorkDir      string

		Server   ServerConfig
		Services ServicesConfig
		Images   ImagesConfig
		Calendar CalendarConfig
	}
)

// NewConfig loads the Config from defaults, the optional `config/.env.<env>` file and the environment.
// Environment variables are prefixed with the upper-cased env and use `_` in place of `.`,
// eg. `DEV_SERVICES_ATTENDANCEURL`.
func NewConfig() *Config {
	conf := viper.New()

	// defaults
	conf.SetTypeByDefaultValue(true)
	conf.SetDefault("debug", true)
	conf.SetDefault("testMode", false)
	conf.SetDefault("appName", "Mahudhurio")
	conf.SetDefault("build", "dev")
	conf.SetDefault("secretKey", "n3q8-wlp)x7c$+1a=fz&u0kh5(b!e)#*q2(#ty4m^$dhnj9xaw")
	conf.SetDefault("rollbarToken", "")
	conf.SetDefault("workDir", "")
	conf.SetDefault("server.host", ":8000")
	conf.SetDefault("server.debugHost", ":4000")
	conf.SetDefault("server.readTimeout", 5*time.Second)
	conf.SetDefault("server.writeTimeout", 10*time.Second)
	conf.SetDefault("server.shutdownTimeout", 5*time.Second)
	conf.SetDefault("server.disableReqLogs", false)
	conf.SetDefault("services.academicUrl", "http://localhost:8081")
	conf.SetDefault("services.attendanceUrl", "http://localhost:8082")
	conf.SetDefault("services.storageUrl", "http://localhost:8083")
	conf.SetDefault("services.timeout", 10*time.Second)
	conf.SetDefault("images.maxConcurrentLookups", 16)
	conf.SetDefault("images.lookupTimeout", 5*time.Second)
	conf.SetDefault("calendar.maxDays", 366)

	env := strings.ToUpper(os.Getenv("ENV"))
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		conf.SetDefault("debug", false)
		conf.SetDefault("testMode", true)
	case "QA", "PROD":
		conf.SetDefault("debug", false)
	}
	conf.SetEnvPrefix(env)
	conf.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	workDir := os.Getenv(env + "_WORKDIR")
	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	conf.AutomaticEnv()

	return &Config{
		Env:          env,
		Build:        conf.GetString("build"),
		Debug:        conf.GetBool("debug"),
		TestMode:     conf.GetBool("testMode"),
		AppName:      conf.GetString("appName"),
		SecretKey:    conf.GetString("secretKey"),
		RollbarToken: conf.GetString("rollbarToken"),
		WorkDir:      workDir,
		Server: ServerConfig{
			Host:            conf.GetString("server.host"),
			DebugHost:       conf.GetString("server.debugHost"),
			ReadTimeout:     conf.GetDuration("server.readTimeout"),
			WriteTimeout:    conf.GetDuration("server.writeTimeout"),
			ShutdownTimeout: conf.GetDuration("server.shutdownTimeout"),
			DisableReqLogs:  conf.GetBool("server.disableReqLogs"),
		},
		Services: ServicesConfig{
			AcademicURL:   strings.TrimRight(conf.GetString("services.academicUrl"), "/"),
			AttendanceURL: strings.TrimRight(conf.GetString("services.attendanceUrl"), "/"),
			StorageURL:    strings.TrimRight(conf.GetString("services.storageUrl"), "/"),
			Timeout:       conf.GetDuration("services.timeout"),
		},
		Images: ImagesConfig{
			MaxConcurrentLookups: conf.GetInt("images.maxConcurrentLookups"),
			LookupTimeout:        conf.GetDuration("images.lookupTimeout"),
		},
		Calendar: CalendarConfig{
			MaxDays: conf.GetInt("calendar.maxDays"),
		},
	}
}
