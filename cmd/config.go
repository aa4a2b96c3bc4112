package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/taskdeck/taskdeck/types"
)

const (
	configName = ".taskdeck"
	envPrefix  = "TASKDECK"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

// validate is a single validator instance; it caches struct info.
var validate = validator.New()

// InitConfig reads in the config file and ENV variables if set.
func InitConfig() {
	// A .env file is optional.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g. TASKDECK_VERBOSE
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfgFileFlag := viper.GetString("config")
	if cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(".")  // ./.taskdeck.yaml
		viper.AddConfigPath(home) // $HOME/.taskdeck.yaml
		viper.SetConfigName(configName)
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			if cfgFileFlag != "" {
				fmt.Fprintln(os.Stderr, "Error: specified config file not found:", cfgFileFlag)
			}
		} else {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	viper.SetDefault("data.backend", "file")
	viper.SetDefault("data.file", "tasks.json")
	viper.SetDefault("data.format", "json")
	viper.SetDefault("data.sqlitePath", "tasks.db")
	viper.SetDefault("defaults.category", "general")
	viper.SetDefault("roster", []string{"Jay", "Jude", "Jorgen", "Earl", "Philip", "Sam", "Glenn"})
	viper.SetDefault("user.name", defaultUserName())
	viper.SetDefault("history.maxDepth", 10)
	viper.SetDefault("history.file", ".taskdeck/history.json")
	viper.SetDefault("strict", false)

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		HandleError("Could not parse the configuration file.", err)
	}

	if err := validate.Struct(&GlobalAppConfig); err != nil {
		HandleError(fmt.Sprintf("Invalid configuration: %s", err), err)
	}
}

// defaultUserName falls back to the login name when no identity is
// configured. The roster, not the login, governs who can be assigned.
func defaultUserName() string {
	for _, env := range []string{"USER", "USERNAME"} {
		if v := os.Getenv(env); v != "" {
			return v
		}
	}
	return "unknown"
}

// GetConfig returns a pointer to the global config instance.
func GetConfig() *types.AppConfig {
	return &GlobalAppConfig
}

// historyFilePath resolves the history file next to the data file unless
// an absolute path is configured.
func historyFilePath() string {
	cfg := GetConfig()
	path := cfg.History.File
	if path == "" {
		path = ".taskdeck/history.json"
	}
	if !filepath.IsAbs(path) {
		if dir := filepath.Dir(cfg.Data.File); dir != "" && dir != "." {
			return filepath.Join(dir, filepath.Base(path))
		}
	}
	return path
}
