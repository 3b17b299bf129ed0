// Package bootcfg loads the host-level settings the board needs before the
// NVS-backed configuration store can even be opened: where the config
// database lives, which serial port and GPIO lines to bind to, and the
// logger's own settings. Everything the rest of the system treats as
// runtime-tunable lives in configstore instead, not here.
package bootcfg

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config is the bootstrap configuration read once at process start.
type Config struct {
	NVS    NVSConfig    `mapstructure:"nvs"`
	Serial SerialConfig `mapstructure:"serial"`
	GPIO   GPIOConfig   `mapstructure:"gpio"`
	Logger LoggerConfig `mapstructure:"logger"`
}

// NVSConfig locates the configuration core's backing store.
type NVSConfig struct {
	Path string `mapstructure:"path"`
}

// SerialConfig names the serial endpoint the netif link binds to.
type SerialConfig struct {
	Port     string `mapstructure:"port"`
	BaudRate int    `mapstructure:"baud_rate"`
}

// GPIOConfig names the line ids the ranging core and LED transport use.
type GPIOConfig struct {
	TriggerPin int `mapstructure:"trigger_pin"`
	EchoPin    int `mapstructure:"echo_pin"`
	LEDPin     int `mapstructure:"led_pin"`
}

// LoggerConfig mirrors logging.Config's host-tunable fields.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	LogDir string `mapstructure:"log_dir"`
}

// Load reads configuration from file and environment variables, falling
// back to defaults for anything unset.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		v.AddConfigPath(getConfigDir())
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("bootcfg: read config: %w", err)
		}
	}

	v.SetEnvPrefix("RANGEGUARD")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("bootcfg: unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("nvs.path", "./data/rangeguard.db")

	v.SetDefault("serial.port", "/dev/ttyUSB0")
	v.SetDefault("serial.baud_rate", 115200)

	v.SetDefault("gpio.trigger_pin", 23)
	v.SetDefault("gpio.echo_pin", 24)
	v.SetDefault("gpio.led_pin", 18)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.log_dir", "./logs")
}

func getConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".rangeguard")
}
