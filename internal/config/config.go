// Package config loads fyneterm settings from a YAML file, the environment
// and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/fyne-io/vt100"
	"github.com/fyne-io/vt100/tty"
)

// EnvPrefix is prepended to every environment override, VT100_TERMINAL_ROWS
// sets terminal.rows.
const EnvPrefix = "VT100"

// Config holds all application settings. Struct tags are used by the Viper
// mapstructure decoder.
type Config struct {
	Terminal  Terminal  `mapstructure:"terminal"`
	Session   Session   `mapstructure:"session"`
	Shell     Shell     `mapstructure:"shell"`
	SSH       SSH       `mapstructure:"ssh"`
	WebSocket WebSocket `mapstructure:"websocket"`
	UI        UI        `mapstructure:"ui"`
}

type Terminal struct {
	Rows    int    `mapstructure:"rows"`
	Columns int    `mapstructure:"columns"`
	Charset string `mapstructure:"charset"`
	Debug   bool   `mapstructure:"debug"`
}

// Session decides whether the window closes when the emulator stops.
type Session struct {
	CloseOnExit  bool `mapstructure:"close_on_exit"`
	CloseOnError bool `mapstructure:"close_on_error"`
}

type Shell struct {
	Command string `mapstructure:"command"`
	Dir     string `mapstructure:"dir"`
}

type SSH struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	KeyFile         string        `mapstructure:"key_file"`
	KnownHosts      string        `mapstructure:"known_hosts"`
	Timeout         time.Duration `mapstructure:"timeout"`
	AgentForwarding bool          `mapstructure:"agent_forwarding"`
}

type WebSocket struct {
	URL string `mapstructure:"url"`
}

type UI struct {
	Language string `mapstructure:"language"`
}

// flagKeys maps command line flag names onto configuration keys.
var flagKeys = map[string]string{
	"debug":   "terminal.debug",
	"rows":    "terminal.rows",
	"columns": "terminal.columns",
	"charset": "terminal.charset",
	"shell":   "shell.command",
	"dir":     "shell.dir",
	"host":    "ssh.host",
	"port":    "ssh.port",
	"user":    "ssh.user",
	"key":     "ssh.key_file",
	"url":     "websocket.url",
	"lang":    "ui.language",
}

// Load reads configuration from a file and allows environment variables and
// then flags to override any value. A missing file is not an error, flags may
// be nil.
func Load(configPath string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = v.BindEnv("terminal.debug", "VT100_DEBUG")
	_ = v.BindEnv("ssh.password", "VT100_SSH_PASSWORD", "SSHPASS")
	_ = v.BindEnv("websocket.url", "VT100_WS_URL")

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if configPath != "" {
		if err := v.ReadInConfig(); err != nil {
			if !isNotFound(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Terminal.Rows < 1 || c.Terminal.Columns < 1 {
		return fmt.Errorf("terminal size %dx%d: %w", c.Terminal.Columns, c.Terminal.Rows, ErrInvalid)
	}
	if _, err := vt100.NewCharset(c.Terminal.Charset); err != nil {
		return fmt.Errorf("terminal charset: %w", err)
	}
	return nil
}

// ErrInvalid marks a configuration value out of range.
var ErrInvalid = errors.New("invalid configuration")

// isNotFound returns true when err indicates the config file does not exist.
func isNotFound(err error) bool {
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		return true
	}
	var pathErr *os.PathError
	return errors.As(err, &pathErr) && os.IsNotExist(pathErr)
}

// setDefaults defines baseline values for all configuration parameters.
func setDefaults(v *viper.Viper) {
	shell := os.Getenv("SHELL")
	if shell == "" {
		shell = "bash"
	}

	v.SetDefault("terminal.rows", 24)
	v.SetDefault("terminal.columns", 80)
	v.SetDefault("terminal.charset", vt100.DefaultCharset)
	v.SetDefault("terminal.debug", false)
	v.SetDefault("session.close_on_exit", true)
	v.SetDefault("session.close_on_error", false)
	v.SetDefault("shell.command", shell)
	v.SetDefault("shell.dir", "")
	v.SetDefault("ssh.host", "localhost")
	v.SetDefault("ssh.port", 22)
	v.SetDefault("ssh.user", os.Getenv("USER"))
	v.SetDefault("ssh.password", "")
	v.SetDefault("ssh.key_file", "")
	v.SetDefault("ssh.known_hosts", "")
	v.SetDefault("ssh.timeout", 25*time.Second)
	v.SetDefault("ssh.agent_forwarding", false)
	v.SetDefault("websocket.url", "")
	v.SetDefault("ui.language", "en")
}

// Size is the starting terminal size.
func (c *Config) Size() vt100.Size {
	return vt100.Size{Width: c.Terminal.Columns, Height: c.Terminal.Rows}
}

// Policy builds the session controller, onClose runs when it decides to close.
func (c *Config) Policy(onClose func()) vt100.SessionPolicy {
	return vt100.SessionPolicy{
		OnError: c.Session.CloseOnError,
		OnExit:  c.Session.CloseOnExit,
		OnClose: onClose,
	}
}

// SSHConfig is the transport configuration of the ssh section.
func (c *Config) SSHConfig() tty.SSHConfig {
	return tty.SSHConfig{
		Host:            c.SSH.Host,
		Port:            c.SSH.Port,
		User:            c.SSH.User,
		Password:        c.SSH.Password,
		KeyFile:         c.SSH.KeyFile,
		KnownHosts:      c.SSH.KnownHosts,
		AgentForwarding: c.SSH.AgentForwarding,
		Timeout:         c.SSH.Timeout,
	}
}
