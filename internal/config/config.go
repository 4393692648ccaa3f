package config

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// VerbosityLevel controls how much run output is shown
type VerbosityLevel string

const (
	VerbosityQuiet   VerbosityLevel = "quiet"
	VerbosityNormal  VerbosityLevel = "normal"
	VerbosityVerbose VerbosityLevel = "verbose"
	VerbosityDebug   VerbosityLevel = "debug"
)

// VerbosityFromString converts a string to a VerbosityLevel, defaulting to
// normal for unknown values.
func VerbosityFromString(s string) VerbosityLevel {
	switch VerbosityLevel(s) {
	case VerbosityQuiet, VerbosityNormal, VerbosityVerbose, VerbosityDebug:
		return VerbosityLevel(s)
	default:
		return VerbosityNormal
	}
}

var verbosityOrder = map[VerbosityLevel]int{
	VerbosityQuiet:   0,
	VerbosityNormal:  1,
	VerbosityVerbose: 2,
	VerbosityDebug:   3,
}

// AtLeast reports whether this level is at or above the given minimum
func (v VerbosityLevel) AtLeast(min VerbosityLevel) bool {
	return verbosityOrder[v] >= verbosityOrder[min]
}

// Config holds the application configuration
type Config struct {
	Shell           string `mapstructure:"shell"`
	Workdir         string `mapstructure:"workdir"`
	AllowOutside    bool   `mapstructure:"allow_outside"`
	Verbosity       string `mapstructure:"verbosity"`
	OutputFormat    string `mapstructure:"output_format"`
	ShowCommands    bool   `mapstructure:"show_commands"`
	ShowSubstituted bool   `mapstructure:"show_substituted"`
	ShowExpected    bool   `mapstructure:"show_expected"`
	ShowCaptured    bool   `mapstructure:"show_captured"`
	ShowTimestamps  bool   `mapstructure:"show_timestamps"`
	ShowStepBanners bool   `mapstructure:"show_step_banners"`
	ShowPreviews    bool   `mapstructure:"show_previews"`
}

// C is the global config instance
var C Config

// Init initializes configuration with viper
func Init() error {
	viper.SetDefault("shell", getDefaultShell())
	viper.SetDefault("workdir", "")
	viper.SetDefault("allow_outside", false)
	viper.SetDefault("verbosity", string(VerbosityNormal))
	viper.SetDefault("output_format", "text") // text or jsonl
	viper.SetDefault("show_commands", true)
	viper.SetDefault("show_substituted", false)
	viper.SetDefault("show_expected", true)
	viper.SetDefault("show_captured", true)
	viper.SetDefault("show_timestamps", false)
	viper.SetDefault("show_step_banners", true)
	viper.SetDefault("show_previews", false)

	viper.SetConfigName("guiderun")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "guiderun"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("GUIDERUN")
	viper.AutomaticEnv()

	// Try to read config, but don't fail if not found or malformed
	_ = viper.ReadInConfig()

	return viper.Unmarshal(&C)
}

// GetShell returns the shell used to run code blocks
func GetShell() string {
	if s := viper.GetString("shell"); s != "" {
		return s
	}
	return getDefaultShell()
}

// GetWorkdir returns the base working directory with tilde expansion
func GetWorkdir() string {
	return expandTilde(viper.GetString("workdir"))
}

// GetAllowOutside returns whether file operations may leave the sandbox
func GetAllowOutside() bool {
	return viper.GetBool("allow_outside")
}

// GetVerbosity returns the configured verbosity level
func GetVerbosity() VerbosityLevel {
	return VerbosityFromString(viper.GetString("verbosity"))
}

// GetOutputFormat returns the run output format (text or jsonl)
func GetOutputFormat() string {
	return viper.GetString("output_format")
}

// GetShowCommands returns whether commands are echoed before running
func GetShowCommands() bool {
	return viper.GetBool("show_commands")
}

// GetShowSubstituted returns whether the substituted command is shown
func GetShowSubstituted() bool {
	return viper.GetBool("show_substituted")
}

// GetShowExpected returns whether expectations are shown per block
func GetShowExpected() bool {
	return viper.GetBool("show_expected")
}

// GetShowCaptured returns whether captured output is shown
func GetShowCaptured() bool {
	return viper.GetBool("show_captured")
}

// GetShowTimestamps returns whether per-block timestamps are shown
func GetShowTimestamps() bool {
	return viper.GetBool("show_timestamps")
}

// GetShowStepBanners returns whether step banners are printed
func GetShowStepBanners() bool {
	return viper.GetBool("show_step_banners")
}

// GetShowPreviews returns whether file block previews are shown
func GetShowPreviews() bool {
	return viper.GetBool("show_previews")
}

// SetVerbosity sets the verbosity level at runtime and applies its presets
func SetVerbosity(level VerbosityLevel) {
	viper.Set("verbosity", string(level))
	C.Verbosity = string(level)
	applyVerbosityPresets(level)
}

// SetOutputFormat sets the output format at runtime
func SetOutputFormat(format string) {
	viper.Set("output_format", format)
	C.OutputFormat = format
}

// SetAllowOutside sets the sandbox escape flag at runtime
func SetAllowOutside(allow bool) {
	viper.Set("allow_outside", allow)
	C.AllowOutside = allow
}

// SetWorkdir sets the base working directory at runtime
func SetWorkdir(dir string) {
	viper.Set("workdir", dir)
	C.Workdir = dir
}

// applyVerbosityPresets adjusts display toggles for a verbosity level.
// Explicit show_* settings from file or env have already been read; presets
// only move the toggles that track the level itself.
func applyVerbosityPresets(level VerbosityLevel) {
	switch level {
	case VerbosityQuiet:
		viper.Set("show_step_banners", false)
		viper.Set("show_previews", false)
		viper.Set("show_timestamps", false)
		viper.Set("show_substituted", false)
	case VerbosityNormal:
		viper.Set("show_step_banners", true)
		viper.Set("show_previews", false)
		viper.Set("show_timestamps", false)
		viper.Set("show_substituted", false)
	case VerbosityVerbose, VerbosityDebug:
		viper.Set("show_step_banners", true)
		viper.Set("show_previews", true)
		viper.Set("show_timestamps", true)
		viper.Set("show_substituted", true)
	}
}

// expandTilde expands ~ to the user's home directory
func expandTilde(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

func getDefaultShell() string {
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/sh"
}
