package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds the application configuration
type Config struct {
	DocPath       string        `mapstructure:"path"`
	APIURL        string        `mapstructure:"api_url"`
	Timeout       time.Duration `mapstructure:"timeout"`
	CacheSize     int           `mapstructure:"cache_size"`
	Exclude       []string      `mapstructure:"exclude"`
	Editor        string        `mapstructure:"editor"`
	Output        string        `mapstructure:"output"`
	LogLevel      string        `mapstructure:"log_level"`
	LogFile       string        `mapstructure:"log_file"`
	ColorHeader   string        `mapstructure:"color_header"`
	ColorRef      string        `mapstructure:"color_ref"`
	ColorFocus    string        `mapstructure:"color_focus"`
	ColorCode     string        `mapstructure:"color_code"`
	ColorDesc     string        `mapstructure:"color_desc"`
	ColorBorder   string        `mapstructure:"color_border"`
	ColorSelected string        `mapstructure:"color_selected"`
}

// C is the global config instance
var C Config

// Init initializes configuration with viper
func Init() error {
	viper.SetDefault("path", ".")
	viper.SetDefault("api_url", "")               // Empty means read the local path
	viper.SetDefault("timeout", 10*time.Second)   // HTTP client timeout
	viper.SetDefault("cache_size", 128)           // Referenced documents kept per session
	viper.SetDefault("exclude", []string{})       // Glob patterns skipped when scanning path
	viper.SetDefault("editor", os.Getenv("EDITOR"))
	viper.SetDefault("output", "print")
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_file", defaultLogFile())
	viper.SetDefault("color_header", "36")   // Cyan
	viper.SetDefault("color_ref", "33")      // Yellow
	viper.SetDefault("color_focus", "212")   // Pink
	viper.SetDefault("color_code", "32")     // Green
	viper.SetDefault("color_desc", "90")     // Gray
	viper.SetDefault("color_border", "240")
	viper.SetDefault("color_selected", "236")

	viper.SetConfigName("sopmd")
	viper.SetConfigType("yaml")

	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".config", "sopmd"))
		viper.AddConfigPath(home)
	}
	viper.AddConfigPath(".")

	viper.SetEnvPrefix("SOPMD")
	viper.AutomaticEnv()

	// Try to read config, but don't fail if not found or malformed
	_ = viper.ReadInConfig()

	return viper.Unmarshal(&C)
}

// GetPath returns the document path with tilde expansion
func GetPath() string {
	return expandTilde(viper.GetString("path"))
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

// GetAPIURL returns the backend base URL, empty when unset
func GetAPIURL() string {
	return viper.GetString("api_url")
}

// GetTimeout returns the HTTP client timeout
func GetTimeout() time.Duration {
	return viper.GetDuration("timeout")
}

// GetCacheSize returns how many referenced documents a preview session keeps
func GetCacheSize() int {
	if n := viper.GetInt("cache_size"); n > 0 {
		return n
	}
	return 128
}

// GetExclude returns glob patterns skipped while scanning the document path
func GetExclude() []string {
	return viper.GetStringSlice("exclude")
}

// GetEditor returns the editor used to open documents
func GetEditor() string {
	return viper.GetString("editor")
}

// GetOutput returns the output mode
func GetOutput() string {
	return viper.GetString("output")
}

// GetLogLevel returns the zerolog level name
func GetLogLevel() string {
	return viper.GetString("log_level")
}

// GetLogFile returns the log file path with tilde expansion
func GetLogFile() string {
	return expandTilde(viper.GetString("log_file"))
}

// GetColorHeader returns ANSI color code for headings
func GetColorHeader() string {
	return viper.GetString("color_header")
}

// GetColorRef returns ANSI color code for reference markers
func GetColorRef() string {
	return viper.GetString("color_ref")
}

// GetColorFocus returns ANSI color code for the focused reference marker
func GetColorFocus() string {
	return viper.GetString("color_focus")
}

// GetColorCode returns ANSI color code for code spans and blocks
func GetColorCode() string {
	return viper.GetString("color_code")
}

// GetColorDesc returns ANSI color code for descriptions
func GetColorDesc() string {
	return viper.GetString("color_desc")
}

// GetColorBorder returns the color used for dividers and borders
func GetColorBorder() string {
	return viper.GetString("color_border")
}

// GetColorSelected returns the background color of the selected row
func GetColorSelected() string {
	return viper.GetString("color_selected")
}

// SetOutput sets output mode at runtime
func SetOutput(mode string) {
	viper.Set("output", mode)
	C.Output = mode
}

// SetPath sets path at runtime
func SetPath(path string) {
	viper.Set("path", path)
	C.DocPath = path
}

func defaultLogFile() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "sopmd", "sopmd.log")
	}
	return ""
}
