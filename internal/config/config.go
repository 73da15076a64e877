// Package config resolves tool settings from flags, environment and an
// optional config file through viper into a plain Config value.
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/simonhull/itunesdb/internal/chunk"
	"github.com/simonhull/itunesdb/internal/sidefile"
	"github.com/simonhull/itunesdb/internal/types"
)

// EnvPrefix prefixes environment overrides (ITUNESDB_MAX_DEPTH, ...).
const EnvPrefix = "ITUNESDB"

// Keys.
const (
	KeySource         = "source"
	KeyType           = "type"
	KeyOutput         = "output"
	KeySideFile       = "side_file"
	KeyMaxDepth       = "max_depth"
	KeyLogLevel       = "log_level"
	KeyStringEncoding = "string_encoding"
	KeyBackupSuffix   = "backup_suffix"
	KeyMasterPlaylist = "master_playlist"
)

// Output modes.
const (
	OutputCSV   = "csv"
	OutputJSON  = "json"
	OutputWrite = "write"
)

// Config holds the settings passed to every entry point.
type Config struct {
	Source         string
	Type           types.FileType
	Output         string
	SideFile       string
	MaxDepth       int
	LogLevel       logrus.Level
	StringEncoding chunk.Encoding
	BackupSuffix   string
	MasterPlaylist string
}

// SetDefaults registers the default for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyType, types.FileTypeITunesDB.String())
	v.SetDefault(KeyOutput, OutputCSV)
	v.SetDefault(KeySideFile, sidefile.DefaultPath)
	v.SetDefault(KeyMaxDepth, chunk.DefaultMaxDepth)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyStringEncoding, "utf16")
	v.SetDefault(KeyBackupSuffix, "")
	v.SetDefault(KeyMasterPlaylist, "iPod")
}

// New returns a viper instance with defaults and environment binding.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads a Config out of v, validating enumerated values.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		Source:         v.GetString(KeySource),
		SideFile:       v.GetString(KeySideFile),
		MaxDepth:       v.GetInt(KeyMaxDepth),
		BackupSuffix:   v.GetString(KeyBackupSuffix),
		MasterPlaylist: v.GetString(KeyMasterPlaylist),
	}

	typeName := v.GetString(KeyType)
	cfg.Type = types.ParseFileType(typeName)
	if cfg.Type == types.FileTypeUnknown {
		return Config{}, fmt.Errorf("unknown file type %q", typeName)
	}

	cfg.Output = strings.ToLower(v.GetString(KeyOutput))
	switch cfg.Output {
	case OutputCSV, OutputJSON, OutputWrite:
	default:
		return Config{}, fmt.Errorf("unknown output mode %q (want csv, json or write)", cfg.Output)
	}

	if cfg.MaxDepth <= 0 {
		return Config{}, fmt.Errorf("max depth must be positive, got %d", cfg.MaxDepth)
	}

	level, err := logrus.ParseLevel(v.GetString(KeyLogLevel))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	enc, err := ParseEncoding(v.GetString(KeyStringEncoding))
	if err != nil {
		return Config{}, err
	}
	cfg.StringEncoding = enc

	if cfg.SideFile == "" {
		cfg.SideFile = sidefile.DefaultPath
	}
	return cfg, nil
}

// ParseEncoding maps a configured encoding name to a string encoding.
func ParseEncoding(name string) (chunk.Encoding, error) {
	switch strings.ToLower(strings.ReplaceAll(name, "-", "")) {
	case "utf16", "utf16le":
		return chunk.EncodingUTF16LE, nil
	case "utf8":
		return chunk.EncodingUTF8, nil
	default:
		return 0, fmt.Errorf("unknown string encoding %q (want utf16 or utf8)", name)
	}
}
