package main

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/simonhull/itunesdb"
	"github.com/simonhull/itunesdb/internal/config"
)

// app is the state shared by every subcommand of one invocation.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	log     *logrus.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{v: config.New(), log: logrus.New()}

	root := &cobra.Command{
		Use:   "itunesdb",
		Short: "Read, report on and write device media databases",
		Long: `itunesdb decodes the chunk-structured databases a portable media player
keeps under iPod_Control/iTunes, reports their songs, playlists and play
counts as CSV or JSON, and writes new databases from a JSON side-file.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.initConfig,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (yaml, json or toml)")
	flags.String("type", "itunes", "database type: itunes or playcounts")
	flags.String("output", config.OutputCSV, "output mode: csv, json or write")
	flags.String("side-file", "music.json", "JSON side-file songs are written from")
	flags.Int("max-depth", itunesdb.DefaultMaxDepth, "maximum chunk nesting")
	flags.String("log-level", "info", "log level: debug, info, warn or error")
	flags.String("string-encoding", "utf16", "string encoding for written databases: utf16 or utf8")
	flags.String("backup-suffix", "", "copy the existing database to <dest><suffix> before replacing it")
	flags.String("master-playlist", "iPod", "name of the master playlist added to written databases")

	for key, flag := range map[string]string{
		config.KeyType:           "type",
		config.KeyOutput:         "output",
		config.KeySideFile:       "side-file",
		config.KeyMaxDepth:       "max-depth",
		config.KeyLogLevel:       "log-level",
		config.KeyStringEncoding: "string-encoding",
		config.KeyBackupSuffix:   "backup-suffix",
		config.KeyMasterPlaylist: "master-playlist",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.parseCmd(),
		a.dumpCmd(),
		a.songsCmd(),
		a.playlistsCmd(),
		a.playCountsCmd(),
		a.writeCmd(),
		a.verifyCmd(),
		versionCmd(),
	)
	return root
}

// initConfig reads the optional config file and resolves the settings.
func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	if a.cfgFile != "" {
		a.v.SetConfigFile(a.cfgFile)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.log.SetOutput(cmd.ErrOrStderr())
	a.log.SetLevel(cfg.LogLevel)
	return nil
}

func (a *app) openOptions() []itunesdb.Option {
	return []itunesdb.Option{
		itunesdb.WithMaxDepth(a.cfg.MaxDepth),
		itunesdb.WithLogger(a.log),
	}
}

func (a *app) saveOptions() []itunesdb.SaveOption {
	opts := []itunesdb.SaveOption{
		itunesdb.WithStringEncoding(a.cfg.StringEncoding),
		itunesdb.WithMasterPlaylist(a.cfg.MasterPlaylist),
		itunesdb.WithCommitLogger(a.log),
	}
	if a.cfg.BackupSuffix != "" {
		opts = append(opts, itunesdb.WithBackup(a.cfg.BackupSuffix))
	}
	return opts
}
