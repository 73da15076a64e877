package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/simonhull/itunesdb"
	"github.com/simonhull/itunesdb/internal/config"
	"github.com/simonhull/itunesdb/internal/report"
	"github.com/simonhull/itunesdb/internal/sidefile"
)

// parseCmd mirrors the positional form <file> <type> [csv|json|write].
func (a *app) parseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file> <type> [csv|json|write]",
		Short: "Report on a database, or write one from the side-file",
		Long: `Parse decodes <file> as <type> (itunes or playcounts).

csv writes the report next to the source as <file>.csv, json prints it to
standard output, and write builds a new itunes database at <file> from the
side-file (music.json unless --side-file is given).`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ft := itunesdb.ParseFileType(args[1])
			if ft == itunesdb.FileTypeUnknown {
				return fmt.Errorf("unknown database type %q", args[1])
			}
			output := a.cfg.Output
			if len(args) == 3 {
				output = strings.ToLower(args[2])
			}

			switch output {
			case config.OutputWrite:
				if ft != itunesdb.FileTypeITunesDB {
					return fmt.Errorf("write mode only supports itunes databases, not %s", ft)
				}
				return a.write(cmd, path)
			case config.OutputCSV:
				return a.csv(path, ft)
			case config.OutputJSON:
				db, err := itunesdb.Open(path, append(a.openOptions(), itunesdb.WithFileType(ft))...)
				if err != nil {
					return err
				}
				return jsonReport(cmd.OutOrStdout(), db)
			default:
				a.log.Warnf("unknown output mode %q, using csv", output)
				return a.csv(path, ft)
			}
		},
	}
}

func (a *app) dumpCmd() *cobra.Command {
	var showHex bool
	cmd := &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the chunk tree of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			buf, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read file: %w", err)
			}
			db, err := itunesdb.Decode(buf, append(a.openOptions(), itunesdb.WithPath(args[0]))...)
			if err != nil {
				return err
			}
			if db.Root == nil {
				return fmt.Errorf("%s: %s files have no chunk tree", args[0], db.FileType)
			}

			out := cmd.OutOrStdout()
			if showHex {
				err = report.TreeHex(out, db.Root, buf)
			} else {
				err = report.Tree(out, db.Root)
			}
			if err != nil {
				return err
			}
			for _, f := range db.Failures {
				fmt.Fprintf(out, "dropped: %s\n", f)
			}
			return nil
		},
	}
	cmd.Flags().BoolVarP(&showHex, "hex", "x", false, "hex dump every chunk header")
	return cmd
}

func (a *app) songsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "songs <file>",
		Short: "List the songs of a media database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.openLibrary(args[0])
			if err != nil {
				return err
			}
			if a.cfg.Output == config.OutputJSON {
				return report.JSON(cmd.OutOrStdout(), lib.Songs)
			}
			return report.SongsCSV(cmd.OutOrStdout(), lib.Songs)
		},
	}
}

func (a *app) playlistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "playlists <file>",
		Short: "List the playlists of a media database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := a.openLibrary(args[0])
			if err != nil {
				return err
			}
			if a.cfg.Output == config.OutputJSON {
				return report.JSON(cmd.OutOrStdout(), lib.Playlists)
			}
			return report.PlaylistsCSV(cmd.OutOrStdout(), lib.Playlists)
		},
	}
}

func (a *app) playCountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "playcounts <file>",
		Short: "List the entries of a play count log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := itunesdb.Open(args[0], append(a.openOptions(), itunesdb.WithFileType(itunesdb.FileTypePlayCounts))...)
			if err != nil {
				return err
			}
			if a.cfg.Output == config.OutputJSON {
				return report.JSON(cmd.OutOrStdout(), db.PlayCounts)
			}
			return report.PlayCountsCSV(cmd.OutOrStdout(), db.PlayCounts)
		},
	}
}

func (a *app) writeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write <dest>",
		Short: "Write a new media database from the side-file",
		Long: `Write reads songs and playlists from the JSON side-file and commits a
new database to <dest>. A missing or malformed side-file is logged and an
empty database is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.write(cmd, args[0])
		},
	}
}

func (a *app) verifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <file>...",
		Short: "Decode databases in parallel and report damage",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dbs, err := itunesdb.OpenManyWith(context.Background(), args, a.openOptions())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			damaged := 0
			for _, db := range dbs {
				fmt.Fprintf(out, "%s: %s, %d bytes", db.Path, db.FileType, db.Size)
				if db.Library != nil {
					fmt.Fprintf(out, ", %d songs, %d playlists", len(db.Library.Songs), len(db.Library.Playlists))
				}
				if db.PlayCounts != nil {
					fmt.Fprintf(out, ", %d play counts", len(db.PlayCounts))
				}
				fmt.Fprintf(out, ", %d warnings, %d dropped\n", len(db.Warnings), len(db.Failures))
				if len(db.Failures) > 0 {
					damaged++
				}
			}
			if damaged > 0 {
				return fmt.Errorf("%d of %d databases have dropped subtrees", damaged, len(dbs))
			}
			return nil
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := itunesdb.GetVersionInfo()
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "itunesdb %s (commit %s, built %s, %s)\n",
				info.Version, info.GitCommit, info.BuildTime, info.GoVersion)
			return err
		},
	}
}

func (a *app) write(cmd *cobra.Command, dest string) error {
	lib := sidefile.LoadOrEmpty(a.cfg.SideFile, a.log)
	a.log.WithFields(logrus.Fields{
		"dest":      dest,
		"side_file": a.cfg.SideFile,
		"songs":     len(lib.Songs),
	}).Info("writing database")

	if err := itunesdb.Save(lib, dest, a.saveOptions()...); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %d songs to %s\n", len(lib.Songs), dest)
	return nil
}

// csv writes the report for path to path.csv.
func (a *app) csv(path string, ft itunesdb.FileType) error {
	db, err := itunesdb.Open(path, append(a.openOptions(), itunesdb.WithFileType(ft))...)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := csvReport(&buf, db); err != nil {
		return err
	}
	dest := path + ".csv"
	if err := itunesdb.Commit(buf.Bytes(), dest); err != nil {
		return err
	}
	a.log.WithField("path", dest).Info("report written")
	return nil
}

func (a *app) openLibrary(path string) (*itunesdb.Library, error) {
	db, err := itunesdb.Open(path, append(a.openOptions(), itunesdb.WithFileType(itunesdb.FileTypeITunesDB))...)
	if err != nil {
		return nil, err
	}
	return db.Library, nil
}

func csvReport(w io.Writer, db *itunesdb.Database) error {
	switch db.FileType {
	case itunesdb.FileTypePlayCounts:
		return report.PlayCountsCSV(w, db.PlayCounts)
	default:
		return report.SongsCSV(w, db.Library.Songs)
	}
}

func jsonReport(w io.Writer, db *itunesdb.Database) error {
	switch db.FileType {
	case itunesdb.FileTypePlayCounts:
		return report.JSON(w, db.PlayCounts)
	default:
		return report.JSON(w, db.Library)
	}
}
