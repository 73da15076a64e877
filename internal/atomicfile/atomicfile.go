// Package atomicfile commits a buffer to disk so that readers see either
// the previous file or the complete new one, never a partial write.
//
// A commit moves through these states:
//
//	Created  temp file created next to the destination
//	Writing  bytes handed to the temp file
//	Flushed  every byte written
//	Synced   temp file fsynced and closed
//	Renamed  temp file renamed over the destination
//
// A failure in any state returns a *types.WriteError naming the stage. The
// destination is untouched and the temp file, if one was created, is left
// in place for diagnosis.
package atomicfile

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/simonhull/itunesdb/internal/types"
)

// State is a step of a commit.
type State int

const (
	StateCreated State = iota + 1
	StateWriting
	StateFlushed
	StateSynced
	StateRenamed
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateWriting:
		return "writing"
	case StateFlushed:
		return "flushed"
	case StateSynced:
		return "synced"
	case StateRenamed:
		return "renamed"
	default:
		return "idle"
	}
}

// Option configures Commit.
type Option func(*options)

type options struct {
	fs              afero.Fs
	backupSuffix    string
	preserveModTime bool
	dirPerm         os.FileMode
	filePerm        os.FileMode
	logger          logrus.FieldLogger
}

func defaultOptions() *options {
	return &options{
		fs:       afero.NewOsFs(),
		dirPerm:  0o755,
		filePerm: 0o644,
	}
}

// WithFS commits through the given filesystem instead of the OS.
func WithFS(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// WithBackup copies an existing destination to path+suffix before it is
// replaced. An existing backup is overwritten.
func WithBackup(suffix string) Option {
	return func(o *options) {
		o.backupSuffix = suffix
	}
}

// WithPreserveModTime keeps the destination's previous modification time.
func WithPreserveModTime() Option {
	return func(o *options) {
		o.preserveModTime = true
	}
}

// WithLogger reports state transitions at debug level.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.logger = l
	}
}

type commit struct {
	opts     *options
	path     string
	tempPath string
	state    State
}

func (c *commit) enter(s State) {
	c.state = s
	if c.opts.logger != nil {
		c.opts.logger.WithFields(logrus.Fields{
			"path":  c.path,
			"temp":  c.tempPath,
			"state": s,
		}).Debug("commit")
	}
}

func (c *commit) fail(stage types.WriteStage, err error) error {
	if c.opts.logger != nil {
		c.opts.logger.WithFields(logrus.Fields{
			"path":  c.path,
			"temp":  c.tempPath,
			"state": c.state,
			"stage": stage,
		}).WithError(err).Warn("commit failed")
	}
	return &types.WriteError{Stage: stage, Path: c.path, TempPath: c.tempPath, Err: err}
}

// Commit writes data to path atomically. The parent directory is created
// if it does not exist.
func Commit(path string, data []byte, opts ...Option) error {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	c := &commit{opts: o, path: path}
	fs := o.fs

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, o.dirPerm); err != nil {
		return c.fail(types.StageCreate, err)
	}

	existing, statErr := fs.Stat(path)
	exists := statErr == nil

	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(path)+"-*.tmp")
	if err != nil {
		return c.fail(types.StageCreate, err)
	}
	c.tempPath = tmp.Name()
	c.enter(StateCreated)

	c.enter(StateWriting)
	n, err := tmp.Write(data)
	if err == nil && n < len(data) {
		err = io.ErrShortWrite
	}
	if err != nil {
		_ = tmp.Close()
		return c.fail(types.StageWrite, err)
	}
	c.enter(StateFlushed)

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return c.fail(types.StageSync, err)
	}
	if err := tmp.Close(); err != nil {
		return c.fail(types.StageClose, err)
	}
	perm := o.filePerm
	if exists {
		perm = existing.Mode().Perm()
	}
	if err := fs.Chmod(c.tempPath, perm); err != nil {
		return c.fail(types.StagePermissions, err)
	}
	c.enter(StateSynced)

	if o.backupSuffix != "" && exists && existing.Mode().IsRegular() {
		if err := copyFile(fs, path, path+o.backupSuffix); err != nil {
			return c.fail(types.StageBackup, err)
		}
	}

	if err := fs.Rename(c.tempPath, path); err != nil {
		return c.fail(types.StageRename, err)
	}
	c.enter(StateRenamed)

	if o.preserveModTime && exists {
		mt := existing.ModTime()
		_ = fs.Chtimes(path, mt, mt)
	}
	return nil
}

func copyFile(fs afero.Fs, src, dst string) error {
	data, err := afero.ReadFile(fs, src)
	if err != nil {
		return err
	}
	info, err := fs.Stat(src)
	if err != nil {
		return err
	}
	if err := afero.WriteFile(fs, dst, data, info.Mode().Perm()); err != nil {
		return err
	}
	return fs.Chtimes(dst, time.Now(), info.ModTime())
}
