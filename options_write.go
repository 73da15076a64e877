package itunesdb

import "github.com/sirupsen/logrus"

// SaveOption configures encoding and committing databases.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	err := itunesdb.Save(lib, path,
//	    itunesdb.WithMasterPlaylist("iPod"),
//	    itunesdb.WithBackup(".bak"),
//	    itunesdb.WithValidation(),
//	)
type SaveOption func(*saveOptions)

// saveOptions holds configuration for saving databases.
type saveOptions struct {
	encoding        Encoding           // String data object encoding
	masterPlaylist  string             // Name of a generated master playlist ("" for none)
	backupSuffix    string             // Suffix for backup file (e.g., ".bak")
	validate        bool               // Re-read after write to verify
	preserveModTime bool               // Keep original modification time
	logger          logrus.FieldLogger // Commit state transitions (nil discards)
}

// defaultSaveOptions returns the default configuration for saving.
func defaultSaveOptions() *saveOptions {
	return &saveOptions{
		encoding: EncodingUTF16LE,
	}
}

// WithStringEncoding selects the encoding of every string data object.
// The default is UTF-16LE, which every device reads.
func WithStringEncoding(enc Encoding) SaveOption {
	return func(o *saveOptions) {
		o.encoding = enc
	}
}

// WithMasterPlaylist adds a hidden playlist of the given name holding every
// song, ahead of the library's own playlists. It is skipped when the
// library already has a master playlist.
func WithMasterPlaylist(name string) SaveOption {
	return func(o *saveOptions) {
		o.masterPlaylist = name
	}
}

// WithBackup copies the existing database before it is replaced.
//
// The backup file will have the specified suffix appended to the original
// filename. For example, WithBackup(".bak") will create "iTunesDB.bak".
//
// If the backup file already exists, it will be overwritten.
func WithBackup(suffix string) SaveOption {
	return func(o *saveOptions) {
		o.backupSuffix = suffix
	}
}

// WithValidation re-reads the database after writing to verify integrity.
//
// After saving, the file is re-opened and decoded and its song and
// playlist titles are compared with what was written. This adds overhead
// but provides confidence that the save operation succeeded.
func WithValidation() SaveOption {
	return func(o *saveOptions) {
		o.validate = true
	}
}

// WithPreserveModTime keeps the original file modification time.
func WithPreserveModTime() SaveOption {
	return func(o *saveOptions) {
		o.preserveModTime = true
	}
}

// WithCommitLogger logs commit state transitions at debug level and
// failures at warn level.
func WithCommitLogger(l logrus.FieldLogger) SaveOption {
	return func(o *saveOptions) {
		o.logger = l
	}
}
