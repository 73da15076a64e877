package itunesdb

import "github.com/sirupsen/logrus"

// Option configures behavior when decoding databases.
//
// Options use the functional options pattern for clean, extensible APIs.
//
// Example:
//
//	db, err := itunesdb.Open(path,
//	    itunesdb.WithStrictParsing(),
//	    itunesdb.WithLogger(logrus.StandardLogger()),
//	)
type Option func(*openOptions)

// openOptions holds configuration for decoding.
type openOptions struct {
	path           string             // Reported in errors and warnings
	fileType       FileType           // Skip detection when set
	maxDepth       int                // Chunk nesting limit
	logger         logrus.FieldLogger // Debug output and warnings (nil discards)
	strictParsing  bool               // Fail on any warning
	ignoreWarnings bool               // Suppress all warnings
}

// defaultOptions returns the default configuration.
func defaultOptions() *openOptions {
	return &openOptions{
		maxDepth: DefaultMaxDepth,
	}
}

// WithPath names the buffer given to Decode in errors and warnings.
// Open sets it to the opened path.
func WithPath(path string) Option {
	return func(o *openOptions) {
		o.path = path
	}
}

// WithFileType decodes the buffer as the given type instead of detecting
// it from the leading tag.
func WithFileType(ft FileType) Option {
	return func(o *openOptions) {
		o.fileType = ft
	}
}

// WithMaxDepth bounds chunk nesting. Deeper trees fail with a
// DepthExceeded FormatError. Values below 1 keep the default.
func WithMaxDepth(depth int) Option {
	return func(o *openOptions) {
		if depth > 0 {
			o.maxDepth = depth
		}
	}
}

// WithLogger sends decoder debug output to l and logs every warning.
//
// By default nothing is logged; warnings are only collected in
// Database.Warnings.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *openOptions) {
		o.logger = l
	}
}

// WithStrictParsing treats any warning as a fatal error.
//
// By default, decoding continues past unknown data objects and dropped
// subtrees, returning warnings alongside the decoded data.
//
// Example:
//
//	db, err := itunesdb.Open(path, itunesdb.WithStrictParsing())
//	// err != nil if ANY issue is encountered
func WithStrictParsing() Option {
	return func(o *openOptions) {
		o.strictParsing = true
	}
}

// WithIgnoreWarnings suppresses all warnings.
//
// Database.Warnings will always be empty. Failures are still reported.
func WithIgnoreWarnings() Option {
	return func(o *openOptions) {
		o.ignoreWarnings = true
	}
}
