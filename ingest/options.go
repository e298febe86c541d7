package ingest

import (
	"errors"
	"fmt"

	"github.com/forestrie/go-jellyfish/archive"
	"github.com/forestrie/go-jellyfish/checkpoint"
	"github.com/forestrie/go-jellyfish/export"
	"github.com/google/uuid"
)

var ErrUnknownMode = errors.New("ingest: unknown mode")

type Mode int

const (
	// ModeExport writes a proof and ancestry document for every mint and
	// ignores transfers.
	ModeExport Mode = iota
	// ModeVerifyOnly applies mints silently and writes a proof document for
	// every transfer of a minted token.
	ModeVerifyOnly
)

func (m Mode) String() string {
	switch m {
	case ModeExport:
		return "export"
	case ModeVerifyOnly:
		return "verify-only"
	default:
		return "unknown"
	}
}

// ParseMode is the inverse of Mode.String.
func ParseMode(s string) (Mode, error) {
	for _, m := range []Mode{ModeExport, ModeVerifyOnly} {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

const (
	DefaultMaxProofs = 100000
	DefaultBatchSize = 256
	// MintValue is the value stored for every minted token.
	MintValue = "1"
)

type Config struct {
	Mode Mode
	// MaxProofs caps the documents written in ModeVerifyOnly. Reading stops
	// when it is reached.
	MaxProofs int
	// BatchSize is the number of documents buffered per parallel write.
	BatchSize int
	// Capacity bounds the token ids the registry accepts.
	Capacity uint64
	// CheckpointEvery signs a checkpoint after this many mutations. Zero
	// signs only at the end of a run.
	CheckpointEvery uint64
	// Subject names the log in checkpoint claims.
	Subject string
	// Source identifies the input. When set, an archive written for a
	// different source is refused instead of resumed.
	Source string
}

type Options struct {
	Store  *archive.Store
	Writer *export.Writer
	Signer *checkpoint.Signer
	LogID  uuid.UUID
}

type Option func(any)

// WithArchive persists every mutation and lets a later run resume.
func WithArchive(store *archive.Store) Option {
	return func(opts any) {
		if o, ok := opts.(*Options); ok {
			o.Store = store
		}
	}
}

// WithWriter enables document export.
func WithWriter(w *export.Writer) Option {
	return func(opts any) {
		if o, ok := opts.(*Options); ok {
			o.Writer = w
		}
	}
}

// WithSigner enables signed checkpoints for the log identified by logID.
func WithSigner(s *checkpoint.Signer, logID uuid.UUID) Option {
	return func(opts any) {
		if o, ok := opts.(*Options); ok {
			o.Signer = s
			o.LogID = logID
		}
	}
}

func (c *Config) defaults() {
	if c.MaxProofs <= 0 {
		c.MaxProofs = DefaultMaxProofs
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Subject == "" {
		c.Subject = "jmt"
	}
}
