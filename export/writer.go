package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

const DefaultConcurrency = 8

// FileName is the name document i is written under.
func FileName(i int) string { return fmt.Sprintf("output_%05d.json", i) }

type WriterOptions struct {
	Concurrency int
}

type Option func(any)

func WithConcurrency(n int) Option {
	return func(opts any) {
		if o, ok := opts.(*WriterOptions); ok && n > 0 {
			o.Concurrency = n
		}
	}
}

// Writer writes numbered documents into one directory.
type Writer struct {
	dir  string
	opts WriterOptions
}

// NewWriter creates dir if needed.
func NewWriter(dir string, opts ...Option) (*Writer, error) {
	o := WriterOptions{Concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Writer{dir: dir, opts: o}, nil
}

func (w *Writer) Dir() string { return w.dir }

// Write writes document i.
func (w *Writer) Write(i int, d Document) error {
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.dir, FileName(i)), append(data, '\n'), 0o644)
}

// WriteAll writes docs as documents first, first+1, ... with at most
// Concurrency files in flight. It stops at the first error.
func (w *Writer) WriteAll(ctx context.Context, first int, docs []Document) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.opts.Concurrency)
	for i := range docs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return w.Write(first+i, docs[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func ReadDocument(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, err
	}
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return Document{}, fmt.Errorf("export: %s: %w", path, err)
	}
	return d, nil
}

// List returns the document files in dir in write order.
func List(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "output_*.json"))
	if err != nil {
		return nil, err
	}
	sort.Slice(matches, func(i, j int) bool {
		a, b := filepath.Base(matches[i]), filepath.Base(matches[j])
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return strings.Compare(a, b) < 0
	})
	return matches, nil
}
