package ingest

import (
	"context"
	"errors"
	"fmt"
	"hash"
	"io"
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-jellyfish/archive"
	"github.com/forestrie/go-jellyfish/checkpoint"
	"github.com/forestrie/go-jellyfish/export"
	"github.com/forestrie/go-jellyfish/jmt"
	"github.com/forestrie/go-jellyfish/rootlog"
)

var (
	ErrAncestryCheck  = errors.New("ingest: ancestry did not reconstruct the prior root")
	ErrResume         = errors.New("ingest: archived leaves do not match the archived root")
	ErrResumeMismatch = errors.New("ingest: archive belongs to another run")
)

// Summary reports what a run did.
type Summary struct {
	Rows        uint64
	Skipped     uint64
	Mints       uint64
	Transfers   uint64
	Splits      uint64
	Mutations   uint64
	Documents   uint64
	Checkpoints int
	Root        jmt.Digest
	LogSize     uint64
	// Capped is set when verify-only mode stopped at MaxProofs.
	Capped bool
}

// Driver replays transfer records into a trie. It is not safe for
// concurrent use.
type Driver struct {
	log  logger.Logger
	cfg  Config
	opts Options

	tree     *jmt.Tree
	registry *jmt.VersionRegistry
	roots    *rootlog.Log
	check    hash.Hash

	seq       uint64
	rows      uint64
	docs      uint64
	signedAt  uint64
	pending   []export.Document
	summary   Summary
	lastCheck []byte
}

// NewDriver prepares a driver. With an archive that already holds a run, the
// trie, registry and rootlog are restored from it and the run continues
// after the last committed row.
func NewDriver(log logger.Logger, cfg Config, opts ...Option) (*Driver, error) {
	cfg.defaults()
	d := &Driver{log: log, cfg: cfg, check: jmt.NewHasher()}
	for _, opt := range opts {
		opt(&d.opts)
	}

	var err error
	if d.tree, err = jmt.New(); err != nil {
		return nil, err
	}
	d.registry = jmt.NewVersionRegistry(cfg.Capacity)

	var nodes rootlog.NodeAppender = rootlog.NewMemStore()
	var size uint64
	if d.opts.Store != nil {
		nodes = d.opts.Store
		if size, err = d.resume(); err != nil {
			return nil, err
		}
	}
	if d.roots, err = rootlog.NewLog(nodes, jmt.NewHasher(), size); err != nil {
		return nil, err
	}
	d.signedAt = d.seq
	return d, nil
}

func (d *Driver) resume() (uint64, error) {
	store := d.opts.Store
	st, err := store.State()
	if errors.Is(err, archive.ErrNotFound) {
		return 0, store.TruncateNodes(0)
	}
	if err != nil {
		return 0, err
	}
	if st.Mode != d.cfg.Mode.String() {
		return 0, fmt.Errorf("%w: archive mode %q, run mode %q", ErrResumeMismatch, st.Mode, d.cfg.Mode)
	}
	if d.cfg.Source != "" && st.Source != d.cfg.Source {
		return 0, fmt.Errorf("%w: archive input %q, run input %q", ErrResumeMismatch, st.Source, d.cfg.Source)
	}

	snap := jmt.RegistrySnapshot{Capacity: d.registry.Capacity(), Versions: map[uint64]uint32{}}
	err = store.Leaves(func(key jmt.NibblePath, value []byte) error {
		if _, err := d.tree.Insert(key, value); err != nil {
			return err
		}
		version, err := jmt.KeyVersion(key)
		if err != nil {
			return err
		}
		id, err := jmt.KeyIdentifier(key)
		if err != nil {
			return err
		}
		if v, ok := snap.Versions[id]; !ok || version > v {
			snap.Versions[id] = version
		}
		if uint64(version) >= snap.Next {
			snap.Next = uint64(version) + 1
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if d.tree.RootDigest() != st.Root {
		return 0, fmt.Errorf("%w: got %s want %s", ErrResume, d.tree.RootDigest(), st.Root)
	}
	if err := checkSavedRegistry(store, snap); err != nil {
		return 0, err
	}
	if d.registry, err = jmt.RestoreRegistry(snap); err != nil {
		return 0, err
	}
	if err := store.TruncateNodes(st.LogSize); err != nil {
		return 0, err
	}
	if err := store.RefreshFilter(); err != nil {
		return 0, err
	}

	d.seq, d.rows, d.docs = st.Seq, st.Rows, st.Documents
	d.log.Infof("resume: seq=%d rows=%d leaves=%d root=%s", st.Seq, st.Rows, d.tree.Len(), st.Root)
	return st.LogSize, nil
}

// checkSavedRegistry compares the registry saved at the last checkpoint with
// the one rebuilt from the leaves. Mints after the checkpoint may only have
// moved versions forward.
func checkSavedRegistry(store *archive.Store, rebuilt jmt.RegistrySnapshot) error {
	saved, err := store.LoadRegistry()
	if errors.Is(err, archive.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if saved.Next > rebuilt.Next {
		return fmt.Errorf("%w: saved registry is at version %d, leaves at %d", ErrResume, saved.Next, rebuilt.Next)
	}
	for id, v := range saved.Versions {
		if got, ok := rebuilt.Versions[id]; !ok || got < v {
			return fmt.Errorf("%w: token %d was minted at version %d but no leaf has it", ErrResume, id, v)
		}
	}
	return nil
}

func (d *Driver) Tree() *jmt.Tree { return d.tree }
func (d *Driver) Registry() *jmt.VersionRegistry { return d.registry }
func (d *Driver) RootLog() *rootlog.Log { return d.roots }
func (d *Driver) LastCheckpoint() []byte { return d.lastCheck }

// Run consumes src until it is exhausted, ctx is cancelled or, in
// verify-only mode, MaxProofs documents were written. Rows committed by an
// earlier run against the same archive are skipped.
func (d *Driver) Run(ctx context.Context, src io.Reader) (Summary, error) {
	d.summary = Summary{}
	r := NewReader(src)
	for r.Rows() < d.rows {
		if _, err := r.Next(); err != nil && !errors.Is(err, ErrMalformed) {
			if err == io.EOF {
				break
			}
			return d.finish(err)
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return d.finish(err)
		}
		if d.cfg.Mode == ModeVerifyOnly && d.docs >= uint64(d.cfg.MaxProofs) {
			d.summary.Capped = true
			break
		}

		t, err := r.Next()
		if err == io.EOF {
			break
		}
		if err != nil && !errors.Is(err, ErrMalformed) {
			return d.finish(err)
		}
		d.rows = r.Rows()
		d.summary.Rows++
		if err != nil {
			d.summary.Skipped++
			d.log.Infof("skip: %v", err)
			continue
		}

		if err := d.apply(ctx, t); err != nil {
			return d.finish(err)
		}
	}
	return d.finish(nil)
}

func (d *Driver) apply(ctx context.Context, t Transfer) error {
	if t.IsMint() {
		d.summary.Mints++
		return d.mint(ctx, t)
	}
	d.summary.Transfers++
	if d.cfg.Mode != ModeVerifyOnly {
		return nil
	}
	return d.prove(ctx, t)
}

func (d *Driver) mint(ctx context.Context, t Transfer) error {
	key, err := d.registry.Key(t.TokenID, true)
	if errors.Is(err, jmt.ErrIdentifierRange) {
		d.summary.Skipped++
		d.log.Infof("skip: row %d: %v", t.Row, err)
		return nil
	}
	if err != nil {
		return err
	}

	value := []byte(MintValue)
	prior := d.tree.RootDigest()
	a, err := d.tree.Insert(key, value)
	if err != nil {
		return err
	}
	if got := jmt.ReconstructPriorRoot(d.check, &a, value); got != prior {
		return fmt.Errorf("%w: row %d token %d: got %s want %s", ErrAncestryCheck, t.Row, t.TokenID, got, prior)
	}
	if a.Splitted {
		d.summary.Splits++
	}

	seq := d.seq
	root := d.tree.RootDigest()
	if err := d.roots.Append(seq, root[:]); err != nil {
		return err
	}
	d.seq++
	d.summary.Mutations++
	if d.opts.Store != nil {
		d.opts.Store.MarkMinted(t.TokenID)
	}

	var proof jmt.Proof
	if d.cfg.Mode == ModeExport && (d.opts.Writer != nil || d.opts.Store != nil) {
		proof = d.tree.GenerateProof(key)
	}
	if d.cfg.Mode == ModeExport && d.opts.Writer != nil {
		doc, err := export.NewDocument(key, value, root, proof)
		if err != nil {
			return err
		}
		if err := doc.SetAncestry(a); err != nil {
			return err
		}
		if err := d.emit(ctx, doc); err != nil {
			return err
		}
	}

	if d.opts.Store != nil {
		b := d.opts.Store.NewBatch()
		b.PutLeaf(key, value)
		if d.cfg.Mode == ModeExport {
			b.PutProof(archive.ProofRecord{Seq: seq, Key: archive.KeyOf(key), Value: value, Root: root, Proof: proof})
		}
		b.PutAncestry(archive.NewAncestryRecord(seq, key, value, a, prior))
		b.PutState(d.state())
		if err := b.Commit(); err != nil {
			return err
		}
	}

	if d.cfg.CheckpointEvery > 0 && d.seq-d.signedAt >= d.cfg.CheckpointEvery {
		return d.checkpoint(ctx)
	}
	return nil
}

func (d *Driver) prove(ctx context.Context, t Transfer) error {
	key, err := d.registry.Key(t.TokenID, false)
	if errors.Is(err, jmt.ErrNotMinted) || errors.Is(err, jmt.ErrIdentifierRange) {
		d.summary.Skipped++
		d.log.Infof("skip: row %d: %v", t.Row, err)
		return nil
	}
	if err != nil {
		return err
	}
	if d.opts.Writer == nil {
		d.docs++
		return nil
	}

	value, _ := d.tree.Lookup(key)
	doc, err := export.NewDocument(key, value, d.tree.RootDigest(), d.tree.GenerateProof(key))
	if err != nil {
		return err
	}
	return d.emit(ctx, doc)
}

func (d *Driver) emit(ctx context.Context, doc export.Document) error {
	d.pending = append(d.pending, doc)
	d.docs++
	if len(d.pending) >= d.cfg.BatchSize {
		return d.flush(ctx)
	}
	return nil
}

func (d *Driver) flush(ctx context.Context) error {
	if len(d.pending) == 0 || d.opts.Writer == nil {
		return nil
	}
	first := int(d.docs) - len(d.pending)
	if err := d.opts.Writer.WriteAll(ctx, first, d.pending); err != nil {
		return err
	}
	d.summary.Documents += uint64(len(d.pending))
	d.pending = d.pending[:0]
	return nil
}

// state counts only documents already on disk; buffered ones are lost if
// the process dies before the next flush.
func (d *Driver) state() archive.State {
	return archive.State{
		Seq:       d.seq,
		LogSize:   d.roots.Size(),
		Root:      d.tree.RootDigest(),
		Rows:      d.rows,
		Documents: d.docs - uint64(len(d.pending)),
		Mode:      d.cfg.Mode.String(),
		Source:    d.cfg.Source,
	}
}

func (d *Driver) checkpoint(ctx context.Context) error {
	d.signedAt = d.seq
	if d.opts.Signer == nil {
		return nil
	}
	// Documents referenced by the checkpoint must be on disk first.
	if err := d.flush(ctx); err != nil {
		return err
	}

	logRoot, err := d.roots.Root()
	if err != nil {
		return err
	}
	trieRoot := d.tree.RootDigest()
	msg, err := d.opts.Signer.Sign1(d.cfg.Subject, checkpoint.TreeState{
		LogSize:   d.roots.Size(),
		Root:      logRoot,
		Timestamp: time.Now().UnixMilli(),
		Version:   d.registry.Next(),
		Leaves:    uint64(d.tree.Len()),
		LogID:     d.opts.LogID,
		TrieRoot:  trieRoot[:],
	}, nil)
	if err != nil {
		return err
	}
	if d.opts.Store != nil {
		if err := d.opts.Store.PutCheckpoint(d.seq, msg); err != nil {
			return err
		}
		if err := d.opts.Store.SaveRegistry(d.registry.Snapshot()); err != nil {
			return err
		}
	}
	d.lastCheck = msg
	d.summary.Checkpoints++
	d.log.Infof("checkpoint: seq=%d size=%d root=%x", d.seq, d.roots.Size(), logRoot)
	return nil
}

// finish flushes buffered documents so the persisted document count stays
// true, then, on success, signs a final checkpoint if anything changed since
// the last one. cause is returned unchanged when set.
func (d *Driver) finish(cause error) (Summary, error) {
	ctx := context.Background()
	err := d.flush(ctx)
	if cause == nil && err == nil && d.seq > d.signedAt {
		err = d.checkpoint(ctx)
	}
	if d.opts.Store != nil {
		err = errors.Join(err, d.opts.Store.PutState(d.state()), d.opts.Store.FlushFilter())
	}

	d.summary.Root = d.tree.RootDigest()
	d.summary.LogSize = d.roots.Size()
	if cause != nil {
		return d.summary, cause
	}
	return d.summary, err
}
