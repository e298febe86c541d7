package jmttesting

import (
	"bytes"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"fmt"
	"io"
	mrand "math/rand"
	"testing"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/forestrie/go-jellyfish/archive"
	"github.com/forestrie/go-jellyfish/checkpoint"
	"github.com/forestrie/go-jellyfish/jmt"
	"github.com/stretchr/testify/require"
)

type TestContext struct {
	Log logger.Logger
	T   *testing.T
	Rng *mrand.Rand
}

type TestConfig struct {
	// Seed fixes the generated data from run to run.
	Seed            int64
	TestLabelPrefix string
}

func NewTestContext(t *testing.T, cfg TestConfig) TestContext {
	logger.New("INFO")
	return TestContext{
		T:   t,
		Log: logger.Sugar.WithServiceName(cfg.TestLabelPrefix),
		Rng: mrand.New(mrand.NewSource(cfg.Seed)),
	}
}

func (c *TestContext) GetLog() logger.Logger { return c.Log }

// NewArchive opens an in-memory archive closed when the test ends.
func (c *TestContext) NewArchive(opts ...archive.Option) *archive.Store {
	s, err := archive.OpenMem(append([]archive.Option{archive.WithBloom(4096, 16)}, opts...)...)
	require.NoError(c.T, err)
	c.T.Cleanup(func() { _ = s.Close() })
	return s
}

// OpenArchive opens a file backed archive in dir. The caller closes it.
func (c *TestContext) OpenArchive(dir string) *archive.Store {
	s, err := archive.Open(dir, archive.WithBloom(4096, 16), archive.WithSync(false))
	require.NoError(c.T, err)
	return s
}

func (c *TestContext) NewSigner(issuer string) *checkpoint.Signer {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(c.T, err)
	codec, err := checkpoint.NewCodec()
	require.NoError(c.T, err)
	s, err := checkpoint.NewSigner(issuer, "test key", codec, key)
	require.NoError(c.T, err)
	return s
}

// Keys mints n keys for identifiers below maxID. Identifiers repeat, so some
// keys are re-mints of earlier ones.
func (c *TestContext) Keys(n int, maxID uint64) []jmt.NibblePath {
	reg := jmt.NewVersionRegistry(maxID)
	keys := make([]jmt.NibblePath, 0, n)
	for len(keys) < n {
		k, err := reg.Key(uint64(c.Rng.Int63n(int64(maxID))), true)
		require.NoError(c.T, err)
		keys = append(keys, k)
	}
	return keys
}

// Row is one generated transfer record.
type Row struct {
	From, To, Token uint64
}

// Transfers generates mints of tokens below maxID interleaved with
// transfers of tokens minted earlier. About one row in three is a transfer.
func (c *TestContext) Transfers(n int, maxID uint64) []Row {
	var minted []uint64
	rows := make([]Row, 0, n)
	for len(rows) < n {
		if len(minted) > 0 && c.Rng.Intn(3) == 0 {
			tok := minted[c.Rng.Intn(len(minted))]
			rows = append(rows, Row{From: 1 + uint64(c.Rng.Intn(50)), To: 1 + uint64(c.Rng.Intn(50)), Token: tok})
			continue
		}
		tok := uint64(c.Rng.Int63n(int64(maxID)))
		minted = append(minted, tok)
		rows = append(rows, Row{From: 0, To: 1 + uint64(c.Rng.Intn(50)), Token: tok})
	}
	return rows
}

// CSV renders rows in the ingest input format, header included.
func CSV(rows []Row) io.Reader {
	var b bytes.Buffer
	b.WriteString("blockId,timestamp,contractId,fromId,toId,tokenId\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "%d,%d,%d,%d,%d,%d\n", 1000+i, 1700000000+i, 1, r.From, r.To, r.Token)
	}
	return &b
}
