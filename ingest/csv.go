package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

var (
	ErrMalformed = errors.New("ingest: malformed row")
	ErrBadHeader = errors.New("ingest: unreadable header line")
)

// Transfer is one CSV row: blockId,timestamp,contractId,fromId,toId,tokenId.
type Transfer struct {
	BlockID    uint64
	Timestamp  uint64
	ContractID uint64
	FromID     uint64
	ToID       uint64
	TokenID    uint64
	// Row is the one based data row number, the header excluded.
	Row uint64
}

// IsMint reports whether the row creates the token.
func (t Transfer) IsMint() bool { return t.FromID == 0 }

// Reader yields transfers from CSV input. The first line is a header and is
// always skipped.
type Reader struct {
	r      *csv.Reader
	row    uint64
	header bool
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	return &Reader{r: cr}
}

// Rows is the number of data rows read so far, malformed ones included.
func (r *Reader) Rows() uint64 { return r.row }

// Next returns the next transfer, io.EOF at the end of input, or an error
// wrapping ErrMalformed for a row that can be skipped.
func (r *Reader) Next() (Transfer, error) {
	if !r.header {
		r.header = true
		if _, err := r.r.Read(); err != nil {
			if err == io.EOF {
				return Transfer{}, err
			}
			return Transfer{}, fmt.Errorf("%w: %w", ErrBadHeader, err)
		}
	}

	rec, err := r.r.Read()
	if err != nil {
		err = skippable(err)
		if errors.Is(err, ErrMalformed) {
			r.row++
		}
		return Transfer{}, err
	}
	r.row++
	if len(rec) < 6 {
		return Transfer{}, fmt.Errorf("%w: row %d has %d fields", ErrMalformed, r.row, len(rec))
	}

	var f [6]uint64
	for i := range f {
		v, err := strconv.ParseUint(strings.TrimSpace(rec[i]), 10, 64)
		if err != nil {
			return Transfer{}, fmt.Errorf("%w: row %d field %d: %w", ErrMalformed, r.row, i+1, err)
		}
		f[i] = v
	}
	return Transfer{
		BlockID:    f[0],
		Timestamp:  f[1],
		ContractID: f[2],
		FromID:     f[3],
		ToID:       f[4],
		TokenID:    f[5],
		Row:        r.row,
	}, nil
}

// skippable turns csv syntax errors into ErrMalformed. The csv reader
// resumes at the next line after a ParseError.
func skippable(err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return fmt.Errorf("%w: line %d: %w", ErrMalformed, pe.Line, err)
	}
	return err
}
