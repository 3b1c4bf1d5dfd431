package campaign

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/frahmantamala/campaign-management/internal"
	"github.com/frahmantamala/campaign-management/internal/core/common/validation"
)

// MinFields is the fewest fields a line needs to become a row.
const MinFields = 7

type ParseOptions struct {
	// Strict switches from naive comma splitting to RFC 4180 parsing.
	Strict bool
	// MaxRows caps accepted rows; zero means no cap.
	MaxRows int
	Now     func() time.Time
}

// ParseRows reads a header line followed by campaign rows. Lines with fewer
// than MinFields fields are skipped.
func ParseRows(r io.Reader, opts ParseOptions) ([]Row, error) {
	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	p := &rowParser{
		maxRows: opts.MaxRows,
		today:   now().UTC().Format(uploadedDateLayout),
		rows:    []Row{},
	}

	var err error
	if opts.Strict {
		err = p.parseStrict(r)
	} else {
		err = p.parseNaive(r)
	}
	if err != nil {
		return nil, err
	}
	return p.rows, nil
}

type rowParser struct {
	maxRows int
	today   string
	rows    []Row
}

func (p *rowParser) parseNaive(r io.Reader) error {
	br := bufio.NewReader(r)
	header := true
	for {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return readError(err)
		}
		if len(line) > 0 {
			if header {
				header = false
			} else {
				fields := strings.Split(strings.TrimRight(line, "\r\n"), ",")
				for i, f := range fields {
					fields[i] = stripQuotes(strings.TrimSpace(f))
				}
				if perr := p.add(fields); perr != nil {
					return perr
				}
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (p *rowParser) parseStrict(r io.Reader) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	if _, err := cr.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return readError(err)
	}

	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return readError(err)
		}
		for i, f := range record {
			record[i] = strings.TrimSpace(f)
		}
		if err := p.add(record); err != nil {
			return err
		}
	}
}

func (p *rowParser) add(fields []string) error {
	if len(fields) < MinFields {
		return nil
	}
	if p.maxRows > 0 && len(p.rows) >= p.maxRows {
		return internal.ErrUploadTooLarge.WithDetails(map[string]interface{}{
			"maxRows": p.maxRows,
		})
	}

	row := Row{
		BillName:     fields[0],
		Description:  fields[1],
		StartDate:    fields[2],
		EndDate:      fields[3],
		PANNumber:    validation.NormalizePAN(fields[4]),
		Place:        strings.ToUpper(fields[5]),
		CampaignName: fields[6],
	}
	if len(fields) > MinFields {
		row.Amount = fields[7]
	}
	if row.CampaignName == "" {
		row.CampaignName = fmt.Sprintf("%s_%s", row.BillName, p.today)
	}

	p.rows = append(p.rows, row)
	return nil
}

// stripQuotes removes one leading and one trailing double quote.
func stripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}

func readError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return internal.ErrUploadTooLarge.WithCause(err)
	}
	return internal.NewValidationError("Uploaded file could not be read as CSV", internal.ErrCodeValidationFailed).WithCause(err)
}
