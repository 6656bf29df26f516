package file

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
)

type OpenFunc func(ctx context.Context) (io.ReadCloser, error)

// CSVSource reads user records from a CSV file with a header row.
type CSVSource struct {
	open OpenFunc
}

func NewCSVSource(open OpenFunc) *CSVSource {
	return &CSVSource{open: open}
}

func (s *CSVSource) Open(ctx context.Context) (domain.RecordStream, error) {
	rc, err := s.open(ctx)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(rc)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		rc.Close()
		if errors.Is(err, io.EOF) {
			return nil, domain.ErrNotUserCSV
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	header = normalizeHeader(header)
	if !domain.IsUserHeader(header) {
		rc.Close()
		return nil, domain.ErrNotUserCSV
	}

	return &csvStream{reader: reader, closer: rc, header: header}, nil
}

type csvStream struct {
	reader *csv.Reader
	closer io.Closer
	header []string
}

func (s *csvStream) Next(ctx context.Context) (domain.ImportRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.ImportRecord{}, err
	}

	row, err := s.reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return domain.ImportRecord{}, io.EOF
		}
		return domain.ImportRecord{}, fmt.Errorf("read csv row: %w", err)
	}

	line, _ := s.reader.FieldPos(0)
	return domain.RecordFromFields(line, zipFields(s.header, row)), nil
}

func (s *csvStream) Close() error {
	return s.closer.Close()
}

func normalizeHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		out[i] = strings.ToLower(strings.TrimSpace(h))
	}
	return out
}

// Only identifier columns are trimmed. Passwords and hashes are kept as written.
var trimmedColumns = map[string]bool{
	domain.HeaderUserID:  true,
	domain.HeaderLoginID: true,
	domain.HeaderEmail:   true,
	domain.HeaderStatus:  true,
}

func zipFields(header, row []string) map[string]string {
	fields := make(map[string]string, len(header))
	for i, name := range header {
		if i >= len(row) {
			continue
		}
		value := row[i]
		if trimmedColumns[name] {
			value = strings.TrimSpace(value)
		}
		fields[name] = value
	}
	return fields
}
