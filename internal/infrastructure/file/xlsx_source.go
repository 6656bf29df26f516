package file

import (
	"context"
	"fmt"
	"io"

	domain "github.com/mohammadpnp/identity-import/internal/domain/user"
	"github.com/xuri/excelize/v2"
)

// XLSXSource reads user records from the first sheet of a workbook.
type XLSXSource struct {
	open OpenFunc
}

func NewXLSXSource(open OpenFunc) *XLSXSource {
	return &XLSXSource{open: open}
}

func (s *XLSXSource) Open(ctx context.Context) (domain.RecordStream, error) {
	rc, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	book, err := excelize.OpenReader(rc)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		book.Close()
		return nil, domain.ErrNotUserCSV
	}

	rows, err := book.Rows(sheets[0])
	if err != nil {
		book.Close()
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}

	stream := &xlsxStream{book: book, rows: rows}
	if !rows.Next() {
		stream.Close()
		return nil, domain.ErrNotUserCSV
	}
	header, err := rows.Columns()
	if err != nil {
		stream.Close()
		return nil, fmt.Errorf("read workbook header: %w", err)
	}
	stream.header = normalizeHeader(header)
	stream.line = 1
	if !domain.IsUserHeader(stream.header) {
		stream.Close()
		return nil, domain.ErrNotUserCSV
	}

	return stream, nil
}

type xlsxStream struct {
	book   *excelize.File
	rows   *excelize.Rows
	header []string
	line   int
}

func (s *xlsxStream) Next(ctx context.Context) (domain.ImportRecord, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.ImportRecord{}, err
		}
		if !s.rows.Next() {
			if err := s.rows.Error(); err != nil {
				return domain.ImportRecord{}, fmt.Errorf("read workbook row: %w", err)
			}
			return domain.ImportRecord{}, io.EOF
		}
		s.line++

		row, err := s.rows.Columns()
		if err != nil {
			return domain.ImportRecord{}, fmt.Errorf("read workbook row %d: %w", s.line, err)
		}
		if len(row) == 0 {
			continue
		}
		return domain.RecordFromFields(s.line, zipFields(s.header, row)), nil
	}
}

func (s *xlsxStream) Close() error {
	s.rows.Close()
	return s.book.Close()
}
