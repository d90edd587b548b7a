package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/extrame/xls"
	"github.com/jszwec/csvutil"
	"github.com/kurochkinivan/shipment_tracker/internal/domain"
	"github.com/saintfish/chardet"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/htmlindex"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file contains no data rows")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// ImportRow mirrors the import template's header contract. Every field stays
// a string here; typing and reference resolution happen in the validator so a
// bad cell produces a row error instead of a decode failure.
type ImportRow struct {
	ItemName                  string `csv:"item_name"`
	Quantity                  string `csv:"quantity"`
	DestinationDepartmentName string `csv:"destination_department_name"`
	ShipmentUserName          string `csv:"shipment_user_name"`
	ShipmentDepartmentName    string `csv:"shipment_department_name"`
	TrackingNumber            string `csv:"tracking_number"`
	Notes                     string `csv:"notes"`
	ShippedAt                 string `csv:"shipped_at"`
}

// TemplateHeader is the canonical column order served by the template
// download endpoint.
var TemplateHeader = []string{
	"item_name",
	"quantity",
	"destination_department_name",
	"shipment_user_name",
	"shipment_department_name",
	"tracking_number",
	"notes",
	"shipped_at",
}

// Row is one decoded data row: the typed view consumed by validation plus the
// verbatim cell mapping preserved for error records.
type Row struct {
	Fields ImportRow
	Raw    domain.RawRow
}

type Decoder struct {
	log *slog.Logger
}

func NewDecoder(log *slog.Logger) *Decoder {
	return &Decoder{log: log}
}

// Decode turns an uploaded file's bytes into the ordered row sequence. The
// parser is selected by file extension; anything but .csv/.xlsx/.xls fails
// with ErrUnsupportedFormat before further processing.
func (d *Decoder) Decode(fileName string, payload []byte) ([]Row, error) {
	var (
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(fileName)); ext {
	case ".csv":
		records, err = d.readCSV(payload)
	case ".xlsx":
		records, err = readXLSX(payload)
	case ".xls":
		records, err = readXLS(payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, err
	}

	header, data := splitHeader(records)
	if len(header) == 0 || len(data) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := decodeRows(header, data)
	if err != nil {
		return nil, err
	}

	d.log.Debug("decoded upload",
		slog.String("file_name", fileName),
		slog.Int("row_count", len(rows)),
	)

	return rows, nil
}

func (d *Decoder) readCSV(payload []byte) ([][]string, error) {
	payload = bytes.TrimPrefix(payload, byteOrderMark)
	payload = d.toUTF8(payload)

	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}

	return records, nil
}

// toUTF8 transcodes non-Unicode payloads. Detection is best effort: any
// failure along the way leaves the payload untouched and lets the csv reader
// treat it as UTF-8.
func (d *Decoder) toUTF8(payload []byte) []byte {
	if utf8.Valid(payload) {
		return payload
	}

	detected, err := chardet.NewTextDetector().DetectBest(payload)
	if err != nil {
		return payload
	}

	enc, err := htmlindex.Get(detected.Charset)
	if err != nil || enc == nil {
		return payload
	}

	decoded, err := enc.NewDecoder().Bytes(payload)
	if err != nil {
		return payload
	}

	d.log.Debug("transcoded csv payload", slog.String("charset", detected.Charset))

	return decoded
}

func readXLSX(payload []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}

	return rows, nil
}

func readXLS(payload []byte) ([][]string, error) {
	wb, err := xls.OpenReader(bytes.NewReader(payload), "utf-8")
	if err != nil {
		return nil, fmt.Errorf("failed to open xls: %w", err)
	}

	sheet := wb.GetSheet(0)
	if sheet == nil {
		return nil, errors.New("xls file has no sheets")
	}

	records := make([][]string, 0, int(sheet.MaxRow)+1)
	for i := 0; i <= int(sheet.MaxRow); i++ {
		row := sheet.Row(i)
		if row == nil {
			records = append(records, nil)
			continue
		}

		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		records = append(records, cells)
	}

	return records, nil
}

// splitHeader picks the first non-empty record as the header and returns the
// remaining non-empty records padded to the header width.
func splitHeader(records [][]string) ([]string, [][]string) {
	var (
		header []string
		data   [][]string
	)

	for _, record := range records {
		if emptyRecord(record) {
			continue
		}

		if header == nil {
			header = make([]string, len(record))
			for i, cell := range record {
				header[i] = strings.TrimSpace(cell)
			}
			continue
		}

		data = append(data, padRecord(record, len(header)))
	}

	return header, data
}

func emptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func padRecord(record []string, length int) []string {
	if len(record) >= length {
		return record[:length]
	}

	padded := make([]string, length)
	copy(padded, record)

	return padded
}

// recordReader feeds pre-parsed records to csvutil, which lets the xlsx and
// xls paths reuse the same header-tagged decoding as csv.
type recordReader struct {
	records [][]string
	next    int
}

func (r *recordReader) Read() ([]string, error) {
	if r.next >= len(r.records) {
		return nil, io.EOF
	}

	record := r.records[r.next]
	r.next++

	return record, nil
}

func decodeRows(header []string, data [][]string) ([]Row, error) {
	records := make([][]string, 0, len(data)+1)
	records = append(records, header)
	records = append(records, data...)

	dec, err := csvutil.NewDecoder(&recordReader{records: records})
	if err != nil {
		return nil, fmt.Errorf("failed to create decoder: %w", err)
	}

	rows := make([]Row, 0, len(data))
	for {
		var fields ImportRow

		err := dec.Decode(&fields)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to decode row #%d: %w", len(rows)+1, err)
		}

		record := dec.Record()
		raw := make(domain.RawRow, len(header))
		for i, name := range header {
			if name == "" || i >= len(record) {
				continue
			}
			raw[name] = record[i]
		}

		rows = append(rows, Row{Fields: fields, Raw: raw})
	}

	return rows, nil
}
