package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/miretskiy/linesim/simulator"
	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

// Load reads a line configuration with Parse and validates it. Limits are
// never taken from the file; the stock bounds apply.
func Load(path string) (simulator.SimConfig, error) {
	config, err := Parse(path)
	if err != nil {
		return simulator.SimConfig{}, err
	}
	if err := config.Validate(); err != nil {
		return simulator.SimConfig{}, err
	}
	return config, nil
}

// Parse reads a line configuration without validating it, choosing the
// format by file extension: .yaml/.yml, .json or .xlsx.
func Parse(path string) (simulator.SimConfig, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return readFile(path, LoadYAML)
	case ".json":
		return readFile(path, LoadJSON)
	case ".xlsx":
		return LoadXLSXFile(path)
	default:
		return simulator.SimConfig{}, fmt.Errorf("unsupported config format %q (want .yaml, .yml, .json or .xlsx)", ext)
	}
}

func readFile(path string, parse func([]byte) (simulator.SimConfig, error)) (simulator.SimConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return simulator.SimConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	return parse(data)
}

// LoadYAML parses a YAML document. A limits block in the document is ignored.
func LoadYAML(data []byte) (simulator.SimConfig, error) {
	config := simulator.DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return simulator.SimConfig{}, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	return config, nil
}

// LoadJSON parses a JSON document. A limits block in the document is ignored.
func LoadJSON(data []byte) (simulator.SimConfig, error) {
	config := simulator.DefaultConfig()
	if err := json.Unmarshal(data, &config); err != nil {
		return simulator.SimConfig{}, fmt.Errorf("failed to parse JSON config: %w", err)
	}
	return config, nil
}

// LoadXLSXFile opens a workbook from disk and reads it with LoadXLSX.
func LoadXLSXFile(path string) (simulator.SimConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return simulator.SimConfig{}, fmt.Errorf("failed to read config: %w", err)
	}
	defer f.Close()
	return LoadXLSX(f)
}

// Column order of the three workbook sheets. Cells are read by position, so
// the header row may say anything.
var (
	stationColumns = []string{"name", "processingTime", "maxWorkers"}
	linkColumns    = []string{"from", "to"}
	seedColumns    = []string{"totalWorkers", "initialStation", "itemCount"}
)

// LoadXLSX reads a workbook with three sheets in order, whatever their names:
// stations (name, processing time, max workers), links (from, to) and seed
// (total workers, initial station, item count). The first row of every sheet
// is a header and is skipped, as are blank rows. Only the first seed row is
// used.
func LoadXLSX(r io.Reader) (simulator.SimConfig, error) {
	book, err := excelize.OpenReader(r)
	if err != nil {
		return simulator.SimConfig{}, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) < 3 {
		return simulator.SimConfig{}, fmt.Errorf("workbook needs stations, links and seed sheets, found %d sheet(s)", len(sheets))
	}

	config := simulator.DefaultConfig()
	if err := decodeSheet(book, sheets[0], stationColumns, &config.Stations); err != nil {
		return simulator.SimConfig{}, err
	}
	if err := decodeSheet(book, sheets[1], linkColumns, &config.Links); err != nil {
		return simulator.SimConfig{}, err
	}

	var seeds []simulator.SeedConfig
	if err := decodeSheet(book, sheets[2], seedColumns, &seeds); err != nil {
		return simulator.SimConfig{}, err
	}
	if len(seeds) == 0 {
		return simulator.SimConfig{}, fmt.Errorf("sheet %q: no seed row", sheets[2])
	}
	config.Seed = seeds[0]
	return config, nil
}

// decodeSheet turns the data rows of a sheet into records keyed by columns
// and decodes them into out, a pointer to a slice of config structs.
func decodeSheet(book *excelize.File, sheet string, columns []string, out interface{}) error {
	rows, err := book.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("sheet %q: missing header row", sheet)
	}

	records := make([]map[string]interface{}, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		record := make(map[string]interface{}, len(columns))
		for i, key := range columns {
			if i < len(row) {
				record[key] = strings.TrimSpace(row[i])
			}
		}
		records = append(records, record)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return err
	}
	if err := decoder.Decode(records); err != nil {
		return fmt.Errorf("sheet %q: %w", sheet, err)
	}
	return nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
