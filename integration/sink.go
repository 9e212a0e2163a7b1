package integration

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/miretskiy/linesim/simulator"
	"github.com/xuri/excelize/v2"
)

// EventsCSVHeader is the first row written by WriteEventsCSV
var EventsCSVHeader = []string{"Tick", "Station", "Workers", "Backlog"}

// LegacyEventsCSVHeader is the first row written by WriteLegacyEventsCSV.
// It keeps the column names of the older production-center reports.
var LegacyEventsCSVHeader = []string{"Time", "ProductionCenter", "WorkersCount", "BufferCount"}

// WriteEventsCSV writes one row per event, in log order, after a header row.
func WriteEventsCSV(w io.Writer, events []simulator.Event) error {
	return writeEventsCSV(w, EventsCSVHeader, events, strconv.Itoa)
}

// WriteLegacyEventsCSV is WriteEventsCSV with the legacy column names and the
// tick written as a one-decimal time (3 becomes 3.0).
func WriteLegacyEventsCSV(w io.Writer, events []simulator.Event) error {
	return writeEventsCSV(w, LegacyEventsCSVHeader, events, func(tick int) string {
		return strconv.FormatFloat(float64(tick), 'f', 1, 64)
	})
}

func writeEventsCSV(w io.Writer, header []string, events []simulator.Event, formatTick func(int) string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range events {
		record := []string{
			formatTick(e.Tick()),
			e.Station(),
			strconv.Itoa(e.Workers()),
			strconv.Itoa(e.Backlog()),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryJSON writes the metrics snapshot as indented JSON
func WriteSummaryJSON(w io.Writer, metrics *simulator.Metrics) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(metrics)
}

// WriteStatistics writes a plain-text report: line totals followed by one
// block per station.
func WriteStatistics(w io.Writer, metrics *simulator.Metrics) error {
	var err error
	printf := func(format string, args ...interface{}) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Total simulation time: %d ticks\n", metrics.ElapsedTicks)
	printf("Workers: %d (peak in use %d, average %.2f)\n",
		metrics.TotalWorkers, metrics.PeakWorkersInUse, metrics.AverageWorkersInUse)
	printf("Items processed: %d of %d\n", metrics.ItemsCompleted, metrics.ItemsSeeded)

	for _, st := range metrics.Stations {
		role := ""
		switch {
		case st.IsInitial:
			role = " (initial)"
		case st.IsTerminal:
			role = " (terminal)"
		}
		printf("\nStation: %s%s\n", st.Name, role)
		printf("Items processed: %d\n", st.TotalCompleted)
		printf("Average load: %.2f%%\n", st.Utilization*100)
		printf("Max backlog: %d\n", st.PeakBacklog)
		printf("Active ticks: %d\n", st.ActiveTicks)
	}
	return err
}

const (
	eventsSheet   = "Events"
	stationsSheet = "Stations"
)

// WriteXLSX writes a workbook with an Events sheet (the event log) and a
// Stations sheet (per-station statistics).
func WriteXLSX(w io.Writer, events []simulator.Event, metrics *simulator.Metrics) error {
	book := excelize.NewFile()
	defer book.Close()

	if err := book.SetSheetName("Sheet1", eventsSheet); err != nil {
		return err
	}
	if err := setRow(book, eventsSheet, 1, toCells(EventsCSVHeader)); err != nil {
		return err
	}
	for i, e := range events {
		row := []interface{}{e.Tick(), e.Station(), e.Workers(), e.Backlog()}
		if err := setRow(book, eventsSheet, i+2, row); err != nil {
			return err
		}
	}

	if _, err := book.NewSheet(stationsSheet); err != nil {
		return err
	}
	header := []interface{}{"Station", "ProcessingTime", "MaxWorkers", "Completed", "PeakBacklog", "ActiveTicks", "Utilization"}
	if err := setRow(book, stationsSheet, 1, header); err != nil {
		return err
	}
	for i, st := range metrics.Stations {
		row := []interface{}{st.Name, st.ProcessingTime, st.MaxWorkers, st.TotalCompleted, st.PeakBacklog, st.ActiveTicks, st.Utilization}
		if err := setRow(book, stationsSheet, i+2, row); err != nil {
			return err
		}
	}

	_, err := book.WriteTo(w)
	return err
}

func setRow(book *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return book.SetSheetRow(sheet, cell, &values)
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
