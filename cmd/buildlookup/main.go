// Command buildlookup derives the historical-rate lookup tables from a
// flight history CSV and writes them as the service's lookup artifact.
//
// The input CSV must carry a header with at least the columns FlightDate,
// Origin, Airline, and ArrDel15 (1 when the flight arrived 15+ minutes
// late). Rates are computed from the full history per origin and carrier;
// defaults fall back to the global delay mean and mean origin traffic.
package main

import (
	"encoding/csv"
	"flag"
	"io"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/flightontime/flightontime/internal/lookup"
)

var (
	inputPath  = flag.String("input", "", "Path to the flight history CSV")
	outputPath = flag.String("output", "artifacts/lookup_tables.json", "Path for the lookup tables artifact")
)

func main() {
	flag.Parse()

	if *inputPath == "" {
		log.Fatal("-input is required")
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		log.Fatalf("Failed to open input: %v", err)
	}
	defer f.Close()

	records, err := readHistory(f)
	if err != nil {
		log.Fatalf("Failed to read history: %v", err)
	}
	log.Printf("Read %d flight records", len(records))

	table := lookup.BuildFromHistory(records)
	if err := table.Save(*outputPath); err != nil {
		log.Fatalf("Failed to write lookup tables: %v", err)
	}
	log.Printf("Wrote lookup tables for %d origins and %d carriers to %s",
		table.OriginCount(), table.CarrierCount(), *outputPath)
}

// readHistory parses the flight history CSV into builder records. Rows
// with unparseable dates or delay flags are skipped, not fatal, since
// bulk historical extracts routinely carry a few malformed lines.
func readHistory(r io.Reader) ([]lookup.HistoryRecord, error) {
	reader := csv.NewReader(r)
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}

	cols := map[string]int{}
	for i, name := range header {
		cols[name] = i
	}
	for _, required := range []string{"FlightDate", "Origin", "Airline", "ArrDel15"} {
		if _, ok := cols[required]; !ok {
			log.Fatalf("Input is missing required column %s", required)
		}
	}

	var records []lookup.HistoryRecord
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		date, err := time.Parse("2006-01-02", row[cols["FlightDate"]])
		if err != nil {
			skipped++
			continue
		}
		delayed, err := strconv.ParseFloat(row[cols["ArrDel15"]], 64)
		if err != nil {
			skipped++
			continue
		}

		records = append(records, lookup.HistoryRecord{
			FlightDate: date,
			Origin:     row[cols["Origin"]],
			Airline:    row[cols["Airline"]],
			Delayed:    int(delayed),
		})
	}

	if skipped > 0 {
		log.Printf("Skipped %d malformed rows", skipped)
	}
	return records, nil
}
