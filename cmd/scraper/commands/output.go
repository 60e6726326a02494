package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"funda-scraper/internal/domain/listing"

	"gopkg.in/yaml.v3"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
)

func validFormat(f string) bool {
	switch strings.ToLower(f) {
	case formatJSON, formatYAML, "yml":
		return true
	}
	return false
}

func writeRecords(w io.Writer, records []listing.Record, format string) error {
	if records == nil {
		records = []listing.Record{}
	}
	switch strings.ToLower(format) {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(records)
	case formatYAML, "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
