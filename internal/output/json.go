package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Formats accepted by Output
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatCSV   = "csv"
)

// JSON writes data as JSON to stdout
func JSON(data interface{}) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data as JSON to the given writer
func JSONTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(data)
}

// Output writes data in the specified format to stdout
func Output(format string, data interface{}) error {
	return OutputTo(os.Stdout, format, data)
}

// OutputTo writes data in the specified format to w
func OutputTo(w io.Writer, format string, data interface{}) error {
	switch format {
	case FormatJSON:
		return JSONTo(w, data)
	case FormatTable, "":
		return TableTo(w, data)
	case FormatCSV:
		return CSVTo(w, data)
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}
