// Package export renders snapshot data to Excel workbooks.
package export

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/basajaundev/MQTT-Dashboard/internal/models"
)

// DeviceExportHeader is the column layout of the device export.
var DeviceExportHeader = []string{
	"Device Key",
	"Name",
	"Alias",
	"Status",
	"IP",
	"MAC",
	"Firmware",
	"Latency (ms)",
	"Uptime (s)",
	"Last Seen",
	"Sensors",
}

// GenerateDeviceExport renders the devices group to an xlsx workbook,
// one row per device sorted by key.
func GenerateDeviceExport(devices map[string]models.Device) ([]byte, error) {
	f := excelize.NewFile()
	// Don't defer Close() here, WriteTo needs the file open.

	sheetName := "Devices"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for col, title := range DeviceExportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to build header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, title); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
		if err := f.SetCellStyle(sheetName, cell, cell, headerStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style header: %w", err)
		}
	}

	keys := make([]string, 0, len(devices))
	for key := range devices {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for row, key := range keys {
		d := devices[key]
		values := []interface{}{
			key,
			d.Name,
			d.Alias,
			d.Status,
			d.IP,
			d.MAC,
			d.Firmware,
			d.LatencyMS,
			d.UptimeS,
			d.LastSeen,
			formatSensors(d.Sensors),
		}
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to build cell: %w", err)
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				f.Close()
				return nil, fmt.Errorf("failed to write row: %w", err)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close workbook: %w", err)
	}

	return buf.Bytes(), nil
}

func formatSensors(sensors map[string]float64) string {
	if len(sensors) == 0 {
		return ""
	}
	names := make([]string, 0, len(sensors))
	for name := range sensors {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%.2f", name, sensors[name]))
	}
	return strings.Join(parts, ", ")
}
