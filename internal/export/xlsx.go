// Package export renders complaints as spreadsheet downloads.
package export

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"smartpothole/backend/internal/models"
	"smartpothole/backend/internal/storage"
)

// SheetName is the worksheet holding the complaint table.
const SheetName = "Complaints"

// ContentTypeXLSX is the MIME type of the generated workbook.
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var columnWidths = map[string]float64{
	"complaint_id":         16,
	"full_name":            22,
	"email":                28,
	"location_description": 40,
	"image_path":           30,
	"timestamp":            28,
	"assigned_at":          28,
	"last_updated":         28,
	"activity_log":         70,
}

// ComplaintsXLSX builds a workbook with one row per complaint, using the
// stored column order.
func ComplaintsXLSX(complaints []models.Complaint) ([]byte, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(SheetName)
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
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	wrapStyle, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create cell style: %w", err)
	}

	for col, header := range storage.Columns {
		if err := setCellValue(f, col+1, 1, header); err != nil {
			f.Close()
			return nil, err
		}
		name, err := excelize.ColumnNumberToName(col + 1)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		width, ok := columnWidths[header]
		if !ok {
			width = 14
		}
		if err := f.SetColWidth(SheetName, name, name, width); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(storage.Columns), 1)
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i := range complaints {
		row := i + 2
		for col, value := range record(&complaints[i]) {
			if err := setCellValue(f, col+1, row, value); err != nil {
				f.Close()
				return nil, err
			}
		}
	}

	if len(complaints) > 0 {
		logCol := len(storage.Columns)
		from, _ := excelize.CoordinatesToCellName(logCol, 2)
		to, _ := excelize.CoordinatesToCellName(logCol, len(complaints)+1)
		if err := f.SetCellStyle(SheetName, from, to, wrapStyle); err != nil {
			f.Close()
			return nil, fmt.Errorf("failed to style activity log: %w", err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze panes: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close file: %w", err)
	}
	return buf.Bytes(), nil
}

func record(c *models.Complaint) []string {
	return []string{
		c.ComplaintID,
		c.FullName,
		c.Email,
		c.Mobile,
		c.Latitude,
		c.Longitude,
		c.LocationDescription,
		c.ImagePath,
		c.Timestamp,
		c.Status,
		c.AssignedTo,
		c.AssignedBy,
		c.AssignedAt,
		c.LastUpdated,
		c.ActivityLogText(),
	}
}

func setCellValue(f *excelize.File, col, row int, value any) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	return f.SetCellValue(SheetName, cell, value)
}
