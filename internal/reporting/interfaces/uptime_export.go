package interfaces

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	analytics "aqsensor-cloud/internal/analytics/application"
	"aqsensor-cloud/internal/analytics/domain/uptime"
	masterdata "aqsensor-cloud/internal/masterdata/domain"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

const (
	dateLayout      = "2006-01-02"
	barsPerChart    = 15
	columnsPerTable = 8
	barMaxWidth     = 110.0
	rowHeight       = 6.0
	summarySheet    = "Uptime"
)

// UptimeTitle is the heading of a country uptime report.
func UptimeTitle(report analytics.CountryReport) string {
	return fmt.Sprintf("Uptime of all sensors in %s for the period of %s",
		masterdata.CountryName(report.Country), report.Period.Describe())
}

// NoDataText is the body of the report written when a country has no data.
func NoDataText(country string) string {
	return fmt.Sprintf("Could not retrieve data for the sensors in %s.", masterdata.CountryName(country))
}

// BuildUptimePDF renders the uptime bars of every sensor followed by the
// daily uptime table of each sensor type.
func BuildUptimePDF(report analytics.CountryReport) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Times", "B", 16)
	pdf.AddPage()
	pdf.MultiCell(0, 8, UptimeTitle(report), "", "C", false)
	pdf.Ln(6)

	for start := 0; start < len(report.Uptimes); start += barsPerChart {
		end := start + barsPerChart
		if end > len(report.Uptimes) {
			end = len(report.Uptimes)
		}
		drawBars(pdf, report.Uptimes[start:end])
		pdf.Ln(6)
	}

	if len(report.NoData) > 0 {
		pdf.SetFont("Times", "I", 10)
		pdf.MultiCell(0, 5, "No data: "+strings.Join(report.NoData, ", "), "", "L", false)
	}

	pdf.AddPage()
	pdf.SetFont("Times", "B", 14)
	pdf.CellFormat(0, 8, "Daily Uptime Table", "", 1, "C", false, 0, "")
	for _, sensorType := range filesystem.SensorTypes {
		table, ok := report.Daily[sensorType]
		if !ok || table.Empty() {
			continue
		}
		pdf.Ln(4)
		pdf.SetFont("Times", "B", 12)
		pdf.CellFormat(0, 7, string(sensorType), "", 1, "L", false, 0, "")
		drawDailyTable(pdf, table)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawBars(pdf *gofpdf.Fpdf, uptimes []analytics.SensorUptime) {
	_, pageHeight := pdf.GetPageSize()
	_, _, _, bottom := pdf.GetMargins()
	left, _, _, _ := pdf.GetMargins()

	pdf.SetFont("Times", "", 10)
	for _, u := range uptimes {
		if pdf.GetY()+rowHeight > pageHeight-bottom-10 {
			pdf.AddPage()
		}
		y := pdf.GetY()
		pdf.SetXY(left, y)
		pdf.CellFormat(40, rowHeight, u.SensorID, "", 0, "L", false, 0, "")

		width := barMaxWidth * math.Min(float64(u.Percent), 100) / 100
		pdf.SetFillColor(220, 220, 220)
		pdf.Rect(left+40, y+1, barMaxWidth, rowHeight-2, "F")
		if width > 0 {
			pdf.SetFillColor(46, 139, 87)
			pdf.Rect(left+40, y+1, width, rowHeight-2, "F")
		}
		pdf.SetXY(left+40+barMaxWidth+2, y)
		pdf.CellFormat(20, rowHeight, fmt.Sprintf("%d%%", u.Percent), "", 1, "L", false, 0, "")
	}
}

func drawDailyTable(pdf *gofpdf.Fpdf, table uptime.DailyTable) {
	for start := 0; start < len(table.Sensors); start += columnsPerTable {
		end := start + columnsPerTable
		if end > len(table.Sensors) {
			end = len(table.Sensors)
		}
		sensors := table.Sensors[start:end]

		pdf.SetFont("Times", "B", 9)
		pdf.CellFormat(24, rowHeight, "Date", "1", 0, "C", false, 0, "")
		for _, sensor := range sensors {
			pdf.CellFormat(20, rowHeight, sensor, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Times", "", 9)
		for _, date := range table.Dates {
			pdf.CellFormat(24, rowHeight, date.Format(dateLayout), "1", 0, "C", false, 0, "")
			for _, sensor := range sensors {
				pdf.CellFormat(20, rowHeight, strconv.Itoa(table.Value(date, sensor)), "1", 0, "R", false, 0, "")
			}
			pdf.Ln(-1)
		}
		pdf.Ln(3)
	}
}

// BuildNoDataPDF renders the single page written when a country has no data.
func BuildNoDataPDF(country string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Times", "", 18)
	pdf.AddPage()
	pdf.SetY(100)
	pdf.MultiCell(0, 10, NoDataText(country), "", "C", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildDailyUptimeXLSX renders a summary sheet of sensor uptimes and one
// sheet per sensor type holding the daily uptime pivot.
func BuildDailyUptimeXLSX(report analytics.CountryReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}

	_ = f.SetCellValue(summarySheet, "A1", UptimeTitle(report))
	_ = f.SetCellValue(summarySheet, "A3", "Sensor")
	_ = f.SetCellValue(summarySheet, "B3", "Type")
	_ = f.SetCellValue(summarySheet, "C3", "Uptime %")
	for i, u := range report.Uptimes {
		row := i + 4
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("A%d", row), u.SensorID)
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("B%d", row), string(u.Type))
		_ = f.SetCellValue(summarySheet, fmt.Sprintf("C%d", row), u.Percent)
	}

	for _, sensorType := range filesystem.SensorTypes {
		table, ok := report.Daily[sensorType]
		if !ok || table.Empty() {
			continue
		}
		sheet := string(sensorType)
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
		_ = f.SetCellValue(sheet, "A1", "Date")
		for j, sensor := range table.Sensors {
			cell, err := excelize.CoordinatesToCellName(j+2, 1)
			if err != nil {
				return nil, err
			}
			_ = f.SetCellValue(sheet, cell, sensor)
		}
		for i, date := range table.Dates {
			row := i + 2
			_ = f.SetCellValue(sheet, fmt.Sprintf("A%d", row), date.Format(dateLayout))
			for j, value := range table.Row(date) {
				cell, err := excelize.CoordinatesToCellName(j+2, row)
				if err != nil {
					return nil, err
				}
				_ = f.SetCellValue(sheet, cell, value)
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
