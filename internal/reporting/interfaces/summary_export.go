package interfaces

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf"

	analytics "aqsensor-cloud/internal/analytics/application"
	"aqsensor-cloud/internal/analytics/domain/summary"
	masterdata "aqsensor-cloud/internal/masterdata/domain"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

const (
	chartHeight   = 40.0
	chartAxisGap  = 16.0
	legendWidth   = 34.0
	gridLines     = 4
	summaryLayout = "01-02-2006"
)

var chartPalette = [][3]int{
	{31, 119, 180}, {255, 127, 14}, {44, 160, 44}, {214, 39, 40},
	{148, 103, 189}, {140, 86, 75}, {227, 119, 194}, {127, 127, 127},
	{188, 189, 34}, {23, 190, 207},
}

// chartLine is one plotted sensor.
type chartLine struct {
	label  string
	points []summary.HourlyMean
}

// SummaryTitle is the heading of a country summary report.
func SummaryTitle(s analytics.CountrySummary) string {
	return fmt.Sprintf("Summary of all sensors in %s for the period of %s",
		masterdata.CountryName(s.Country), s.Period.Describe())
}

// BuildSummaryPDF renders the hourly mean charts of a country: one overview
// chart per measure and sensor type with every sensor overlaid, then one page
// per responding sensor.
func BuildSummaryPDF(s analytics.CountrySummary) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 10)
	pdf.AddPage()
	pdf.SetFont("Times", "B", 16)
	pdf.MultiCell(0, 8, SummaryTitle(s), "", "C", false)
	pdf.SetFont("Times", "", 12)
	pdf.CellFormat(0, 7, "Date: "+s.GeneratedAt.Format(summaryLayout), "", 1, "L", false, 0, "")

	for i, sensorType := range filesystem.SensorTypes {
		if i > 0 {
			pdf.AddPage()
		}
		pdf.SetFont("Times", "B", 13)
		pdf.CellFormat(0, 7, fmt.Sprintf("Summary of %s:", sensorType), "", 1, "L", false, 0, "")
		sensors := s.ByType(sensorType)
		for _, m := range analytics.MeasuresFor(sensorType) {
			var lines []chartLine
			for _, sensor := range sensors {
				if points := sensor.Hourly[m]; len(points) > 0 {
					lines = append(lines, chartLine{label: sensor.SensorID, points: points})
				}
			}
			drawChart(pdf, m, lines, true)
		}
	}

	for _, sensorType := range filesystem.SensorTypes {
		for _, sensor := range s.ByType(sensorType) {
			if !sensor.Responding {
				continue
			}
			pdf.AddPage()
			pdf.SetFont("Times", "B", 14)
			pdf.CellFormat(0, 7, string(sensorType), "", 1, "L", false, 0, "")
			pdf.SetFont("Times", "", 13)
			pdf.CellFormat(0, 7, "Sensor "+sensor.SensorID, "", 1, "L", false, 0, "")
			pdf.SetFont("Times", "B", 12)
			pdf.CellFormat(0, 7, fmt.Sprintf("%s (%s, %s)", sensor.Location, sensor.Latitude, sensor.Longitude), "", 1, "L", false, 0, "")
			for _, m := range analytics.MeasuresFor(sensorType) {
				points := sensor.Hourly[m]
				if len(points) == 0 {
					pdf.SetFont("Times", "I", 10)
					pdf.CellFormat(0, 6, string(m)+": No Data", "", 1, "L", false, 0, "")
					continue
				}
				drawChart(pdf, m, []chartLine{{label: sensor.SensorID, points: points}}, false)
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func drawChart(pdf *gofpdf.Fpdf, m summary.Measure, lines []chartLine, legend bool) {
	pageWidth, pageHeight := pdf.GetPageSize()
	left, _, right, bottom := pdf.GetMargins()
	if pdf.GetY()+chartHeight+16 > pageHeight-bottom {
		pdf.AddPage()
	}

	pdf.SetFont("Times", "B", 11)
	pdf.CellFormat(0, 6, string(m), "", 1, "C", false, 0, "")
	if len(lines) == 0 {
		pdf.SetFont("Times", "I", 10)
		pdf.CellFormat(0, 6, "No Data", "", 1, "C", false, 0, "")
		return
	}

	var all []summary.HourlyMean
	for _, line := range lines {
		all = append(all, line.points...)
	}
	logScale := summary.LogScale(m, all)
	scale := func(v float64) (float64, bool) {
		if !logScale {
			return v, true
		}
		if v <= 0 {
			return 0, false
		}
		return math.Log2(v), true
	}

	first, last := all[0].Hour, all[0].Hour
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, p := range all {
		if p.Hour.Before(first) {
			first = p.Hour
		}
		if p.Hour.After(last) {
			last = p.Hour
		}
		if v, ok := scale(p.Value); ok {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 0) {
		lo, hi = 0, 1
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}
	if !last.After(first) {
		last = first.Add(time.Hour)
	}

	x := left + chartAxisGap
	y := pdf.GetY()
	w := pageWidth - right - x
	if legend {
		w -= legendWidth
	}
	h := chartHeight
	px := func(t time.Time) float64 {
		return x + w*float64(t.Sub(first))/float64(last.Sub(first))
	}
	py := func(v float64) float64 { return y + h - h*(v-lo)/(hi-lo) }

	pdf.SetFont("Times", "", 7)
	pdf.SetLineWidth(0.1)
	pdf.SetDrawColor(210, 210, 210)
	for i := 0; i <= gridLines; i++ {
		v := lo + (hi-lo)*float64(i)/gridLines
		gy := py(v)
		pdf.Line(x, gy, x+w, gy)
		label := v
		if logScale {
			label = math.Exp2(v)
		}
		pdf.SetXY(left, gy-2)
		pdf.CellFormat(chartAxisGap-1, 4, strconv.FormatFloat(label, 'f', 1, 64), "", 0, "R", false, 0, "")
	}
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, time.UTC)
	if day.Before(first) {
		day = day.AddDate(0, 0, 1)
	}
	for ; !day.After(last); day = day.AddDate(0, 0, 1) {
		dx := px(day)
		pdf.Line(dx, y, dx, y+h)
		pdf.SetXY(dx-4, y+h+0.5)
		pdf.CellFormat(8, 4, day.Format("02"), "", 0, "C", false, 0, "")
	}
	pdf.SetDrawColor(0, 0, 0)
	pdf.Rect(x, y, w, h, "D")

	pdf.SetLineWidth(0.3)
	for i, line := range lines {
		c := chartPalette[i%len(chartPalette)]
		pdf.SetDrawColor(c[0], c[1], c[2])
		for j := 1; j < len(line.points); j++ {
			prev, cur := line.points[j-1], line.points[j]
			if cur.Hour.Sub(prev.Hour) > time.Hour {
				continue
			}
			v0, ok0 := scale(prev.Value)
			v1, ok1 := scale(cur.Value)
			if !ok0 || !ok1 {
				continue
			}
			pdf.Line(px(prev.Hour), py(v0), px(cur.Hour), py(v1))
		}
		if legend {
			ly := y + float64(i)*4
			if ly > y+h {
				continue
			}
			pdf.SetFillColor(c[0], c[1], c[2])
			pdf.Rect(x+w+3, ly+1, 4, 2, "F")
			pdf.SetXY(x+w+8, ly)
			pdf.CellFormat(legendWidth-8, 4, line.label, "", 0, "L", false, 0, "")
		}
	}
	pdf.SetLineWidth(0.2)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetXY(left, y+h+6)
}
