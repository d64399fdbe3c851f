package application

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	analytics "aqsensor-cloud/internal/analytics/application"
	"aqsensor-cloud/internal/observability/metrics"
	"aqsensor-cloud/internal/period"
	"aqsensor-cloud/internal/reporting/interfaces"
	"aqsensor-cloud/internal/telemetry/infrastructure/filesystem"
)

const (
	formatPDF  = "pdf"
	formatXLSX = "xlsx"
)

// Publisher writes country reports next to the raw data of their period, or
// under a dedicated report folder when one is configured.
type Publisher struct {
	layout    *filesystem.Layout
	reportDir string
	logger    *log.Logger
}

// NewPublisher constructs a Publisher. An empty reportDir keeps reports in
// the raw level period folder.
func NewPublisher(layout *filesystem.Layout, reportDir string, logger *log.Logger) (*Publisher, error) {
	if layout == nil && reportDir == "" {
		return nil, errors.New("publisher: layout or report dir required")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Publisher{layout: layout, reportDir: reportDir, logger: logger}, nil
}

// Dir returns the folder reports of a country and period are written to.
func (p *Publisher) Dir(country string, per period.Period) string {
	if p.reportDir != "" {
		return filepath.Join(p.reportDir, strings.ToUpper(country), per.Label())
	}
	return p.layout.PeriodDir(strings.ToUpper(country), filesystem.RawLevel, per)
}

// UptimePDFPath returns the uptime report path of a country.
func (p *Publisher) UptimePDFPath(country string, per period.Period) string {
	return filepath.Join(p.Dir(country, per), strings.ToLower(country)+"_uptime.pdf")
}

// DailyXLSXPath returns the daily uptime workbook path of a country.
func (p *Publisher) DailyXLSXPath(country string, per period.Period) string {
	return filepath.Join(p.Dir(country, per), strings.ToLower(country)+"_daily_uptime.xlsx")
}

// SummaryPDFPath returns the sensor summary report path of a country.
func (p *Publisher) SummaryPDFPath(country string, per period.Period) string {
	return filepath.Join(p.Dir(country, per), strings.ToLower(country)+"_summary.pdf")
}

// Publish renders and writes the uptime PDF and the daily uptime workbook.
func (p *Publisher) Publish(report analytics.CountryReport) ([]string, error) {
	pdfData, err := interfaces.BuildUptimePDF(report)
	if err != nil {
		metrics.IncReportRender(formatPDF, metrics.ResultError)
		return nil, fmt.Errorf("publisher: render pdf: %w", err)
	}
	metrics.IncReportRender(formatPDF, metrics.ResultSuccess)

	xlsxData, err := interfaces.BuildDailyUptimeXLSX(report)
	if err != nil {
		metrics.IncReportRender(formatXLSX, metrics.ResultError)
		return nil, fmt.Errorf("publisher: render xlsx: %w", err)
	}
	metrics.IncReportRender(formatXLSX, metrics.ResultSuccess)

	pdfPath := p.UptimePDFPath(report.Country, report.Period)
	xlsxPath := p.DailyXLSXPath(report.Country, report.Period)
	if err := writeFile(pdfPath, pdfData); err != nil {
		return nil, err
	}
	if err := writeFile(xlsxPath, xlsxData); err != nil {
		return []string{pdfPath}, err
	}
	p.logger.Printf("report published: country=%s period=%s pdf=%s xlsx=%s", report.Country, report.Period.Label(), pdfPath, xlsxPath)
	return []string{pdfPath, xlsxPath}, nil
}

// PublishNoData writes the no-data uptime PDF of a country.
func (p *Publisher) PublishNoData(country string, per period.Period) (string, error) {
	data, err := interfaces.BuildNoDataPDF(country)
	if err != nil {
		metrics.IncReportRender(formatPDF, metrics.ResultError)
		return "", fmt.Errorf("publisher: render no-data pdf: %w", err)
	}
	metrics.IncReportRender(formatPDF, metrics.ResultNoData)
	path := p.UptimePDFPath(country, per)
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	p.logger.Printf("report published without data: country=%s period=%s pdf=%s", country, per.Label(), path)
	return path, nil
}

// PublishSummary renders and writes the sensor summary PDF of a country.
func (p *Publisher) PublishSummary(s analytics.CountrySummary) (string, error) {
	data, err := interfaces.BuildSummaryPDF(s)
	if err != nil {
		metrics.IncReportRender(formatPDF, metrics.ResultError)
		return "", fmt.Errorf("publisher: render summary pdf: %w", err)
	}
	metrics.IncReportRender(formatPDF, metrics.ResultSuccess)
	path := p.SummaryPDFPath(s.Country, s.Period)
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	p.logger.Printf("summary published: country=%s period=%s pdf=%s", s.Country, s.Period.Label(), path)
	return path, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("publisher: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("publisher: %w", err)
	}
	return nil
}
