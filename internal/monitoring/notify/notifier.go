package notify

import (
	"context"
	"log"
	"strings"
)

// OffTwiceAlert reports sensors that stayed off for two consecutive sessions.
type OffTwiceAlert struct {
	Country     string   `json:"country"`
	CountryName string   `json:"country_name"`
	Date        string   `json:"date"`
	Period      string   `json:"period"`
	Sensors     []string `json:"sensors"`
}

// Notifier sends notifications.
type Notifier interface {
	Notify(ctx context.Context, alert OffTwiceAlert) error
}

// LogNotifier writes alerts to a logger.
type LogNotifier struct {
	logger *log.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *log.Logger) *LogNotifier {
	if logger == nil {
		logger = log.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs the alert.
func (n *LogNotifier) Notify(ctx context.Context, alert OffTwiceAlert) error {
	_ = ctx
	n.logger.Printf("off-twice alert: country=%s date=%s sensors=%s", alert.Country, alert.Date, strings.Join(alert.Sensors, ","))
	return nil
}
