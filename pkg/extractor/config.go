package extractor

import (
	"time"

	"outagewatch/pkg/schedule"
)

// Selectors locate the report parts of the page. Data cells exclude the
// row label column.
type Selectors struct {
	Timestamp   string
	TabToday    string
	TabTomorrow string
	HeaderCells string
	DataCells   string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Timestamp:   "span.update",
		TabToday:    "div.date:nth-child(1)",
		TabTomorrow: "div.date:nth-child(2)",
		HeaderCells: `.discon-fact-table.active table thead th[scope="col"]`,
		DataCells:   ".discon-fact-table.active table tbody tr:first-child td:not(:first-child)",
	}
}

func (s Selectors) tab(t schedule.Tab) string {
	if t == schedule.TabTomorrow {
		return s.TabTomorrow
	}
	return s.TabToday
}

type Config struct {
	Selectors         Selectors
	TimestampTimeout  time.Duration
	TimestampRetries  int
	TableTimeout      time.Duration
	TabTimeout        time.Duration
	TabSettle         time.Duration
	ScreenshotRetries int
	RetryBackoff      time.Duration
	CropTop           int
	CropBottom        int
}

func DefaultConfig() Config {
	return Config{
		Selectors:         DefaultSelectors(),
		TimestampTimeout:  10 * time.Second,
		TimestampRetries:  2,
		TableTimeout:      15 * time.Second,
		TabTimeout:        5 * time.Second,
		TabSettle:         3 * time.Second,
		ScreenshotRetries: 2,
		RetryBackoff:      time.Second,
		CropTop:           300,
		CropBottom:        400,
	}
}
