package extractor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagewatch/pkg/browser/browsertest"
	"outagewatch/pkg/navigator"
	"outagewatch/pkg/schedule"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryBackoff = 0
	cfg.TabSettle = 0
	return cfg
}

func labels() []string {
	out := make([]string, 24)
	for i := range out {
		out[i] = fmt.Sprintf("%02d-%02d", i, i+1)
	}
	return out
}

func classes(outage map[int]string) []string {
	out := make([]string, 24)
	for i := range out {
		out[i] = "cell-non-scheduled"
		if c, ok := outage[i]; ok {
			out[i] = c
		}
	}
	return out
}

func reportPage() *browsertest.Page {
	sel := DefaultSelectors()
	page := browsertest.NewPage()
	page.SetText(sel.Timestamp, "  18.10.2026 12:04  ")
	page.SetText(sel.TabToday, "субота, 18.10.26")
	page.SetText(sel.TabTomorrow, " неділя, 19.10.26 ")
	page.SetVisible(sel.HeaderCells, true)
	page.SetList(sel.HeaderCells, labels())

	today := classes(map[int]string{14: "cell-scheduled", 15: "cell-first-half"})
	tomorrow := classes(map[int]string{8: "cell-scheduled", 9: "cell-scheduled", 10: "cell-second-half"})
	page.SetClasses(sel.DataCells, today)
	page.OnClick = func(selector string) {
		switch selector {
		case sel.TabToday:
			page.SetClasses(sel.DataCells, today)
		case sel.TabTomorrow:
			page.SetClasses(sel.DataCells, tomorrow)
		}
	}
	return page
}

func TestCaptureReadsBothDays(t *testing.T) {
	page := reportPage()
	survey := navigator.Dismisser{Name: "survey", Selector: "#survey-close"}
	page.SetVisible("#survey-close", true)
	e := New(testConfig(), survey)

	c, err := e.Capture(context.Background(), page)
	require.NoError(t, err)

	assert.Equal(t, "18.10.2026 12:04", c.Timestamp)
	assert.Equal(t, "субота, 18.10.26", c.Today.ReportDate)
	assert.Equal(t, []string{"14-15", "15-16"}, c.Today.OutageHours())
	assert.Equal(t, schedule.StatusFirstHalf, c.Today.StatusOf("15-16"))
	assert.NotEmpty(t, c.TodayPNG)

	require.NotNil(t, c.Tomorrow)
	assert.Equal(t, "неділя, 19.10.26", c.Tomorrow.ReportDate)
	assert.Equal(t, []string{"08-09", "09-10", "10-11"}, c.Tomorrow.OutageHours())
	assert.NotEmpty(t, c.TomorrowPNG)

	calls := page.Calls()
	assert.Equal(t, "click "+DefaultSelectors().TabToday, lastClick(calls))
	assert.Equal(t, 1, page.Count("click #survey-close"))
}

func lastClick(calls []string) string {
	for i := len(calls) - 1; i >= 0; i-- {
		if len(calls[i]) > 6 && calls[i][:6] == "click " {
			return calls[i]
		}
	}
	return ""
}

func TestCaptureWithoutTomorrowTab(t *testing.T) {
	page := reportPage()
	page.SetVisible(DefaultSelectors().TabTomorrow, false)

	c, err := New(testConfig()).Capture(context.Background(), page)

	require.NoError(t, err)
	assert.Nil(t, c.Tomorrow)
	assert.Nil(t, c.TomorrowPNG)
}

func TestReportTimestampUnknown(t *testing.T) {
	page := reportPage()
	page.SetVisible(DefaultSelectors().Timestamp, false)

	ts, err := New(testConfig()).ReportTimestamp(context.Background(), page)

	assert.Error(t, err)
	assert.Equal(t, schedule.UnknownTimestamp, ts)
	assert.Equal(t, 1, page.Count("reload"))
}

func TestCaptureFailsWithoutTimestamp(t *testing.T) {
	page := reportPage()
	page.SetVisible(DefaultSelectors().Timestamp, false)

	_, err := New(testConfig()).Capture(context.Background(), page)
	assert.Error(t, err)
	assert.Zero(t, page.Count("screenshot"))
}

func TestScreenshotRetriedAfterReload(t *testing.T) {
	page := reportPage()
	page.FailScreenshots(1)

	shot, err := New(testConfig()).Screenshot(context.Background(), page, schedule.TabToday)

	require.NoError(t, err)
	assert.NotEmpty(t, shot)
	assert.Equal(t, 1, page.Count("reload"))
	assert.Equal(t, 2, page.Count("screenshot"))
}

func TestTomorrowScreenshotRetryReselectsTab(t *testing.T) {
	page := reportPage()
	page.FailScreenshots(1)

	_, err := New(testConfig()).Screenshot(context.Background(), page, schedule.TabTomorrow)

	require.NoError(t, err)
	assert.Equal(t, 1, page.Count("click "+DefaultSelectors().TabTomorrow))
}

func TestScheduleUnrecognizedCellIsAnomaly(t *testing.T) {
	page := reportPage()
	page.SetClasses(DefaultSelectors().DataCells, classes(map[int]string{3: "cell-rainbow"}))

	s, err := New(testConfig()).Schedule(context.Background(), page, schedule.TabToday)

	require.NoError(t, err)
	assert.Equal(t, schedule.StatusPowered, s.StatusOf("03-04"))
	require.Len(t, s.Anomalies, 1)
	assert.Equal(t, "03-04", s.Anomalies[0].Hour)
	assert.Equal(t, "cell-rainbow", s.Anomalies[0].Class)
}

func TestScheduleWithoutTable(t *testing.T) {
	page := reportPage()
	page.SetList(DefaultSelectors().HeaderCells, nil)

	_, err := New(testConfig()).Schedule(context.Background(), page, schedule.TabToday)
	assert.ErrorIs(t, err, ErrNoTable)
}

func TestCropRemovesBands(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 1000))
	for y := 0; y < 1000; y++ {
		img.Set(0, y, color.RGBA{R: uint8(y % 256), A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := Crop(buf.Bytes(), 300, 400)
	require.NoError(t, err)

	cropped, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 20, cropped.Bounds().Dx())
	assert.Equal(t, 300, cropped.Bounds().Dy())
	r, _, _, _ := cropped.At(0, 0).RGBA()
	assert.Equal(t, uint32(300%256)*0x101, r)
}

func TestCropLeavesShortImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 500))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	out, err := Crop(buf.Bytes(), 300, 400)
	require.NoError(t, err)
	assert.Equal(t, buf.Bytes(), out)
}

func TestCropInvalidImage(t *testing.T) {
	out, err := Crop([]byte("png"), 300, 400)
	assert.Error(t, err)
	assert.Equal(t, []byte("png"), out)
}
