package notifier

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"outagewatch/pkg/schedule"
)

type telegramCall struct {
	path    string
	chatID  string
	caption string
	text    string
	photo   []byte
}

func fakeTelegram(t *testing.T, ok bool) (*httptest.Server, func() []telegramCall) {
	t.Helper()
	var mu sync.Mutex
	var calls []telegramCall
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := telegramCall{path: r.URL.Path}
		if r.URL.Path == "/botTOKEN/sendPhoto" {
			require.NoError(t, r.ParseMultipartForm(1<<20))
			call.chatID = r.FormValue("chat_id")
			call.caption = r.FormValue("caption")
			f, _, err := r.FormFile("photo")
			require.NoError(t, err)
			call.photo, _ = io.ReadAll(f)
		} else {
			var msg TelegramMessage
			require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
			call.chatID, call.text = msg.ChatID, msg.Text
		}
		mu.Lock()
		calls = append(calls, call)
		mu.Unlock()

		if ok {
			_, _ = w.Write([]byte(`{"ok":true}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found","error_code":400}`))
	}))
	t.Cleanup(srv.Close)
	return srv, func() []telegramCall {
		mu.Lock()
		defer mu.Unlock()
		return append([]telegramCall(nil), calls...)
	}
}

func report() schedule.ChangeReport {
	return schedule.ChangeReport{
		AddedOutageHours:   []string{"20-21"},
		RemovedOutageHours: []string{"14-15"},
		Classification:     schedule.ClassRearranged,
	}
}

func TestTelegramNotifySendsPhotos(t *testing.T) {
	srv, calls := fakeTelegram(t, true)
	tn := NewTelegramNotifier(&TelegramConfig{Enabled: true, BotToken: "TOKEN", ChatID: "42", APIURL: srv.URL})
	tomorrowReport := schedule.ChangeReport{AddedOutageHours: []string{"08-09"}, NetHourDelta: 1, Classification: schedule.ClassMoreOutage}

	err := tn.Notify(context.Background(), Notification{
		ReportTimestamp: "18.10.2026 12:04",
		Report:          report(),
		TodayPNG:        []byte("today"),
		Tomorrow:        &schedule.Schedule{ReportDate: "19.10.26"},
		TomorrowReport:  &tomorrowReport,
		TomorrowPNG:     []byte("tomorrow"),
	})
	require.NoError(t, err)

	got := calls()
	require.Len(t, got, 2)
	assert.Equal(t, "/botTOKEN/sendPhoto", got[0].path)
	assert.Equal(t, "42", got[0].chatID)
	assert.Equal(t, []byte("today"), got[0].photo)
	assert.Contains(t, got[0].caption, "Відключення перенесено")
	assert.Contains(t, got[0].caption, "20-21")
	assert.Contains(t, got[0].caption, "18.10.2026 12:04")
	assert.Equal(t, []byte("tomorrow"), got[1].photo)
	assert.Contains(t, got[1].caption, "19.10.26")
}

func TestTelegramNotifyFallsBackToText(t *testing.T) {
	srv, calls := fakeTelegram(t, true)
	tn := NewTelegramNotifier(&TelegramConfig{Enabled: true, BotToken: "TOKEN", ChatID: "42", APIURL: srv.URL})

	require.NoError(t, tn.Notify(context.Background(), Notification{Report: report()}))

	got := calls()
	require.Len(t, got, 1)
	assert.Equal(t, "/botTOKEN/sendMessage", got[0].path)
	assert.Contains(t, got[0].text, "14-15")
}

func TestTelegramNotifyNamesDateAfterRollover(t *testing.T) {
	srv, calls := fakeTelegram(t, true)
	tn := NewTelegramNotifier(&TelegramConfig{Enabled: true, BotToken: "TOKEN", ChatID: "42", APIURL: srv.URL})

	require.NoError(t, tn.Notify(context.Background(), Notification{
		Report:   report(),
		Today:    schedule.Schedule{ReportDate: "19.10.26"},
		Rollover: true,
	}))

	got := calls()
	require.Len(t, got, 1)
	assert.Contains(t, got[0].text, "сьогодні, 19.10.26")
}

func TestTelegramAPIError(t *testing.T) {
	srv, _ := fakeTelegram(t, false)
	tn := NewTelegramNotifier(&TelegramConfig{Enabled: true, BotToken: "TOKEN", ChatID: "42", APIURL: srv.URL})

	err := tn.SendMessage(context.Background(), "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chat not found")
}

func TestTelegramDisabledIsNoop(t *testing.T) {
	srv, calls := fakeTelegram(t, true)
	tn := NewTelegramNotifier(&TelegramConfig{Enabled: false, APIURL: srv.URL})

	require.NoError(t, tn.Notify(context.Background(), Notification{Report: report(), TodayPNG: []byte("x")}))
	assert.Empty(t, calls())
}

func TestTelegramValidate(t *testing.T) {
	assert.NoError(t, (&TelegramConfig{}).Validate())
	assert.Error(t, (&TelegramConfig{Enabled: true, ChatID: "1"}).Validate())
	assert.Error(t, (&TelegramConfig{Enabled: true, BotToken: "t"}).Validate())
}

func TestCaptionOmitsEmptySections(t *testing.T) {
	c := Caption("сьогодні", schedule.ChangeReport{
		AddedOutageHours: []string{"01-02", "02-03"},
		NetHourDelta:     2,
		Classification:   schedule.ClassMoreOutage,
	}, "")

	assert.Equal(t, "⚡ Відключень побільшало (сьогодні)\n➕ Нові відключення: 01-02, 02-03\nΔ годин: +2", c)
}
