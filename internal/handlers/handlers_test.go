package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wixxidevelop/blue/internal/admin"
	"github.com/wixxidevelop/blue/internal/app"
	"github.com/wixxidevelop/blue/internal/config"
	"github.com/wixxidevelop/blue/internal/models"
	"github.com/wixxidevelop/blue/internal/session"
	"github.com/wixxidevelop/blue/internal/workflow"
	"github.com/wixxidevelop/blue/pkg/messaging"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	app    *app.App
	router *gin.Engine
	cookie *http.Cookie
	dir    string
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.SessionSecret = "handler-test-secret"
	cfg.RateLimitRPS = 1000
	cfg.Debug = true

	a, err := app.New(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	tokens, err := session.NewTokens(cfg.SessionSecret, time.Hour)
	require.NoError(t, err)

	return &server{
		app:    a,
		router: NewRouter(a, session.NewMemoryStore(time.Hour), tokens),
		dir:    cfg.DataDir,
	}
}

func (s *server) do(t *testing.T, method, target string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req.RemoteAddr = "203.0.113.7:4000"
	if s.cookie != nil {
		req.AddCookie(s.cookie)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == "portal_session" {
			s.cookie = c
		}
	}
	return w
}

func (s *server) view(t *testing.T, w *httptest.ResponseRecorder) workflow.View {
	t.Helper()
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var v workflow.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func (s *server) post(t *testing.T, values map[string]string) workflow.View {
	t.Helper()
	form := url.Values{}
	for k, v := range values {
		form.Set(k, v)
	}
	return s.view(t, s.do(t, "POST", "/", form))
}

func (s *server) disableFees(t *testing.T) {
	t.Helper()
	w := s.do(t, "POST", "/admin", url.Values{
		"action":             {"update_settings"},
		"withdrawal_pins":    {"1234, 5678"},
		"cot_pins":           {"COT123"},
		"tax_codes":          {"TAX001"},
		"mining_fee_amount":  {"50"},
		"commission_amount":  {"25"},
		"mining_fee_message": {"Mining fee"},
		"commission_message": {"Commission"},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

type stubBroker struct{ connected bool }

func (b stubBroker) IsConnected() bool { return b.connected }

func TestHealth(t *testing.T) {
	t.Run("should report ok without a broker", func(t *testing.T) {
		s := newServer(t)
		w := s.do(t, "GET", "/health", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	})

	t.Run("should include the broker state", func(t *testing.T) {
		for _, tc := range []struct {
			connected bool
			body      string
		}{
			{true, `{"status":"ok","nats":"connected"}`},
			{false, `{"status":"degraded","nats":"disconnected"}`},
		} {
			router := gin.New()
			router.GET("/health", health(stubBroker{connected: tc.connected}))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		}
	})
}

func TestPortal(t *testing.T) {
	t.Run("should start a new session at pin entry", func(t *testing.T) {
		s := newServer(t)
		v := s.view(t, s.do(t, "GET", "/", nil))
		assert.Equal(t, models.StepPinEntry, v.Step)
		assert.Equal(t, 1, v.StepNumber)
		assert.Equal(t, 6, v.TotalSteps)
		assert.NotNil(t, s.cookie)
	})

	t.Run("should report an invalid pin without advancing", func(t *testing.T) {
		s := newServer(t)
		v := s.post(t, map[string]string{"action": "verify_pin", "pin": "0000"})
		assert.Equal(t, models.StepPinEntry, v.Step)
		assert.Equal(t, workflow.MsgInvalidWithdrawalPin, v.Error)
	})

	t.Run("should complete the flow and record one transaction", func(t *testing.T) {
		s := newServer(t)
		s.disableFees(t)

		v := s.post(t, map[string]string{"action": "verify_pin", "pin": "1234"})
		assert.Equal(t, models.StepCotEntry, v.Step)
		assert.Equal(t, "123***", v.Data.WithdrawalPin)

		v = s.post(t, map[string]string{"action": "verify_cot", "cot_pin": "COT123"})
		assert.Equal(t, models.StepTaxEntry, v.Step)

		v = s.post(t, map[string]string{"action": "verify_tax", "tax_code": "TAX001"})
		assert.Equal(t, models.StepFeePayment, v.Step)

		v = s.post(t, map[string]string{"action": "pay_mining_fee"})
		assert.Equal(t, models.StepCommissionPayment, v.Step)

		v = s.post(t, map[string]string{"action": "pay_commission"})
		assert.Equal(t, models.StepCompleted, v.Step)
		assert.Equal(t, "Transaction recorded.", v.Success)

		records, err := s.app.Log.All(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "1234", records[0].WithdrawalPin)
		assert.Equal(t, "203.0.113.7", records[0].IP)

		v = s.view(t, s.do(t, "GET", "/?step=commission_payment", nil))
		assert.Equal(t, models.StepCompleted, v.Step, "completed sessions cannot be re-entered")

		v = s.post(t, map[string]string{"action": "start_new"})
		assert.Equal(t, models.StepPinEntry, v.Step)
		assert.Empty(t, v.Data.WithdrawalPin)
	})

	t.Run("should record once when one session pays commission concurrently", func(t *testing.T) {
		s := newServer(t)
		s.disableFees(t)
		s.post(t, map[string]string{"action": "verify_pin", "pin": "1234"})
		s.post(t, map[string]string{"action": "verify_cot", "cot_pin": "COT123"})
		s.post(t, map[string]string{"action": "verify_tax", "tax_code": "TAX001"})
		s.post(t, map[string]string{"action": "pay_mining_fee"})
		cookie := s.cookie

		var wg sync.WaitGroup
		codes := make([]int, 20)
		for i := range codes {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				req := httptest.NewRequest("POST", "/", strings.NewReader("action=pay_commission"))
				req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
				req.AddCookie(cookie)
				w := httptest.NewRecorder()
				s.router.ServeHTTP(w, req)
				codes[i] = w.Code
			}(i)
		}
		wg.Wait()

		for _, code := range codes {
			assert.Equal(t, http.StatusOK, code)
		}
		records, err := s.app.Log.All(context.Background())
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("should fail payment while a fee is enabled", func(t *testing.T) {
		s := newServer(t)
		s.post(t, map[string]string{"action": "verify_pin", "pin": "1234"})
		s.post(t, map[string]string{"action": "verify_cot", "cot_pin": "COT123"})
		s.post(t, map[string]string{"action": "verify_tax", "tax_code": "TAX001"})

		v := s.post(t, map[string]string{"action": "pay_mining_fee"})
		assert.Equal(t, models.StepFeePayment, v.Step)
		assert.Equal(t, workflow.MsgPaymentFailed, v.Error)
		require.NotNil(t, v.Fee)
		assert.Equal(t, "50", v.Fee.Amount)
	})

	t.Run("should only navigate to reached steps", func(t *testing.T) {
		s := newServer(t)
		s.post(t, map[string]string{"action": "verify_pin", "pin": "1234"})

		v := s.view(t, s.do(t, "GET", "/?step=tax_entry", nil))
		assert.Equal(t, models.StepCotEntry, v.Step)

		v = s.view(t, s.do(t, "GET", "/?step=pin_entry", nil))
		assert.Equal(t, models.StepPinEntry, v.Step)

		v = s.view(t, s.do(t, "GET", "/?step=bogus", nil))
		assert.Equal(t, models.StepPinEntry, v.Step)
	})

	t.Run("should refuse transitions while offline", func(t *testing.T) {
		s := newServer(t)
		w := s.do(t, "POST", "/admin", url.Values{"action": {"toggle_system"}})
		require.Equal(t, http.StatusOK, w.Code)

		v := s.post(t, map[string]string{"action": "verify_pin", "pin": "1234"})
		assert.True(t, v.Offline)
		assert.Equal(t, workflow.MsgSystemOffline, v.Message)
		assert.Equal(t, models.StepPinEntry, v.Step)
	})

	t.Run("should map a corrupt document to 500", func(t *testing.T) {
		s := newServer(t)
		s.do(t, "GET", "/", nil)
		require.NoError(t, os.WriteFile(filepath.Join(s.dir, "system.json"), []byte("{broken"), 0o644))

		w := s.do(t, "GET", "/", nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.JSONEq(t, `{"error":"corrupt data","document":"system"}`, w.Body.String())
	})
}

func TestAdmin(t *testing.T) {
	t.Run("should render the dashboard with defaults", func(t *testing.T) {
		s := newServer(t)
		w := s.do(t, "GET", "/admin", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var d admin.Dashboard
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
		assert.True(t, d.System.IsActive)
		assert.Equal(t, 0, d.TotalTransactions)
		assert.Equal(t, 4, d.ValidPins)
		assert.Equal(t, "1234, 5678", d.Settings.WithdrawalPins)
	})

	t.Run("should read unchecked checkboxes as disabled", func(t *testing.T) {
		s := newServer(t)
		s.disableFees(t)

		settings, err := s.app.Settings.Get(context.Background())
		require.NoError(t, err)
		assert.False(t, settings.Fees.MiningFee.Enabled)
		assert.False(t, settings.Fees.Commission.Enabled)
		assert.Equal(t, []string{"COT123"}, settings.ValidPins.Cot)
	})

	t.Run("should confirm settings updates", func(t *testing.T) {
		s := newServer(t)
		w := s.do(t, "POST", "/admin", url.Values{
			"action":             {"update_settings"},
			"withdrawal_pins":    {"9999"},
			"mining_fee_enabled": {"on"},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var d admin.Dashboard
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &d))
		assert.Equal(t, "Settings updated successfully!", d.Success)
		assert.True(t, d.Settings.MiningFee.Enabled)
		assert.False(t, d.Settings.Commission.Enabled)
	})

	t.Run("should export the documents as an attachment", func(t *testing.T) {
		s := newServer(t)
		w := s.do(t, "POST", "/admin", url.Values{"action": {"export_data"}})
		require.Equal(t, http.StatusOK, w.Code)

		assert.Regexp(t, `^attachment; filename="transaction_data_\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.json"$`,
			w.Header().Get("Content-Disposition"))

		var body map[string]json.RawMessage
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))

		var exportedAt time.Time
		require.NoError(t, json.Unmarshal(body["exported_at"], &exportedAt))
		assert.Equal(t, fmt.Sprintf("attachment; filename=%q", admin.ExportFilename(exportedAt)),
			w.Header().Get("Content-Disposition"), "filename must carry the snapshot time")

		assert.Contains(t, body, "system")
		assert.Contains(t, body, "settings")
		assert.Contains(t, body, "transactions")
		assert.Contains(t, body, "exported_at")
	})

	t.Run("should clear the log", func(t *testing.T) {
		s := newServer(t)
		require.NoError(t, s.app.Log.Append(context.Background(), models.TransactionRecord{WithdrawalPin: "1234"}))

		w := s.do(t, "POST", "/admin", url.Values{"action": {"clear_logs"}})
		require.Equal(t, http.StatusOK, w.Code)

		records, err := s.app.Log.All(context.Background())
		require.NoError(t, err)
		assert.Empty(t, records)
	})

	t.Run("should stream admin actions to the live feed", func(t *testing.T) {
		s := newServer(t)
		srv := httptest.NewServer(s.router)
		defer srv.Close()

		conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/admin/events", nil)
		require.NoError(t, err)
		defer conn.Close()
		require.Eventually(t, func() bool { return s.app.Feed.Len() == 1 }, time.Second, 10*time.Millisecond)

		w := s.do(t, "POST", "/admin", url.Values{"action": {"toggle_system"}})
		require.Equal(t, http.StatusOK, w.Code)

		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var event messaging.Event
		require.NoError(t, conn.ReadJSON(&event))
		assert.Equal(t, messaging.EventTypeSystemToggled, event.Type)
	})

	t.Run("should reject unknown actions", func(t *testing.T) {
		s := newServer(t)
		w := s.do(t, "POST", "/admin", url.Values{"action": {"format_disk"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
