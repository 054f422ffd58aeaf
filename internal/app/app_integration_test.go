package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pressly/goose/v3"

	"github.com/entregaops-platform/api/internal/config"
	"github.com/entregaops-platform/api/internal/store"
)

func TestOrderLifecycle(t *testing.T) {
	env := setupTestEnv(t)

	orderID := createOrder(t, env.router, "LIFE-1", "Ada Lovelace", "instalacion", "")

	status, body := request(t, env.router, http.MethodGet, "/api/orders", nil)
	if status != http.StatusOK {
		t.Fatalf("board expected 200, got %d (%s)", status, string(body))
	}
	board := parseBoard(t, body)
	if len(board.Pending) != 1 || board.Pending[0].ID != orderID {
		t.Fatalf("expected order in pending bucket, got %+v", board)
	}

	status, body = request(t, env.router, http.MethodPost, "/api/orders/"+orderID+"/confirm", nil)
	if status != http.StatusOK {
		t.Fatalf("confirm expected 200, got %d (%s)", status, string(body))
	}

	status, body = request(t, env.router, http.MethodGet, "/api/orders", nil)
	if status != http.StatusOK {
		t.Fatalf("board expected 200, got %d", status)
	}
	board = parseBoard(t, body)
	if len(board.Confirmed) != 1 || len(board.Pending) != 0 {
		t.Fatalf("expected order confirmed after confirm, got %+v", board)
	}

	status, _ = request(t, env.router, http.MethodPost, "/api/orders/"+orderID+"/archive", nil)
	if status != http.StatusOK {
		t.Fatalf("archive expected 200, got %d", status)
	}
	board = parseBoard(t, mustBody(t, env.router, "/api/orders"))
	if len(board.Archived) != 1 || len(board.Confirmed) != 0 {
		t.Fatalf("expected order archived, got %+v", board)
	}

	status, _ = request(t, env.router, http.MethodPost, "/api/orders/"+orderID+"/restore", nil)
	if status != http.StatusOK {
		t.Fatalf("restore expected 200, got %d", status)
	}

	status, _ = request(t, env.router, http.MethodDelete, "/api/orders/"+orderID, nil)
	if status != http.StatusNoContent {
		t.Fatalf("delete expected 204, got %d", status)
	}
	status, _ = request(t, env.router, http.MethodDelete, "/api/orders/"+orderID, nil)
	if status != http.StatusNotFound {
		t.Fatalf("second delete expected 404, got %d", status)
	}
}

func TestImportPreviewAndApply(t *testing.T) {
	env := setupTestEnv(t)

	createOrder(t, env.router, "X100", "Old Name", "instalacion", "")

	preview := map[string]string{
		"text":       "fecha entrega\nX100 Maria Lopez 15/08/2030\nX200,Jose Ruiz,20/08/2030\nnot a line",
		"type":       "recogida",
		"sourceFile": "agosto.txt",
	}
	payload, _ := json.Marshal(preview)
	status, body := request(t, env.router, http.MethodPost, "/api/imports/preview", payload)
	if status != http.StatusOK {
		t.Fatalf("preview expected 200, got %d (%s)", status, string(body))
	}

	var previewResp struct {
		Candidates []json.RawMessage `json:"candidates"`
		Skipped    []struct {
			Reason string `json:"reason"`
		} `json:"skipped"`
	}
	if err := json.Unmarshal(body, &previewResp); err != nil {
		t.Fatalf("parse preview: %v", err)
	}
	if len(previewResp.Candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d (%s)", len(previewResp.Candidates), string(body))
	}
	if len(previewResp.Skipped) != 1 || previewResp.Skipped[0].Reason != "invalid_format" {
		t.Fatalf("expected one invalid_format skip, got %+v", previewResp.Skipped)
	}

	applyPayload, _ := json.Marshal(map[string]any{
		"candidates": previewResp.Candidates,
		"sourceFile": "agosto.txt",
	})
	status, body = request(t, env.router, http.MethodPost, "/api/imports/apply", applyPayload)
	if status != http.StatusOK {
		t.Fatalf("apply expected 200, got %d (%s)", status, string(body))
	}
	var applyResp struct {
		Status string `json:"status"`
		Result struct {
			Created int `json:"created"`
			Updated int `json:"updated"`
		} `json:"result"`
	}
	if err := json.Unmarshal(body, &applyResp); err != nil {
		t.Fatalf("parse apply: %v", err)
	}
	if applyResp.Status != "completed" || applyResp.Result.Created != 1 || applyResp.Result.Updated != 1 {
		t.Fatalf("unexpected apply result: %+v", applyResp)
	}

	// The same batch again is a no-op: equal priority never supersedes.
	status, body = request(t, env.router, http.MethodPost, "/api/imports/preview", payload)
	if status != http.StatusOK {
		t.Fatalf("second preview expected 200, got %d", status)
	}
	var second struct {
		Candidates []json.RawMessage `json:"candidates"`
		Warning    string            `json:"warning"`
	}
	if err := json.Unmarshal(body, &second); err != nil {
		t.Fatalf("parse second preview: %v", err)
	}
	if len(second.Candidates) != 0 {
		t.Fatalf("expected idempotent re-preview, got %d candidates", len(second.Candidates))
	}
	if second.Warning != "empty_import" {
		t.Fatalf("expected empty_import warning, got %q", second.Warning)
	}
}

func TestCalendarView(t *testing.T) {
	env := setupTestEnv(t)

	createOrder(t, env.router, "CAL-1", "Ana Blanco", "parcial", "2030-06-10")
	createOrder(t, env.router, "CAL-2", "Eva Gil", "recogida", "2030-06-10")
	createOrder(t, env.router, "CAL-3", "Luis Roca", "completo", "2030-06-25")

	status, body := request(t, env.router, http.MethodGet, "/api/calendar/2030/6", nil)
	if status != http.StatusOK {
		t.Fatalf("calendar expected 200, got %d (%s)", status, string(body))
	}

	var resp struct {
		Days []struct {
			Day          int    `json:"day"`
			HasOrders    bool   `json:"hasOrders"`
			DominantType string `json:"dominantType"`
		} `json:"days"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("parse calendar: %v", err)
	}
	if len(resp.Days) != 30 {
		t.Fatalf("expected 30 days for June, got %d", len(resp.Days))
	}
	if !resp.Days[9].HasOrders || resp.Days[9].DominantType != "recogida" {
		t.Fatalf("day 10 = %+v, want recogida dominant", resp.Days[9])
	}
	if !resp.Days[24].HasOrders || resp.Days[24].DominantType != "completo" {
		t.Fatalf("day 25 = %+v, want completo", resp.Days[24])
	}
}

func TestRequestValidation(t *testing.T) {
	env := setupTestEnv(t)

	// Missing required fields is rejected before the handler runs.
	status, body := request(t, env.router, http.MethodPost, "/api/orders", []byte(`{"orderNumber":"X1"}`))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 from request validation, got %d (%s)", status, string(body))
	}

	status, _ = request(t, env.router, http.MethodPatch, "/api/orders/not-a-uuid", []byte(`{"customerName":"Ana"}`))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed orderId, got %d", status)
	}
}

func TestImportRateLimit(t *testing.T) {
	env := setupTestEnvWith(t, func(cfg *config.Config) {
		cfg.ImportRateLimit = 2
	})

	payload, _ := json.Marshal(map[string]string{"text": "X1 Ana 15/08/2030", "type": "completo"})
	for i := 0; i < 2; i++ {
		status, body := request(t, env.router, http.MethodPost, "/api/imports/preview", payload)
		if status != http.StatusOK {
			t.Fatalf("request %d expected 200, got %d (%s)", i+1, status, string(body))
		}
	}
	status, _ := request(t, env.router, http.MethodPost, "/api/imports/preview", payload)
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after limit, got %d", status)
	}

	// CRUD endpoints are not limited by the import limiter.
	status, _ = request(t, env.router, http.MethodGet, "/api/orders", nil)
	if status != http.StatusOK {
		t.Fatalf("board expected 200, got %d", status)
	}
}

type testEnv struct {
	pool   *pgxpool.Pool
	router http.Handler
}

func setupTestEnv(t *testing.T) testEnv {
	return setupTestEnvWith(t, nil)
}

func setupTestEnvWith(t *testing.T, adjust func(*config.Config)) testEnv {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(pool.Close)

	resetSchema(t, ctx, pool, databaseURL)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		Addr:               ":0",
		DatabaseURL:        databaseURL,
		Env:                "test",
		OpenAPISpecPath:    filepath.Join("..", "..", "openapi.yaml"),
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		APIMaxBodyBytes:    1 << 20,
		ImportMaxBodyBytes: 10 << 20,
		ImportMaxLines:     5000,
		ImportRateLimit:    100,
	}
	if adjust != nil {
		adjust(&cfg)
	}

	router, err := NewRouter(cfg, store.NewOrders(pool), pool, logger)
	if err != nil {
		t.Fatalf("create router: %v", err)
	}

	return testEnv{pool: pool, router: router}
}

func resetSchema(t *testing.T, ctx context.Context, pool *pgxpool.Pool, databaseURL string) {
	t.Helper()

	if _, err := pool.Exec(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("drop schema: %v", err)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		t.Fatalf("open migration db: %v", err)
	}
	defer db.Close()

	migrationsDir := filepath.Join("..", "..", "migrations")
	if err := goose.Up(db, migrationsDir); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
}

func createOrder(t *testing.T, router http.Handler, number, customer, orderType, deliveryDate string) string {
	t.Helper()
	fields := map[string]string{
		"orderNumber":  number,
		"customerName": customer,
		"type":         orderType,
	}
	if deliveryDate != "" {
		fields["deliveryDate"] = deliveryDate
	}
	payload, _ := json.Marshal(fields)

	status, body := request(t, router, http.MethodPost, "/api/orders", payload)
	if status != http.StatusCreated {
		t.Fatalf("create order expected 201, got %d (%s)", status, string(body))
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &created); err != nil {
		t.Fatalf("parse created order: %v", err)
	}
	if created.ID == "" {
		t.Fatal("created order id missing")
	}
	return created.ID
}

type boardView struct {
	Pending []struct {
		ID string `json:"id"`
	} `json:"pending"`
	Confirmed []struct {
		ID string `json:"id"`
	} `json:"confirmed"`
	Archived []struct {
		ID string `json:"id"`
	} `json:"archived"`
}

func parseBoard(t *testing.T, body []byte) boardView {
	t.Helper()
	var board boardView
	if err := json.Unmarshal(body, &board); err != nil {
		t.Fatalf("parse board: %v", err)
	}
	return board
}

func mustBody(t *testing.T, router http.Handler, path string) []byte {
	t.Helper()
	status, body := request(t, router, http.MethodGet, path, nil)
	if status != http.StatusOK {
		t.Fatalf("GET %s expected 200, got %d", path, status)
	}
	return body
}

func request(t *testing.T, router http.Handler, method, path string, body []byte) (int, []byte) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.RemoteAddr = "127.0.0.1:12345"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	resBody, _ := io.ReadAll(rec.Result().Body)
	return rec.Code, resBody
}
