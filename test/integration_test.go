//go:build integration

package test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	kafkago "github.com/segmentio/kafka-go"

	"github.com/shopme-store/shopme-backend/internal/auth"
	"github.com/shopme-store/shopme-backend/internal/catalog"
	"github.com/shopme-store/shopme-backend/internal/domain"
	"github.com/shopme-store/shopme-backend/internal/messaging"
	"github.com/shopme-store/shopme-backend/internal/notify"
	"github.com/shopme-store/shopme-backend/internal/orders"
	"github.com/shopme-store/shopme-backend/internal/worker"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPlaceOrderAndFetch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	repo := orders.NewOrderRepository(db)
	handler := orders.NewHandler(repo, nil, discardLogger())

	items := []domain.LineItem{
		{ItemID: 1, Title: "Linen Shirt", Price: 250, Quantity: 2, Img: "/uploads/shirt.png"},
		{ItemID: 2, Title: "Canvas Tote", Price: 500, Quantity: 1, Img: "/uploads/tote.png"},
	}
	payload := map[string]any{
		"name":    gofakeit.Name(),
		"email":   gofakeit.Email(),
		"address": gofakeit.Street() + ", " + gofakeit.City(),
		"items":   items,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal request: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/orders", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.HandleCreate(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var created struct {
		Message string `json:"message"`
		OrderID string `json:"orderId"`
		Success bool   `json:"success"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !created.Success {
		t.Fatal("expected success true")
	}
	if created.OrderID == "" {
		t.Fatal("expected an order id")
	}

	order, err := repo.GetByID(ctx, created.OrderID)
	if err != nil {
		t.Fatalf("failed to fetch order: %v", err)
	}
	if order == nil {
		t.Fatal("order not found in database")
	}

	if order.Status != domain.OrderStatusPending {
		t.Errorf("expected status %q, got %q", domain.OrderStatusPending, order.Status)
	}
	if order.TotalPrice != 1000 {
		t.Errorf("expected total 1000, got %d", order.TotalPrice)
	}
	if diff := cmp.Diff(items, order.Items); diff != "" {
		t.Errorf("stored items mismatch (-want +got):\n%s", diff)
	}
}

func TestListOrdersForCustomer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	repo := orders.NewOrderRepository(db)
	handler := orders.NewHandler(repo, nil, discardLogger())

	email := gofakeit.Email()
	for i := 0; i < 3; i++ {
		order := &domain.Order{
			Name:       gofakeit.Name(),
			Email:      email,
			Address:    gofakeit.Street() + ", " + gofakeit.City(),
			Items:      []domain.LineItem{{ItemID: int64(i + 1), Title: "Item", Price: 100, Quantity: 1, Img: "/uploads/x.png"}},
			TotalPrice: 100,
			Status:     domain.OrderStatusPending,
			CreatedAt:  time.Now().UTC(),
			UpdatedAt:  time.Now().UTC(),
		}
		if err := repo.Create(ctx, order); err != nil {
			t.Fatalf("failed to create order %d: %v", i, err)
		}
	}

	principal := auth.Customer{ID: "cust-1", Name: "C", Email: email}
	req := httptest.NewRequest(http.MethodGet, "/api/orders/email/"+email, nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), principal))
	req.SetPathValue("email", email)
	rec := httptest.NewRecorder()

	handler.HandleListByEmail(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var list []domain.Order
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("failed to decode list: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("expected 3 orders, got %d", len(list))
	}
	for _, order := range list {
		if order.Email != email {
			t.Errorf("unexpected email in list: %q", order.Email)
		}
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	repo := orders.NewOrderRepository(db)
	handler := orders.NewHandler(repo, nil, discardLogger())

	order := &domain.Order{
		Name:       gofakeit.Name(),
		Email:      gofakeit.Email(),
		Address:    gofakeit.Street() + ", " + gofakeit.City(),
		Items:      []domain.LineItem{{ItemID: 1, Title: "Item", Price: 100, Quantity: 1, Img: "/uploads/x.png"}},
		TotalPrice: 100,
		Status:     domain.OrderStatusPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}
	if err := repo.Create(ctx, order); err != nil {
		t.Fatalf("failed to create order: %v", err)
	}

	t.Run("updates an existing order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/orders/"+order.ID+"/status", strings.NewReader(`{"status":"shipped"}`))
		req.SetPathValue("orderId", order.ID)
		rec := httptest.NewRecorder()

		handler.HandleUpdateStatus(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		updated, err := repo.GetByID(ctx, order.ID)
		if err != nil {
			t.Fatalf("failed to fetch order: %v", err)
		}
		if updated.Status != domain.OrderStatusShipped {
			t.Errorf("expected status shipped, got %q", updated.Status)
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPatch, "/api/orders/00000000-0000-0000-0000-000000000000/status", strings.NewReader(`{"status":"shipped"}`))
		req.SetPathValue("orderId", "00000000-0000-0000-0000-000000000000")
		rec := httptest.NewRecorder()

		handler.HandleUpdateStatus(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404, got %d", rec.Code)
		}
	})
}

func TestAuthFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	repo := auth.NewUserRepository(db)
	tokens := auth.NewTokenManager([]byte("integration-secret"))
	logger := discardLogger()
	handler := auth.NewHandler(repo, tokens, notify.NewNoopMailer(logger), "http://localhost:5173", logger)

	email := gofakeit.Email()
	password := "Str0ng&Pass!"

	register := func() *httptest.ResponseRecorder {
		body := fmt.Sprintf(`{"name":"Test User","email":%q,"password":%q}`, email, password)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
		rec := httptest.NewRecorder()
		handler.HandleRegister(rec, req)
		return rec
	}

	rec := register()
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var registered struct {
		Token string `json:"token"`
		User  struct {
			ID    string `json:"id"`
			Email string `json:"email"`
			Role  string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&registered); err != nil {
		t.Fatalf("failed to decode register response: %v", err)
	}
	if registered.Token == "" {
		t.Fatal("expected a token")
	}
	if registered.User.Role != "user" {
		t.Errorf("expected role 'user', got %q", registered.User.Role)
	}

	t.Run("duplicate registration", func(t *testing.T) {
		rec := register()
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("login", func(t *testing.T) {
		body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("wrong password", func(t *testing.T) {
		body := fmt.Sprintf(`{"email":%q,"password":"Wr0ng&Pass!"}`, email)
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleLogin(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("customer cannot use admin login", func(t *testing.T) {
		body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
		req := httptest.NewRequest(http.MethodPost, "/api/admin/login", strings.NewReader(body))
		rec := httptest.NewRecorder()

		handler.HandleAdminLogin(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("me", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+registered.Token)
		rec := httptest.NewRecorder()

		handler.HandleMe(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var me struct {
			ID    string `json:"id"`
			Email string `json:"email"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&me); err != nil {
			t.Fatalf("failed to decode me response: %v", err)
		}
		if me.ID != registered.User.ID {
			t.Errorf("expected id %q, got %q", registered.User.ID, me.ID)
		}
		if me.Email != email {
			t.Errorf("expected email %q, got %q", email, me.Email)
		}
	})
}

var resetLinkPattern = regexp.MustCompile(`/reset-password/([0-9a-f]{64})`)

func TestPasswordResetFlow(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	emailCap := &emailCapture{}
	emailServer := httptest.NewServer(http.HandlerFunc(emailCap.handler))
	defer emailServer.Close()

	db := OpenDB(t, pg.ConnStr)
	repo := auth.NewUserRepository(db)
	tokens := auth.NewTokenManager([]byte("integration-secret"))
	logger := discardLogger()
	mailer := notify.NewHTTPMailer(emailServer.URL, emailServer.Client())
	handler := auth.NewHandler(repo, tokens, mailer, "http://localhost:5173", logger)

	email := gofakeit.Email()
	oldPassword := "Old&Pass123"
	newPassword := "New&Pass456"

	body := fmt.Sprintf(`{"name":"Reset User","email":%q,"password":%q}`, email, oldPassword)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader(body))
	rec := httptest.NewRecorder()
	handler.HandleRegister(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed to register: %d %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", strings.NewReader(fmt.Sprintf(`{"email":%q}`, email)))
	rec = httptest.NewRecorder()
	handler.HandleForgotPassword(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot password failed: %d %s", rec.Code, rec.Body.String())
	}

	emails := emailCap.getEmails()
	if len(emails) != 1 {
		t.Fatalf("expected 1 reset email, got %d", len(emails))
	}
	if emails[0]["to"] != email {
		t.Fatalf("expected reset email to %q, got %q", email, emails[0]["to"])
	}

	match := resetLinkPattern.FindStringSubmatch(emails[0]["body"])
	if match == nil {
		t.Fatalf("no reset link in email body: %s", emails[0]["body"])
	}
	resetToken := match[1]

	resetReq := func(token, password string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password/"+token, strings.NewReader(fmt.Sprintf(`{"password":%q}`, password)))
		req.SetPathValue("token", token)
		rec := httptest.NewRecorder()
		handler.HandleResetPassword(rec, req)
		return rec
	}

	rec = resetReq(resetToken, newPassword)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset failed: %d %s", rec.Code, rec.Body.String())
	}

	login := func(password string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)))
		rec := httptest.NewRecorder()
		handler.HandleLogin(rec, req)
		return rec.Code
	}

	if code := login(newPassword); code != http.StatusOK {
		t.Fatalf("expected login with new password to succeed, got %d", code)
	}
	if code := login(oldPassword); code != http.StatusUnauthorized {
		t.Fatalf("expected login with old password to fail, got %d", code)
	}

	t.Run("token is single use", func(t *testing.T) {
		rec := resetReq(resetToken, "Another&Pass789")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		rec := resetReq("deadbeef", "Another&Pass789")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})
}

func TestCatalogCRUD(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg := SetupPostgres(ctx, t)
	defer pg.Cleanup()

	db := OpenDB(t, pg.ConnStr)
	repo := catalog.NewProductRepository(db)
	uploader := catalog.NewDiskUploader(t.TempDir(), "/uploads")
	handler := catalog.NewHandler(repo, uploader, "Product", discardLogger())

	formRequest := func(target string, fields map[string]string) *http.Request {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		for k, v := range fields {
			if err := writer.WriteField(k, v); err != nil {
				t.Fatalf("failed to write field %s: %v", k, err)
			}
		}
		if err := writer.Close(); err != nil {
			t.Fatalf("failed to close writer: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, target, &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req
	}

	fields := map[string]string{
		"id":          "42",
		"title":       "Wool Scarf",
		"price":       "1999",
		"rating":      "4.5",
		"img":         "/uploads/scarf.png",
		"description": "A warm scarf.",
	}

	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, formRequest("/api/products", fields))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create failed: %d %s", rec.Code, rec.Body.String())
	}

	t.Run("duplicate id", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.HandleCreate(rec, formRequest("/api/products", fields))
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("get", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products/42", nil)
		req.SetPathValue("id", "42")
		rec := httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		var got domain.Product
		if err := json.NewDecoder(rec.Body).Decode(&got); err != nil {
			t.Fatalf("failed to decode product: %v", err)
		}

		want := domain.Product{
			ID:          42,
			Title:       "Wool Scarf",
			Img:         "/uploads/scarf.png",
			Rating:      4.5,
			Price:       1999,
			Description: "A warm scarf.",
		}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("product mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("update", func(t *testing.T) {
		req := formRequest("/api/products/42", map[string]string{"price": "1499"})
		req.SetPathValue("id", "42")
		rec := httptest.NewRecorder()

		handler.HandleUpdate(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		updated, err := repo.GetByID(ctx, 42)
		if err != nil {
			t.Fatalf("failed to fetch product: %v", err)
		}
		if updated.Price != 1499 {
			t.Errorf("expected price 1499, got %d", updated.Price)
		}
		if updated.Title != "Wool Scarf" {
			t.Errorf("expected title preserved, got %q", updated.Title)
		}
	})

	t.Run("delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/products/42", nil)
		req.SetPathValue("id", "42")
		rec := httptest.NewRecorder()

		handler.HandleDelete(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		req = httptest.NewRequest(http.MethodGet, "/api/products/42", nil)
		req.SetPathValue("id", "42")
		rec = httptest.NewRecorder()

		handler.HandleGet(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected status 404 after delete, got %d", rec.Code)
		}
	})
}

type emailCapture struct {
	mu     sync.Mutex
	emails []map[string]string
}

func (e *emailCapture) handler(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return
	}

	e.mu.Lock()
	e.emails = append(e.emails, req)
	e.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, `{"status":"sent"}`)
}

func (e *emailCapture) getEmails() []map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	result := make([]map[string]string, len(e.emails))
	copy(result, e.emails)
	return result
}

func (e *emailCapture) waitFor(n int, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if len(e.getEmails()) >= n {
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

func TestOrderNotificationPipeline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	brokers, cleanup := SetupKafka(ctx, t)
	defer cleanup()

	emailCap := &emailCapture{}
	emailServer := httptest.NewServer(http.HandlerFunc(emailCap.handler))
	defer emailServer.Close()

	logger := discardLogger()
	mailer := notify.NewHTTPMailer(emailServer.URL, emailServer.Client())
	mailHandler := worker.NewMailHandler(mailer, logger)

	consumer := messaging.NewConsumer(brokers, domain.TopicOrderCreated, "mail-worker-test", logger,
		messaging.WithStartOffset(kafkago.FirstOffset),
	)
	defer func() { _ = consumer.Close() }()

	consumerCtx, stopConsumer := context.WithCancel(ctx)
	defer stopConsumer()
	go func() {
		_ = consumer.Consume(consumerCtx, mailHandler.HandleOrderCreated)
	}()

	producer := messaging.NewProducer(brokers)
	defer func() { _ = producer.Close() }()

	event := domain.OrderCreatedEvent{
		OrderID:    "order-pipeline-1",
		Name:       gofakeit.Name(),
		Email:      gofakeit.Email(),
		Address:    gofakeit.Street() + ", " + gofakeit.City(),
		TotalPrice: 1000,
		Items:      []domain.LineItem{{ItemID: 1, Title: "Item", Price: 500, Quantity: 2, Img: "/uploads/x.png"}},
		Timestamp:  time.Now().UTC(),
	}
	if err := producer.Publish(ctx, domain.TopicOrderCreated, event.OrderID, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	if !emailCap.waitFor(1, time.Minute) {
		t.Fatal("confirmation email never arrived")
	}

	got := emailCap.getEmails()[0]
	if got["to"] != event.Email {
		t.Errorf("expected email to %q, got %q", event.Email, got["to"])
	}
	if got["subject"] != "Order Confirmed" {
		t.Errorf("expected subject 'Order Confirmed', got %q", got["subject"])
	}
}
