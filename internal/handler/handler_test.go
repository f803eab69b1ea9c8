package handler

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/pricedrop/notifier/internal/mailer"
	"github.com/pricedrop/notifier/internal/models"
	"github.com/pricedrop/notifier/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// In-memory store fakes sized to what the handlers exercise.

type memProductStore struct {
	products map[string]*models.Product
}

func (s *memProductStore) GetByID(_ context.Context, id string) (*models.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return p, nil
}

func (s *memProductStore) Upsert(_ context.Context, p *models.Product) error {
	s.products[p.ProductID] = p
	return nil
}

func (s *memProductStore) ListActivelyTracked(_ context.Context) ([]models.Product, error) {
	return nil, nil
}

func (s *memProductStore) UpdatePrice(_ context.Context, _ string, _ *float64, _ float64, _, _ string) error {
	return nil
}

func (s *memProductStore) TouchChecked(_ context.Context, _ string) error { return nil }

type memSubStore struct {
	subs map[string]*models.Subscription // by token
}

func (s *memSubStore) Subscribe(_ context.Context, productID, email, token string) (*models.Subscription, bool, error) {
	for _, sub := range s.subs {
		if sub.ProductID == productID && sub.Email == email && sub.IsActive() {
			return sub, false, nil
		}
	}
	sub := &models.Subscription{
		SubscriptionID:   token,
		ProductID:        productID,
		Email:            email,
		Status:           models.StatusActive,
		UnsubscribeToken: token,
	}
	s.subs[token] = sub
	return sub, true, nil
}

func (s *memSubStore) ActiveSubscribers(_ context.Context, _ string) ([]models.Subscription, error) {
	return nil, nil
}

func (s *memSubStore) GetByToken(_ context.Context, token string) (*models.Subscription, error) {
	sub, ok := s.subs[token]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return sub, nil
}

func (s *memSubStore) MarkUnsubscribed(_ context.Context, token string) (*models.Subscription, bool, error) {
	sub, ok := s.subs[token]
	if !ok {
		return nil, false, utils.ErrNotFound
	}
	flipped := sub.IsActive()
	sub.Status = models.StatusUnsubscribed
	return sub, flipped, nil
}

type memFetcher struct {
	page []byte
	err  error
}

func (f *memFetcher) Fetch(_ context.Context, _ string, _ bool) ([]byte, error) {
	return f.page, f.err
}

type memSender struct {
	sent int
	err  error
}

func (s *memSender) Send(_ context.Context, _ string, _ *mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent++
	return nil
}

func doRequest(t *testing.T, router *gin.Engine, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
