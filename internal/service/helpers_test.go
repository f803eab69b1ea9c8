package service

import (
	"context"
	"sync"
	"time"

	"github.com/pricedrop/notifier/internal/mailer"
	"github.com/pricedrop/notifier/internal/models"
	"github.com/pricedrop/notifier/internal/utils"
)

// fakeProductStore implements ProductStore in memory. Function fields, when
// set, override the default behavior for a single test.
type fakeProductStore struct {
	mu       sync.Mutex
	products map[string]*models.Product

	updatePriceErr error
	upsertErr      error
	listErr        error

	touched      []string
	priceUpdates []priceUpdate
}

type priceUpdate struct {
	productID string
	newPrice  float64
	currency  string
}

func newFakeProductStore(products ...*models.Product) *fakeProductStore {
	s := &fakeProductStore{products: make(map[string]*models.Product)}
	for _, p := range products {
		s.products[p.ProductID] = p
	}
	return s
}

func (s *fakeProductStore) GetByID(_ context.Context, productID string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeProductStore) Upsert(_ context.Context, p *models.Product) error {
	if s.upsertErr != nil {
		return s.upsertErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *p
	s.products[p.ProductID] = &cp
	return nil
}

func (s *fakeProductStore) ListActivelyTracked(_ context.Context) ([]models.Product, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Product
	for _, p := range s.products {
		out = append(out, *p)
	}
	return out, nil
}

func (s *fakeProductStore) UpdatePrice(_ context.Context, productID string, prevPrice *float64, newPrice float64, currency, name string) error {
	if s.updatePriceErr != nil {
		return s.updatePriceErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.products[productID]
	if !ok {
		return utils.ErrNotFound
	}
	p.LastKnownPrice = &newPrice
	p.Currency = currency
	p.Name = name
	s.priceUpdates = append(s.priceUpdates, priceUpdate{productID, newPrice, currency})
	return nil
}

func (s *fakeProductStore) TouchChecked(_ context.Context, productID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touched = append(s.touched, productID)
	return nil
}

// fakeSubscriptionStore implements SubscriptionStore in memory.
type fakeSubscriptionStore struct {
	mu   sync.Mutex
	subs map[string]*models.Subscription // keyed by token

	subscribeErr error
	listErr      error
}

func newFakeSubscriptionStore(subs ...*models.Subscription) *fakeSubscriptionStore {
	s := &fakeSubscriptionStore{subs: make(map[string]*models.Subscription)}
	for _, sub := range subs {
		s.subs[sub.UnsubscribeToken] = sub
	}
	return s
}

func (s *fakeSubscriptionStore) Subscribe(_ context.Context, productID, email, token string) (*models.Subscription, bool, error) {
	if s.subscribeErr != nil {
		return nil, false, s.subscribeErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		if sub.ProductID == productID && sub.Email == email {
			if sub.IsActive() {
				cp := *sub
				return &cp, false, nil
			}
			sub.Status = models.StatusActive
			sub.UnsubscribedAt = nil
			cp := *sub
			return &cp, true, nil
		}
	}
	sub := &models.Subscription{
		SubscriptionID:   token, // any unique value serves in tests
		ProductID:        productID,
		Email:            email,
		Status:           models.StatusActive,
		UnsubscribeToken: token,
	}
	s.subs[token] = sub
	cp := *sub
	return &cp, true, nil
}

func (s *fakeSubscriptionStore) ActiveSubscribers(_ context.Context, productID string) ([]models.Subscription, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Subscription
	for _, sub := range s.subs {
		if sub.ProductID == productID && sub.IsActive() {
			out = append(out, *sub)
		}
	}
	return out, nil
}

func (s *fakeSubscriptionStore) GetByToken(_ context.Context, token string) (*models.Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[token]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *sub
	return &cp, nil
}

func (s *fakeSubscriptionStore) MarkUnsubscribed(_ context.Context, token string) (*models.Subscription, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.subs[token]
	if !ok {
		return nil, false, utils.ErrNotFound
	}
	flipped := sub.IsActive()
	sub.Status = models.StatusUnsubscribed
	cp := *sub
	return &cp, flipped, nil
}

// fakeFetcher serves canned page content keyed by URL.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string][]byte
	err   error
	delay time.Duration

	inFlight    int
	maxInFlight int
}

func (f *fakeFetcher) Fetch(ctx context.Context, pageURL string, _ bool) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.pages[pageURL]
	if !ok {
		return nil, utils.ErrNoPriceFound
	}
	return content, nil
}

// fakePublisher records published events.
type fakePublisher struct {
	mu     sync.Mutex
	events []*models.PriceDropEvent
	err    error
}

func (p *fakePublisher) PublishPriceDrop(_ context.Context, ev *models.PriceDropEvent) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *fakePublisher) Close() error { return nil }

// fakeSender records sent emails; errTo fails sends to one address.
type fakeSender struct {
	mu    sync.Mutex
	sent  []sentMail
	err   error
	errTo string
}

type sentMail struct {
	to      string
	subject string
}

func (f *fakeSender) Send(_ context.Context, to string, msg *mailer.Message) error {
	if f.err != nil {
		return f.err
	}
	if f.errTo != "" && to == f.errTo {
		return utils.ErrSendFailed
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMail{to: to, subject: msg.Subject})
	return nil
}

// capturingSender keeps full message bodies for content assertions.
type capturingSender struct {
	mu   sync.Mutex
	html []string
}

func (c *capturingSender) Send(_ context.Context, _ string, msg *mailer.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.html = append(c.html, msg.HTML)
	return nil
}

func (f *fakeSender) sentTo() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.sent))
	for _, m := range f.sent {
		out = append(out, m.to)
	}
	return out
}
