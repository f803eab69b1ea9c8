package service

import (
	"context"
	"errors"
	"testing"

	"github.com/pricedrop/notifier/internal/models"
	"github.com/pricedrop/notifier/internal/utils"
)

func newTestSubscribeService(ps *fakeProductStore, ss *fakeSubscriptionStore, f *fakeFetcher, sender *fakeSender) *SubscribeService {
	return NewSubscribeService(ps, ss, f, sender, "https://notifier.example.com")
}

func TestSubscribeHappyPath(t *testing.T) {
	rawURL := "https://shop.example.com/products/widget?utm_source=ad"
	normalized := "https://shop.example.com/products/widget"
	store := newFakeProductStore()
	subs := newFakeSubscriptionStore()
	fetcher := &fakeFetcher{pages: map[string][]byte{normalized: pricePage("59.99")}}
	sender := &fakeSender{}

	svc := newTestSubscribeService(store, subs, fetcher, sender)
	result, err := svc.Subscribe(context.Background(), &SubscribeRequest{
		URL:   rawURL,
		Email: "Alice@Example.com",
	})
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}

	if result.Product.URL != normalized {
		t.Errorf("product URL = %q, want normalized %q", result.Product.URL, normalized)
	}
	if result.Product.LastKnownPrice == nil || *result.Product.LastKnownPrice != 59.99 {
		t.Errorf("product price = %v, want 59.99 from the inline probe", result.Product.LastKnownPrice)
	}
	if result.Product.Name != "Test Product" {
		t.Errorf("product name = %q, want extracted title", result.Product.Name)
	}
	if !result.EmailSent {
		t.Error("EmailSent = false, want welcome email sent")
	}
	if result.Subscription.Email != "alice@example.com" {
		t.Errorf("subscription email = %q, want lowercased", result.Subscription.Email)
	}
	if got := sender.sentTo(); len(got) != 1 || got[0] != "alice@example.com" {
		t.Errorf("welcome recipients = %v", got)
	}
}

func TestSubscribeProbeFailureStoresStub(t *testing.T) {
	store := newFakeProductStore()
	subs := newFakeSubscriptionStore()
	fetcher := &fakeFetcher{err: errors.New("connection refused")}
	sender := &fakeSender{}

	svc := newTestSubscribeService(store, subs, fetcher, sender)
	result, err := svc.Subscribe(context.Background(), &SubscribeRequest{
		URL:   "https://shop.example.com/products/widget",
		Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if result.Product.LastKnownPrice != nil {
		t.Errorf("stub product has price %v, want nil", *result.Product.LastKnownPrice)
	}
	if result.Product.Name != "shop.example.com" {
		t.Errorf("stub product name = %q, want host fallback", result.Product.Name)
	}
	if !result.EmailSent {
		t.Error("welcome email should still be sent when the probe fails")
	}
}

func TestSubscribeNameHintWins(t *testing.T) {
	normalized := "https://shop.example.com/products/widget"
	store := newFakeProductStore()
	subs := newFakeSubscriptionStore()
	fetcher := &fakeFetcher{pages: map[string][]byte{normalized: pricePage("59.99")}}
	sender := &fakeSender{}

	svc := newTestSubscribeService(store, subs, fetcher, sender)
	result, err := svc.Subscribe(context.Background(), &SubscribeRequest{
		URL:         normalized,
		Email:       "alice@example.com",
		ProductName: "My Widget",
	})
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if result.Product.Name != "My Widget" {
		t.Errorf("product name = %q, want the caller-supplied name", result.Product.Name)
	}
}

func TestSubscribeDuplicateActive(t *testing.T) {
	normalized := "https://shop.example.com/products/widget"
	store := newFakeProductStore()
	subs := newFakeSubscriptionStore()
	fetcher := &fakeFetcher{pages: map[string][]byte{normalized: pricePage("59.99")}}
	sender := &fakeSender{}

	svc := newTestSubscribeService(store, subs, fetcher, sender)
	req := &SubscribeRequest{URL: normalized, Email: "alice@example.com"}

	if _, err := svc.Subscribe(context.Background(), req); err != nil {
		t.Fatalf("first Subscribe error: %v", err)
	}
	_, err := svc.Subscribe(context.Background(), req)
	if !errors.Is(err, utils.ErrAlreadySubscribed) {
		t.Errorf("second Subscribe err = %v, want ErrAlreadySubscribed", err)
	}
	if got := sender.sentTo(); len(got) != 1 {
		t.Errorf("sent %d welcome emails, want 1", len(got))
	}
}

func TestSubscribeReactivation(t *testing.T) {
	normalized := "https://shop.example.com/products/widget"
	productID := models.DeriveProductID(normalized)
	old := activeSub(productID, "alice@example.com", "pd_old")
	old.Status = models.StatusUnsubscribed

	store := newFakeProductStore()
	subs := newFakeSubscriptionStore(old)
	fetcher := &fakeFetcher{pages: map[string][]byte{normalized: pricePage("59.99")}}
	sender := &fakeSender{}

	svc := newTestSubscribeService(store, subs, fetcher, sender)
	result, err := svc.Subscribe(context.Background(), &SubscribeRequest{
		URL:   normalized,
		Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if !result.Subscription.IsActive() {
		t.Error("reactivated subscription is not active")
	}
	if result.Subscription.UnsubscribeToken != "pd_old" {
		t.Errorf("token = %q, want the original token kept on reactivation", result.Subscription.UnsubscribeToken)
	}
}

func TestSubscribeInvalidInput(t *testing.T) {
	svc := newTestSubscribeService(newFakeProductStore(), newFakeSubscriptionStore(), &fakeFetcher{}, &fakeSender{})

	_, err := svc.Subscribe(context.Background(), &SubscribeRequest{URL: "ftp://x", Email: "a@example.com"})
	if !errors.Is(err, utils.ErrInvalidURL) {
		t.Errorf("err = %v, want ErrInvalidURL", err)
	}

	_, err = svc.Subscribe(context.Background(), &SubscribeRequest{URL: "https://shop.example.com/w", Email: "nope"})
	if !errors.Is(err, utils.ErrInvalidEmail) {
		t.Errorf("err = %v, want ErrInvalidEmail", err)
	}
}

func TestSubscribeEmailFailureStillSubscribes(t *testing.T) {
	normalized := "https://shop.example.com/products/widget"
	store := newFakeProductStore()
	subs := newFakeSubscriptionStore()
	fetcher := &fakeFetcher{pages: map[string][]byte{normalized: pricePage("59.99")}}
	sender := &fakeSender{err: utils.ErrSendFailed}

	svc := newTestSubscribeService(store, subs, fetcher, sender)
	result, err := svc.Subscribe(context.Background(), &SubscribeRequest{
		URL:   normalized,
		Email: "alice@example.com",
	})
	if err != nil {
		t.Fatalf("Subscribe error: %v", err)
	}
	if result.EmailSent {
		t.Error("EmailSent = true despite sender failure")
	}
	if _, getErr := subs.GetByToken(context.Background(), result.Subscription.UnsubscribeToken); getErr != nil {
		t.Errorf("subscription not persisted: %v", getErr)
	}
}
