package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/pricedrop/notifier/internal/extractor"
	"github.com/pricedrop/notifier/internal/mailer"
	"github.com/pricedrop/notifier/internal/models"
	"github.com/pricedrop/notifier/internal/utils"
)

// subscribeFetchTimeout bounds the inline price probe so a slow retailer
// cannot hold the subscribe request open.
const subscribeFetchTimeout = 25 * time.Second

// SubscribeService registers a watch on a product URL and sends the
// confirmation email.
type SubscribeService struct {
	productStore ProductStore
	subStore     SubscriptionStore
	fetcher      PageFetcher
	sender       mailer.Sender

	publicBaseURL string
}

// NewSubscribeService constructs a SubscribeService.
func NewSubscribeService(
	productStore ProductStore,
	subStore SubscriptionStore,
	fetcher PageFetcher,
	sender mailer.Sender,
	publicBaseURL string,
) *SubscribeService {
	return &SubscribeService{
		productStore:  productStore,
		subStore:      subStore,
		fetcher:       fetcher,
		sender:        sender,
		publicBaseURL: publicBaseURL,
	}
}

// SubscribeRequest is the validated input for a subscription.
type SubscribeRequest struct {
	URL         string `json:"url" binding:"required"`
	Email       string `json:"email" binding:"required"`
	ProductName string `json:"productName"`
}

// SubscribeResult is returned on a successful subscription.
type SubscribeResult struct {
	Product      *models.Product      `json:"product"`
	Subscription *models.Subscription `json:"-"`
	EmailSent    bool                 `json:"emailSent"`
}

// Subscribe validates the request, probes the page for a current price,
// upserts the product record and creates the subscription. The inline probe
// is best effort: when it fails the product is stored without a price and
// the first scan cycle establishes the baseline.
//
// Returns utils.ErrAlreadySubscribed when an active subscription for the
// same (product, email) pair already exists.
func (s *SubscribeService) Subscribe(ctx context.Context, req *SubscribeRequest) (*SubscribeResult, error) {
	normalizedURL, err := models.NormalizeURL(req.URL)
	if err != nil {
		return nil, err
	}
	email, err := utils.NormalizeEmail(req.Email)
	if err != nil {
		return nil, err
	}
	productID := models.DeriveProductID(normalizedURL)

	product := &models.Product{
		ProductID: productID,
		URL:       normalizedURL,
		Name:      req.ProductName,
		Currency:  "USD",
	}

	obs := s.probePrice(ctx, normalizedURL, req.ProductName)
	if obs != nil {
		product.LastKnownPrice = &obs.Price
		product.Currency = obs.Currency
		if product.Name == "" {
			product.Name = obs.Name
		}
	}
	if product.Name == "" {
		product.Name = hostOf(normalizedURL)
	}

	if err := s.productStore.Upsert(ctx, product); err != nil {
		return nil, fmt.Errorf("upsert product: %w", err)
	}

	token, err := utils.GenerateUnsubscribeToken()
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	sub, isNew, err := s.subStore.Subscribe(ctx, productID, email, token)
	if err != nil {
		return nil, err
	}
	if !isNew {
		return nil, utils.ErrAlreadySubscribed
	}

	emailSent := s.sendWelcome(ctx, product, sub)

	log.Info().
		Str("product_id", productID).
		Str("email", email).
		Bool("price_known", product.LastKnownPrice != nil).
		Bool("email_sent", emailSent).
		Msg("Subscription created")

	return &SubscribeResult{
		Product:      product,
		Subscription: sub,
		EmailSent:    emailSent,
	}, nil
}

// probePrice fetches the page and runs the extractor. Failures are logged
// and swallowed; subscription must not depend on the retailer being up.
func (s *SubscribeService) probePrice(ctx context.Context, pageURL, nameHint string) *extractor.Observation {
	fetchCtx, cancel := context.WithTimeout(ctx, subscribeFetchTimeout)
	defer cancel()

	content, err := s.fetcher.Fetch(fetchCtx, pageURL, false)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("Inline price probe fetch failed")
		return nil
	}

	obs, err := extractor.Extract(content, pageURL, nameHint)
	if err != nil {
		log.Warn().Err(err).Str("url", pageURL).Msg("Inline price probe found no price")
		return nil
	}
	return obs
}

func (s *SubscribeService) sendWelcome(ctx context.Context, product *models.Product, sub *models.Subscription) bool {
	msg := mailer.BuildWelcomeEmail(
		product.Name,
		product.URL,
		s.unsubscribeURL(sub.UnsubscribeToken),
		product.LastKnownPrice,
		product.Currency,
	)
	if err := s.sender.Send(ctx, sub.Email, msg); err != nil {
		log.Error().Err(err).Str("email", sub.Email).Msg("Welcome email send failed")
		return false
	}
	return true
}

func (s *SubscribeService) unsubscribeURL(token string) string {
	return fmt.Sprintf("%s/unsubscribe?token=%s", s.publicBaseURL, url.QueryEscape(token))
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return "Unknown Product"
	}
	return u.Host
}
