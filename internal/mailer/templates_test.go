package mailer

import (
	"strings"
	"testing"
)

func TestFormatPrice(t *testing.T) {
	tests := []struct {
		price    float64
		currency string
		want     string
	}{
		{19.99, "USD", "$19.99"},
		{1234.5, "USD", "$1,234.50"},
		{1234567.89, "USD", "$1,234,567.89"},
		{999.99, "GBP", "£999.99"},
		{29.9, "EUR", "€29.90"},
		{5, "XYZ", "$5.00"},
	}
	for _, tt := range tests {
		if got := FormatPrice(tt.price, tt.currency); got != tt.want {
			t.Errorf("FormatPrice(%v, %q) = %q, want %q", tt.price, tt.currency, got, tt.want)
		}
	}
}

func TestBuildPriceDropEmail(t *testing.T) {
	msg := BuildPriceDropEmail(
		"Deluxe Widget", 100.00, 75.00, "USD",
		"https://shop.example.com/widget",
		"https://notifier.example.com/unsubscribe?token=pd_tok",
	)

	if !strings.Contains(msg.Subject, "$75.00") || !strings.Contains(msg.Subject, "$100.00") {
		t.Errorf("subject %q missing old/new prices", msg.Subject)
	}
	for _, want := range []string{
		"Deluxe Widget",
		"$100.00",
		"$75.00",
		"$25.00",
		"25% off",
		"https://shop.example.com/widget",
		"https://notifier.example.com/unsubscribe?token=pd_tok",
	} {
		if !strings.Contains(msg.HTML, want) {
			t.Errorf("HTML body missing %q", want)
		}
	}
	if !strings.Contains(msg.Text, "Was: $100.00") || !strings.Contains(msg.Text, "Now: $75.00") {
		t.Errorf("text body missing prices:\n%s", msg.Text)
	}
}

func TestBuildWelcomeEmailWithPrice(t *testing.T) {
	price := 59.99
	msg := BuildWelcomeEmail(
		"Deluxe Widget",
		"https://shop.example.com/widget",
		"https://notifier.example.com/unsubscribe?token=pd_tok",
		&price, "USD",
	)
	if !strings.Contains(msg.Subject, "$59.99") {
		t.Errorf("subject %q missing current price", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "https://notifier.example.com/unsubscribe?token=pd_tok") {
		t.Error("HTML body missing unsubscribe link")
	}
}

func TestBuildWelcomeEmailWithoutPrice(t *testing.T) {
	msg := BuildWelcomeEmail(
		"Deluxe Widget",
		"https://shop.example.com/widget",
		"https://notifier.example.com/unsubscribe?token=pd_tok",
		nil, "USD",
	)
	if strings.Contains(msg.Subject, "$") {
		t.Errorf("subject %q mentions a price that was never observed", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "next scheduled run") {
		t.Error("HTML body missing the deferred-check copy")
	}
}

func TestBuildWelcomeEmailEscapesHTML(t *testing.T) {
	price := 10.0
	msg := BuildWelcomeEmail(
		`<script>alert("x")</script>`,
		"https://shop.example.com/widget",
		"https://notifier.example.com/unsubscribe?token=pd_tok",
		&price, "USD",
	)
	if strings.Contains(msg.HTML, `<script>alert`) {
		t.Error("product name was not escaped in the HTML body")
	}
}

func TestBuildUnsubscribePage(t *testing.T) {
	page := BuildUnsubscribePage("Deluxe Widget")
	if !strings.Contains(page, "Deluxe Widget") {
		t.Error("page missing product name")
	}
	if !strings.Contains(page, "unsubscribed") {
		t.Error("page missing confirmation copy")
	}

	anon := BuildUnsubscribePage("")
	if strings.Contains(anon, "<strong></strong>") {
		t.Error("empty product name rendered an empty strong tag")
	}
}
