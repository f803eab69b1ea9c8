package mailer

import (
	"fmt"
	"html"
	"strings"
)

// Shared base layout. Values interpolated into it are escaped individually;
// body and footer fragments are built from already-escaped pieces.
const baseHTML = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>%s</title>
  <style>
    body {
      margin: 0; padding: 0;
      background: #0f0f1a;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
      color: #e2e8f0;
    }
    .wrapper {
      max-width: 580px;
      margin: 40px auto;
      background: #1a1a2e;
      border-radius: 16px;
      overflow: hidden;
      border: 1px solid rgba(99,102,241,0.3);
    }
    .header {
      background: linear-gradient(135deg, #6366f1 0%%, #8b5cf6 100%%);
      padding: 32px 40px;
      text-align: center;
    }
    .header .logo {
      font-size: 13px;
      font-weight: 700;
      letter-spacing: 3px;
      text-transform: uppercase;
      color: rgba(255,255,255,0.75);
      margin-bottom: 8px;
    }
    .header h1 {
      margin: 0;
      font-size: 24px;
      font-weight: 800;
      color: #fff;
    }
    .body {
      padding: 36px 40px;
    }
    .body p {
      margin: 0 0 16px;
      line-height: 1.65;
      color: #cbd5e1;
      font-size: 15px;
    }
    .product-card {
      background: rgba(99,102,241,0.08);
      border: 1px solid rgba(99,102,241,0.25);
      border-radius: 12px;
      padding: 20px 24px;
      margin: 24px 0;
    }
    .product-name {
      font-size: 16px;
      font-weight: 600;
      color: #e2e8f0;
      margin: 0 0 12px;
    }
    .price-row {
      display: flex;
      align-items: center;
      gap: 16px;
      flex-wrap: wrap;
    }
    .price-badge {
      display: inline-block;
      background: linear-gradient(135deg, #6366f1, #8b5cf6);
      color: #fff;
      font-size: 22px;
      font-weight: 800;
      padding: 6px 18px;
      border-radius: 8px;
    }
    .price-old {
      text-decoration: line-through;
      color: #64748b;
      font-size: 18px;
    }
    .savings-badge {
      background: rgba(34,197,94,0.15);
      border: 1px solid rgba(34,197,94,0.4);
      color: #4ade80;
      font-size: 13px;
      font-weight: 700;
      padding: 4px 12px;
      border-radius: 20px;
    }
    .cta-button {
      display: inline-block;
      background: linear-gradient(135deg, #6366f1, #8b5cf6);
      color: #fff !important;
      text-decoration: none;
      font-weight: 700;
      font-size: 15px;
      padding: 14px 32px;
      border-radius: 10px;
      margin: 8px 8px 8px 0;
    }
    .footer {
      border-top: 1px solid rgba(255,255,255,0.06);
      padding: 24px 40px;
      text-align: center;
      font-size: 12px;
      color: #475569;
      line-height: 1.6;
    }
    .footer a {
      color: #6366f1;
      text-decoration: none;
    }
  </style>
</head>
<body>
  <div class="wrapper">
    <div class="header">
      <div class="logo">Price Drop Notifier</div>
      <h1>%s</h1>
    </div>
    <div class="body">
      %s
    </div>
    <div class="footer">
      %s
    </div>
  </div>
</body>
</html>`

func renderBase(title, header, body, footer string) string {
	return fmt.Sprintf(baseHTML, esc(title), esc(header), body, footer)
}

func esc(s string) string {
	return html.EscapeString(s)
}

// FormatPrice renders a price with its currency symbol and two decimals,
// grouping thousands: 1234.5 USD → "$1,234.50".
func FormatPrice(price float64, currency string) string {
	sym := "$"
	switch currency {
	case "GBP":
		sym = "£"
	case "EUR":
		sym = "€"
	}
	return sym + groupThousands(fmt.Sprintf("%.2f", price))
}

func groupThousands(s string) string {
	intPart, frac, _ := strings.Cut(s, ".")
	if len(intPart) <= 3 {
		return intPart + "." + frac
	}
	var sb strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		sb.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(intPart[i : i+3])
	}
	return sb.String() + "." + frac
}

// BuildWelcomeEmail renders the post-subscription confirmation.
//
// price may be nil for JS-rendered sites where the initial fast scrape could
// not extract a price; the email then omits the price and tells the
// subscriber they'll hear about the first drop we detect.
func BuildWelcomeEmail(productName, productURL, unsubscribeURL string, price *float64, currency string) *Message {
	var subject, priceBlock, textPrice string
	if price != nil {
		priceStr := FormatPrice(*price, currency)
		priceBlock = fmt.Sprintf(`
        <div class="price-row">
          <span class="price-badge">%s</span>
          <span style="color:#94a3b8;font-size:13px;">current price</span>
        </div>`, esc(priceStr))
		subject = fmt.Sprintf("Tracking %s — Currently %s", productName, priceStr)
		textPrice = fmt.Sprintf("Current price: %s\n", priceStr)
	} else {
		priceBlock = `
        <div style="color:#94a3b8;font-size:13px;margin-top:4px;">
          We’ll check the price on our next scheduled run and email you the moment it drops.
        </div>`
		subject = fmt.Sprintf("You’re now tracking %s", productName)
		textPrice = "Price will be checked on our next scheduled run.\n"
	}

	body := fmt.Sprintf(`
      <p>You're all set! We'll email you as soon as the price drops on:</p>
      <div class="product-card">
        <div class="product-name">%s</div>
        %s
      </div>
      <a href="%s" class="cta-button">View Product</a>
    `, esc(productName), priceBlock, esc(productURL))

	footer := fmt.Sprintf(
		`You subscribed to price alerts for <em>%s</em>.<br>No longer interested? <a href="%s">Unsubscribe</a>`,
		esc(productName), esc(unsubscribeURL),
	)

	text := fmt.Sprintf(
		"Price Drop Notifier — Subscription confirmed\n\n"+
			"You're tracking: %s\n"+
			"%s"+
			"Product URL: %s\n\n"+
			"We'll email you when the price drops.\n\n"+
			"Unsubscribe: %s",
		productName, textPrice, productURL, unsubscribeURL,
	)

	return &Message{
		Subject: subject,
		HTML:    renderBase("You're tracking a product", "You're now tracking this product!", body, footer),
		Text:    text,
	}
}

// BuildPriceDropEmail renders the personalized drop notification.
func BuildPriceDropEmail(productName string, oldPrice, newPrice float64, currency, productURL, unsubscribeURL string) *Message {
	oldStr := FormatPrice(oldPrice, currency)
	newStr := FormatPrice(newPrice, currency)
	savings := oldPrice - newPrice
	savingsStr := FormatPrice(savings, currency)
	pct := int(savings/oldPrice*100 + 0.5)

	body := fmt.Sprintf(`
      <p>Great news — the price just dropped on a product you're watching!</p>
      <div class="product-card">
        <div class="product-name">%s</div>
        <div class="price-row">
          <span class="price-old">%s</span>
          <span class="price-badge">%s</span>
          <span class="savings-badge">Save %s (%d%% off)</span>
        </div>
      </div>
      <a href="%s" class="cta-button">View Deal</a>
    `, esc(productName), esc(oldStr), esc(newStr), esc(savingsStr), pct, esc(productURL))

	footer := fmt.Sprintf(
		`You subscribed to price alerts for <em>%s</em>.<br>Want to stop receiving alerts? <a href="%s">Unsubscribe</a>`,
		esc(productName), esc(unsubscribeURL),
	)

	text := fmt.Sprintf(
		"Price Drop Alert — %s\n\n"+
			"Was: %s\n"+
			"Now: %s  (save %s, %d%% off)\n\n"+
			"View product: %s\n\n"+
			"Unsubscribe: %s",
		productName, oldStr, newStr, savingsStr, pct, productURL, unsubscribeURL,
	)

	return &Message{
		Subject: fmt.Sprintf("Price Drop! %s is now %s (was %s)", productName, newStr, oldStr),
		HTML:    renderBase("Price Drop: "+productName, "Price dropped to "+newStr+"!", body, footer),
		Text:    text,
	}
}

// BuildUnsubscribePage renders the HTML confirmation returned by the
// unsubscribe endpoint. productName may be empty.
func BuildUnsubscribePage(productName string) string {
	nameBlurb := ""
	if productName != "" {
		nameBlurb = fmt.Sprintf(" from <strong>%s</strong> price alerts", esc(productName))
	}

	body := fmt.Sprintf(`
      <p>You've been successfully unsubscribed%s.</p>
      <p>You will no longer receive price drop notifications for this product.
         If you change your mind, just visit the app to subscribe again.</p>
    `, nameBlurb)

	return renderBase("Unsubscribed", "You've been unsubscribed", body, "© Price Drop Notifier")
}

// BuildAlreadyUnsubscribedPage renders the page for used or unknown tokens.
func BuildAlreadyUnsubscribedPage() string {
	body := "<p>This unsubscribe link has already been used or is invalid.</p>"
	return renderBase("Already unsubscribed", "Nothing to do", body, "© Price Drop Notifier")
}

// BuildErrorPage renders a generic failure page for the unsubscribe flow.
func BuildErrorPage() string {
	body := "<p>Something went wrong processing your request. Please try the link again in a moment.</p>"
	return renderBase("Error", "Something went wrong", body, "© Price Drop Notifier")
}
