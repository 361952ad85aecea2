package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarnotify/internal/domain/notification"
)

func testRenderer() *HTMLRenderer {
	return NewHTMLRenderer("G-Tech Solar", testResolver())
}

func balanceContext() notification.EmailContext {
	return notification.EmailContext{
		Subject:         "Balance Payment Required",
		Mode:            notification.ModeBalance,
		CustomerName:    "Ada Obi",
		Body:            "Your balance is due.\n\nPlease pay before the deadline.",
		OrderNumber:     "PRE-ABC12345",
		ProductName:     "400W Solar Panel",
		Quantity:        2,
		RemainingAmount: 150000,
		Currency:        "NGN",
		ShowBalance:     true,
	}
}

func TestRenderBalanceEmail(t *testing.T) {
	html, err := testRenderer().Render(balanceContext())
	require.NoError(t, err)

	assert.Contains(t, html, "#f59e0b", "balance mode uses the amber theme")
	assert.Contains(t, html, "Payment Required")
	assert.Contains(t, html, "Complete Payment Now")
	assert.Contains(t, html, "NGN 150,000.00")
	assert.Contains(t, html, "Hello Ada Obi!")
	assert.Contains(t, html, "PRE-ABC12345")
	assert.Contains(t, html, "400W Solar Panel")
	assert.Contains(t, html, "2 unit(s)")
	assert.Contains(t, html, "G-Tech Solar")
}

func TestRenderReadyEmail(t *testing.T) {
	ec := balanceContext()
	ec.Mode = notification.ModeReady
	ec.ShowBalance = false

	html, err := testRenderer().Render(ec)
	require.NoError(t, err)

	assert.Contains(t, html, "#059669", "ready mode uses the green theme")
	assert.Contains(t, html, "Your Order is Ready!")
	assert.NotContains(t, html, "Complete Payment Now")
	assert.NotContains(t, html, "Remaining Balance")
}

func TestRenderSplitsParagraphs(t *testing.T) {
	html, err := testRenderer().Render(balanceContext())
	require.NoError(t, err)

	assert.Contains(t, html, "<p>Your balance is due.</p>")
	assert.Contains(t, html, "<p>Please pay before the deadline.</p>")
}

func TestRenderEscapesUserContent(t *testing.T) {
	ec := balanceContext()
	ec.CustomerName = `<script>alert("x")</script>`
	ec.Body = `Click <a href="https://evil.example">here</a>`

	html, err := testRenderer().Render(ec)
	require.NoError(t, err)

	assert.NotContains(t, html, "<script>alert")
	assert.NotContains(t, html, `<a href="https://evil.example">`)
	assert.Contains(t, html, "&lt;script&gt;")
}

func TestRenderEmptyProductShowsDash(t *testing.T) {
	ec := balanceContext()
	ec.ProductName = ""

	html, err := testRenderer().Render(ec)
	require.NoError(t, err)

	assert.Contains(t, html, "<strong>Product:</strong> -")
}
