package template

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"strings"
	"time"

	"solarnotify/internal/domain/notification"
)

//go:embed email_body.html
var emailBodyHTML string

var emailBodyTmpl = template.Must(template.New("email_body").Parse(emailBodyHTML))

var _ notification.EmailBodyRenderer = (*HTMLRenderer)(nil)

// HTMLRenderer wraps a resolved message into the branded HTML email
// document. All user-controlled fields (customer name, message text,
// addresses) go through html/template, so they are escaped before
// interpolation.
type HTMLRenderer struct {
	brandName string
	formatter *MergeTagResolver
}

// NewHTMLRenderer creates the email body renderer. It shares the resolver's
// currency formatting so the balance row matches the merge-tag output.
func NewHTMLRenderer(brandName string, formatter *MergeTagResolver) *HTMLRenderer {
	return &HTMLRenderer{brandName: brandName, formatter: formatter}
}

// emailView is the typed template context.
type emailView struct {
	BrandName     string
	Subject       string
	ThemeColor    template.CSS
	StatusTitle   string
	CustomerName  string
	Paragraphs    []string
	OrderNumber   string
	ProductName   string
	Quantity      int
	ShowBalance   bool
	Balance       string
	ShowPayButton bool
	Year          int
}

// Render produces the full HTML document for one email send.
func (r *HTMLRenderer) Render(ec notification.EmailContext) (string, error) {
	productName := ec.ProductName
	if productName == "" {
		productName = "-"
	}

	view := emailView{
		BrandName:     r.brandName,
		Subject:       ec.Subject,
		ThemeColor:    themeColor(ec.Mode),
		StatusTitle:   statusTitle(ec.Mode),
		CustomerName:  ec.CustomerName,
		Paragraphs:    splitParagraphs(ec.Body),
		OrderNumber:   ec.OrderNumber,
		ProductName:   productName,
		Quantity:      ec.Quantity,
		ShowBalance:   ec.ShowBalance,
		ShowPayButton: ec.Mode == notification.ModeBalance,
		Year:          time.Now().Year(),
	}
	if ec.ShowBalance {
		view.Balance = r.formatter.FormatAmount(ec.RemainingAmount, ec.Currency)
	}

	var buf bytes.Buffer
	if err := emailBodyTmpl.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("executing email body template: %w", err)
	}
	return buf.String(), nil
}

// themeColor picks the header/accent color for the mode. Values are fixed
// constants, safe to inject as CSS.
func themeColor(mode notification.Mode) template.CSS {
	switch mode {
	case notification.ModeBalance:
		return "#f59e0b"
	case notification.ModeReady:
		return "#059669"
	default:
		return "#3b82f6"
	}
}

func statusTitle(mode notification.Mode) string {
	switch mode {
	case notification.ModeBalance:
		return "Payment Required"
	case notification.ModeReady:
		return "Your Order is Ready!"
	default:
		return "Order Update"
	}
}

// splitParagraphs turns the plain resolved text into paragraph blocks,
// preserving blank-line separation.
func splitParagraphs(body string) []string {
	var paragraphs []string
	for _, block := range strings.Split(strings.ReplaceAll(body, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block != "" {
			paragraphs = append(paragraphs, block)
		}
	}
	return paragraphs
}
