package notify

import (
	"fmt"
	"strings"
	"time"
)

// FormatPriceAlert renders the Telegram HTML body for a price drop.
func FormatPriceAlert(a Alert) string {
	var b strings.Builder
	b.WriteString("📉 <b>Alerta de Queda de Preço – Liga Pokémon</b>\n")
	fmt.Fprintf(&b, "🏷️ <b>%s</b>\n\n", a.Label)
	b.WriteString("💰 <u>Preço caiu!</u>\n")
	fmt.Fprintf(&b, "• De: <s>R$ %s</s>\n", FormatBRL(a.LastPrice))
	fmt.Fprintf(&b, "• Para: <b>R$ %s</b>\n\n", FormatBRL(a.NewPrice))
	fmt.Fprintf(&b, "📦 <b>Disponível:</b> %d unidade(s)\n", a.Quantity)
	fmt.Fprintf(&b, "🔗 <a href=\"%s\">Acesse o produto</a>", a.URL)
	return b.String()
}

// FormatFailure renders the Telegram HTML body for an error report.
func FormatFailure(scope string, at time.Time, err error) string {
	var b strings.Builder
	b.WriteString("⚠️ <b>Monitor – ERRO</b>\n")
	fmt.Fprintf(&b, "<b>Contexto:</b> %s\n", scope)
	fmt.Fprintf(&b, "<b>Hora:</b> %s\n", at.Format("02/01 15:04:05"))
	fmt.Fprintf(&b, "<b>Detalhe:</b> <code>%v</code>", err)
	return b.String()
}

// FormatBRL renders a price in Brazilian format: dots for thousands,
// comma for decimals ("1234.56" -> "1.234,56").
func FormatBRL(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	parts := strings.SplitN(s, ".", 2)
	intPart, frac := parts[0], parts[1]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ".") + "," + frac
	if neg {
		out = "-" + out
	}
	return out
}
