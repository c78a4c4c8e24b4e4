package telegram

import (
	"fmt"
	"strings"

	"golang-paper-trader/internal/entity"
)

// FormatPositionOpened formats a Markdown alert for a newly opened position.
func FormatPositionOpened(p *entity.Position) string {
	var b strings.Builder
	b.WriteString("🟢 *Position Opened*\n\n")
	b.WriteString(fmt.Sprintf("📈 *Symbol:* %s\n", p.Symbol))
	b.WriteString(fmt.Sprintf("💵 *Entry:* %s x %d\n", p.EntryPrice.StringFixed(2), p.Quantity))
	b.WriteString(fmt.Sprintf("💰 *Invested:* %s\n", p.InvestedAmount.StringFixed(2)))
	b.WriteString(fmt.Sprintf("🎯 *Target Profit:* %s\n", p.TargetProfit.StringFixed(2)))
	b.WriteString(fmt.Sprintf("⏳ *Max Hold:* %d market minutes\n", p.MaxHoldMinutes))
	b.WriteString(fmt.Sprintf("🔎 *Confidence:* %.0f%%\n", p.Confidence*100))
	return b.String()
}

// FormatTradeClosed formats a Markdown alert for a completed trade.
func FormatTradeClosed(t *entity.Trade) string {
	icon := "✅"
	if t.Profit.IsNegative() {
		icon = "🔻"
	}

	reason := "Profit Target"
	if t.ExitReason == entity.ExitReasonMaxHoldTime {
		reason = "Max Hold Time"
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s *Position Closed* (%s)\n\n", icon, reason))
	b.WriteString(fmt.Sprintf("📈 *Symbol:* %s\n", t.Symbol))
	b.WriteString(fmt.Sprintf("💵 *Entry → Exit:* %s → %s\n", t.EntryPrice.StringFixed(2), t.ExitPrice.StringFixed(2)))
	b.WriteString(fmt.Sprintf("📦 *Quantity:* %d\n", t.Quantity))
	b.WriteString(fmt.Sprintf("💰 *Profit:* %s\n", t.Profit.StringFixed(2)))
	b.WriteString(fmt.Sprintf("🧾 *Commission:* %s\n", t.CommissionTotal.StringFixed(2)))
	b.WriteString(fmt.Sprintf("⏳ *Held:* %.0f market minutes\n", t.HoldMinutes))
	return b.String()
}
