package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Proton-105/cashback-bot/internal/domain"
	"github.com/Proton-105/cashback-bot/internal/i18n"
)

func newFormatter() *Formatter {
	return NewFormatter(i18n.MustLoad("ru").Default())
}

func TestFormatEmpty(t *testing.T) {
	assert.Equal(t, "Кешбеков нет.", newFormatter().Format(nil))
}

func TestFormatGroupsByPeriodAndBank(t *testing.T) {
	rows := []domain.CashbackRow{
		{Period: "2024-02", BankName: "ВТБ", CategoryName: "💊 Аптеки", Percent: 5},
		{Period: "2024-01", BankName: "Т-банк", CategoryName: "🛒 Супермаркеты", Percent: 7.5},
		{Period: "2024-01", BankName: "ВТБ", CategoryName: "⛽️ Заправки", Percent: 3},
		{Period: "2024-01", BankName: "Т-банк", CategoryName: "💐 Цветы", Percent: 10},
	}

	want := "Кешбеки на Январь:\n" +
		"\n" +
		"🏦 Т-банк\n" +
		"------------------------\n" +
		"🛒 Супермаркеты: 7.5%\n" +
		"💐 Цветы: 10%\n" +
		"\n" +
		"🏦 ВТБ\n" +
		"------------------------\n" +
		"⛽️ Заправки: 3%\n" +
		"\n" +
		"Кешбеки на Февраль:\n" +
		"\n" +
		"🏦 ВТБ\n" +
		"------------------------\n" +
		"💊 Аптеки: 5%"

	assert.Equal(t, want, newFormatter().Format(rows))
}

func TestFormatYearBoundaryOrdering(t *testing.T) {
	rows := []domain.CashbackRow{
		{Period: "2025-01", BankName: "ВТБ", CategoryName: "A", Percent: 1},
		{Period: "2024-12", BankName: "ВТБ", CategoryName: "B", Percent: 2},
	}

	got := newFormatter().Format(rows)
	assert.Less(t, strings.Index(got, "Декабрь"), strings.Index(got, "Январь"))
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{10, "10%"},
		{10.0, "10%"},
		{7.5, "7.5%"},
		{0, "0%"},
		{15, "15%"},
		{1.25, "1.3%"},
		{2.04, "2.0%"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatPercent(tt.in), "percent %v", tt.in)
	}
}

func TestMonthName(t *testing.T) {
	f := newFormatter()
	assert.Equal(t, "Май", f.MonthName("2024-05"))
	assert.Equal(t, "13", f.MonthName("2024-13"))
	assert.Equal(t, "0", f.MonthName("2024-00"))
	assert.Equal(t, "xx", f.MonthName("2024-xx"))
}
