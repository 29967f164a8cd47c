package bot

import (
	"fmt"
	"html"
	"strings"

	"github.com/ftomza/go-adsales-bot/domain"
	"github.com/ftomza/go-adsales-bot/pkg/stats"
)

const (
	sheetButtonText = "📊 Открыть таблицу"

	formatErrorText = "❌ <b>Ошибка валидации формата!</b>\n\n" +
		"Принимаются только следующие форматы:\n" +
		"• <code>1/24</code>\n" +
		"• <code>1/48</code>\n\n" +
		"Другие значения не принимаются."

	noMatchText = "❓ Не удалось распознать формат сообщения.\n\n" +
		"Используйте формат:\n" +
		"<code>@менеджер дата время сумма [формат] канал</code>\n\n" +
		"Примеры:\n" +
		"• <code>@maxim 12 декабря 11:11 1489usdt 1/24 BusinessChannel</code>\n" +
		"• <code>@anna 14.05 11:11 500р каналбизнес</code>\n\n" +
		"<b>Доступные форматы:</b> 1/24, 1/48"

	failureText = "❌ Произошла ошибка при обработке данных. Попробуйте еще раз."

	resetAskText  = "Обнулить статистику? Ответьте <b>да</b> для подтверждения или /cancel для отмены."
	resetDoneText = "✅ Статистика обнулена. Используйте /stats для просмотра."
	resetKeepText = "Статистика не изменена."
)

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func helpText(chatID int64) string {
	return `👾 <b>Бот для учета продажи рекламы</b>

// <b>Как использовать:</b>
Отправьте сообщение в формате:
• <code>@кому продали (или без @, просто имя фамилия) дата время сумма тип_оплаты формат внешняя/внутренняя канал / комментарий</code>

// <b>Примеры:</b>
• <code>Максим Шариков 12.06 1215 500р сбп 1/48 внешка русский бизнес / вероятно купят еще</code>
• <code>Максим Шариков 12.06 1215 500р ип 1/48 внутренняя русский бизнес / вероятно купят еще</code>
• <code>Максим Шариков 12.06 1215 500р крипта внешка 1/48 русский бизнес / вероятно купят еще</code>

// <b>Доступные команды:</b>
/start — Главное меню
/stats — Статистика продаж
/money — Финансовая статистика
/export — Выгрузка продаж в Excel
/resetstats — Обнулить статистику

// <b>ID чата:</b> <code>` + fmt.Sprint(chatID) + `</code>`
}

// saleLines renders the fields shared by the confirmation card and the
// notification. amount is the already rendered amount line.
func saleLines(s domain.Sale, amount string, full bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "👤 <b>Покупатель:</b> %s\n", html.EscapeString(s.Manager))
	fmt.Fprintf(&b, "📅 <b>Дата:</b> %s\n", s.Date)
	fmt.Fprintf(&b, "🕐 <b>Время:</b> %s\n", s.Time)
	fmt.Fprintf(&b, "💰 <b>Сумма:</b> %s\n", amount)
	fmt.Fprintf(&b, "💳 <b>Тип оплаты:</b> %s\n", html.EscapeString(orDefault(s.PaymentType, "Не указан")))
	fmt.Fprintf(&b, "📋 <b>Формат:</b> %s\n", orDefault(s.Format, "Не указан"))
	fmt.Fprintf(&b, "🏢 <b>Внешняя/Внутренняя:</b> %s", html.EscapeString(orDefault(s.InternalExternal, "Не указано")))
	if full {
		fmt.Fprintf(&b, "\n📺 <b>Канал:</b> %s\n", html.EscapeString(s.Channel))
		fmt.Fprintf(&b, "💬 <b>Комментарий:</b> %s", html.EscapeString(orDefault(s.Comment, "Нет")))
	}
	return b.String()
}

func amountText(s domain.Sale) string {
	return s.Amount.String() + " " + string(s.Currency)
}

func confirmationText(r Receipt) string {
	return fmt.Sprintf("✅ <b>Данные занесены в учет менеджером @%s</b>\n\n%s",
		html.EscapeString(r.Submitter), saleLines(r.Sale, amountText(r.Sale), true))
}

// notificationText shows the commission arithmetic for submitters who pay
// one, and the full card for everyone else.
func notificationText(r Receipt) string {
	head := fmt.Sprintf("✅ <b>Новая продажа на %s от менеджера @%s</b>\n\n",
		amountText(r.Sale), html.EscapeString(r.Submitter))
	if !r.Commission.Applies() {
		return head + saleLines(r.Sale, amountText(r.Sale), true)
	}
	amount := fmt.Sprintf("%s - %s%% комиссия = %s %s",
		amountText(r.Sale), r.Commission.Percent(), r.Commission.Net.StringFixed(2), r.Sale.Currency)
	return head + saleLines(r.Sale, amount, false)
}

func statsText(s stats.Snapshot) string {
	var b strings.Builder
	b.WriteString("📊 <b>Статистика продаж</b>\n\n")
	b.WriteString("💰 <b>Общая сумма:</b>\n")
	fmt.Fprintf(&b, "• USDT: %s\n", s.Total(domain.CurrencyUSDT).Revenue.StringFixed(2))
	fmt.Fprintf(&b, "• Рубли: %s ₽\n\n", s.Total(domain.CurrencyRUB).Revenue.StringFixed(2))
	fmt.Fprintf(&b, "📈 <b>Количество продаж:</b> %d\n\n", s.Sales)
	b.WriteString("💳 <b>По методам оплаты:</b>\n")
	for _, pt := range s.PaymentTypes() {
		fmt.Fprintf(&b, "• %s: %d\n", html.EscapeString(pt), s.ByPayment[pt])
	}
	return strings.TrimRight(b.String(), "\n")
}

var moneyPaymentTypes = []string{"СБП", "Карта", "Криптовалюта", "ИП"}

func moneyText(s stats.Snapshot) string {
	usdt, rub := s.Total(domain.CurrencyUSDT), s.Total(domain.CurrencyRUB)

	var b strings.Builder
	b.WriteString("💰 <b>Финансовая статистика</b>\n\n")
	b.WriteString("💵 <b>Выручка:</b>\n")
	fmt.Fprintf(&b, "• USDT: %s\n• RUB: %s\n\n", usdt.Revenue.StringFixed(2), rub.Revenue.StringFixed(0))
	b.WriteString("💸 <b>Чистыми заработано:</b>\n")
	fmt.Fprintf(&b, "• USDT: %s\n• RUB: %s\n\n", usdt.Net.StringFixed(2), rub.Net.StringFixed(0))
	b.WriteString("💼 <b>Комиссия сейлза:</b>\n")
	fmt.Fprintf(&b, "• USDT: %s\n• RUB: %s\n\n", usdt.Commission.StringFixed(2), rub.Commission.StringFixed(0))
	b.WriteString("💳 <b>По типам оплаты:</b>\n")
	for i, pt := range moneyPaymentTypes {
		fmt.Fprintf(&b, "• %s: %d", pt, s.ByPayment[pt])
		if i < len(moneyPaymentTypes)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
