package telegram

import (
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"hcbot/internal/domain"
	"hcbot/internal/feeds"
)

// Тексты интерфейса (португальский, как у пользователей бота).
const (
	startFmt         = "Olá %s! 👋\nBem-vindo ao *HCNEWS*!\nSelecione uma opção abaixo:"
	menuText         = "Selecione uma opção:"
	helpText         = "Use /start para abrir o menu e /cancel para cancelar uma operação."
	cancelledText    = "Operação cancelada."
	settingsText     = "⚙️ Configurações ainda não implementadas."
	backToMenuText   = "🔙 Voltar ao menu"
	expiredText      = "⚠️ Sessão expirada. Comece novamente."
	newsMenuText     = "📰 Notícias\n\nEscolha uma opção:"
	newsForceText    = "🔄 Forçando atualização das notícias..."
	newsFailedText   = "❌ Não foi possível gerar as notícias."
	zodiacText       = "🔮 Escolha um signo:"
	horoscopeHeader  = "🔮 *Horóscopo do Dia* 🔮\n\n"
	ruMenuText       = "🍽️ Escolha um Restaurante Universitário:"
	loadingFmt       = "⏳ Buscando %s..."
	contentFailedFmt = "❌ Não foi possível obter %s. Tente novamente mais tarde."

	schedulesEmpty    = "Nenhum agendamento encontrado."
	schedulesTitle    = "📅 *Seus agendamentos:*\n\n"
	scheduleMenuText  = "\n\nEscolha uma opção:"
	scheduleTypeText  = "📝 Selecione o tipo de mensagem:"
	scheduleLocText   = "📍 Selecione o local:"
	scheduleFeedText  = "🌐 Selecione o feed:"
	scheduleNoFeeds   = "🌐 Nenhum RSS configurado. Adicione um feed primeiro."
	scheduleCityText  = "🏙️ Digite o nome da cidade ou use a padrão:"
	scheduleTimeText  = "🕒 Selecione o horário:"
	customTimeText    = "⌚ Digite o horário no formato HH:MM (ex: 09:30):"
	invalidTimeText   = "⚠️ Formato inválido. Use HH:MM (ex: 09:30)"
	scheduleAddedFmt  = "✅ Agendamento adicionado para %s!"
	scheduleAddFail   = "❌ Erro ao adicionar agendamento."
	removeSelectText  = "Selecione o agendamento para remover:"
	nothingToRemove   = "Nenhum agendamento para remover."
	scheduleRemoved   = "✅ Agendamento removido com sucesso!"
	scheduleRemoveErr = "❌ Erro ao remover agendamento."
	schedulesCleared  = "✅ Todos os agendamentos foram removidos!"

	rssNoneText       = "🌐 Nenhum RSS configurado"
	rssCountFmt       = "🌐 %d RSS feed(s) configurado(s)"
	rssMenuSuffix     = "\n\nO que deseja fazer?"
	rssAskURL         = "Por favor, envie a URL do feed RSS que deseja adicionar.\n\nExemplo: https://exemplo.com/feed.xml\n\nDigite /cancel para cancelar."
	rssInvalidURL     = "⚠️ URL inválida. A URL deve começar com http:// ou https://\nTente novamente ou digite /cancel para cancelar."
	rssAskName        = "Como você deseja nomear este feed? Envie o nome ou use o nome automático.\n\nDigite /cancel para cancelar."
	rssTesting        = "🔄 Testando o feed..."
	rssAddedFmt       = "✅ RSS configurado com sucesso!\nNome: %s\nURL: %s"
	rssTestFailedFmt  = "⚠️ Não foi possível processar o RSS. Verifique a URL.\nErro: %s"
	rssSaveFailed     = "❌ Erro ao salvar o feed."
	rssNotFound       = "❌ Feed não encontrado."
	rssViewFmt        = "🌐 Feed: %s\nURL: %s\n\nO que deseja fazer?"
	rssRemoveSelect   = "Selecione o feed RSS para remover:"
	rssNothingRemove  = "❌ Nenhum RSS configurado para remover."
	rssRemovedFmt     = "✅ Feed '%s' removido com sucesso!"
	rssRemoveFailed   = "❌ Erro ao remover feed."
	rssAllRemoved     = "✅ Todos os feeds RSS foram removidos!"
	rssAllRemoveError = "❌ Erro ao remover feeds."
)

// Данные inline-кнопок.
const (
	cbMainMenu  = "main_menu"
	cbSettings  = "settings"
	cbNews      = "news"
	cbNewsMsg   = "news_message"
	cbNewsFile  = "news_file"
	cbNewsForce = "news_force"
	cbHoroscope = "horoscope"
	cbWeather   = "weather"
	cbExchange  = "exchange"
	cbBicho     = "bicho"
	cbRU        = "ru"

	cbSchedule       = "schedule"
	cbScheduleMenu   = "schedule_menu"
	cbScheduleAdd    = "schedule_add"
	cbScheduleRemove = "schedule_remove"

	cbRSS         = "rss"
	cbRSSSet      = "rss_set"
	cbRSSRemove   = "rss_remove"
	cbRSSAutoName = "rss_autoname"

	prefixHoroscope      = "horoscope_"
	prefixRU             = "ru_"
	prefixScheduleType   = "schedule_type_"
	prefixScheduleLoc    = "schedule_loc_"
	prefixScheduleFeed   = "schedule_feed_"
	prefixScheduleTime   = "schedule_time_"
	prefixScheduleRemove = "schedule_remove_"
	prefixRSSView        = "rss_view_"
	prefixRSSMessage     = "rss_message_"
	prefixRSSFile        = "rss_file_"
	prefixRSSDelete      = "rss_delete_"

	allSuffix    = "all"
	customSuffix = "custom"
)

// Готовые варианты времени рассылки.
var PresetTimes = []string{"06:00", "07:00", "08:00", "10:00", "11:00", "12:00", "16:00", "17:00", "18:00"}

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func mainMenuButton() tgbotapi.InlineKeyboardButton {
	return button("🏠 Menu Principal", cbMainMenu)
}

// rowsOf раскладывает кнопки по n в ряд.
func rowsOf(n int, buttons []tgbotapi.InlineKeyboardButton) [][]tgbotapi.InlineKeyboardButton {
	var rows [][]tgbotapi.InlineKeyboardButton
	for len(buttons) > 0 {
		k := n
		if len(buttons) < k {
			k = len(buttons)
		}
		rows = append(rows, buttons[:k])
		buttons = buttons[k:]
	}
	return rows
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button(domain.KindNews.Title(), cbNews),
			button(domain.KindHoroscope.Title(), cbHoroscope),
		),
		tgbotapi.NewInlineKeyboardRow(
			button(domain.KindWeather.Title(), cbWeather),
			button(domain.KindExchange.Title(), cbExchange),
		),
		tgbotapi.NewInlineKeyboardRow(
			button(domain.KindBicho.Title(), cbBicho),
			button(domain.KindRU.Title(), cbRU),
		),
		tgbotapi.NewInlineKeyboardRow(
			button(domain.KindRSS.Title(), cbRSS),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("⏰ Agendamentos", cbSchedule),
			button("⚙️ Configurações", cbSettings),
		),
	)
}

func returnKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(mainMenuButton()))
}

func newsMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("📝 Ver como mensagem", cbNewsMsg),
			button("📎 Baixar arquivo", cbNewsFile),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🔄 Forçar atualização", cbNewsForce),
			mainMenuButton(),
		),
	)
}

func zodiacKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, s := range domain.ZodiacSigns {
		buttons = append(buttons, button(s.Name, prefixHoroscope+s.Code))
	}
	rows := rowsOf(3, buttons)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		button("🔮 Todos os Signos", prefixHoroscope+allSuffix),
		mainMenuButton(),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// ruKeyboard строит список столовых; prefix различает просмотр меню и выбор для расписания.
func ruKeyboard(prefix string, back tgbotapi.InlineKeyboardButton) tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, l := range domain.RULocations {
		buttons = append(buttons, button("🍽️ "+l.Name, prefix+l.Code))
	}
	rows := rowsOf(2, buttons)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(back))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func scheduleBackButton() tgbotapi.InlineKeyboardButton {
	return button("↩️ Voltar", cbScheduleMenu)
}

func scheduleMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("➕ Adicionar", cbScheduleAdd),
			button("➖ Remover", cbScheduleRemove),
		),
		tgbotapi.NewInlineKeyboardRow(mainMenuButton()),
	)
}

func scheduleTypeKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, k := range domain.Kinds() {
		buttons = append(buttons, button(k.Title(), prefixScheduleType+string(k)))
	}
	rows := rowsOf(2, buttons)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(scheduleBackButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func scheduleFeedKeyboard(list []feeds.Feed) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("📲 "+f.Name, prefixScheduleFeed+f.Name)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(scheduleBackButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func cityKeyboard(defaultCity string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("📍 "+defaultCity+" (padrão)", prefixScheduleLoc)),
		tgbotapi.NewInlineKeyboardRow(scheduleBackButton()),
	)
}

func timeKeyboard() tgbotapi.InlineKeyboardMarkup {
	var buttons []tgbotapi.InlineKeyboardButton
	for _, t := range PresetTimes {
		buttons = append(buttons, button(t, prefixScheduleTime+t))
	}
	buttons = append(buttons, button("Personalizado", prefixScheduleTime+customSuffix))
	rows := rowsOf(2, buttons)
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(scheduleBackButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func customTimeKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(scheduleBackButton()))
}

// entryLabel формирует строку записи в списке расписаний: «06:00 - 📰 Notícias (Central)».
func entryLabel(e domain.Entry) string {
	label := e.Time + " - " + e.Type.Title()
	if e.Location == "" {
		return label
	}
	loc := e.Location
	if e.Type == domain.KindRU {
		loc = domain.RULocationName(loc)
	}
	return label + " (" + loc + ")"
}

func formatSchedules(entries []domain.Entry) string {
	if len(entries) == 0 {
		return schedulesEmpty
	}
	var b strings.Builder
	b.WriteString(schedulesTitle)
	for i, e := range entries {
		fmt.Fprintf(&b, "%d. %s\n", i+1, entryLabel(e))
	}
	return b.String()
}

func scheduleRemoveKeyboard(entries []domain.Entry) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, e := range entries {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("❌ "+entryLabel(e), prefixScheduleRemove+strconv.Itoa(i)),
		))
	}
	rows = append(rows,
		tgbotapi.NewInlineKeyboardRow(button("🗑️ Remover Todos", prefixScheduleRemove+allSuffix)),
		tgbotapi.NewInlineKeyboardRow(scheduleBackButton()),
	)
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func rssBackButton() tgbotapi.InlineKeyboardButton {
	return button("◀️ Voltar", cbRSS)
}

func rssMenuKeyboard(list []feeds.Feed) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("📲 "+f.Name, prefixRSSView+f.Name)))
	}
	if len(list) > 0 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			button("➕ Adicionar Feed", cbRSSSet),
			button("➖ Remover Feed", cbRSSRemove),
		))
	} else {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("➕ Adicionar Feed", cbRSSSet)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(mainMenuButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func rssBackKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(rssBackButton()))
}

func rssNameKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(button("🔤 Nome automático", cbRSSAutoName)),
		tgbotapi.NewInlineKeyboardRow(rssBackButton()),
	)
}

func rssViewKeyboard(name string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("📱 Ver feed", prefixRSSMessage+name),
			button("📎 Baixar feed", prefixRSSFile+name),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🗑️ Remover feed", prefixRSSDelete+name),
			rssBackButton(),
		),
	)
}

func rssRemoveKeyboard(list []feeds.Feed) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range list {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("❌ "+f.Name, prefixRSSDelete+f.Name)))
	}
	if len(list) > 1 {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(button("🗑️ Remover Todos", prefixRSSDelete+allSuffix)))
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(rssBackButton()))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
