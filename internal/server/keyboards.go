package server

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const allGroups = "all"

func groupsKeyboard(groups []string) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(groups))
	for _, g := range groups {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(g, "pick_group:"+g))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func subscribeKeyboard(groups []string) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(groups))
	for _, g := range groups {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(g+" класс", "subs:add:"+g))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func mainMenuKeyboard(isAdmin bool) tgbotapi.InlineKeyboardMarkup {
	rows := [][]tgbotapi.InlineKeyboardButton{
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сегодня", "menu:today"),
			tgbotapi.NewInlineKeyboardButtonData("Завтра", "menu:tomorrow"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Неделя", "menu:week"),
			tgbotapi.NewInlineKeyboardButtonData("След. неделя", "menu:nextweek"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Контрольные", "menu:exams"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Контр. неделя", "menu:exams_week"),
			tgbotapi.NewInlineKeyboardButtonData("Контр. след. неделя", "menu:exams_nextweek"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Сменить группу", "menu:change_group"),
		),
	}
	if isAdmin {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⚙️ Админ-панель", "admin:panel"),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func adminPanelKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("ℹ️ Инфо", "admin:info"),
			tgbotapi.NewInlineKeyboardButtonData("🔄 Reload", "admin:reload"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📣 Рассылка", "admin:broadcast"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅️ Назад", "admin:back"),
		),
	)
}

func broadcastKeyboard(groups []string) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(groups))
	for _, g := range groups {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(g+" класс", "broadcast:grp:"+g))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Все группы", "broadcast:grp:"+allGroups),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("❌ Отмена", "broadcast:cancel"),
		),
	)
}
