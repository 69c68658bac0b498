package constants

const (
	StartCommandMessage      = "Привет! Выберите свой класс:"
	ChooseGroupMessage       = "Выберите группу:"
	GroupFirstMessage        = "Сначала выберите группу:"
	GroupSetMessage          = "Группа установлена: <b>%s</b>"
	UnknownGroupMessage      = "Неизвестная группа."
	HelpCommandMessage       = "Команды:\n/today — расписание на сегодня\n/tomorrow — на завтра\n/week — на неделю\n/nextweek — на следующую неделю\n/date YYYY-MM-DD — на дату\n/exams — ближайшие контрольные\n/exams_week, /exams_nextweek — контрольные на неделю\n/subscribe, /unsubscribe — уведомления об изменениях\n/group — сменить группу"
	UnknownCommandMessage    = "Не знаю такой команды. Список команд: /help"
	DataUnavailableMessage   = "Расписание пока не загружено, попробуйте чуть позже."
	InternalErrorMessage     = "Что-то пошло не так, попробуйте позже."
	NoLessonsMessage         = "Пар нет 🎉"
	NoExamsMessage           = "Нет запланированных контрольных."
	DateUsageMessage         = "Использование: /date YYYY-MM-DD"
	DateFormatMessage        = "Неверный формат даты (нужно YYYY-MM-DD)."
	ExamsUpcomingTitle       = "📌 Контрольные (ближайшие), группа %s"
	ExamsWeekTitle           = "📅 Контрольные на неделю (%s), группа %s"
	ExamsNextWeekTitle       = "📅 Контрольные на след. неделю (%s), группа %s"
	SubscribeChooseMessage   = "Выберите группу для подписки на уведомления:"
	SubscribedMessage        = "Готово! Подписка на уведомления группы %s оформлена."
	AlreadySubscribedMessage = "Вы уже подписаны на %s класс."
	UnsubscribedMessage      = "Подписка удалена."
	NotSubscribedMessage     = "Нечего удалять — вы не подписаны."
	ScheduleChangedMessage   = "🔔 Обновления в расписании для группы %s\n• Время: %s\nОткройте меню бота: /today /week /exams"

	AdminOnlyMessage         = "Команда доступна только администраторам."
	AdminPanelMessage        = "⚙️ Админ-панель"
	MainMenuMessage          = "Главное меню"
	AdminInfoMessage         = "ℹ️ Информация:\n• TZ: %s\n• Schedule rows: %d\n• Exams rows: %d\n• Пропущено строк: %d\n• Обновлено: %s\n• Подписчики: %s\n• Google Sheet ID: %s"
	ReloadStartedMessage     = "🔄 Перечитываю данные из Google Sheets…"
	ReloadDoneMessage        = "✅ Данные перечитаны из Google Sheets (готово)."
	ReloadFailedMessage      = "❌ Ошибка при обновлении: %s"
	RefreshFailedWarning     = "⚠️ Не удалось обновить расписание, показываю последние загруженные данные: %s"
	BroadcastChooseMessage   = "Выберите, кому отправить объявление:"
	BroadcastTextMessage     = "Введите текст объявления для: %s\n\nОтправьте одним сообщением. Для отмены — /cancel"
	BroadcastEmptyMessage    = "Пустое сообщение. Введите текст или /cancel."
	BroadcastNoTargetMessage = "Подписчиков не найдено для выбранной группы."
	BroadcastHeader          = "📣 Объявление для группы %s:\n\n%s"
	BroadcastDoneMessage     = "Готово. Разослано: %d, ошибок: %d."
	BroadcastCancelled       = "Рассылка отменена."
	OperationCancelled       = "Операция отменена."
	BadChoiceMessage         = "Некорректный выбор группы."
)
