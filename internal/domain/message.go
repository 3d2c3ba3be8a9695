package domain

// Названия каналов доставки для конфига, логов и меток метрик.
const (
	ChannelWhatsApp = "whatsapp"
	ChannelTelegram = "telegram"
)

// Message представляет одно входящее сообщение пользователя,
// нормализованное из вебхука. Живёт в течение одного обращения
// и никуда не сохраняется.
type Message struct {
	Channel string
	Sender  string
	Text    string
	// ProviderMsgID — идентификатор сообщения на стороне платформы
	// (Twilio MessageSid, Telegram update id). Может быть пустым.
	ProviderMsgID string
}

// Reply представляет исходящий ответ на Message.
type Reply struct {
	Text string
}
