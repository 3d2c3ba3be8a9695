package domain

import "time"

// FeedbackTimeFormat — формат времени при выгрузке записи в таблицу или CSV.
const FeedbackTimeFormat = "2006-01-02 15:04:05"

// FeedbackRecord представляет один отзыв пользователя. Записи только
// добавляются: сервис их не изменяет и не удаляет.
type FeedbackRecord struct {
	ID          string
	Sender      string
	Text        string
	SubmittedAt time.Time
}

// Row разворачивает запись в строку (отправитель, отзыв, время)
// для табличных бэкендов.
func (r FeedbackRecord) Row() []string {
	return []string{r.Sender, r.Text, r.SubmittedAt.Format(FeedbackTimeFormat)}
}
