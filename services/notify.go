package services

import "go.uber.org/zap"

// maxAlertLogRunes - длиннее этого текст алерта обрезается в логе
const maxAlertLogRunes = 200

// Notifier - то, как библиотека показывает пользователю важные исходы:
// блокирующие алерты и приглашение войти
type Notifier interface {
	Alert(title, message string)
	PromptLogin(action string)
}

type NopNotifier struct{}

func (NopNotifier) Alert(string, string) {}
func (NopNotifier) PromptLogin(string)   {}

// LogNotifier - для неинтерактивного запуска: все уходит в лог
type LogNotifier struct {
	Log *zap.SugaredLogger
}

func (n LogNotifier) Alert(title, message string) {
	message = truncateRunes(message, maxAlertLogRunes)
	n.Log.Warnw("alert", "title", title, "message", message)
}

func (n LogNotifier) PromptLogin(action string) {
	n.Log.Infow("login required", "action", action)
}

// truncateRunes обрезает строку до n символов, не разрезая многобайтовые руны
func truncateRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + "..."
		}
		count++
	}
	return s
}
