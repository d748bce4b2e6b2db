package funnel

import (
	"time"

	"github.com/boroda3333/telegrambotuvedomlyatorCARGO/internal/domain/models"
)

// Classify возвращает воронку, в которой сообщение должно находиться
// на момент now. Номер воронки не убывает; за один вызов сообщение может
// пройти несколько порогов сразу, если пролежало дольше нескольких
// интервалов (пороги бывают сильно больше шага планировщика).
//
// При StrictSequence воронка k доступна только после воронки k-1;
// иначе достаточно времени самого порога.
func Classify(message *models.PendingMessage, config *models.FunnelConfig, now time.Time) int {
	minutesElapsed := int(now.Sub(message.FirstSeenAt).Minutes())
	tier := message.CurrentTier

	for _, next := range config.Tiers() {
		if next <= tier {
			continue
		}

		threshold, ok := config.Threshold(next)
		if !ok || minutesElapsed < threshold {
			if config.StrictSequence {
				break
			}

			continue
		}

		if config.StrictSequence && next != tier+1 {
			break
		}

		tier = next
	}

	return tier
}
