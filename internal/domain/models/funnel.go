package models

import "sort"

// FunnelConfig — упорядоченная карта воронка → порог в минутах.
type FunnelConfig struct {
	// Thresholds: номер воронки (1..N) → минуты без ответа.
	Thresholds map[int]int `json:"thresholds"`
	// StrictSequence: true — сообщение проходит воронки последовательно,
	// false — достаточно одного порога по времени.
	StrictSequence bool `json:"strict_sequence"`
}

// DefaultFunnels повторяет исходные интервалы: 1 минута, 3 часа, 6 часов.
func DefaultFunnels() *FunnelConfig {
	return &FunnelConfig{
		Thresholds: map[int]int{
			1: 1,
			2: 180,
			3: 360,
		},
		StrictSequence: true,
	}
}

// Tiers возвращает номера воронок по возрастанию.
func (c *FunnelConfig) Tiers() []int {
	tiers := make([]int, 0, len(c.Thresholds))
	for tier := range c.Thresholds {
		tiers = append(tiers, tier)
	}

	sort.Ints(tiers)

	return tiers
}

func (c *FunnelConfig) Threshold(tier int) (int, bool) {
	minutes, ok := c.Thresholds[tier]
	return minutes, ok
}

func (c *FunnelConfig) MaxTier() int {
	maxTier := 0

	for tier := range c.Thresholds {
		if tier > maxTier {
			maxTier = tier
		}
	}

	return maxTier
}

func FunnelEmoji(tier int) string {
	switch tier {
	case 1:
		return "🟡"
	case 2:
		return "🟠"
	case 3:
		return "🔴"
	default:
		return "⚪"
	}
}
