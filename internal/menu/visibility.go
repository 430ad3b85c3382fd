package menu

import (
	"strings"

	"ms-ordering/internal/models"
)

const (
	ChannelTelegram = "telegram"
	ChannelWeb      = "web"
	ChannelQRMenu   = "qr_menu"
)

// channelOrder is both the allow-list and the output order.
var channelOrder = []string{ChannelTelegram, ChannelWeb, ChannelQRMenu}

// NormalizeVisibilityChannels lower-cases, filters and de-duplicates raw
// channel names. An empty result falls back to web.
func NormalizeVisibilityChannels(raw []string) []string {
	seen := make(map[string]bool, len(raw))
	for _, c := range raw {
		seen[strings.ToLower(strings.TrimSpace(c))] = true
	}

	out := make([]string, 0, len(channelOrder))
	for _, c := range channelOrder {
		if seen[c] {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return []string{ChannelWeb}
	}
	return out
}

func IsChannel(c string) bool {
	for _, known := range channelOrder {
		if c == known {
			return true
		}
	}
	return false
}

// ChannelForSource maps an order's source to the menu channel it browses.
func ChannelForSource(source models.SourceChannel) string {
	switch source {
	case models.SourceTelegram:
		return ChannelTelegram
	case models.SourceTable:
		return ChannelQRMenu
	default:
		return ChannelWeb
	}
}

// VisibleOn reports whether item is listed on channel. Items saved before
// channels existed have none and count as web-only.
func VisibleOn(item models.MenuItem, channel string) bool {
	for _, c := range NormalizeVisibilityChannels(item.VisibilityChannels) {
		if c == channel {
			return true
		}
	}
	return false
}
