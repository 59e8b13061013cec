package config

import (
	"github.com/knadh/koanf/providers/confmap"
)

func DefaultConfig() map[string]interface{} {
	return map[string]interface{}{
		"telegram": map[string]interface{}{
			"token":   "",
			"timeout": 60,
		},
		"database": map[string]interface{}{
			"url": "data/reminders.db",
		},
		"timezone": "Local",
		"report": map[string]interface{}{
			"interval_hours": 5,
			"daily_at":       "",
		},
		"notify": map[string]interface{}{
			"enabled":       true,
			"check_seconds": 60,
		},
		"log": map[string]interface{}{
			"level":  "info",
			"format": "text",
		},
	}
}

func NewDefaultProvider() *confmap.Confmap {
	return confmap.Provider(DefaultConfig(), ".")
}
