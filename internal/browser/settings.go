package browser

import (
	"comfyui-data-manager/internal/i18n"
	"comfyui-data-manager/internal/logging"
	"comfyui-data-manager/internal/store"
)

var languageNames = map[string]string{
	"en": "English",
	"zh": "中文",
}

// Settings are the user preferences editable from the settings dialog.
type Settings struct {
	Language    string
	UseTrash    bool
	AutoRefresh bool
}

// Settings returns the current preferences.
func (c *Controller) Settings() Settings {
	return Settings{Language: c.tr.Language(), UseTrash: c.useTrash, AutoRefresh: c.autoRefresh}
}

// ShowSettings opens the settings dialog.
func (c *Controller) ShowSettings() {
	if c.ui == nil {
		return
	}
	cur := c.Settings()
	d := c.openDialog("settings_title")
	var langs []option
	for _, code := range i18n.Languages {
		langs = append(langs, option{value: code, label: languageNames[code]})
	}
	lang := c.selectField(d, "language", "settings_language", cur.Language, langs)
	trash := c.checkbox(d, "use_trash", "settings_trash", cur.UseTrash)
	refresh := c.checkbox(d, "auto_refresh", "settings_auto_refresh", cur.AutoRefresh)
	c.actions(d, "apply", func() {
		c.closeDialog()
		c.ApplySettings(Settings{Language: lang.value, UseTrash: trash.checked(), AutoRefresh: refresh.checked()})
	})
}

// ApplySettings stores s and applies it. A language change rebuilds the
// main window.
func (c *Controller) ApplySettings(s Settings) {
	if s.UseTrash != c.useTrash {
		c.SetUseTrash(s.UseTrash)
	}
	if s.AutoRefresh != c.autoRefresh {
		c.SetAutoRefresh(s.AutoRefresh)
	}
	if s.Language != "" && s.Language != c.tr.Language() {
		c.tr.SetLanguage(s.Language)
		c.persist(store.KeyLocale, c.tr.Language())
		c.log.Info("language changed", logging.String("lang", c.tr.Language()))
		c.rebuild()
	}
}
