// Package i18n holds the panel's UI strings in English and Chinese.
package i18n

import (
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

type entry struct {
	id, en, zh string
}

var messages = []entry{
	{"app_title", "Data Manager", "数据管理器"},
	{"cmd_open", "Open Data Manager", "打开数据管理器"},
	{"node_open", "Open in Data Manager", "在数据管理器中打开"},

	{"back", "Back", "后退"},
	{"forward", "Forward", "前进"},
	{"up", "Up", "上一级"},
	{"home", "Home", "主目录"},
	{"refresh", "Refresh", "刷新"},
	{"path", "Path", "路径"},
	{"filter", "Filter (glob)", "筛选 (通配符)"},
	{"view_list", "List view", "列表视图"},
	{"view_grid", "Grid view", "网格视图"},
	{"new_file", "New file", "新建文件"},
	{"new_folder", "New folder", "新建文件夹"},
	{"delete", "Delete", "删除"},
	{"copy_path", "Copy path", "复制路径"},
	{"copied_path", "Copied {{.Count}} path(s)", "已复制 {{.Count}} 个路径"},
	{"connect", "Connect SSH", "连接 SSH"},
	{"disconnect", "Disconnect", "断开连接"},
	{"settings", "Settings", "设置"},
	{"open_floating", "Open in window", "在窗口中打开"},

	{"col_name", "Name", "名称"},
	{"col_size", "Size", "大小"},
	{"col_modified", "Modified", "修改时间"},
	{"empty_dir", "This folder is empty", "此文件夹为空"},
	{"no_preview", "Select a file to preview", "选择文件以预览"},

	{"status_loading", "Loading {{.Path}}...", "正在加载 {{.Path}}..."},
	{"status_loaded", "{{.Count}} items in {{.Path}}", "{{.Path}} 中有 {{.Count}} 项"},
	{"status_filtered", "{{.Shown}} of {{.Count}} items match {{.Pattern}}", "{{.Count}} 项中有 {{.Shown}} 项匹配 {{.Pattern}}"},
	{"status_error", "Error: {{.Error}}", "错误: {{.Error}}"},
	{"opened_preview", "Opened preview: {{.Name}}", "已打开预览: {{.Name}}"},
	{"created", "Created {{.Name}}", "已创建 {{.Name}}"},
	{"deleted", "Deleted {{.Count}} item(s)", "已删除 {{.Count}} 项"},
	{"confirm_delete", "Delete {{.Count}} item(s)?", "确定删除 {{.Count}} 项?"},
	{"nothing_selected", "Nothing selected", "未选择任何项"},
	{"invalid_filter", "Invalid filter pattern", "无效的筛选模式"},
	{"prompt_file_name", "File name", "文件名"},
	{"prompt_folder_name", "Folder name", "文件夹名"},
	{"ok", "OK", "确定"},
	{"cancel", "Cancel", "取消"},

	{"ssh_title", "SSH Connection", "SSH 连接"},
	{"ssh_host", "Host", "主机"},
	{"ssh_port", "Port", "端口"},
	{"ssh_user", "Username", "用户名"},
	{"ssh_password", "Password", "密码"},
	{"ssh_name", "Name (optional)", "名称 (可选)"},
	{"ssh_key_file", "Private key file (optional)", "私钥文件 (可选)"},
	{"ssh_port_invalid", "Please enter a valid port", "请输入有效的端口"},
	{"ssh_save", "Save connection", "保存连接"},
	{"ssh_saved", "Saved connections", "已保存的连接"},
	{"ssh_forget", "Forget", "删除"},
	{"ssh_config_hosts", "From SSH config", "来自 SSH 配置"},
	{"ssh_host_required", "Please enter a host", "请输入主机地址"},
	{"ssh_user_required", "Please enter a username", "请输入用户名"},
	{"ssh_connecting", "Connecting to {{.Host}}...", "正在连接 {{.Host}}..."},
	{"ssh_connected", "Connected to {{.Host}}", "已连接到 {{.Host}}"},
	{"ssh_disconnected", "Disconnected", "已断开连接"},
	{"ssh_failed", "Connection failed: {{.Error}}", "连接失败: {{.Error}}"},
	{"conn_local", "Local", "本地"},
	{"conn_remote", "SSH: {{.User}}@{{.Host}}", "SSH: {{.User}}@{{.Host}}"},

	{"settings_title", "Settings", "设置"},
	{"settings_language", "Language", "语言"},
	{"settings_trash", "Move deleted files to trash", "删除时移到回收站"},
	{"settings_auto_refresh", "Refresh when the folder changes", "文件夹变化时自动刷新"},
	{"apply", "Apply", "应用"},

	{"close", "Close", "关闭"},
	{"minimize", "Minimize", "最小化"},
	{"fullscreen", "Fullscreen", "全屏"},
	{"exit_fullscreen", "Exit fullscreen (Esc)", "退出全屏 (Esc)"},
	{"zoom_in", "Zoom in", "放大"},
	{"zoom_out", "Zoom out", "缩小"},
	{"zoom_reset", "Reset zoom", "重置缩放"},
	{"zoom_fit", "Fit width", "适应宽度"},
	{"play", "Play", "播放"},
	{"pause", "Pause", "暂停"},
	{"mute", "Mute", "静音"},
	{"unmute", "Unmute", "取消静音"},
	{"font_smaller", "Smaller text", "缩小字体"},
	{"font_larger", "Larger text", "放大字体"},

	{"preview_unsupported", "Preview not supported for this file type", "不支持预览此文件类型"},
	{"preview_failed", "Failed to load preview: {{.Error}}", "加载预览失败: {{.Error}}"},
	{"image_failed", "Failed to load image", "图片加载失败"},
	{"media_failed", "Failed to load media", "媒体加载失败"},
	{"truncated_chars", "File truncated: showing the first {{.Count}} characters", "文件已截断: 仅显示前 {{.Count}} 个字符"},
	{"truncated_rows", "Showing the first {{.Count}} of {{.Total}} rows", "仅显示 {{.Total}} 行中的前 {{.Count}} 行"},
	{"doc_unsupported", "Legacy .doc files cannot be previewed. Please convert the file to .docx.", "无法预览旧版 .doc 文件，请转换为 .docx 格式。"},
	{"sheet_empty", "The spreadsheet is empty", "表格为空"},
	{"loading", "Loading...", "加载中..."},
}

// Languages lists the supported language tags.
var Languages = []string{"en", "zh"}

// Localizer translates message ids into the current language.
type Localizer struct {
	bundle *goi18n.Bundle

	mu   sync.RWMutex
	lang string
	loc  *goi18n.Localizer
}

// New creates a localizer for lang, falling back to English.
func New(lang string) *Localizer {
	bundle := goi18n.NewBundle(language.English)
	for _, m := range messages {
		bundle.AddMessages(language.English, &goi18n.Message{ID: m.id, Other: m.en})
		bundle.AddMessages(language.Chinese, &goi18n.Message{ID: m.id, Other: m.zh})
	}
	l := &Localizer{bundle: bundle}
	l.SetLanguage(lang)
	return l
}

// SetLanguage switches the active language.
func (l *Localizer) SetLanguage(lang string) {
	tag, err := language.Parse(lang)
	if err != nil {
		tag = language.English
	}
	base, _ := tag.Base()
	norm := base.String()
	if norm != "zh" {
		norm = "en"
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.lang = norm
	l.loc = goi18n.NewLocalizer(l.bundle, norm)
}

// Language returns the active language ("en" or "zh").
func (l *Localizer) Language() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lang
}

// T translates id with optional template data. Unknown ids come back
// unchanged.
func (l *Localizer) T(id string, data ...map[string]any) string {
	l.mu.RLock()
	loc := l.loc
	l.mu.RUnlock()

	cfg := &goi18n.LocalizeConfig{MessageID: id}
	if len(data) > 0 {
		cfg.TemplateData = data[0]
	}
	s, err := loc.Localize(cfg)
	if err != nil {
		return id
	}
	return s
}

// D is shorthand for template data.
type D = map[string]any
