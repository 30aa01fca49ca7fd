package service

import "go.uber.org/zap"

// Toast 变体
const (
	VariantSuccess     = "success"
	VariantDestructive = "destructive"
)

// Notification 用户可见的反馈（toast）
type Notification struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Variant     string `json:"variant"`
}

// Notifier 向调用方投递反馈
type Notifier interface {
	Notify(n Notification)
}

// LogNotifier 默认实现：写结构化日志
type LogNotifier struct {
	logger *zap.Logger
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(note Notification) {
	if note.Variant == VariantDestructive {
		n.logger.Warn("notify",
			zap.String("title", note.Title),
			zap.String("description", note.Description))
		return
	}
	n.logger.Info("notify",
		zap.String("title", note.Title),
		zap.String("description", note.Description))
}

// CaptureNotifier 测试用：记录所有通知
type CaptureNotifier struct {
	Notes []Notification
}

var _ Notifier = (*CaptureNotifier)(nil)

func (n *CaptureNotifier) Notify(note Notification) {
	n.Notes = append(n.Notes, note)
}
