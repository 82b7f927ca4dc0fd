package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/newsflow/go-editor-service/internal/importer"
	"github.com/newsflow/go-editor-service/internal/sanitizer"
)

// TaskHandler 任务处理函数
type TaskHandler func(ctx context.Context, task *Task) *Result

// Importer 导入远程页面
type Importer interface {
	Import(ctx context.Context, url string) (*importer.Result, error)
}

// NewTaskHandler 按任务类型分派：sanitize 直接净化，import 交给导入器
//
// imp 为空时 import 任务返回失败结果。
func NewTaskHandler(s sanitizer.Sanitizer, imp Importer) TaskHandler {
	return func(ctx context.Context, task *Task) *Result {
		start := time.Now()
		result := &Result{TaskID: task.ID, DocumentID: task.DocumentID, Kind: task.Kind}
		defer func() { result.Duration = time.Since(start).Milliseconds() }()

		switch task.Kind {
		case KindSanitize, "":
			result.Kind = KindSanitize
			result.HTML = s.Sanitize(task.HTML)
			result.Text = sanitizer.PlainText(result.HTML)
			result.CharCount = sanitizer.CharCount(result.HTML)
			result.Success = true
		case KindImport:
			if imp == nil {
				result.Error = "import not available"
				return result
			}
			res, err := imp.Import(ctx, task.URL)
			if err != nil {
				result.Error = err.Error()
				return result
			}
			result.HTML = res.HTML
			result.Text = res.Text
			result.Title = res.Title
			result.CharCount = res.CharCount
			result.Success = true
		default:
			result.Error = fmt.Sprintf("unknown task kind %q", task.Kind)
		}
		return result
	}
}
