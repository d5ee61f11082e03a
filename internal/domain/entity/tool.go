package entity

type ToolName string

const (
	ToolNavigate   ToolName = "navigate"
	ToolClick      ToolName = "click"
	ToolFill       ToolName = "fill"
	ToolScroll     ToolName = "scroll"
	ToolPressEnter ToolName = "press_enter"
	ToolObserve    ToolName = "observe"
	ToolExtract    ToolName = "extract"
	ToolDone       ToolName = "done"
)

func (t ToolName) String() string {
	return string(t)
}
