package entity

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
	RoleTool      MessageRole = "tool"
)

type PartType string

const (
	PartText  PartType = "text"
	PartImage PartType = "image"
)

// Part is one element of a multimodal message body.
type Part struct {
	Type  PartType
	Text  string
	Image *Screenshot
}

func TextPart(text string) Part {
	return Part{Type: PartText, Text: text}
}

func ImagePart(s Screenshot) Part {
	return Part{Type: PartImage, Image: &s}
}

type Message struct {
	Role       MessageRole
	Content    string
	Parts      []Part
	ToolCalls  []ToolCall
	ToolCallID string
	Name       string
}

type ToolCall struct {
	ID        string
	Name      string
	Arguments string
}

type ToolDefinition struct {
	Name        string
	Description string
	Parameters  map[string]interface{}
}
