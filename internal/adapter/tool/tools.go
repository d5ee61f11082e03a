package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/application/service"
	"browser-bench/internal/domain/entity"
)

var (
	_ output.ToolPort       = (*NavigateTool)(nil)
	_ output.ToolPort       = (*DoneTool)(nil)
	_ output.ToolsetFactory = NewBrowserToolset
)

// NewBrowserToolset registers every tool against one task's browser.
func NewBrowserToolset(browser output.BrowserPort, logger output.LoggerPort) output.ToolRegistry {
	registry := service.NewToolRegistry()
	registry.Register(NewNavigateTool(browser, logger))
	registry.Register(NewClickTool(browser, logger))
	registry.Register(NewFillTool(browser, logger))
	registry.Register(NewScrollTool(browser, logger))
	registry.Register(NewPressEnterTool(browser, logger))
	registry.Register(NewObserveTool(browser, logger))
	registry.Register(NewExtractTool(browser, logger))
	registry.Register(NewDoneTool())
	return registry
}

func objectSchema(props map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": props,
		"required":   required,
	}
}

func stringProp(description string) map[string]interface{} {
	return map[string]interface{}{"type": "string", "description": description}
}

func decodeArgs(args string, v interface{}) error {
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	if err := json.Unmarshal([]byte(args), v); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

type NavigateTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewNavigateTool(browser output.BrowserPort, logger output.LoggerPort) *NavigateTool {
	return &NavigateTool{browser: browser, logger: logger}
}

func (t *NavigateTool) Name() entity.ToolName { return entity.ToolNavigate }
func (t *NavigateTool) Description() string {
	return "Opens the given URL in the current tab."
}
func (t *NavigateTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"url": stringProp("Absolute URL to open"),
	}, "url")
}

func (t *NavigateTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		URL string `json:"url"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	url := strings.TrimSpace(input.URL)
	if url == "" {
		return "", fmt.Errorf("url is required")
	}
	if !strings.Contains(url, "://") {
		url = "https://" + url
	}

	t.logger.Debug("navigate", "url", url)
	if err := t.browser.Navigate(ctx, url); err != nil {
		return "", err
	}
	return fmt.Sprintf("Navigated to %s", t.browser.CurrentURL()), nil
}

type ClickTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewClickTool(browser output.BrowserPort, logger output.LoggerPort) *ClickTool {
	return &ClickTool{browser: browser, logger: logger}
}

func (t *ClickTool) Name() entity.ToolName { return entity.ToolClick }
func (t *ClickTool) Description() string {
	return "Clicks the element matched by a selector. Prefer selectors returned by observe."
}
func (t *ClickTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"selector": stringProp("CSS or XPath selector"),
	}, "selector")
}

func (t *ClickTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	t.logger.Debug("click", "selector", input.Selector)
	if err := t.browser.Click(ctx, input.Selector); err != nil {
		return "", err
	}
	return fmt.Sprintf("Clicked %s, now at %s", input.Selector, t.browser.CurrentURL()), nil
}

type FillTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewFillTool(browser output.BrowserPort, logger output.LoggerPort) *FillTool {
	return &FillTool{browser: browser, logger: logger}
}

func (t *FillTool) Name() entity.ToolName { return entity.ToolFill }
func (t *FillTool) Description() string {
	return "Replaces the contents of an input field with the given text."
}
func (t *FillTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"selector": stringProp("CSS or XPath selector of the field"),
		"text":     stringProp("Text to type"),
	}, "selector", "text")
}

func (t *FillTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Selector string `json:"selector"`
		Text     string `json:"text"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	t.logger.Debug("fill", "selector", input.Selector)
	if err := t.browser.Fill(ctx, input.Selector, input.Text); err != nil {
		return "", err
	}
	return fmt.Sprintf("Filled %s", input.Selector), nil
}

type ScrollTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewScrollTool(browser output.BrowserPort, logger output.LoggerPort) *ScrollTool {
	return &ScrollTool{browser: browser, logger: logger}
}

func (t *ScrollTool) Name() entity.ToolName { return entity.ToolScroll }
func (t *ScrollTool) Description() string   { return "Scrolls the page." }
func (t *ScrollTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"direction": map[string]interface{}{
			"type":        "string",
			"enum":        []string{"up", "down", "top", "bottom"},
			"description": "Scroll direction",
		},
	}, "direction")
}

func (t *ScrollTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Direction string `json:"direction"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	if err := t.browser.Scroll(ctx, input.Direction); err != nil {
		return "", err
	}
	return fmt.Sprintf("Scrolled %s", input.Direction), nil
}

type PressEnterTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewPressEnterTool(browser output.BrowserPort, logger output.LoggerPort) *PressEnterTool {
	return &PressEnterTool{browser: browser, logger: logger}
}

func (t *PressEnterTool) Name() entity.ToolName { return entity.ToolPressEnter }
func (t *PressEnterTool) Description() string {
	return "Presses Enter in the focused element, usually to submit a search."
}
func (t *PressEnterTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *PressEnterTool) Execute(ctx context.Context, args string) (string, error) {
	if err := t.browser.PressEnter(ctx); err != nil {
		return "", err
	}
	return fmt.Sprintf("Enter pressed, now at %s", t.browser.CurrentURL()), nil
}

type ObserveTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewObserveTool(browser output.BrowserPort, logger output.LoggerPort) *ObserveTool {
	return &ObserveTool{browser: browser, logger: logger}
}

func (t *ObserveTool) Name() entity.ToolName { return entity.ToolObserve }
func (t *ObserveTool) Description() string {
	return "Lists the visible interactive elements of the page with ready-to-use selectors."
}
func (t *ObserveTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *ObserveTool) Execute(ctx context.Context, args string) (string, error) {
	elements, err := t.browser.GetUIElements(ctx)
	if err != nil {
		return "", err
	}
	if len(elements) == 0 {
		return "No interactive elements visible.", nil
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return "", err
	}
	t.logger.Debug("observe", "elements", len(elements))
	return string(data), nil
}

type ExtractTool struct {
	browser output.BrowserPort
	logger  output.LoggerPort
}

func NewExtractTool(browser output.BrowserPort, logger output.LoggerPort) *ExtractTool {
	return &ExtractTool{browser: browser, logger: logger}
}

func (t *ExtractTool) Name() entity.ToolName { return entity.ToolExtract }
func (t *ExtractTool) Description() string {
	return "Returns the readable text of the current page."
}
func (t *ExtractTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (t *ExtractTool) Execute(ctx context.Context, args string) (string, error) {
	text, err := t.browser.GetPageText(ctx)
	if err != nil {
		return "", err
	}
	if text == "" {
		return "The page has no readable text.", nil
	}
	return fmt.Sprintf("URL: %s\n\n%s", t.browser.CurrentURL(), text), nil
}

// DoneTool ends the drive. Its result is the agent's final answer.
type DoneTool struct{}

func NewDoneTool() *DoneTool {
	return &DoneTool{}
}

func (t *DoneTool) Name() entity.ToolName { return entity.ToolDone }
func (t *DoneTool) Description() string {
	return "Finishes the task. Call it once with the final answer to the user's question."
}
func (t *DoneTool) Parameters() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"answer": stringProp("The final answer, stated completely"),
	}, "answer")
}

func (t *DoneTool) Execute(ctx context.Context, args string) (string, error) {
	var input struct {
		Answer string `json:"answer"`
	}
	if err := decodeArgs(args, &input); err != nil {
		return "", err
	}
	return strings.TrimSpace(input.Answer), nil
}
