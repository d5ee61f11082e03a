package rod

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"strings"
	"sync"
	"time"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"

	"github.com/disintegration/imaging"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"
)

var _ output.BrowserPort = (*BrowserAdapter)(nil)

const (
	maxScreenshotWidth = 1024
	maxUIElements      = 300
	uiIDAttr           = "data-bench-id"
)

// BrowserAdapter drives one page in a browser process it owns.
type BrowserAdapter struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	page     *rod.Page
	timeout  time.Duration

	closeOnce sync.Once
}

func (b *BrowserAdapter) Navigate(ctx context.Context, url string) error {
	page := b.page.Context(ctx)
	if err := page.Timeout(b.timeout * 3).Navigate(url); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}
	if err := page.Timeout(b.timeout * 3).WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}
	_ = page.WaitIdle(5 * time.Second)
	return nil
}

func (b *BrowserAdapter) Click(ctx context.Context, selector string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}
	_ = el.ScrollIntoView()
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	_ = b.page.Context(ctx).WaitIdle(2 * time.Second)
	return nil
}

func (b *BrowserAdapter) Fill(ctx context.Context, selector, text string) error {
	el, err := b.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err == nil {
		_ = el.Input("")
	}
	if err := el.Input(text); err != nil {
		return fmt.Errorf("input failed: %w", err)
	}
	return nil
}

func (b *BrowserAdapter) PressEnter(ctx context.Context) error {
	page := b.page.Context(ctx)
	if err := page.Keyboard.Press(input.Enter); err != nil {
		return fmt.Errorf("press enter: %w", err)
	}
	_ = page.WaitIdle(2 * time.Second)
	return nil
}

func (b *BrowserAdapter) Scroll(ctx context.Context, direction string) error {
	var js string
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "down":
		js = `() => window.scrollBy(0, window.innerHeight * 0.8)`
	case "up":
		js = `() => window.scrollBy(0, -window.innerHeight * 0.8)`
	case "top":
		js = `() => window.scrollTo(0, 0)`
	case "bottom":
		js = `() => window.scrollTo(0, document.body.scrollHeight)`
	default:
		return fmt.Errorf("unknown scroll direction: %s", direction)
	}

	page := b.page.Context(ctx)
	if _, err := page.Eval(js); err != nil {
		return fmt.Errorf("scroll failed: %w", err)
	}
	_ = page.WaitIdle(800 * time.Millisecond)
	return nil
}

// GetPageText returns the readable text of the current document.
func (b *BrowserAdapter) GetPageText(ctx context.Context) (string, error) {
	html, err := b.page.Context(ctx).Timeout(b.timeout).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return VisibleText(html, DefaultMaxTextSize), nil
}

// GetUIElements tags every visible interactive element with a stable id
// attribute and returns selectors built on that id.
func (b *BrowserAdapter) GetUIElements(ctx context.Context) ([]entity.UIElement, error) {
	res, err := b.page.Context(ctx).Timeout(b.timeout).Eval(collectUIElementsJS, uiIDAttr, maxUIElements)
	if err != nil {
		return nil, fmt.Errorf("collect ui elements: %w", err)
	}

	var elements []entity.UIElement
	if err := json.Unmarshal([]byte(res.Value.Str()), &elements); err != nil {
		return nil, fmt.Errorf("decode ui elements: %w", err)
	}
	for i := range elements {
		elements[i].Text = truncate(strings.Join(strings.Fields(elements[i].Text), " "), 120)
		elements[i].Selector = fmt.Sprintf(`[%s="%s"]`, uiIDAttr, elements[i].ID)
	}
	return elements, nil
}

// Screenshot captures the viewport and scales it down to at most 1024px wide.
func (b *BrowserAdapter) Screenshot(ctx context.Context) (*entity.Screenshot, error) {
	raw, err := b.page.Context(ctx).Timeout(b.timeout).Screenshot(false, &proto.PageCaptureScreenshot{
		Format:  proto.PageCaptureScreenshotFormatJpeg,
		Quality: gson.Int(80),
	})
	if err != nil {
		return nil, fmt.Errorf("screenshot failed: %w", err)
	}
	return normalizeScreenshot(raw)
}

func (b *BrowserAdapter) CurrentURL() string {
	info, err := b.page.Info()
	if err != nil {
		return ""
	}
	return info.URL
}

func (b *BrowserAdapter) Close() {
	b.closeOnce.Do(func() {
		if b.browser != nil {
			_ = b.browser.Close()
		}
		if b.launcher != nil {
			b.launcher.Kill()
			b.launcher.Cleanup()
		}
	})
}

func (b *BrowserAdapter) element(ctx context.Context, selector string) (*rod.Element, error) {
	page := b.page.Context(ctx).Timeout(b.timeout)

	var (
		el  *rod.Element
		err error
	)
	if isXPath(selector) {
		el, err = page.ElementX(selector)
	} else {
		el, err = page.Element(selector)
	}
	if err != nil {
		return nil, fmt.Errorf("element not found: %s: %w", selector, err)
	}
	return el.CancelTimeout().Timeout(b.timeout), nil
}

func isXPath(selector string) bool {
	return strings.HasPrefix(selector, "/") || strings.HasPrefix(selector, "(")
}

func normalizeScreenshot(raw []byte) (*entity.Screenshot, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("image decode failed: %w", err)
	}

	if img.Bounds().Dx() > maxScreenshotWidth {
		img = imaging.Resize(img, maxScreenshotWidth, 0, imaging.Lanczos)
	}

	buf := new(bytes.Buffer)
	if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: 75}); err != nil {
		return nil, fmt.Errorf("jpeg encode failed: %w", err)
	}

	return &entity.Screenshot{
		Data:   buf.Bytes(),
		Format: "jpeg",
		Width:  img.Bounds().Dx(),
		Height: img.Bounds().Dy(),
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

const collectUIElementsJS = `(attr, limit) => {
	const query = 'a[href], button, input:not([type=hidden]), textarea, select, [role=button], [role=link], [role=tab], [role=menuitem], [contenteditable=true]';
	const out = [];
	let n = 0;
	for (const el of document.querySelectorAll(query)) {
		if (out.length >= limit) break;
		const rect = el.getBoundingClientRect();
		const style = window.getComputedStyle(el);
		if (rect.width === 0 || rect.height === 0 || style.visibility === 'hidden' || style.display === 'none') continue;
		let id = el.getAttribute(attr);
		if (!id) {
			id = 'ui-' + String(n).padStart(4, '0');
			el.setAttribute(attr, id);
		}
		n++;
		const tag = el.tagName.toLowerCase();
		let type = tag;
		if (tag === 'a') type = 'link';
		else if (tag === 'textarea' || tag === 'select') type = 'input';
		else if (tag !== 'input' && tag !== 'button') type = 'button';
		out.push({
			id: id,
			type: type,
			text: (el.innerText || el.value || el.placeholder || '').trim(),
			aria_label: el.getAttribute('aria-label') || '',
			role: el.getAttribute('role') || '',
			selector: ''
		});
	}
	return JSON.stringify(out);
}`
