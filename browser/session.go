package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

var (
	// ErrDriverUnavailable means the browser process could not be started.
	// It is fatal to the session, never retried internally.
	ErrDriverUnavailable = errors.New("browser driver unavailable")

	// ErrNotFound means a selector matched nothing within the configured
	// wait timeout. Callers treat it as an expected result, not a fault.
	ErrNotFound = errors.New("element not found")
)

// Element is one located DOM node, bound to the session that found it.
type Element interface {
	// Find waits for the first descendant matching selector.
	Find(selector string) (Element, error)
	// FindAll returns all matching descendants without waiting; the
	// result may be empty.
	FindAll(selector string) ([]Element, error)
	Click() error
	Text() (string, error)
	// Attr returns the attribute value and whether it is set.
	Attr(name string) (string, bool)
}

// Session drives one browser instance. Implementations are not safe for
// use from multiple goroutines; each monitoring loop owns its own.
type Session interface {
	Navigate(url string) error
	Find(selector string) (Element, error)
	FindAll(selector string) ([]Element, error)
	// AcceptDialog reports whether a native dialog was dismissed since
	// the last call. Chrome sessions accept dialogs as they appear, so
	// this is a confirmation step, never a blocking one.
	AcceptDialog() bool
	Close() error
}

// Options configures a Chrome session.
type Options struct {
	Headless    bool
	ExecPath    string
	PageTimeout time.Duration // navigation allowance
	WaitTimeout time.Duration // element presence wait
}

// Chrome is the chromedp-backed Session.
type Chrome struct {
	ctx         context.Context
	cancel      context.CancelFunc
	cancelAlloc context.CancelFunc
	pageTimeout time.Duration
	waitTimeout time.Duration
	dialogs     atomic.Int32
	closeOnce   sync.Once
}

// Open starts a browser process and returns a ready Session. The session
// is registered for forced cleanup at shutdown; Close unregisters it.
func Open(opts Options) (*Chrome, error) {
	if opts.PageTimeout <= 0 {
		opts.PageTimeout = 30 * time.Second
	}
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = 12 * time.Second
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.UserAgent("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 "+
			"(KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"),
	)
	if bin := findBrowserBinary(opts.ExecPath); bin != "" {
		execOpts = append(execOpts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), execOpts...)

	// Suppress chromedp log noise
	ctx, cancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))

	c := &Chrome{
		ctx:         ctx,
		cancel:      cancel,
		cancelAlloc: cancelAlloc,
		pageTimeout: opts.PageTimeout,
		waitTimeout: opts.WaitTimeout,
	}

	// Native confirmation dialogs (cart replace/remove prompts) are
	// accepted as they appear, otherwise the protocol blocks.
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		if _, ok := ev.(*page.EventJavascriptDialogOpening); ok {
			c.dialogs.Add(1)
			go func() {
				_ = chromedp.Run(ctx, page.HandleJavaScriptDialog(true))
			}()
		}
	})

	if err := chromedp.Run(ctx); err != nil {
		cancel()
		cancelAlloc()
		return nil, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}

	Register(c)
	return c, nil
}

// Navigate loads url, waiting for the page load event within the
// navigation allowance.
func (c *Chrome) Navigate(url string) error {
	tctx, cancel := context.WithTimeout(c.ctx, c.pageTimeout)
	defer cancel()

	if err := chromedp.Run(tctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Find waits up to the element wait timeout for the first node matching
// selector anywhere in the document.
func (c *Chrome) Find(selector string) (Element, error) {
	return c.find(selector, nil)
}

// FindAll returns every node currently matching selector, without waiting.
func (c *Chrome) FindAll(selector string) ([]Element, error) {
	return c.findAll(selector, nil)
}

// AcceptDialog reports and clears the dialog-seen flag.
func (c *Chrome) AcceptDialog() bool {
	return c.dialogs.Swap(0) > 0
}

// Close shuts down the browser process. It is idempotent and always
// unregisters the session.
func (c *Chrome) Close() error {
	c.closeOnce.Do(func() {
		Unregister(c)
		c.cancel()
		c.cancelAlloc()
	})
	return nil
}

func (c *Chrome) find(selector string, scope *cdp.Node) (Element, error) {
	tctx, cancel := context.WithTimeout(c.ctx, c.waitTimeout)
	defer cancel()

	var nodes []*cdp.Node
	queryOpts := []chromedp.QueryOption{chromedp.ByQuery}
	if scope != nil {
		queryOpts = append(queryOpts, chromedp.FromNode(scope))
	}

	err := chromedp.Run(tctx, chromedp.Nodes(selector, &nodes, queryOpts...))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %q: %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, ErrNotFound
	}
	return &chromeElement{c: c, node: nodes[0]}, nil
}

func (c *Chrome) findAll(selector string, scope *cdp.Node) ([]Element, error) {
	tctx, cancel := context.WithTimeout(c.ctx, c.waitTimeout)
	defer cancel()

	var nodes []*cdp.Node
	queryOpts := []chromedp.QueryOption{chromedp.ByQueryAll, chromedp.AtLeast(0)}
	if scope != nil {
		queryOpts = append(queryOpts, chromedp.FromNode(scope))
	}

	err := chromedp.Run(tctx, chromedp.Nodes(selector, &nodes, queryOpts...))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, nil
		}
		return nil, fmt.Errorf("find all %q: %w", selector, err)
	}

	els := make([]Element, 0, len(nodes))
	for _, n := range nodes {
		els = append(els, &chromeElement{c: c, node: n})
	}
	return els, nil
}

type chromeElement struct {
	c    *Chrome
	node *cdp.Node
}

func (e *chromeElement) Find(selector string) (Element, error) {
	return e.c.find(selector, e.node)
}

func (e *chromeElement) FindAll(selector string) ([]Element, error) {
	return e.c.findAll(selector, e.node)
}

func (e *chromeElement) Click() error {
	tctx, cancel := context.WithTimeout(e.c.ctx, e.c.waitTimeout)
	defer cancel()

	ids := []cdp.NodeID{e.node.NodeID}
	if err := chromedp.Run(tctx, chromedp.Click(ids, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("click node %d: %w", e.node.NodeID, err)
	}
	return nil
}

func (e *chromeElement) Text() (string, error) {
	tctx, cancel := context.WithTimeout(e.c.ctx, e.c.waitTimeout)
	defer cancel()

	var text string
	ids := []cdp.NodeID{e.node.NodeID}
	if err := chromedp.Run(tctx, chromedp.Text(ids, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("read text of node %d: %w", e.node.NodeID, err)
	}
	return text, nil
}

func (e *chromeElement) Attr(name string) (string, bool) {
	v := e.node.AttributeValue(name)
	return v, v != ""
}

// findBrowserBinary locates a Chrome/Chromium binary.
func findBrowserBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}

	paths := []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/google-chrome",
		"/usr/bin/chromium-browser",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
