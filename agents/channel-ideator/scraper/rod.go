package scraper

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"

	"channel-ideator/shared/config"
)

const (
	scrollToBottomJS = `() => window.scrollTo(0, document.documentElement.scrollHeight)`
	scrollHeightJS   = `() => document.documentElement.scrollHeight`
)

// NewRodLauncher starts a local Chromium through go-rod for every session.
func NewRodLauncher(cfg config.ScraperConfig) Launcher {
	return func(ctx context.Context) (Session, error) {
		l := launcher.New().
			Context(ctx).
			Headless(cfg.Headless).
			Set("no-sandbox").
			Set("disable-dev-shm-usage").
			Set("disable-gpu").
			Set("disable-extensions").
			Set("ignore-certificate-errors").
			Set("window-size", "1920,1080")
		if cfg.BrowserBin != "" {
			l = l.Bin(cfg.BrowserBin)
		}

		controlURL, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}

		browser := rod.New().ControlURL(controlURL).Context(ctx)
		if err := browser.Connect(); err != nil {
			l.Kill()
			return nil, fmt.Errorf("failed to connect to browser: %w", err)
		}

		page, err := browser.Page(proto.TargetCreateTarget{})
		if err != nil {
			_ = browser.Close()
			l.Kill()
			return nil, fmt.Errorf("failed to open page: %w", err)
		}

		return &rodSession{launcher: l, browser: browser, page: page}, nil
	}
}

type rodSession struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

func (s *rodSession) Navigate(ctx context.Context, url string) error {
	page := s.page.Context(ctx)
	if err := page.Navigate(url); err != nil {
		return err
	}
	return page.WaitLoad()
}

func (s *rodSession) Title() string {
	info, err := s.page.Info()
	if err != nil {
		return ""
	}
	return info.Title
}

func (s *rodSession) ScrollToBottom(ctx context.Context) error {
	_, err := s.page.Context(ctx).Eval(scrollToBottomJS)
	return err
}

func (s *rodSession) ScrollHeight(ctx context.Context) (int, error) {
	res, err := s.page.Context(ctx).Eval(scrollHeightJS)
	if err != nil {
		return 0, err
	}
	return res.Value.Int(), nil
}

func (s *rodSession) Cards(ctx context.Context) ([]Element, error) {
	found, err := s.page.Context(ctx).Elements(cardSelector)
	if err != nil {
		return nil, err
	}
	cards := make([]Element, 0, len(found))
	for _, el := range found {
		cards = append(cards, rodElement{el: el})
	}
	return cards, nil
}

func (s *rodSession) Close() error {
	var errs []string
	if err := s.page.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	if err := s.browser.Close(); err != nil {
		errs = append(errs, err.Error())
	}
	s.launcher.Kill()
	s.launcher.Cleanup()

	if len(errs) > 0 {
		return fmt.Errorf("close browser session: %s", strings.Join(errs, "; "))
	}
	return nil
}

// rodElement reads a live node. CDP failures are logged and read as absent.
type rodElement struct {
	el *rod.Element
}

func (r rodElement) Find(selector string) []Element {
	found, err := r.el.Elements(selector)
	if err != nil {
		log.WithError(err).WithField("selector", selector).Debug("Element lookup failed")
		return nil
	}
	out := make([]Element, 0, len(found))
	for _, el := range found {
		out = append(out, rodElement{el: el})
	}
	return out
}

func (r rodElement) Attr(name string) string {
	v, err := r.el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}

func (r rodElement) Text() string {
	text, err := r.el.Text()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
