package scraper

import (
	"regexp"
	"strings"

	log "github.com/sirupsen/logrus"

	"channel-ideator/internal/models"
)

const (
	cardSelector  = "ytd-rich-grid-media"
	youtubeOrigin = "https://www.youtube.com"
	watchPattern  = "/watch?v="

	defaultViews      = "0"
	defaultUploadDate = "Unknown"
)

var (
	viewsLabelRE = regexp.MustCompile(`(?i)views`)
	timestampRE  = regexp.MustCompile(`^\d{1,2}(:\d{2}){1,2}$`)
	bareNumberRE = regexp.MustCompile(`^[\d.,\s]+$`)
)

// titleStrategy and durationStrategy are tried in order until one reports ok.
type (
	titleStrategy    func(card, link Element) (string, bool)
	durationStrategy func(card Element) (string, bool)
)

var titleStrategies = []titleStrategy{
	titleFromAriaLabel,
	titleFromTitleAttr,
	titleFromTitleNodes,
}

var durationStrategies = []durationStrategy{
	durationFromBadge,
	durationFromTimeStatus,
	durationFromAriaLabel,
}

// ExtractVideo reads one video card. It reports false when the card has no watch
// link or no usable title; every other missing field falls back to a default.
func ExtractVideo(card Element) (*models.Video, bool) {
	link, href, ok := watchLink(card)
	if !ok {
		log.Debug("Skipping card without a watch link")
		return nil, false
	}

	title, ok := firstTitle(card, link)
	if !ok {
		log.WithField("url", href).Debug("Skipping card without a title")
		return nil, false
	}

	views, uploadDate := metadataLine(card)

	video := &models.Video{
		Title:        title,
		URL:          href,
		Views:        views,
		UploadDate:   uploadDate,
		Duration:     firstDuration(card),
		ThumbnailURL: thumbnail(card),
	}
	log.Debugf("Found video: %s - %s", video.Title, video.URL)
	return video, true
}

func watchLink(card Element) (Element, string, bool) {
	for _, a := range card.Find("a") {
		href := a.Attr("href")
		if href == "" || !strings.Contains(href, watchPattern) {
			continue
		}
		if !strings.HasPrefix(href, "http") {
			href = youtubeOrigin + href
		}
		return a, href, true
	}
	return nil, "", false
}

func firstTitle(card, link Element) (string, bool) {
	for _, strategy := range titleStrategies {
		if title, ok := strategy(card, link); ok {
			return title, true
		}
	}
	return "", false
}

// Labels read like "Title by Channel 12K views 3 days ago 10 minutes".
func titleFromAriaLabel(_, link Element) (string, bool) {
	label := link.Attr("aria-label")
	if label == "" {
		return "", false
	}
	title, _, _ := strings.Cut(label, " by ")
	title = strings.TrimSpace(title)
	return title, title != ""
}

func titleFromTitleAttr(_, link Element) (string, bool) {
	title := strings.TrimSpace(link.Attr("title"))
	return title, title != ""
}

func titleFromTitleNodes(card, _ Element) (string, bool) {
	for _, node := range card.Find("#video-title, #video-title-link") {
		title := strings.TrimSpace(node.Attr("title"))
		if title == "" {
			title = node.Text()
		}
		if title == "" || looksLikeCounter(title) {
			continue
		}
		return title, true
	}
	return "", false
}

// looksLikeCounter reports text that is a bare number or a timestamp such as "12:03".
func looksLikeCounter(s string) bool {
	return bareNumberRE.MatchString(s) || timestampRE.MatchString(s)
}

func metadataLine(card Element) (views, uploadDate string) {
	views, uploadDate = defaultViews, defaultUploadDate

	line, ok := first(card, "#metadata-line")
	if !ok {
		return views, uploadDate
	}
	for _, item := range line.Find(".inline-metadata-item") {
		text := item.Text()
		lower := strings.ToLower(text)
		switch {
		case strings.Contains(lower, "views"):
			views = strings.TrimSpace(viewsLabelRE.ReplaceAllString(text, ""))
		case strings.Contains(lower, "ago"):
			uploadDate = lower
		}
	}
	return views, uploadDate
}

func firstDuration(card Element) string {
	for _, strategy := range durationStrategies {
		if d, ok := strategy(card); ok {
			return d
		}
	}
	return ""
}

func durationFromBadge(card Element) (string, bool) {
	return textOf(card, ".badge-shape-wiz--thumbnail-badge .badge-shape-wiz__text")
}

func durationFromTimeStatus(card Element) (string, bool) {
	return textOf(card, "ytd-thumbnail-overlay-time-status-renderer")
}

// Labels read like "10 minutes, 3 seconds"; only the leading figure is kept.
func durationFromAriaLabel(card Element) (string, bool) {
	node, ok := first(card, "[aria-label*='minutes'], [aria-label*='seconds']")
	if !ok {
		return "", false
	}
	fields := strings.Fields(node.Attr("aria-label"))
	if len(fields) == 0 {
		return "", false
	}
	return fields[0], true
}

func textOf(card Element, selector string) (string, bool) {
	node, ok := first(card, selector)
	if !ok {
		return "", false
	}
	text := node.Text()
	return text, text != ""
}

func thumbnail(card Element) string {
	img, ok := first(card, "img")
	if !ok {
		return ""
	}
	return img.Attr("src")
}
