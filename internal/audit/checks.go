package audit

import (
	"fmt"
	"strings"
	"time"

	"github.com/nao1215/sitegraph/internal/model"
)

// StatusCheck flags pages whose HTTP fetch failed.
type StatusCheck struct{}

// NewStatusCheck creates a StatusCheck.
func NewStatusCheck() *StatusCheck { return &StatusCheck{} }

// Name returns the check name.
func (c *StatusCheck) Name() string { return "status" }

// Check flags 4xx responses as http_error and 5xx as server_error.
func (c *StatusCheck) Check(page *model.Page) []model.Issue {
	switch {
	case page.StatusCode >= 500:
		return []model.Issue{newIssue(page, "server_error",
			fmt.Sprintf("page returned %d", page.StatusCode), "")}
	case page.StatusCode >= 400:
		return []model.Issue{newIssue(page, "http_error",
			fmt.Sprintf("page returned %d", page.StatusCode), "")}
	}
	return nil
}

// Title length thresholds in characters.
// Search engines truncate titles around 60 characters.
const (
	maxTitleLength = 60
)

// TitleCheck flags missing and overlong titles.
type TitleCheck struct {
	maxLength int
}

// NewTitleCheck creates a TitleCheck with the default length threshold.
func NewTitleCheck() *TitleCheck {
	return &TitleCheck{maxLength: maxTitleLength}
}

// Name returns the check name.
func (c *TitleCheck) Name() string { return "title" }

// Check inspects the page title.
func (c *TitleCheck) Check(page *model.Page) []model.Issue {
	if page.IsError() {
		// Error pages get the status issue; piling title noise on top
		// buries the real problem.
		return nil
	}
	if page.Title == "" {
		return []model.Issue{newIssue(page, "missing_title", "page has no <title>", "")}
	}
	if len(page.Title) > c.maxLength {
		return []model.Issue{newIssue(page, "long_title",
			fmt.Sprintf("title is %d characters (max %d)", len(page.Title), c.maxLength),
			page.Title)}
	}
	return nil
}

// Meta description length threshold in characters.
const maxMetaDescriptionLength = 155

// MetaCheck flags meta description and robots directive problems.
type MetaCheck struct {
	maxDescriptionLength int
}

// NewMetaCheck creates a MetaCheck with default thresholds.
func NewMetaCheck() *MetaCheck {
	return &MetaCheck{maxDescriptionLength: maxMetaDescriptionLength}
}

// Name returns the check name.
func (c *MetaCheck) Name() string { return "meta" }

// Check inspects meta description and robots directives.
func (c *MetaCheck) Check(page *model.Page) []model.Issue {
	if page.IsError() {
		return nil
	}

	issues := make([]model.Issue, 0, 2)
	if page.MetaDescription == "" {
		issues = append(issues, newIssue(page, "missing_meta_description",
			"page has no meta description", ""))
	} else if len(page.MetaDescription) > c.maxDescriptionLength {
		issues = append(issues, newIssue(page, "long_meta_description",
			fmt.Sprintf("meta description is %d characters (max %d)",
				len(page.MetaDescription), c.maxDescriptionLength),
			page.MetaDescription))
	}

	if hasNoindex(page.RobotsMeta) {
		issues = append(issues, newIssue(page, "noindex",
			"page carries a noindex robots directive", page.RobotsMeta))
	}
	return issues
}

// hasNoindex reports whether a robots meta value contains a noindex token.
func hasNoindex(robots string) bool {
	for _, token := range strings.Split(robots, ",") {
		switch strings.ToLower(strings.TrimSpace(token)) {
		case "noindex", "none":
			return true
		}
	}
	return false
}

// HeadingCheck flags missing and duplicated h1 elements.
type HeadingCheck struct{}

// NewHeadingCheck creates a HeadingCheck.
func NewHeadingCheck() *HeadingCheck { return &HeadingCheck{} }

// Name returns the check name.
func (c *HeadingCheck) Name() string { return "headings" }

// Check inspects the h1 count.
func (c *HeadingCheck) Check(page *model.Page) []model.Issue {
	if page.IsError() {
		return nil
	}
	switch {
	case page.H1Count == 0:
		return []model.Issue{newIssue(page, "missing_h1", "page has no <h1>", "")}
	case page.H1Count > 1:
		return []model.Issue{newIssue(page, "multiple_h1",
			fmt.Sprintf("page has %d <h1> elements", page.H1Count), "")}
	}
	return nil
}

// ImageAltCheck flags images without alt text.
type ImageAltCheck struct{}

// NewImageAltCheck creates an ImageAltCheck.
func NewImageAltCheck() *ImageAltCheck { return &ImageAltCheck{} }

// Name returns the check name.
func (c *ImageAltCheck) Name() string { return "images" }

// Check reports the count of images missing alt attributes.
func (c *ImageAltCheck) Check(page *model.Page) []model.Issue {
	if page.IsError() || page.ImagesMissingAlt == 0 {
		return nil
	}
	return []model.Issue{newIssue(page, "image_missing_alt",
		fmt.Sprintf("%d images have no alt text", page.ImagesMissingAlt), "")}
}

// Thin-content threshold in words of visible text.
const minWordCount = 50

// ContentCheck flags pages with very little visible text.
type ContentCheck struct {
	minWords int
}

// NewContentCheck creates a ContentCheck with the default threshold.
func NewContentCheck() *ContentCheck {
	return &ContentCheck{minWords: minWordCount}
}

// Name returns the check name.
func (c *ContentCheck) Name() string { return "content" }

// Check flags thin content.
func (c *ContentCheck) Check(page *model.Page) []model.Issue {
	if page.IsError() {
		return nil
	}
	if page.WordCount > 0 && page.WordCount < c.minWords {
		return []model.Issue{newIssue(page, "thin_content",
			fmt.Sprintf("page has only %d words of visible text", page.WordCount), "")}
	}
	return nil
}

// Response time threshold.
const maxResponseTime = 2 * time.Second

// ResponseTimeCheck flags slow pages.
type ResponseTimeCheck struct {
	threshold time.Duration
}

// NewResponseTimeCheck creates a ResponseTimeCheck with the default threshold.
func NewResponseTimeCheck() *ResponseTimeCheck {
	return &ResponseTimeCheck{threshold: maxResponseTime}
}

// Name returns the check name.
func (c *ResponseTimeCheck) Name() string { return "response_time" }

// Check flags pages slower than the threshold.
func (c *ResponseTimeCheck) Check(page *model.Page) []model.Issue {
	if page.ResponseTime > c.threshold {
		return []model.Issue{newIssue(page, "slow_response",
			fmt.Sprintf("page took %s to respond", page.ResponseTime.Round(time.Millisecond)), "")}
	}
	return nil
}
