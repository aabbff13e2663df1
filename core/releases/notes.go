package releases

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/jakkovanhunen/ucom-sub000/core/editor"
	ucomerrors "github.com/jakkovanhunen/ucom-sub000/core/errors"
)

// NotesTopic is one section of a release-notes page, e.g. "Fixes" or
// "Known Issues".
type NotesTopic struct {
	Header  string
	Entries []string
}

// NotesURL returns the published release-notes page for a version.
// Stable releases are listed by their plain version number; alpha and
// beta builds live on their own stream pages.
func NotesURL(v editor.Version) string {
	switch v.Type {
	case editor.BuildTypeAlpha:
		return fmt.Sprintf("https://unity.com/releases/editor/alpha/%s#notes", v)
	case editor.BuildTypeBeta:
		return fmt.Sprintf("https://unity.com/releases/editor/beta/%s#notes", v)
	case editor.BuildTypeFinalPatch:
		return fmt.Sprintf("https://unity.com/releases/editor/whats-new/%s#notes", v)
	default:
		return fmt.Sprintf("https://unity.com/releases/editor/whats-new/%d.%d.%d#notes", v.Major, v.Minor, v.Patch)
	}
}

// FetchReleaseNotes downloads and parses the notes page for a release.
func (c *Client) FetchReleaseNotes(url string) ([]NotesTopic, error) {
	body, err := c.Cache.Fetch(url)
	if err != nil {
		return nil, err
	}
	topics, err := ParseReleaseNotes(body)
	if err != nil {
		return nil, ucomerrors.NewParse("release-notes", url, "invalid notes page", err)
	}
	return topics, nil
}

// ParseReleaseNotes extracts the topics from a release-notes HTML page.
// The notes live in a .release-notes container where h3/h4 elements
// head a topic and the following ul lists its entries; only the first
// line of each entry is kept.
func ParseReleaseNotes(html []byte) ([]NotesTopic, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, err
	}

	var topics []NotesTopic
	byHeader := make(map[string]int)
	current := -1

	doc.Find(".release-notes").First().Children().Each(func(_ int, node *goquery.Selection) {
		switch goquery.NodeName(node) {
		case "h3", "h4":
			header := strings.TrimSpace(node.Text())
			index, exists := byHeader[header]
			if !exists {
				index = len(topics)
				byHeader[header] = index
				topics = append(topics, NotesTopic{Header: header})
			}
			current = index

		case "ul":
			if current < 0 {
				return
			}
			topic := &topics[current]
			node.Find("li").Each(func(_ int, li *goquery.Selection) {
				line, _, _ := strings.Cut(strings.TrimSpace(li.Text()), "\n")
				if line != "" {
					topic.Entries = append(topic.Entries, strings.TrimSpace(line))
				}
			})
		}
	})

	return topics, nil
}
