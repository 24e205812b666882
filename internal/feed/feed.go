// Package feed writes the RSS 2.0 feed of a collection.
package feed

import (
	"bytes"
	"cmp"
	"encoding/xml"
	"fmt"
	"html"
	"net/mail"
	"strings"
	"time"

	"git.home.luguber.info/inful/blogbuilder/internal/content"
	"git.home.luguber.info/inful/blogbuilder/internal/permalink"
	"git.home.luguber.info/inful/blogbuilder/internal/version"
)

// Channel describes the feed itself.
type Channel struct {
	Title       string
	Link        string
	Description string
	Language    string
	Author      string
	SelfURL     string
	BuildDate   time.Time
}

// Item is one feed entry.
type Item struct {
	Title       string
	Link        string
	GUID        string
	Description string
	Content     string
	Author      string
	PubDate     time.Time
	Categories  []string
}

// Generator renders feeds.
type Generator struct {
	generator string
}

// NewGenerator returns a Generator tagging feeds with the running version.
func NewGenerator() *Generator {
	return &Generator{generator: "blogbuilder/" + version.Version}
}

// ChannelFromSite builds the channel from the merged site context.
func ChannelFromSite(site map[string]any, feedPath string) Channel {
	siteURL := stringValue(site, "site_url")
	return Channel{
		Title:       stringValue(site, "title"),
		Link:        permalink.AbsURL(siteURL, "/"),
		Description: stringValue(site, "description"),
		Language:    stringValue(site, "language"),
		Author:      stringValue(site, "author"),
		SelfURL:     permalink.AbsURL(siteURL, feedPath),
	}
}

// ItemsFromFiles converts up to limit collection entries into feed items.
// Links and GUIDs are absolute permalinks.
func ItemsFromFiles(files []*content.File, siteURL, defaultAuthor string, limit int) []Item {
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	items := make([]Item, 0, len(files))
	for _, f := range files {
		link := permalink.AbsURL(siteURL, f.Permalink)
		items = append(items, Item{
			Title:       cmp.Or(f.Meta.Title, f.Basename()),
			Link:        link,
			GUID:        link,
			Description: cmp.Or(f.Meta.Description, string(f.Excerpt)),
			Content:     string(f.HTML),
			Author:      cmp.Or(f.Meta.Author, defaultAuthor),
			PubDate:     f.Meta.Date,
			Categories:  f.Meta.Tags,
		})
	}
	return items
}

// Render writes the feed document.
func (g *Generator) Render(ch Channel, items []Item) []byte {
	var buf bytes.Buffer

	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/" xmlns:atom="http://www.w3.org/2005/Atom" xmlns:dc="http://purl.org/dc/elements/1.1/">`)
	buf.WriteString("\n  <channel>\n")

	g.writeElement(&buf, "title", ch.Title, 4)
	g.writeElement(&buf, "link", ch.Link, 4)
	g.writeElement(&buf, "description", cmp.Or(ch.Description, ch.Title), 4)
	if ch.SelfURL != "" {
		buf.WriteString(fmt.Sprintf("    <atom:link href=\"%s\" rel=\"self\" type=\"application/rss+xml\" />\n",
			html.EscapeString(ch.SelfURL)))
	}

	lastBuildDate := ch.BuildDate
	if len(items) > 0 && !items[0].PubDate.IsZero() {
		lastBuildDate = items[0].PubDate
	}
	if !lastBuildDate.IsZero() {
		g.writeElement(&buf, "lastBuildDate", lastBuildDate.Format(time.RFC1123Z), 4)
	}
	g.writeElement(&buf, "generator", g.generator, 4)
	g.writeElement(&buf, "language", ch.Language, 4)
	g.writePerson(&buf, "managingEditor", ch.Author, 4)

	for _, item := range items {
		g.writeItem(&buf, item)
	}

	buf.WriteString("  </channel>\n</rss>\n")
	return buf.Bytes()
}

func (g *Generator) writeItem(buf *bytes.Buffer, item Item) {
	buf.WriteString("    <item>\n")

	g.writeElement(buf, "title", item.Title, 6)
	g.writeElement(buf, "link", item.Link, 6)
	if item.GUID != "" {
		buf.WriteString(fmt.Sprintf("      <guid isPermaLink=\"%t\">", isURL(item.GUID)))
		_ = xml.EscapeText(buf, []byte(item.GUID))
		buf.WriteString("</guid>\n")
	}
	g.writeElement(buf, "description", item.Description, 6)

	if item.Content != "" {
		buf.WriteString("      <content:encoded><![CDATA[")
		buf.WriteString(escapeCDATA(item.Content))
		buf.WriteString("]]></content:encoded>\n")
	}

	if !item.PubDate.IsZero() {
		g.writeElement(buf, "pubDate", item.PubDate.Format(time.RFC1123Z), 6)
	}
	g.writePerson(buf, "author", item.Author, 6)
	for _, category := range item.Categories {
		g.writeElement(buf, "category", category, 6)
	}

	buf.WriteString("    </item>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}
	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	_ = xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// writePerson writes an RSS person element, which must carry an email
// address. Bare names go to dc:creator instead.
func (g *Generator) writePerson(buf *bytes.Buffer, tag, person string, indent int) {
	if person == "" {
		return
	}
	if email, ok := rssEmail(person); ok {
		g.writeElement(buf, tag, email, indent)
		return
	}
	g.writeElement(buf, "dc:creator", person, indent)
}

// rssEmail formats an address as "jane@example.com (Jane Doe)".
func rssEmail(s string) (string, bool) {
	addr, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return "", false
	}
	if addr.Name == "" {
		return addr.Address, true
	}
	return addr.Address + " (" + addr.Name + ")", true
}

// escapeCDATA splits any "]]>" so the content cannot close the section early.
func escapeCDATA(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

func stringValue(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}
