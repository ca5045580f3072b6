package services

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"time"

	"blogfolio/pkg/models"
)

type sitemapURL struct {
	Loc      string  `xml:"loc"`
	Priority float64 `xml:"priority"`
}

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// BuildSitemap lists the home page, the blog index and every published
// article.
func BuildSitemap(siteURL string, published []models.Article) ([]byte, error) {
	set := sitemapURLSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs: []sitemapURL{
			{Loc: siteURL + "/", Priority: 1.0},
			{Loc: siteURL + "/blogs/", Priority: 0.8},
		},
	}
	for _, a := range published {
		set.URLs = append(set.URLs, sitemapURL{Loc: siteURL + "/blogs/" + a.Slug, Priority: 0.7})
	}
	return marshalXML(set)
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	GUID        string `xml:"guid"`
	Description string `xml:"description,omitempty"`
	Author      string `xml:"author,omitempty"`
	PubDate     string `xml:"pubDate,omitempty"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// BuildRSS renders published articles as an RSS 2.0 feed.
func BuildRSS(siteURL, title string, published []models.Article) ([]byte, error) {
	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       title,
			Link:        siteURL + "/blogs/",
			Description: fmt.Sprintf("Latest posts from %s", title),
		},
	}
	for _, a := range published {
		item := rssItem{
			Title:       a.Title,
			Link:        siteURL + "/blogs/" + a.Slug,
			GUID:        siteURL + "/blogs/" + a.Slug,
			Description: a.Description,
			Author:      a.Author,
		}
		if item.Description == "" {
			item.Description = a.Excerpt
		}
		if t, ok := parseArticleDate(a.Date); ok {
			item.PubDate = t.Format(time.RFC1123Z)
		}
		feed.Channel.Items = append(feed.Channel.Items, item)
	}
	return marshalXML(feed)
}

func marshalXML(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	buf.WriteString("\n")
	return buf.Bytes(), nil
}
