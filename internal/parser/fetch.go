package parser

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// sourceMetaName is the meta tag that points an HTML tutorial page at its raw
// Markdown source.
const sourceMetaName = "guiderails:source"

var fetchClient = &http.Client{Timeout: 30 * time.Second}

// ParseURL fetches and parses a tutorial from a URL. An HTML response is
// scanned for a <meta name="guiderails:source"> tag naming the raw Markdown
// file; anything else is treated as Markdown directly.
func (p *Parser) ParseURL(url string) (*Tutorial, error) {
	body, contentType, err := fetch(url)
	if err != nil {
		return nil, err
	}

	if strings.Contains(contentType, "text/html") {
		rawURL := findSourceMeta(bytes.NewReader(body))
		if rawURL == "" {
			return nil, fmt.Errorf("HTML page at %s does not contain a %q meta tag", url, sourceMetaName)
		}
		body, _, err = fetch(rawURL)
		if err != nil {
			return nil, err
		}
		return p.Parse(string(body), rawURL), nil
	}

	return p.Parse(string(body), url), nil
}

func fetch(url string) ([]byte, string, error) {
	resp, err := fetchClient.Get(url)
	if err != nil {
		return nil, "", fmt.Errorf("fetch tutorial: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, "", fmt.Errorf("fetch tutorial: %s returned %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("fetch tutorial: %w", err)
	}
	return body, resp.Header.Get("Content-Type"), nil
}

// findSourceMeta returns the content of the guiderails:source meta tag, or ""
func findSourceMeta(r io.Reader) string {
	doc, err := html.Parse(r)
	if err != nil {
		return ""
	}

	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.Data == "meta" {
			var name, content string
			for _, a := range n.Attr {
				switch a.Key {
				case "name":
					name = a.Val
				case "content":
					content = a.Val
				}
			}
			if name == sourceMetaName && content != "" {
				return content
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if found := walk(c); found != "" {
				return found
			}
		}
		return ""
	}
	return walk(doc)
}
