package web

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type urlset struct {
	XMLName    xml.Name     `xml:"urlset"`
	Xmlns      string       `xml:"xmlns,attr"`
	XmlnsImage string       `xml:"xmlns:image,attr"`
	URLs       []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc   string        `xml:"loc"`
	Image *sitemapImage `xml:"image:image,omitempty"`
}

type sitemapImage struct {
	Loc   string `xml:"image:loc"`
	Title string `xml:"image:title,omitempty"`
}

// sitemap lists the gallery root, every published photo page with its
// largest rendition and every tag page that has published photos.
func (h *Handler) sitemap(w http.ResponseWriter, r *http.Request) {
	entries, tags, err := h.photos.Sitemap(r.Context())
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	base := strings.TrimRight(h.opts.BaseURL, "/")
	set := urlset{
		Xmlns:      "http://www.sitemaps.org/schemas/sitemap/0.9",
		XmlnsImage: "http://www.google.com/schemas/sitemap-image/1.1",
		URLs:       []sitemapURL{{Loc: base + "/"}},
	}

	for _, e := range entries {
		u := sitemapURL{Loc: fmt.Sprintf("%s/photo/%d", base, e.ID)}
		if e.ImageURL != nil {
			u.Image = &sitemapImage{Loc: *e.ImageURL}
			if e.Title != nil {
				u.Image.Title = *e.Title
			}
		}
		set.URLs = append(set.URLs, u)
	}
	for _, t := range tags {
		set.URLs = append(set.URLs, sitemapURL{Loc: base + "/tagged/" + url.PathEscape(t.Tag)})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		h.serverError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	_, _ = w.Write([]byte(xml.Header))
	_, _ = w.Write(out)
}
