package handler

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go-directory-app/internal/cache"
	"go-directory-app/internal/logger"
	"go-directory-app/internal/middleware"
	"go-directory-app/internal/pagegen"
)

const (
	sitemapDateFormat = "2006-01-02"
	sitemapXmlns      = "http://www.sitemaps.org/schemas/sitemap/0.9"
)

// PageLister enumerates the page tree.
type PageLister interface {
	List(ctx context.Context) ([]pagegen.Entry, error)
}

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	pages   PageLister
	cache   RenderCache
	ttl     time.Duration
	baseURL string
	log     logger.Logger
}

// NewSeoHandler creates a new SeoHandler. baseURL is the public origin,
// e.g. https://example.com.
func NewSeoHandler(pages PageLister, c RenderCache, ttl time.Duration, baseURL string, log logger.Logger) *SeoHandler {
	return &SeoHandler{pages: pages, cache: c, ttl: ttl, baseURL: strings.TrimRight(baseURL, "/"), log: log}
}

// robotsHandler serves robots.txt pointing at the sitemap index.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "Disallow: /admin/")
	fmt.Fprintln(w, "")
	fmt.Fprintf(w, "Sitemap: %s%s\n", h.baseURL, pagegen.RootSitemapPath)
}

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapRef struct {
	XMLName xml.Name `xml:"sitemap"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Xmlns    string       `xml:"xmlns,attr"`
	Sitemaps []sitemapRef `xml:"sitemap"`
}

// businessSitemapHandler lists every business and location page.
func (h *SeoHandler) businessSitemapHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.serveCached(w, r, pagegen.SitemapPath, func(ctx context.Context) (interface{}, error) {
		entries, err := h.pages.List(ctx)
		if err != nil {
			return nil, err
		}
		set := urlSet{Xmlns: sitemapXmlns, URLs: make([]sitemapURL, len(entries))}
		for i, e := range entries {
			set.URLs[i] = sitemapURL{
				Loc:     h.baseURL + e.URLPath(),
				LastMod: e.ModTime.UTC().Format(sitemapDateFormat),
			}
		}
		return set, nil
	})
}

// rootSitemapHandler serves the sitemap index.
func (h *SeoHandler) rootSitemapHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	return h.serveCached(w, r, pagegen.RootSitemapPath, func(ctx context.Context) (interface{}, error) {
		entries, err := h.pages.List(ctx)
		if err != nil {
			return nil, err
		}
		var latest time.Time
		for _, e := range entries {
			if e.ModTime.After(latest) {
				latest = e.ModTime
			}
		}
		ref := sitemapRef{Loc: h.baseURL + pagegen.SitemapPath}
		if !latest.IsZero() {
			ref.LastMod = latest.UTC().Format(sitemapDateFormat)
		}
		return sitemapIndex{Xmlns: sitemapXmlns, Sitemaps: []sitemapRef{ref}}, nil
	})
}

// serveCached serves the XML document at path from the render cache,
// building it on a miss. Page writes invalidate both sitemap paths.
func (h *SeoHandler) serveCached(w http.ResponseWriter, r *http.Request, path string, build func(context.Context) (interface{}, error)) *middleware.AppError {
	ctx := r.Context()
	key := cache.RenderKey(path)

	body, err := h.cache.Get(ctx, key)
	if err != nil {
		h.log.Warn("render cache read failed: " + err.Error())
	}
	if body == nil {
		doc, err := build(ctx)
		if err != nil {
			return middleware.FromError(err)
		}
		var buf bytes.Buffer
		buf.WriteString(xml.Header)
		enc := xml.NewEncoder(&buf)
		enc.Indent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return &middleware.AppError{Error: err, Message: "Failed to generate sitemap XML", Code: http.StatusInternalServerError}
		}
		body = buf.Bytes()
		if err := h.cache.Set(ctx, key, body, h.ttl); err != nil {
			h.log.Warn("render cache write failed: " + err.Error())
		}
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Write(body)
	return nil
}
