// Package upstreamtest provides an in-process fake of the feed and detail services for tests.
package upstreamtest

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonathan/wins-exporter/internal/feed"
)

// Project is one win served by the fake feed, together with its detail page.
type Project struct {
	Slug       string
	Name       string
	Chain      string
	Picked     time.Time
	MintDate   *time.Time // Carried on the feed item when set
	WLPrice    string     // Carried on the feed item when set
	TwitterURL string     // Carried on the feed item when set

	// Detail is the JSON placed in the page's data island. Empty serves a page without one.
	Detail string
	// DetailStatus overrides the detail response status when non-zero.
	DetailStatus int
}

// Upstream is a running fake. Projects are served in slice order, which callers keep newest first.
type Upstream struct {
	*httptest.Server
	Token string

	mu          sync.Mutex
	projects    []Project
	feedPages   []int
	detailCalls map[string]int
}

// New starts a fake upstream that accepts token as the session cookie. It is closed with t.
func New(t testing.TB, token string, projects []Project) *Upstream {
	t.Helper()
	u := &Upstream{Token: token, projects: projects, detailCalls: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/projects", u.handleFeed)
	mux.HandleFunc("/_/", u.handleDetail)
	u.Server = httptest.NewServer(mux)
	t.Cleanup(u.Close)
	return u
}

// FeedPages returns the page numbers requested so far, in order.
func (u *Upstream) FeedPages() []int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]int(nil), u.feedPages...)
}

// DetailCalls returns how often the detail page for slug was requested.
func (u *Upstream) DetailCalls(slug string) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.detailCalls[slug]
}

func (u *Upstream) handleFeed(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(feed.SessionCookieName)
	if err != nil || cookie.Value != u.Token {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("pageNum"))
	size, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if size <= 0 {
		size = feed.PageSize
	}

	u.mu.Lock()
	u.feedPages = append(u.feedPages, page)
	u.mu.Unlock()

	start := min(page*size, len(u.projects))
	end := min(start+size, len(u.projects))

	items := make([]map[string]any, 0, end-start)
	for _, p := range u.projects[start:end] {
		items = append(items, feedItem(p))
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(items)
}

func feedItem(p Project) map[string]any {
	projectData := map[string]any{"name": p.Name}
	if p.MintDate != nil {
		projectData["mintDate"] = p.MintDate.UnixMilli()
	}
	if p.WLPrice != "" {
		projectData["wlPrice"] = p.WLPrice
	}
	if p.TwitterURL != "" {
		projectData["twitterUrl"] = p.TwitterURL
	}

	item := map[string]any{
		"picked":      p.Picked.UnixMilli(),
		"blockchain":  p.Chain,
		"projectData": projectData,
	}
	if p.Slug != "" {
		item["slug"] = p.Slug
	}
	return item
}

func (u *Upstream) handleDetail(w http.ResponseWriter, r *http.Request) {
	slug := strings.TrimPrefix(r.URL.Path, "/_/")

	u.mu.Lock()
	u.detailCalls[slug]++
	var project *Project
	for i := range u.projects {
		if u.projects[i].Slug == slug {
			project = &u.projects[i]
			break
		}
	}
	u.mu.Unlock()

	if project == nil {
		http.NotFound(w, r)
		return
	}
	if project.DetailStatus != 0 {
		w.WriteHeader(project.DetailStatus)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if project.Detail == "" {
		_, _ = fmt.Fprintf(w, "<html><body><h1>%s</h1></body></html>", html.EscapeString(project.Name))
		return
	}
	_, _ = fmt.Fprintf(w,
		`<html><head><title>%s</title></head><body><div id="__next"></div><script id="__NEXT_DATA__" type="application/json">%s</script></body></html>`,
		html.EscapeString(project.Name), project.Detail,
	)
}
