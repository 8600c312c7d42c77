package shortlink

import (
	"fmt"
	"testing"
)

func TestRecordAndClickCountAgree(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db, "https://wheredjsplay.com")
	analytics := NewAnalytics(db)
	article := createTestArticle(t, db, "Warehouse Party Recap")

	link, err := registry.Generate(article.ID, UTMParams{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	const clicks = 7
	referrer := "https://twitter.com/wheredjsplay"
	for i := 0; i < clicks; i++ {
		ip := fmt.Sprintf("198.51.100.%d", i%3)
		if err := analytics.Record(link.ID, ip, "test-agent", &referrer, nil, nil); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	count, err := analytics.ClickCount(link.ID)
	if err != nil {
		t.Fatalf("ClickCount: %v", err)
	}
	if count != clicks {
		t.Errorf("click count = %d, want %d", count, clicks)
	}
}

func TestArticleSummaryDerivedFromEventLog(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db, "https://wheredjsplay.com")
	analytics := NewAnalytics(db)
	article := createTestArticle(t, db, "Detroit Legends Interview")

	link, err := registry.Generate(article.ID, UTMParams{Source: "newsletter"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	ips := []string{"203.0.113.1", "203.0.113.2", "203.0.113.1"}
	for _, ip := range ips {
		if err := analytics.Record(link.ID, ip, "agent", nil, nil, nil); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	summaries, err := analytics.ArticleSummary(article.ID, 30)
	if err != nil {
		t.Fatalf("ArticleSummary: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("summaries = %d, want 1", len(summaries))
	}

	s := summaries[0]
	if s.TotalClicks != 3 {
		t.Errorf("total clicks = %d, want 3", s.TotalClicks)
	}
	if s.UniqueVisitors != 2 {
		t.Errorf("unique visitors = %d, want 2", s.UniqueVisitors)
	}
	if s.ClicksInPeriod != 3 {
		t.Errorf("clicks in period = %d, want 3", s.ClicksInPeriod)
	}
	if s.ShortSlug != link.ShortSlug {
		t.Errorf("short slug = %q, want %q", s.ShortSlug, link.ShortSlug)
	}
}

func TestArticleReferrersSkipsEmpty(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db, "https://wheredjsplay.com")
	analytics := NewAnalytics(db)
	article := createTestArticle(t, db, "Festival Lineup Drop")

	link, err := registry.Generate(article.ID, UTMParams{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	twitter := "https://twitter.com/x"
	reddit := "https://reddit.com/r/techno"
	analytics.Record(link.ID, "203.0.113.1", "agent", &twitter, nil, nil)
	analytics.Record(link.ID, "203.0.113.2", "agent", &twitter, nil, nil)
	analytics.Record(link.ID, "203.0.113.3", "agent", &reddit, nil, nil)
	analytics.Record(link.ID, "203.0.113.4", "agent", nil, nil, nil)

	referrers, err := analytics.ArticleReferrers(article.ID, 10)
	if err != nil {
		t.Fatalf("ArticleReferrers: %v", err)
	}
	if len(referrers) != 2 {
		t.Fatalf("referrers = %d, want 2 (nil referrer excluded)", len(referrers))
	}
	if referrers[0].Referrer != twitter || referrers[0].Clicks != 2 {
		t.Errorf("top referrer = %+v, want twitter with 2 clicks", referrers[0])
	}
}

func TestUTMBreakdownGroupsByLinkParams(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db, "https://wheredjsplay.com")
	analytics := NewAnalytics(db)

	a1 := createTestArticle(t, db, "First Story")
	a2 := createTestArticle(t, db, "Second Story")

	l1, err := registry.Generate(a1.ID, UTMParams{Source: "twitter", Medium: "social"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	l2, err := registry.Generate(a2.ID, UTMParams{Source: "newsletter", Medium: "email"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	analytics.Record(l1.ID, "203.0.113.1", "agent", nil, nil, nil)
	analytics.Record(l1.ID, "203.0.113.2", "agent", nil, nil, nil)
	analytics.Record(l2.ID, "203.0.113.3", "agent", nil, nil, nil)

	// Zero article ID means sitewide.
	all, err := analytics.UTMBreakdown(0, 30)
	if err != nil {
		t.Fatalf("UTMBreakdown: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("sitewide groups = %d, want 2", len(all))
	}
	if all[0].UTMSource != "twitter" || all[0].Clicks != 2 {
		t.Errorf("top group = %+v, want twitter with 2 clicks", all[0])
	}

	scoped, err := analytics.UTMBreakdown(a2.ID, 30)
	if err != nil {
		t.Fatalf("UTMBreakdown scoped: %v", err)
	}
	if len(scoped) != 1 || scoped[0].UTMSource != "newsletter" {
		t.Errorf("scoped breakdown = %+v, want only newsletter", scoped)
	}
}

func TestDashboardStats(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db, "https://wheredjsplay.com")
	analytics := NewAnalytics(db)
	article := createTestArticle(t, db, "Closing Set Review")

	link, err := registry.Generate(article.ID, UTMParams{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	country := "Germany"
	analytics.Record(link.ID, "203.0.113.1", "agent", nil, &country, nil)
	analytics.Record(link.ID, "203.0.113.2", "agent", nil, &country, nil)

	dash, err := analytics.DashboardStats(30)
	if err != nil {
		t.Fatalf("DashboardStats: %v", err)
	}

	if dash.Totals.TotalClicks != 2 {
		t.Errorf("total clicks = %d, want 2", dash.Totals.TotalClicks)
	}
	if dash.Totals.UniqueVisitors != 2 {
		t.Errorf("unique visitors = %d, want 2", dash.Totals.UniqueVisitors)
	}
	if dash.Totals.ArticlesWithClicks != 1 {
		t.Errorf("articles with clicks = %d, want 1", dash.Totals.ArticlesWithClicks)
	}
	if len(dash.TopArticles) != 1 || dash.TopArticles[0].ID != article.ID {
		t.Errorf("top articles = %+v", dash.TopArticles)
	}
	if len(dash.GeoData) != 1 || dash.GeoData[0].Clicks != 2 {
		t.Errorf("geo data = %+v", dash.GeoData)
	}
	if len(dash.DailyTrend) != 1 || dash.DailyTrend[0].Clicks != 2 {
		t.Errorf("daily trend = %+v", dash.DailyTrend)
	}
}

func TestDetailedClicksPagination(t *testing.T) {
	db := newTestDB(t)
	registry := NewRegistry(db, "https://wheredjsplay.com")
	analytics := NewAnalytics(db)
	article := createTestArticle(t, db, "Paginated Story")

	link, err := registry.Generate(article.ID, UTMParams{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	for i := 0; i < 5; i++ {
		analytics.Record(link.ID, fmt.Sprintf("203.0.113.%d", i), "agent", nil, nil, nil)
	}

	rows, total, err := analytics.DetailedClicks(30, 1, 3)
	if err != nil {
		t.Fatalf("DetailedClicks: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(rows) != 3 {
		t.Errorf("page rows = %d, want 3", len(rows))
	}
	if rows[0].ArticleTitle != article.Title {
		t.Errorf("article title = %q, want %q", rows[0].ArticleTitle, article.Title)
	}

	rows2, _, err := analytics.DetailedClicks(30, 2, 3)
	if err != nil {
		t.Fatalf("DetailedClicks page 2: %v", err)
	}
	if len(rows2) != 2 {
		t.Errorf("second page rows = %d, want 2", len(rows2))
	}
}
