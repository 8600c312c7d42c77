package shortlink

import (
	"time"

	"gorm.io/gorm"

	"wheredjsplay_backend/internal/model"
)

// Analytics is the append-and-aggregate side of the click log. Writes never
// validate beyond the short link reference; reads group the raw events by
// day, referrer, geography or UTM set over a trailing window of days.
type Analytics struct {
	db *gorm.DB
}

func NewAnalytics(db *gorm.DB) *Analytics {
	return &Analytics{db: db}
}

// Record appends one immutable click event.
func (a *Analytics) Record(shortLinkID uint, ip, userAgent string, referrer, country, city *string) error {
	event := model.ClickEvent{
		ShortLinkID: shortLinkID,
		IPAddress:   ip,
		UserAgent:   userAgent,
		Referrer:    referrer,
		Country:     country,
		City:        city,
		ClickedAt:   time.Now(),
	}
	return a.db.Create(&event).Error
}

// ClickCount counts the raw events for one short link.
func (a *Analytics) ClickCount(shortLinkID uint) (int64, error) {
	var count int64
	err := a.db.Model(&model.ClickEvent{}).
		Where("short_link_id = ?", shortLinkID).
		Count(&count).Error
	return count, err
}

func cutoff(periodDays int) time.Time {
	if periodDays <= 0 {
		periodDays = 30
	}
	return time.Now().AddDate(0, 0, -periodDays)
}

type LinkSummary struct {
	ArticleID      uint       `json:"article_id"`
	ArticleTitle   string     `json:"article_title"`
	ArticleSlug    string     `json:"article_slug"`
	ShortSlug      string     `json:"short_slug"`
	TotalClicks    int64      `json:"total_clicks"`
	UniqueVisitors int64      `json:"unique_visitors"`
	ActiveDays     int64      `json:"active_days"`
	FirstClicked   *time.Time `json:"first_clicked"`
	LastClicked    *time.Time `json:"last_clicked"`
	ClicksInPeriod int64      `json:"clicks_in_period"`
}

// ArticleSummary aggregates per short link of one article.
func (a *Analytics) ArticleSummary(articleID uint, periodDays int) ([]LinkSummary, error) {
	var rows []LinkSummary
	err := a.db.Raw(`
        SELECT
            sl.article_id,
            ar.title AS article_title,
            ar.slug AS article_slug,
            sl.short_slug,
            COUNT(la.id) AS total_clicks,
            COUNT(DISTINCT la.ip_address) AS unique_visitors,
            COUNT(DISTINCT DATE(la.clicked_at)) AS active_days,
            MIN(la.clicked_at) AS first_clicked,
            MAX(la.clicked_at) AS last_clicked,
            COUNT(CASE WHEN la.clicked_at >= ? THEN 1 END) AS clicks_in_period
        FROM short_links sl
        LEFT JOIN link_analytics la ON sl.id = la.short_link_id
        JOIN articles ar ON sl.article_id = ar.id
        WHERE sl.article_id = ?
        GROUP BY sl.article_id, ar.title, ar.slug, sl.short_slug
        ORDER BY clicks_in_period DESC
    `, cutoff(periodDays), articleID).Scan(&rows).Error
	return rows, err
}

type ReferrerStat struct {
	Referrer       string `json:"referrer"`
	Clicks         int64  `json:"clicks"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// ArticleReferrers lists the top referrers across one article's links.
func (a *Analytics) ArticleReferrers(articleID uint, limit int) ([]ReferrerStat, error) {
	var rows []ReferrerStat
	err := a.db.Raw(`
        SELECT
            la.referrer,
            COUNT(la.id) AS clicks,
            COUNT(DISTINCT la.ip_address) AS unique_visitors
        FROM short_links sl
        JOIN link_analytics la ON sl.id = la.short_link_id
        WHERE sl.article_id = ?
          AND la.referrer IS NOT NULL
          AND la.referrer != ''
        GROUP BY la.referrer
        ORDER BY clicks DESC
        LIMIT ?
    `, articleID, limit).Scan(&rows).Error
	return rows, err
}

type DailyStat struct {
	Date           string `json:"date"`
	Clicks         int64  `json:"clicks"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// ArticleDailyClicks groups one article's clicks by day over the window.
func (a *Analytics) ArticleDailyClicks(articleID uint, periodDays int) ([]DailyStat, error) {
	var rows []DailyStat
	err := a.db.Raw(`
        SELECT
            DATE(la.clicked_at) AS date,
            COUNT(la.id) AS clicks,
            COUNT(DISTINCT la.ip_address) AS unique_visitors
        FROM short_links sl
        JOIN link_analytics la ON sl.id = la.short_link_id
        WHERE sl.article_id = ?
          AND la.clicked_at >= ?
        GROUP BY DATE(la.clicked_at)
        ORDER BY date DESC
    `, articleID, cutoff(periodDays)).Scan(&rows).Error
	return rows, err
}

type GeoStat struct {
	Country        *string `json:"country"`
	City           *string `json:"city"`
	Clicks         int64   `json:"clicks"`
	UniqueVisitors int64   `json:"unique_visitors"`
}

// ArticleGeo groups one article's clicks by resolved country.
func (a *Analytics) ArticleGeo(articleID uint, periodDays int, limit int) ([]GeoStat, error) {
	var rows []GeoStat
	err := a.db.Raw(`
        SELECT
            la.country,
            COUNT(la.id) AS clicks,
            COUNT(DISTINCT la.ip_address) AS unique_visitors
        FROM short_links sl
        JOIN link_analytics la ON sl.id = la.short_link_id
        WHERE sl.article_id = ?
          AND la.clicked_at >= ?
          AND la.country IS NOT NULL
        GROUP BY la.country
        ORDER BY clicks DESC
        LIMIT ?
    `, articleID, cutoff(periodDays), limit).Scan(&rows).Error
	return rows, err
}

type UTMStat struct {
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	Clicks      int64  `json:"clicks"`
}

// UTMBreakdown groups clicks by the UTM triple stored on the short link.
// articleID of zero means all articles.
func (a *Analytics) UTMBreakdown(articleID uint, periodDays int) ([]UTMStat, error) {
	q := a.db.Model(&model.ClickEvent{}).
		Select("sl.utm_source, sl.utm_medium, sl.utm_campaign, COUNT(link_analytics.id) AS clicks").
		Joins("JOIN short_links sl ON link_analytics.short_link_id = sl.id").
		Where("link_analytics.clicked_at >= ?", cutoff(periodDays)).
		Group("sl.utm_source, sl.utm_medium, sl.utm_campaign").
		Order("clicks DESC")
	if articleID != 0 {
		q = q.Where("sl.article_id = ?", articleID)
	}

	var rows []UTMStat
	err := q.Scan(&rows).Error
	return rows, err
}

type DashboardTotals struct {
	TotalClicks        int64 `json:"total_clicks"`
	UniqueVisitors     int64 `json:"unique_visitors"`
	ArticlesWithClicks int64 `json:"articles_with_clicks"`
}

type ArticleClicks struct {
	ID             uint   `json:"id"`
	Title          string `json:"title"`
	Slug           string `json:"slug"`
	Clicks         int64  `json:"clicks"`
	UniqueVisitors int64  `json:"unique_visitors"`
}

// Dashboard aggregates across every short link for the admin dashboard.
type Dashboard struct {
	Totals       DashboardTotals `json:"totals"`
	TopArticles  []ArticleClicks `json:"top_articles"`
	TopReferrers []ReferrerStat  `json:"top_referrers"`
	DailyTrend   []DailyStat     `json:"daily_trend"`
	GeoData      []GeoStat       `json:"geo_data"`
}

func (a *Analytics) DashboardStats(periodDays int) (*Dashboard, error) {
	since := cutoff(periodDays)
	var out Dashboard

	err := a.db.Raw(`
        SELECT
            COUNT(la.id) AS total_clicks,
            COUNT(DISTINCT la.ip_address) AS unique_visitors,
            COUNT(DISTINCT sl.article_id) AS articles_with_clicks
        FROM link_analytics la
        JOIN short_links sl ON la.short_link_id = sl.id
        WHERE la.clicked_at >= ?
    `, since).Scan(&out.Totals).Error
	if err != nil {
		return nil, err
	}

	err = a.db.Raw(`
        SELECT
            ar.id, ar.title, ar.slug,
            COUNT(la.id) AS clicks,
            COUNT(DISTINCT la.ip_address) AS unique_visitors
        FROM articles ar
        JOIN short_links sl ON ar.id = sl.article_id
        JOIN link_analytics la ON sl.id = la.short_link_id
        WHERE la.clicked_at >= ?
        GROUP BY ar.id, ar.title, ar.slug
        ORDER BY clicks DESC
        LIMIT 10
    `, since).Scan(&out.TopArticles).Error
	if err != nil {
		return nil, err
	}

	err = a.db.Raw(`
        SELECT
            referrer,
            COUNT(*) AS clicks,
            COUNT(DISTINCT ip_address) AS unique_visitors
        FROM link_analytics
        WHERE clicked_at >= ?
          AND referrer IS NOT NULL
          AND referrer != ''
        GROUP BY referrer
        ORDER BY clicks DESC
        LIMIT 10
    `, since).Scan(&out.TopReferrers).Error
	if err != nil {
		return nil, err
	}

	err = a.db.Raw(`
        SELECT
            DATE(clicked_at) AS date,
            COUNT(*) AS clicks,
            COUNT(DISTINCT ip_address) AS unique_visitors
        FROM link_analytics
        WHERE clicked_at >= ?
        GROUP BY DATE(clicked_at)
        ORDER BY date DESC
    `, since).Scan(&out.DailyTrend).Error
	if err != nil {
		return nil, err
	}

	err = a.db.Raw(`
        SELECT
            la.country, la.city,
            COUNT(la.id) AS clicks,
            COUNT(DISTINCT la.ip_address) AS unique_visitors
        FROM link_analytics la
        JOIN short_links sl ON la.short_link_id = sl.id
        WHERE la.clicked_at >= ?
          AND la.country IS NOT NULL
        GROUP BY la.country, la.city
        ORDER BY clicks DESC
        LIMIT 20
    `, since).Scan(&out.GeoData).Error
	if err != nil {
		return nil, err
	}

	return &out, nil
}

type DetailedClick struct {
	ID           uint      `json:"id"`
	IPAddress    string    `json:"ip_address"`
	UserAgent    string    `json:"user_agent"`
	Referrer     *string   `json:"referrer"`
	Country      *string   `json:"country"`
	City         *string   `json:"city"`
	ClickedAt    time.Time `json:"clicked_at"`
	ArticleTitle string    `json:"article_title"`
	ArticleSlug  string    `json:"article_slug"`
	ShortSlug    string    `json:"short_slug"`
	UTMSource    string    `json:"utm_source"`
	UTMMedium    string    `json:"utm_medium"`
	UTMCampaign  string    `json:"utm_campaign"`
}

// DetailedClicks pages through raw click rows joined with their link and
// article, newest first. Returns the rows plus the total for pagination.
func (a *Analytics) DetailedClicks(periodDays, page, limit int) ([]DetailedClick, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}
	since := cutoff(periodDays)

	var rows []DetailedClick
	err := a.db.Raw(`
        SELECT
            la.id,
            la.ip_address,
            la.user_agent,
            la.referrer,
            la.country,
            la.city,
            la.clicked_at,
            ar.title AS article_title,
            ar.slug AS article_slug,
            sl.short_slug,
            sl.utm_source,
            sl.utm_medium,
            sl.utm_campaign
        FROM link_analytics la
        JOIN short_links sl ON la.short_link_id = sl.id
        JOIN articles ar ON sl.article_id = ar.id
        WHERE la.clicked_at >= ?
        ORDER BY la.clicked_at DESC
        LIMIT ? OFFSET ?
    `, since, limit, (page-1)*limit).Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	var total int64
	err = a.db.Model(&model.ClickEvent{}).
		Where("clicked_at >= ?", since).
		Count(&total).Error
	return rows, total, err
}
