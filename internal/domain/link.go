package domain

import (
	"time"
)

// Link represents a shortened URL and its lifecycle metadata.
// The admin key is the sole owner credential; it is returned exactly
// once at creation time and never serialized afterwards.
type Link struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	ShortCode   string    `gorm:"uniqueIndex;not null;size:10" json:"short_code"`
	OriginalURL string    `gorm:"not null;size:2000" json:"original_url"`
	AdminKey    string    `gorm:"uniqueIndex;not null;size:64" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	ExpiresAt   time.Time `gorm:"not null;index" json:"expires_at"`
	ClickCount  int64     `gorm:"default:0" json:"click_count"`
	IsActive    bool      `gorm:"default:true" json:"is_active"`

	Clicks []ClickRecord `gorm:"foreignKey:LinkID;constraint:OnDelete:CASCADE" json:"-"`
}

// TableName specifies the table name for GORM
func (Link) TableName() string {
	return "links"
}

// IsExpired reports whether the link has passed its expiry timestamp.
// The current time is an explicit input so the check stays deterministic;
// expiry is independent of the active flag.
func (l *Link) IsExpired(now time.Time) bool {
	return now.After(l.ExpiresAt)
}

// DaysRemaining returns the number of whole days until expiry, never
// negative. Rounding to the second first keeps a link created moments ago
// with N days of life reporting N, not N-1.
func (l *Link) DaysRemaining(now time.Time) int {
	remaining := int(l.ExpiresAt.Sub(now).Round(time.Second).Hours() / 24)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// ClickRecord captures one redirect event with coarse analytics attributes
// derived from the request. Records are immutable once inserted and only
// ever read in aggregate per link.
type ClickRecord struct {
	ID              uint      `gorm:"primaryKey" json:"-"`
	LinkID          uint      `gorm:"not null;index" json:"-"`
	ClickedAt       time.Time `gorm:"autoCreateTime;index" json:"clicked_at"`
	IPAddress       string    `gorm:"size:45" json:"ip_address,omitempty"`
	UserAgent       string    `gorm:"size:500" json:"user_agent"`
	Referrer        string    `gorm:"size:500" json:"referrer,omitempty"`
	Country         string    `gorm:"size:100" json:"country"`
	City            string    `gorm:"size:100" json:"city"`
	DeviceType      string    `gorm:"size:50" json:"device_type"`
	Browser         string    `gorm:"size:100" json:"browser"`
	OperatingSystem string    `gorm:"size:100" json:"operating_system"`
}

// TableName specifies the table name for GORM
func (ClickRecord) TableName() string {
	return "clicks"
}

// Visit carries the request attributes the click recorder derives analytics from.
type Visit struct {
	IPAddress string
	UserAgent string
	Referrer  string
}

// Resolution is the outcome of resolving a short code for redirect.
// Expired covers both a passed expiry timestamp and a deactivated link;
// the original URL and expiry are kept so the caller can surface them.
type Resolution struct {
	OriginalURL string
	Expired     bool
	ExpiresAt   time.Time
}

// CreateLinkRequest represents the payload for shortening a URL
type CreateLinkRequest struct {
	URL       string `json:"url" binding:"required"`
	ExpiresIn int    `json:"expires_in,omitempty"`
}

// CreateLinkResponse is returned once at creation; this is the only place
// the admin key is ever exposed.
type CreateLinkResponse struct {
	ShortURL  string    `json:"short_url"`
	StatsURL  string    `json:"stats_url"`
	AdminKey  string    `json:"admin_key"`
	ExpiresIn int       `json:"expires_in"`
	ExpiresAt time.Time `json:"expires_at"`
	ShortCode string    `json:"short_code"`
}

// LinkInfo is the owner-facing view of a link embedded in stats responses.
type LinkInfo struct {
	ID            uint      `json:"id"`
	ShortCode     string    `json:"short_code"`
	OriginalURL   string    `json:"original_url"`
	ShortURL      string    `json:"short_url"`
	StatsURL      string    `json:"stats_url"`
	CreatedAt     time.Time `json:"created_at"`
	ExpiresAt     time.Time `json:"expires_at"`
	DaysRemaining int       `json:"days_remaining"`
	ClickCount    int64     `json:"click_count"`
	IsActive      bool      `json:"is_active"`
}

// LinkStats aggregates click analytics for a single link
type LinkStats struct {
	URLInfo             *LinkInfo        `json:"url_info"`
	TotalClicks         int64            `json:"total_clicks"`
	ClicksByDay         map[string]int64 `json:"clicks_by_day"`
	DeviceDistribution  map[string]int64 `json:"device_distribution"`
	BrowserDistribution map[string]int64 `json:"browser_distribution"`
	RecentClicks        []ClickRecord    `json:"recent_clicks"`
}

// DeletedLink echoes the identity of a link removed by its owner
type DeletedLink struct {
	ShortCode   string    `json:"short_code"`
	OriginalURL string    `json:"original_url"`
	DeletedAt   time.Time `json:"deleted_at"`
}

// DeleteLinkResponse confirms an owner-initiated deletion
type DeleteLinkResponse struct {
	Success    bool        `json:"success"`
	Message    string      `json:"message"`
	DeletedURL DeletedLink `json:"deleted_url"`
}

// ExpiredResponse is the visitor-facing payload for a dead link. The visitor
// must see that the link is gone rather than be silently bounced.
type ExpiredResponse struct {
	Error       string    `json:"error"`
	OriginalURL string    `json:"original_url"`
	ExpiredAt   time.Time `json:"expired_at"`
	Status      string    `json:"status"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}
