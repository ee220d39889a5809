package model

import (
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostStatus is the publication state of a blog post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
	PostStatusScheduled PostStatus = "scheduled"
)

// IsValid reports whether s is a known post status.
func (s PostStatus) IsValid() bool {
	switch s {
	case PostStatusDraft, PostStatusPublished, PostStatusScheduled:
		return true
	}
	return false
}

// Author is the byline embedded in a post.
type Author struct {
	Name   string `bson:"name" json:"name"`
	Avatar string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	Bio    string `bson:"bio,omitempty" json:"bio,omitempty"`
}

// SEO holds search-engine metadata for a post.
type SEO struct {
	MetaTitle       string   `bson:"metaTitle,omitempty" json:"metaTitle,omitempty"`
	MetaDescription string   `bson:"metaDescription,omitempty" json:"metaDescription,omitempty"`
	Keywords        []string `bson:"keywords,omitempty" json:"keywords,omitempty"`
	OGImage         string   `bson:"ogImage,omitempty" json:"ogImage,omitempty"`
}

// TOCEntry is one heading in a post's table of contents.
type TOCEntry struct {
	ID    string `bson:"id" json:"id"`
	Text  string `bson:"text" json:"text"`
	Level int    `bson:"level" json:"level"`
}

// Post is a blog article.
type Post struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Slug            string             `bson:"slug" json:"slug"`
	Title           string             `bson:"title" json:"title"`
	Excerpt         string             `bson:"excerpt" json:"excerpt"`
	Content         string             `bson:"content" json:"content,omitempty"`
	CoverImage      string             `bson:"coverImage,omitempty" json:"coverImage,omitempty"`
	Category        string             `bson:"category" json:"category"`
	Tags            []string           `bson:"tags" json:"tags"`
	Author          Author             `bson:"author" json:"author"`
	Featured        bool               `bson:"featured" json:"featured"`
	Published       bool               `bson:"published" json:"published"`
	Status          PostStatus         `bson:"status" json:"status"`
	PublishedAt     *time.Time         `bson:"publishedAt,omitempty" json:"publishedAt,omitempty"`
	ScheduledAt     *time.Time         `bson:"scheduledAt,omitempty" json:"scheduledAt,omitempty"`
	SEO             SEO                `bson:"seo" json:"seo"`
	ReadTime        int                `bson:"readTime" json:"readTime"`
	TableOfContents []TOCEntry         `bson:"tableOfContents" json:"tableOfContents"`
	Views           int64              `bson:"views" json:"views"`
	CommentsCount   int64              `bson:"commentsCount" json:"commentsCount"`
	RatingsCount    int64              `bson:"ratingsCount" json:"ratingsCount"`
	RatingsTotal    int64              `bson:"ratingsTotal" json:"ratingsTotal"`
	RatingsAverage  float64            `bson:"-" json:"ratingsAverage"`
	CreatedAt       time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// RatingAverage returns total/count rounded to one decimal, or 0 when unrated.
func RatingAverage(total, count int64) float64 {
	if count <= 0 {
		return 0
	}
	return math.Round(float64(total)/float64(count)*10) / 10
}

// Decorate fills the read-time fields.
func (p *Post) Decorate() *Post {
	p.RatingsAverage = RatingAverage(p.RatingsTotal, p.RatingsCount)
	return p
}

// SetStatus moves the post to status and keeps Published, PublishedAt in step.
// publishedAt is an explicit timestamp supplied by the caller, if any.
func (p *Post) SetStatus(status PostStatus, publishedAt *time.Time, now time.Time) {
	p.Status = status
	p.Published = status == PostStatusPublished

	switch {
	case publishedAt != nil:
		at := *publishedAt
		p.PublishedAt = &at
	case status == PostStatusScheduled && p.ScheduledAt != nil:
		at := *p.ScheduledAt
		p.PublishedAt = &at
	case status == PostStatusPublished && (p.PublishedAt == nil || p.PublishedAt.After(now)):
		at := now
		p.PublishedAt = &at
	}
}

// DueForPublish reports whether a scheduled post's time has arrived.
func (p *Post) DueForPublish(now time.Time) bool {
	if p.Status != PostStatusScheduled || p.PublishedAt == nil {
		return false
	}
	return !p.PublishedAt.After(now)
}
