package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/folio/folio/internal/geo"
	"github.com/folio/folio/internal/model"
	"github.com/folio/folio/internal/repository"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type fakeResolver struct {
	loc   geo.Location
	calls []string
}

func (r *fakeResolver) Resolve(_ context.Context, ip string) geo.Location {
	r.calls = append(r.calls, ip)
	if geo.IsPrivate(ip) {
		return geo.Unknown
	}
	return r.loc
}

type fakeTrackingStore struct {
	mu       sync.Mutex
	sessions map[string]bool
	visits   []*model.Visit
	events   []*model.Event
	// visitFailures makes the next n CreateVisit calls fail.
	visitFailures int
}

func newFakeTrackingStore() *fakeTrackingStore {
	return &fakeTrackingStore{sessions: map[string]bool{}}
}

func (s *fakeTrackingStore) MarkDailySession(_ context.Context, sessionID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := sessionID + ":" + at.UTC().Format("2006-01-02")
	if s.sessions[key] {
		return false, nil
	}
	s.sessions[key] = true
	return true, nil
}

func (s *fakeTrackingStore) ReleaseDailySession(_ context.Context, sessionID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID+":"+at.UTC().Format("2006-01-02"))
	return nil
}

func (s *fakeTrackingStore) CreateVisit(_ context.Context, v *model.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.visitFailures > 0 {
		s.visitFailures--
		return errors.New("write conflict")
	}
	v.ID = primitive.NewObjectID()
	s.visits = append(s.visits, v)
	return nil
}

func (s *fakeTrackingStore) CreateEvent(_ context.Context, e *model.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = primitive.NewObjectID()
	s.events = append(s.events, e)
	return nil
}

type fakeLeadStore struct {
	leads map[primitive.ObjectID]*model.Lead
}

func newFakeLeadStore() *fakeLeadStore {
	return &fakeLeadStore{leads: map[primitive.ObjectID]*model.Lead{}}
}

func (s *fakeLeadStore) CreateLead(_ context.Context, lead *model.Lead) error {
	for _, l := range s.leads {
		if l.Email == lead.Email {
			return repository.ErrDuplicateKey
		}
	}
	lead.ID = primitive.NewObjectID()
	cp := *lead
	s.leads[lead.ID] = &cp
	return nil
}

func (s *fakeLeadStore) GetLead(_ context.Context, id primitive.ObjectID) (*model.Lead, error) {
	l, ok := s.leads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *fakeLeadStore) ListLeads(_ context.Context, f repository.LeadFilter) ([]model.Lead, int64, error) {
	var out []model.Lead
	for _, l := range s.leads {
		if f.Status != "" && l.Status != f.Status {
			continue
		}
		if f.Search != "" && !strings.Contains(strings.ToLower(l.Name+l.Email+l.Message), strings.ToLower(f.Search)) {
			continue
		}
		out = append(out, *l)
	}
	return out, int64(len(out)), nil
}

func (s *fakeLeadStore) UpdateLead(_ context.Context, lead *model.Lead) error {
	if _, ok := s.leads[lead.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *lead
	s.leads[lead.ID] = &cp
	return nil
}

func (s *fakeLeadStore) DeleteLead(_ context.Context, id primitive.ObjectID) error {
	if _, ok := s.leads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.leads, id)
	return nil
}

type recordingNotifier struct {
	leads []*model.Lead
}

func (n *recordingNotifier) LeadCreated(lead *model.Lead) {
	n.leads = append(n.leads, lead)
}

type fakeAdStore struct {
	ads map[primitive.ObjectID]*model.Ad
}

func newFakeAdStore() *fakeAdStore {
	return &fakeAdStore{ads: map[primitive.ObjectID]*model.Ad{}}
}

func (s *fakeAdStore) CreateAd(_ context.Context, ad *model.Ad) error {
	ad.ID = primitive.NewObjectID()
	cp := *ad
	s.ads[ad.ID] = &cp
	return nil
}

func (s *fakeAdStore) GetAd(_ context.Context, id primitive.ObjectID) (*model.Ad, error) {
	ad, ok := s.ads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ad
	return &cp, nil
}

func (s *fakeAdStore) ListAds(_ context.Context, f repository.AdFilter) ([]model.Ad, int64, error) {
	var out []model.Ad
	for _, ad := range s.ads {
		if f.Status == "" || ad.Status == f.Status {
			out = append(out, *ad)
		}
	}
	return out, int64(len(out)), nil
}

func (s *fakeAdStore) ListActiveAds(_ context.Context, now time.Time, limit int) ([]model.Ad, error) {
	var out []model.Ad
	for _, ad := range s.ads {
		if ad.Status != model.AdStatusDraft || ad.AutoStatus {
			out = append(out, *ad)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeAdStore) UpdateAd(_ context.Context, ad *model.Ad) error {
	old, ok := s.ads[ad.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cp := *ad
	cp.Clicks, cp.Impressions = old.Clicks, old.Impressions
	s.ads[ad.ID] = &cp
	return nil
}

func (s *fakeAdStore) DeleteAd(_ context.Context, id primitive.ObjectID) error {
	if _, ok := s.ads[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.ads, id)
	return nil
}

func (s *fakeAdStore) IncrementAdCounter(_ context.Context, id primitive.ObjectID, field string) (*model.Ad, error) {
	ad, ok := s.ads[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	switch field {
	case repository.AdCounterClicks:
		ad.Clicks++
	case repository.AdCounterImpressions:
		ad.Impressions++
	}
	cp := *ad
	return &cp, nil
}

// fakeBlogStore backs both PostStore and CommentStore.
type fakeBlogStore struct {
	posts      map[primitive.ObjectID]*model.Post
	comments   map[primitive.ObjectID]*model.Comment
	counterErr error
}

func newFakeBlogStore() *fakeBlogStore {
	return &fakeBlogStore{
		posts:    map[primitive.ObjectID]*model.Post{},
		comments: map[primitive.ObjectID]*model.Comment{},
	}
}

func (s *fakeBlogStore) add(p *model.Post) *model.Post {
	p.ID = primitive.NewObjectID()
	s.posts[p.ID] = p
	return p
}

func (s *fakeBlogStore) CreatePost(_ context.Context, post *model.Post) error {
	for _, p := range s.posts {
		if p.Slug == post.Slug {
			return repository.ErrDuplicateKey
		}
	}
	post.ID = primitive.NewObjectID()
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *fakeBlogStore) GetPost(_ context.Context, id primitive.ObjectID) (*model.Post, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (s *fakeBlogStore) GetPostBySlug(_ context.Context, slug string, publishedOnly bool) (*model.Post, error) {
	for _, p := range s.posts {
		if p.Slug == slug && (!publishedOnly || p.Published) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeBlogStore) ViewPostBySlug(ctx context.Context, slug string) (*model.Post, error) {
	for _, p := range s.posts {
		if p.Slug == slug && p.Published {
			p.Views++
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (s *fakeBlogStore) ListPosts(_ context.Context, f repository.PostFilter) ([]model.Post, int64, error) {
	var out []model.Post
	for _, p := range s.posts {
		if f.PublishedOnly && !p.Published {
			continue
		}
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (s *fakeBlogStore) UpdatePost(_ context.Context, post *model.Post) error {
	for id, p := range s.posts {
		if id != post.ID && p.Slug == post.Slug {
			return repository.ErrDuplicateKey
		}
	}
	if _, ok := s.posts[post.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *post
	s.posts[post.ID] = &cp
	return nil
}

func (s *fakeBlogStore) DeletePost(_ context.Context, id primitive.ObjectID) error {
	if _, ok := s.posts[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.posts, id)
	return nil
}

func (s *fakeBlogStore) PostCategories(context.Context) ([]string, error) {
	return nil, nil
}

func (s *fakeBlogStore) CreateComment(_ context.Context, c *model.Comment) error {
	c.ID = primitive.NewObjectID()
	cp := *c
	s.comments[c.ID] = &cp
	return nil
}

func (s *fakeBlogStore) ListComments(_ context.Context, f repository.CommentFilter) ([]model.Comment, int64, error) {
	var out []model.Comment
	for _, c := range s.comments {
		if f.PostID != nil && c.PostID != *f.PostID {
			continue
		}
		if f.Approved != nil && c.Approved != *f.Approved {
			continue
		}
		out = append(out, *c)
	}
	return out, int64(len(out)), nil
}

func (s *fakeBlogStore) SetCommentApproved(_ context.Context, id primitive.ObjectID, approved bool) (*model.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Approved = approved
	cp := *c
	return &cp, nil
}

func (s *fakeBlogStore) DeleteComment(_ context.Context, id primitive.ObjectID) (*model.Comment, error) {
	c, ok := s.comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(s.comments, id)
	return c, nil
}

func (s *fakeBlogStore) IncrementPostCounters(_ context.Context, id primitive.ObjectID, comments, ratings, ratingTotal int64) error {
	if s.counterErr != nil {
		return s.counterErr
	}
	p, ok := s.posts[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.CommentsCount += comments
	p.RatingsCount += ratings
	p.RatingsTotal += ratingTotal
	return nil
}

type fakeAnalyticsStore struct {
	visits []*model.Visit
	leads  []*model.Lead
	bucket string
}

func (s *fakeAnalyticsStore) CountVisits(context.Context, repository.Window) (int64, error) {
	return int64(len(s.visits)), nil
}

func (s *fakeAnalyticsStore) CountDistinctSessions(context.Context, repository.Window) (int64, error) {
	seen := map[string]bool{}
	for _, v := range s.visits {
		seen[v.SessionID] = true
	}
	return int64(len(seen)), nil
}

func (s *fakeAnalyticsStore) CountLeads(_ context.Context, status model.LeadStatus) (int64, error) {
	var n int64
	for _, l := range s.leads {
		if status == "" || l.Status == status {
			n++
		}
	}
	return n, nil
}

func (s *fakeAnalyticsStore) CountEvents(context.Context, repository.Window) (int64, error) {
	return 7, nil
}

func (s *fakeAnalyticsStore) Traffic(_ context.Context, _ repository.Window, bucket string) ([]model.TrafficPoint, error) {
	s.bucket = bucket
	return []model.TrafficPoint{{Date: "2024-01-01", Visits: 2, UniqueVisitors: 1}}, nil
}

func (s *fakeAnalyticsStore) TopCountries(_ context.Context, _ repository.Window, limit int) ([]model.CountryBreakdown, error) {
	return make([]model.CountryBreakdown, 0, limit), nil
}

func (s *fakeAnalyticsStore) TopPages(_ context.Context, _ repository.Window, limit int) ([]model.PageBreakdown, error) {
	return make([]model.PageBreakdown, 0, limit), nil
}

func (s *fakeAnalyticsStore) TopEvents(_ context.Context, _ repository.Window, limit int) ([]model.EventBreakdown, error) {
	return make([]model.EventBreakdown, 0, limit), nil
}

func (s *fakeAnalyticsStore) RecentVisits(_ context.Context, limit int) ([]model.RecentVisit, error) {
	return make([]model.RecentVisit, 0, limit), nil
}

func (s *fakeAnalyticsStore) EachVisit(_ context.Context, _ repository.Window, fn func(*model.Visit) error) error {
	for _, v := range s.visits {
		if err := fn(v); err != nil {
			return err
		}
	}
	return nil
}

func (s *fakeAnalyticsStore) EachLead(_ context.Context, _ repository.Window, fn func(*model.Lead) error) error {
	for _, l := range s.leads {
		if err := fn(l); err != nil {
			return err
		}
	}
	return nil
}
