package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/folio/folio/internal/metrics"
	"github.com/folio/folio/internal/model"
)

func newCommentService(store *fakeBlogStore) (*CommentService, *metrics.InMemoryRecorder) {
	rec := metrics.NewInMemory()
	svc := NewCommentService(store, true, discardLogger(), rec)
	svc.now = fixedClock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	return svc, rec
}

func TestCommentService_RatingUpdatesAverage(t *testing.T) {
	store := newFakeBlogStore()
	post := store.add(&model.Post{Slug: "go", Published: true, Status: model.PostStatusPublished, RatingsCount: 2, RatingsTotal: 7, CommentsCount: 5})
	svc, rec := newCommentService(store)

	four := 4
	c, err := svc.Create(context.Background(), "go", CreateCommentInput{Name: "Ana", Message: "Great", Rating: &four}, RequestMeta{IP: "8.8.8.8"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c == nil || !c.Approved {
		t.Fatalf("comment = %+v, want approved comment", c)
	}

	got := store.posts[post.ID]
	if got.CommentsCount != 6 {
		t.Errorf("CommentsCount = %d, want 6", got.CommentsCount)
	}
	if avg := got.Decorate().RatingsAverage; avg != 3.7 {
		t.Errorf("RatingsAverage = %v, want 3.7", avg)
	}
	if rec.Snapshot().CommentsAccepted != 1 {
		t.Error("accepted comment not counted")
	}

	if err := svc.Delete(context.Background(), c.ID.Hex()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if got.CommentsCount != 5 || got.RatingsCount != 2 || got.RatingsTotal != 7 {
		t.Errorf("counters after delete = %d/%d/%d", got.CommentsCount, got.RatingsCount, got.RatingsTotal)
	}
}

func TestCommentService_Honeypot(t *testing.T) {
	store := newFakeBlogStore()
	store.add(&model.Post{Slug: "go", Published: true})
	svc, rec := newCommentService(store)

	c, err := svc.Create(context.Background(), "go", CreateCommentInput{Name: "Bot", Message: "buy", Website: "http://spam"}, RequestMeta{})
	if err != nil || c != nil {
		t.Fatalf("Create() = %v, %v; want nil, nil", c, err)
	}
	if len(store.comments) != 0 {
		t.Error("honeypot comment must not be stored")
	}
	if rec.Snapshot().CommentsSpam != 1 {
		t.Error("spam not counted")
	}
}

func TestCommentService_Rejects(t *testing.T) {
	store := newFakeBlogStore()
	store.add(&model.Post{Slug: "draft"})
	store.add(&model.Post{Slug: "go", Published: true})
	svc, _ := newCommentService(store)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "draft", CreateCommentInput{Name: "A", Message: "m"}, RequestMeta{}); !errors.Is(err, ErrPostNotFound) {
		t.Errorf("unpublished post err = %v, want ErrPostNotFound", err)
	}

	for _, r := range []int{0, 6} {
		rating := r
		if _, err := svc.Create(ctx, "go", CreateCommentInput{Name: "A", Message: "m", Rating: &rating}, RequestMeta{}); err == nil {
			t.Errorf("rating %d should be rejected", r)
		}
	}
	if len(store.comments) != 0 {
		t.Error("rejected comments must not be stored")
	}
}

func TestCommentService_Moderation(t *testing.T) {
	store := newFakeBlogStore()
	store.add(&model.Post{Slug: "go", Published: true})
	svc := NewCommentService(store, false, discardLogger(), nil)
	ctx := context.Background()

	c, err := svc.Create(ctx, "go", CreateCommentInput{Name: "A", Message: "m"}, RequestMeta{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.Approved {
		t.Fatal("comment should await approval")
	}

	visible, _, _, _ := svc.ListForPost(ctx, "go", 1, 10)
	if len(visible) != 0 {
		t.Error("unapproved comment listed publicly")
	}

	if _, err := svc.SetApproved(ctx, c.ID.Hex(), true); err != nil {
		t.Fatalf("SetApproved() error = %v", err)
	}
	visible, total, _, _ := svc.ListForPost(ctx, "go", 1, 10)
	if len(visible) != 1 || total != 1 {
		t.Errorf("visible = %d total = %d", len(visible), total)
	}
}

func TestCommentService_CounterFailureRemovesComment(t *testing.T) {
	store := newFakeBlogStore()
	post := store.add(&model.Post{Slug: "go", Published: true, CommentsCount: 3, RatingsCount: 1, RatingsTotal: 5})
	store.counterErr = errors.New("primary stepped down")
	svc, rec := newCommentService(store)

	five := 5
	c, err := svc.Create(context.Background(), "go", CreateCommentInput{Name: "A", Message: "m", Rating: &five}, RequestMeta{})
	if err == nil || c != nil {
		t.Fatalf("Create() = %v, %v; want error", c, err)
	}
	if len(store.comments) != 0 {
		t.Errorf("%d comment(s) left without counters", len(store.comments))
	}
	got := store.posts[post.ID]
	if got.CommentsCount != 3 || got.RatingsCount != 1 || got.RatingsTotal != 5 {
		t.Errorf("counters = %d/%d/%d, want 3/1/5", got.CommentsCount, got.RatingsCount, got.RatingsTotal)
	}
	if rec.Snapshot().CommentsAccepted != 0 {
		t.Error("failed comment counted as accepted")
	}
}

func TestCommentService_KeepsSubmittedText(t *testing.T) {
	store := newFakeBlogStore()
	store.add(&model.Post{Slug: "go", Published: true})
	svc, _ := newCommentService(store)
	ctx := context.Background()

	msg := "use a<b and c>d, not &lt;\n  <em>ok</em>"
	c, err := svc.Create(ctx, "go", CreateCommentInput{Name: "  Ana  ", Message: msg}, RequestMeta{})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	stored := store.comments[c.ID]
	if stored.Message != msg || stored.Name != "Ana" {
		t.Errorf("stored %q / %q, want submitted text", stored.Name, stored.Message)
	}

	if _, err := svc.Create(ctx, "go", CreateCommentInput{Name: "Ana", Message: "   "}, RequestMeta{}); err == nil {
		t.Error("blank message accepted")
	}
}
