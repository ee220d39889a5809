package repository

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/folio/folio/internal/model"
)

func TestWindowFilter(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		w    Window
		want bson.M
	}{
		{"unbounded", Window{}, bson.M{}},
		{"start only", Window{Start: &start}, bson.M{"timestamp": bson.M{"$gte": start}}},
		{"end only", Window{End: &end}, bson.M{"timestamp": bson.M{"$lt": end}}},
		{"both", Window{Start: &start, End: &end}, bson.M{"timestamp": bson.M{"$gte": start, "$lt": end}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.w.filter("timestamp"); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("filter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPageNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   Page
		want Page
	}{
		{Page{}, Page{Page: 1, Limit: 20}},
		{Page{Page: 3, Limit: 500}, Page{Page: 3, Limit: 100}},
		{Page{Page: -1, Limit: 5}, Page{Page: 1, Limit: 5}},
	}

	for _, tt := range tests {
		if got := tt.in.Normalize(20, 100); got != tt.want {
			t.Errorf("Normalize(%+v) = %+v, want %+v", tt.in, got, tt.want)
		}
	}

	if skip := (Page{Page: 3, Limit: 10}).skip(); skip != 20 {
		t.Errorf("skip = %d, want 20", skip)
	}
}

func TestSortSpec(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bson.D
	}{
		{"", bson.D{{Key: "createdAt", Value: -1}}},
		{"name", bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}},
		{"-email", bson.D{{Key: "email", Value: -1}, {Key: "_id", Value: -1}}},
		{"$where", bson.D{{Key: "createdAt", Value: -1}}},
	}

	for _, tt := range tests {
		if got := sortSpec(tt.in, leadSortFields, "createdAt"); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("sortSpec(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLeadFilterQuery_EscapesSearch(t *testing.T) {
	t.Parallel()

	q := LeadFilter{Status: model.LeadStatusNew, Search: "a.b*"}.query()
	if q["status"] != model.LeadStatusNew {
		t.Errorf("status filter missing: %v", q)
	}

	or, ok := q["$or"].(bson.A)
	if !ok || len(or) != 3 {
		t.Fatalf("expected 3 search clauses, got %v", q["$or"])
	}
	re := or[0].(bson.M)["name"].(primitive.Regex)
	if re.Pattern != `a\.b\*` || re.Options != "i" {
		t.Errorf("unexpected regex %+v", re)
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()

	if _, err := ParseID("not-hex"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ParseID(bad) err = %v, want ErrNotFound", err)
	}

	oid := primitive.NewObjectID()
	got, err := ParseID(oid.Hex())
	if err != nil || got != oid {
		t.Errorf("ParseID(%s) = %v, %v", oid.Hex(), got, err)
	}
}

func TestIDOrSlug(t *testing.T) {
	t.Parallel()

	oid := primitive.NewObjectID()
	if got := idOrSlug(oid.Hex()); got["_id"] != oid {
		t.Errorf("idOrSlug(hex) = %v", got)
	}
	if got := idOrSlug("my-project"); got["slug"] != "my-project" {
		t.Errorf("idOrSlug(slug) = %v", got)
	}
}
