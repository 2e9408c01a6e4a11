package resolver

import (
	"errors"
	"strings"
	"testing"
)

func sel(fields map[string]Selection) Selection {
	return Selection{Select: fields}
}

func TestValidateCost(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		doc      *Document
		wantCost int
	}{
		{
			name:     "scalar roots",
			doc:      &Document{Select: map[string]Selection{"totalUsers": {}, "totalPhotos": {}}},
			wantCost: 2,
		},
		{
			name:     "bare list",
			doc:      &Document{Select: map[string]Selection{"allPhotos": {}}},
			wantCost: 10,
		},
		{
			name: "list with object child",
			doc: &Document{Select: map[string]Selection{
				"allPhotos": sel(map[string]Selection{"postedBy": {}}),
			}},
			wantCost: 20,
		},
		{
			name: "object root",
			doc: &Document{Select: map[string]Selection{
				"me": sel(map[string]Selection{"name": {}, "avatar": {}}),
			}},
			wantCost: 3,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cost, err := validate(tt.doc, 5, 1000)
			if err != nil {
				t.Fatalf("validate() error = %v", err)
			}
			if cost != tt.wantCost {
				t.Errorf("cost = %d, want %d", cost, tt.wantCost)
			}
		})
	}
}

func TestValidateRejections(t *testing.T) {
	t.Parallel()

	deepDoc := &Document{Select: map[string]Selection{
		"allPhotos": sel(map[string]Selection{
			"postedBy": sel(map[string]Selection{
				"postedPhotos": sel(map[string]Selection{
					"taggedUsers": sel(map[string]Selection{
						"inPhotos": sel(map[string]Selection{"id": {}}),
					}),
				}),
			}),
		}),
	}}

	// Nested lists multiply: 10*(1+10*(1+10)) = 1110.
	costlyDoc := &Document{Select: map[string]Selection{
		"allPhotos": sel(map[string]Selection{
			"taggedUsers": sel(map[string]Selection{
				"inPhotos": {},
			}),
		}),
	}}

	tests := []struct {
		name       string
		doc        *Document
		wantReason string
	}{
		{
			name:       "depth beyond limit",
			doc:        deepDoc,
			wantReason: "depth",
		},
		{
			name:       "cost beyond limit",
			doc:        costlyDoc,
			wantReason: "cost",
		},
		{
			name:       "unknown root field",
			doc:        &Document{Select: map[string]Selection{"allTags": {}}},
			wantReason: "unknown_field",
		},
		{
			name: "unknown photo field",
			doc: &Document{Select: map[string]Selection{
				"allPhotos": sel(map[string]Selection{"exif": {}}),
			}},
			wantReason: "unknown_field",
		},
		{
			name: "token is not selectable",
			doc: &Document{Select: map[string]Selection{
				"allUsers": sel(map[string]Selection{"githubToken": {}}),
			}},
			wantReason: "unknown_field",
		},
		{
			name: "nested selection on scalar",
			doc: &Document{Select: map[string]Selection{
				"totalUsers": sel(map[string]Selection{"anything": {}}),
			}},
			wantReason: "shape",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := validate(tt.doc, 5, 1000)

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("validate() error = %v, want *ValidationError", err)
			}
			if verr.Reason != tt.wantReason {
				t.Errorf("Reason = %q (%s), want %q", verr.Reason, verr.Message, tt.wantReason)
			}
		})
	}
}

func TestValidateDepthAtLimit(t *testing.T) {
	t.Parallel()

	// allPhotos > postedBy > postedPhotos > taggedUsers > avatar is depth 5.
	doc := &Document{Select: map[string]Selection{
		"allPhotos": sel(map[string]Selection{
			"postedBy": sel(map[string]Selection{
				"postedPhotos": sel(map[string]Selection{
					"taggedUsers": sel(map[string]Selection{"avatar": {}}),
				}),
			}),
		}),
	}}

	if _, err := validate(doc, 5, 100000); err != nil {
		t.Errorf("validate() error = %v, want selection at the depth limit accepted", err)
	}
}

func TestParseDocument(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument(strings.NewReader(`{"select":{"totalUsers":{},"allPhotos":{"select":{"postedBy":{}}}}}`))
	if err != nil {
		t.Fatalf("ParseDocument() error = %v", err)
	}
	if len(doc.Select) != 2 {
		t.Errorf("parsed %d root fields, want 2", len(doc.Select))
	}
	if _, ok := doc.Select["allPhotos"].Select["postedBy"]; !ok {
		t.Error("nested selection not parsed")
	}
}

func TestParseDocumentRejections(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"select":`},
		{name: "empty selection", body: `{"select":{}}`},
		{name: "no selection", body: `{}`},
		{name: "unknown envelope key", body: `{"query":"{ totalUsers }"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseDocument(strings.NewReader(tt.body)); err == nil {
				t.Error("ParseDocument() error = nil, want rejection")
			}
		})
	}
}
