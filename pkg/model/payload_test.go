package model_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-bookform/pkg/model"
)

func TestDecodePayload(t *testing.T) {
	cases := []struct {
		name string
		body string
		want model.ErrorPayload
	}{
		{
			name: "object",
			body: `{"detail": "bad request"}`,
			want: model.StructuredPayload(map[string]any{"detail": "bad request"}),
		},
		{
			name: "field errors",
			body: `{"text": ["This field may not be blank."]}`,
			want: model.StructuredPayload(map[string]any{"text": []any{"This field may not be blank."}}),
		},
		{
			name: "json string",
			body: `"upstream exploded"`,
			want: model.TextPayload("upstream exploded"),
		},
		{
			name: "plain text",
			body: "Internal Server Error\n",
			want: model.TextPayload("Internal Server Error"),
		},
		{
			name: "array stays text",
			body: `["a","b"]`,
			want: model.TextPayload(`["a","b"]`),
		},
		{
			name: "broken json",
			body: `{"detail":`,
			want: model.TextPayload(`{"detail":`),
		},
		{
			name: "blank",
			body: "  \n",
			want: model.NoPayload(),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := model.DecodePayload([]byte(tc.body))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutcomeConstructors(t *testing.T) {
	if !model.Pending().IsPending() {
		t.Fatalf("pending outcome not pending")
	}
	ok := model.Success("done")
	if !ok.Succeeded() || ok.Message != "done" || !ok.Payload.IsEmpty() {
		t.Fatalf("unexpected success outcome: %+v", ok)
	}
	fail := model.Failure(model.TextPayload("boom"))
	if !fail.Failed() || fail.Payload.Text != "boom" {
		t.Fatalf("unexpected failure outcome: %+v", fail)
	}
	if model.Idle().Status.String() != "idle" {
		t.Fatalf("unexpected idle status string")
	}
}
