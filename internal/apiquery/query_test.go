package apiquery

import (
	"net/url"
	"testing"
	"time"
)

type listParams struct {
	Limit          *int      `query:"limit"`
	FromID         *string   `query:"from_id"`
	IncludePrivate *bool     `query:"include_private"`
	IDs            []string  `query:"user_ids,omitempty"`
	Since          time.Time `query:"since,omitempty" format:"2006-01-02"`
	Ignored        string
	skipped        string
}

func TestMarshal_OmitsUnset(t *testing.T) {
	got := Marshal(listParams{})
	if len(got) != 0 {
		t.Errorf("expected empty query, got %v", got)
	}
}

func TestMarshal_Values(t *testing.T) {
	limit := 10
	from := "room/1"
	private := false

	got := Marshal(listParams{
		Limit:          &limit,
		FromID:         &from,
		IncludePrivate: &private,
		IDs:            []string{"a", "b"},
		Since:          time.Date(2019, 1, 2, 0, 0, 0, 0, time.UTC),
		Ignored:        "x",
		skipped:        "y",
	})

	want := url.Values{
		"limit":           {"10"},
		"from_id":         {"room/1"},
		"include_private": {"false"},
		"user_ids":        {"a,b"},
		"since":           {"2019-01-02"},
	}
	if got.Encode() != want.Encode() {
		t.Errorf("expected %s, got %s", want.Encode(), got.Encode())
	}
}

func TestMarshalWithSettings_Repeat(t *testing.T) {
	got := MarshalWithSettings(listParams{IDs: []string{"a", "b"}}, QuerySettings{ArrayFormat: ArrayQueryFormatRepeat})
	if vals := got["user_ids"]; len(vals) != 2 || vals[0] != "a" || vals[1] != "b" {
		t.Errorf("expected repeated keys, got %v", got)
	}
}

type custom struct{}

func (custom) URLQuery() url.Values {
	return url.Values{"joinable": {"true"}}
}

func TestMarshal_Queryer(t *testing.T) {
	if got := Marshal(custom{}).Get("joinable"); got != "true" {
		t.Errorf("expected Queryer to be honoured, got %q", got)
	}
}

func TestMarshal_Nil(t *testing.T) {
	if got := Marshal(nil); len(got) != 0 {
		t.Errorf("expected empty values for nil, got %v", got)
	}
}
