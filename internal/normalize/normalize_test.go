package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oussamaFadhli/leads-generator/internal/core/domain"
)

var leadSpec = Spec{
	WrapperKey: "leads",
	Required:   []string{"competitor_name", "related_subreddits"},
	ListFields: []string{"related_subreddits"},
}

func TestRecordsJSONStringSingleRecord(t *testing.T) {
	raw := `{"competitor_name":"Acme","related_subreddits":["saas","startups"]}`

	records, err := Records(raw, leadSpec)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0]["competitor_name"])
	assert.Equal(t, []any{"saas", "startups"}, records[0]["related_subreddits"])
}

func TestRecordsEquivalentShapes(t *testing.T) {
	record := map[string]any{
		"competitor_name":    "Acme",
		"related_subreddits": []any{"saas"},
	}

	tests := []struct {
		name string
		raw  any
	}{
		{"wrapper object", map[string]any{"leads": []any{record}}},
		{"single record", record},
		{"array", []any{record}},
		{"json string", `{"leads":[{"competitor_name":"Acme","related_subreddits":["saas"]}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Records(tt.raw, leadSpec)
			require.NoError(t, err)
			require.Len(t, records, 1)
			assert.Equal(t, "Acme", records[0]["competitor_name"])
		})
	}
}

func TestRecordsMissingFieldSkipsOnlyThatRecord(t *testing.T) {
	raw := []any{
		map[string]any{"competitor_name": "NoSubs"},
		map[string]any{"competitor_name": "Acme", "related_subreddits": []any{"saas"}},
	}

	records, err := Records(raw, leadSpec)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0]["competitor_name"])
}

func TestRecordsNonObjectElementRejected(t *testing.T) {
	raw := []any{
		"just a string",
		map[string]any{"competitor_name": "Acme", "related_subreddits": []any{"saas"}},
	}

	records, err := Records(raw, leadSpec)
	require.NoError(t, err)
	require.Len(t, records, 1)
}

func TestRecordsEmbeddedJSONListField(t *testing.T) {
	raw := map[string]any{
		"competitor_name":    "Acme",
		"related_subreddits": `["saas","startups"]`,
	}

	records, err := Records(raw, leadSpec)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, []any{"saas", "startups"}, records[0]["related_subreddits"])
}

func TestRecordsBadEmbeddedListDropsOnlyThatRecord(t *testing.T) {
	raw := []any{
		map[string]any{"competitor_name": "Broken", "related_subreddits": "not json"},
		map[string]any{"competitor_name": "Acme", "related_subreddits": []any{"saas"}},
	}

	records, err := Records(raw, leadSpec)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Acme", records[0]["competitor_name"])
}

func TestRecordsUndecodableStringIsMalformed(t *testing.T) {
	records, err := Records("definitely not json at all", leadSpec)
	assert.ErrorIs(t, err, domain.ErrMalformedResult)
	assert.Empty(t, records)
}

func TestRecordsUnmatchedObjectIsMalformed(t *testing.T) {
	raw := map[string]any{"something": "else"}

	_, err := Records(raw, leadSpec)
	assert.ErrorIs(t, err, domain.ErrMalformedResult)
}

func TestRecordsUnexpectedTypeIsMalformed(t *testing.T) {
	_, err := Records(42, leadSpec)
	assert.ErrorIs(t, err, domain.ErrMalformedResult)
}

func TestRecordsWrapperKeyMustHoldList(t *testing.T) {
	raw := map[string]any{"leads": "oops"}

	_, err := Records(raw, leadSpec)
	assert.ErrorIs(t, err, domain.ErrMalformedResult)
}

func TestDecodeDropsUnknownFields(t *testing.T) {
	raw := `{"competitor_name":"Acme","related_subreddits":["saas"],"sources":["http://example.com"]}`

	leads, err := Decode[domain.Lead](raw, leadSpec)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Acme", leads[0].CompetitorName)
	assert.Equal(t, []string{"saas"}, leads[0].RelatedSubreddits)
}

func TestDecodeMarkdownFencedPayload(t *testing.T) {
	raw := "```json\n{\"competitor_name\":\"Acme\",\"related_subreddits\":[\"saas\"]}\n```"

	leads, err := Decode[domain.Lead](raw, leadSpec)
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, "Acme", leads[0].CompetitorName)
}

func TestCleanJSONStripsLeadingProse(t *testing.T) {
	raw := `Here is the result: {"a":1} hope that helps`
	assert.Equal(t, `{"a":1}`, CleanJSON(raw))
}
