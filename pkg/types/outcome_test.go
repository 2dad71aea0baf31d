package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeKindString(t *testing.T) {
	assert.Equal(t, "direct_article", DirectArticle.String())
	assert.Equal(t, "timed_out", TimedOut.String())
	assert.Equal(t, "outcome(42)", OutcomeKind(42).String())
}

func TestOutcomeJSON(t *testing.T) {
	data, err := json.Marshal(Outcome{Kind: NoResults, QueryTitle: "Title A"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"no_results","query_title":"Title A"}`, string(data))
}

func TestNotFoundValue(t *testing.T) {
	assert.Equal(t, `no results for "Title C"`, NotFoundValue("Title C"))
	assert.False(t, Outcome{Kind: TimedOut}.Found())
	assert.True(t, Outcome{Kind: SearchResults}.Found())
}
