package pattern

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func yamlDate(t *testing.T, s string) (time.Time, error) {
	t.Helper()
	parsed, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return parsed, nil
}

const sampleYAML = `
serp:
  preprocess:
    - first: "div.ads"
    - all: "script"
  input:
    "div.g":
      all:
        title:
          select: h3
          attr: textContent
        link:
          select: a
          attr: href
        rank:
          firstMatch:
            - select: "[data-rank]"
              attr: data-rank
            - select: "span.rank"
              attr: textContent
  output:
    result:
      fields:
        - key: query
        - key: title
          source: title
        - key: url
          source: link
      omitIfExistsAny: [errorCode]
      deduplicateBy: url
    impression:
      fields:
        - key: query
`

func TestPatternSet_UnmarshalYAML(t *testing.T) {
	var set PatternSet
	require.NoError(t, yaml.Unmarshal([]byte(sampleYAML), &set))

	rule, ok := set["serp"]
	require.True(t, ok)

	require.Len(t, rule.Preprocess, 2)
	assert.Equal(t, PruneKindFirst, rule.Preprocess[0].Kind)
	assert.Equal(t, "div.ads", rule.Preprocess[0].Selector)
	assert.Equal(t, PruneKindAll, rule.Preprocess[1].Kind)
	assert.Equal(t, "script", rule.Preprocess[1].Selector)

	group, ok := rule.Input["div.g"]
	require.True(t, ok)
	assert.Equal(t, InputKindAll, group.Kind)
	require.Contains(t, group.Fields, "title")
	assert.Equal(t, SelectorKindSingle, group.Fields["title"].Kind)
	assert.Equal(t, "h3", group.Fields["title"].Select)
	assert.Equal(t, "textContent", group.Fields["title"].Attr)

	rankSel := group.Fields["rank"]
	assert.Equal(t, SelectorKindFirstMatch, rankSel.Kind)
	require.Len(t, rankSel.FirstMatch, 2)
	assert.Equal(t, "[data-rank]", rankSel.FirstMatch[0].Select)

	// Output order must match declaration order, not map iteration order.
	require.Len(t, rule.Output, 2)
	assert.Equal(t, "result", rule.Output[0].Action)
	assert.Equal(t, "impression", rule.Output[1].Action)
	assert.Equal(t, "url", rule.Output[0].Schema.DeduplicateBy)
	assert.Equal(t, []string{"errorCode"}, rule.Output[0].Schema.OmitIfExistsAny)
	require.Len(t, rule.Output[0].Schema.Fields, 3)
	assert.Equal(t, "title", rule.Output[0].Schema.Fields[1].Source)
}

func TestPatternSet_RoundTrip(t *testing.T) {
	var set PatternSet
	require.NoError(t, yaml.Unmarshal([]byte(sampleYAML), &set))

	b, err := yaml.Marshal(set)
	require.NoError(t, err)

	var reparsed PatternSet
	require.NoError(t, yaml.Unmarshal(b, &reparsed))

	assert.Equal(t, set["serp"].Output[0].Action, reparsed["serp"].Output[0].Action)
	assert.Equal(t, set["serp"].Output[1].Action, reparsed["serp"].Output[1].Action)
	assert.Equal(t, set["serp"].Input["div.g"].Kind, reparsed["serp"].Input["div.g"].Kind)
	assert.Equal(t, set["serp"].Preprocess, reparsed["serp"].Preprocess)
}

func TestInputGroup_InvalidWhenNeitherFirstNorAll(t *testing.T) {
	var set PatternSet
	src := `
broken:
  input:
    "div.g":
      neither:
        foo:
          select: a
          attr: textContent
  output:
    result:
      fields:
        - key: foo
`
	require.NoError(t, yaml.Unmarshal([]byte(src), &set))
	assert.Equal(t, InputKindInvalid, set["broken"].Input["div.g"].Kind)
}

func TestPruneDirective_InvalidWhenBothOrNeitherSet(t *testing.T) {
	var d PruneDirective
	require.NoError(t, yaml.Unmarshal([]byte(`{}`), &d))
	assert.Equal(t, PruneKindInvalid, d.Kind)

	var both PruneDirective
	require.NoError(t, yaml.Unmarshal([]byte(`{first: a, all: b}`), &both))
	assert.Equal(t, PruneKindInvalid, both.Kind)
}

func TestTransformStep_UnmarshalYAML(t *testing.T) {
	var steps []TransformStep
	require.NoError(t, yaml.Unmarshal([]byte(`
- [trim]
- [substring, 0, 5]
`), &steps))

	require.Len(t, steps, 2)
	assert.Equal(t, "trim", steps[0].Name)
	assert.Empty(t, steps[0].Args)
	assert.Equal(t, "substring", steps[1].Name)
	assert.Equal(t, []interface{}{0, 5}, steps[1].Args)
}

func TestTransformStep_UnmarshalYAML_RejectsEmptyList(t *testing.T) {
	var step TransformStep
	require.NoError(t, yaml.Unmarshal([]byte(`["trim"]`), &step))
	assert.Equal(t, "trim", step.Name)

	var badStep TransformStep
	err := yaml.Unmarshal([]byte(`[]`), &badStep)
	assert.Error(t, err)
}

func TestRule_IsValidAt(t *testing.T) {
	src := `
windowed:
  validFrom: "2026-01-01"
  validTo: "2026-12-31"
  output:
    result:
      fields:
        - key: query
`
	var set PatternSet
	require.NoError(t, yaml.Unmarshal([]byte(src), &set))
	rule := set["windowed"]

	inWindow, _ := yamlDate(t, "2026-06-15")
	beforeWindow, _ := yamlDate(t, "2025-06-15")
	afterWindow, _ := yamlDate(t, "2027-06-15")

	assert.True(t, rule.IsValidAt(inWindow))
	assert.False(t, rule.IsValidAt(beforeWindow))
	assert.False(t, rule.IsValidAt(afterWindow))
}
