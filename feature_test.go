package featureflow_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featureflow "github.com/featureflow/featureflow-go"
	"github.com/featureflow/featureflow-go/pkg/condition"
)

func TestFeatureJSON(t *testing.T) {
	t.Parallel()

	t.Run("bare string decodes as a static assignment", func(t *testing.T) {
		t.Parallel()

		var f featureflow.Feature
		require.NoError(t, json.Unmarshal([]byte(`"variant-a"`), &f))
		assert.Equal(t, "variant-a", f.Variant)
		assert.Nil(t, f.Rules)
	})

	t.Run("structured definition decodes rules in order", func(t *testing.T) {
		t.Parallel()

		raw := `{"rules":[
			{"audience":{"conditions":[{"target":"tier","operator":"equals","values":["gold"]}]},"variant":"v1"},
			{"variant":"v2"}
		]}`

		var f featureflow.Feature
		require.NoError(t, json.Unmarshal([]byte(raw), &f))
		require.Len(t, f.Rules, 2)

		first := f.Rules[0]
		require.NotNil(t, first.Audience)
		require.Len(t, first.Audience.Conditions, 1)
		assert.Equal(t, "tier", first.Audience.Conditions[0].Target)
		assert.Equal(t, condition.Equals, first.Audience.Conditions[0].Operator)
		assert.Equal(t, "v1", first.Variant)

		assert.Nil(t, f.Rules[1].Audience)
		assert.Equal(t, "v2", f.Rules[1].Variant)
	})

	t.Run("numeric operands decode alongside strings", func(t *testing.T) {
		t.Parallel()

		raw := `{"rules":[{"audience":{"conditions":[{"target":"age","operator":"greaterThan","values":[21]}]},"variant":"adult"}]}`

		var f featureflow.Feature
		require.NoError(t, json.Unmarshal([]byte(raw), &f))
		require.Len(t, f.Rules, 1)
		require.Len(t, f.Rules[0].Audience.Conditions[0].Values, 1)
	})

	t.Run("object without rules decodes as an empty rule list", func(t *testing.T) {
		t.Parallel()

		var f featureflow.Feature
		require.NoError(t, json.Unmarshal([]byte(`{}`), &f))
		require.NotNil(t, f.Rules)
		assert.Empty(t, f.Rules)
	})

	t.Run("static assignment marshals as a bare string", func(t *testing.T) {
		t.Parallel()

		raw, err := json.Marshal(featureflow.Feature{Variant: "on"})
		require.NoError(t, err)
		assert.JSONEq(t, `"on"`, string(raw))
	})

	t.Run("feature map decodes mixed shapes", func(t *testing.T) {
		t.Parallel()

		raw := `{"a":"on","b":{"rules":[{"variant":"v"}]}}`

		var features featureflow.Features
		require.NoError(t, json.Unmarshal([]byte(raw), &features))
		assert.Equal(t, "on", features["a"].Variant)
		require.Len(t, features["b"].Rules, 1)
	})
}
