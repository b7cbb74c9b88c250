package featureflow_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featureflow "github.com/featureflow/featureflow-go"
)

func TestUserJSON(t *testing.T) {
	t.Parallel()

	t.Run("attributes marshal as their natural shapes", func(t *testing.T) {
		t.Parallel()

		when := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
		user := featureflow.User{
			ID: "u1",
			Attributes: map[string]featureflow.AttributeValue{
				"tier":   featureflow.StringAttr("gold"),
				"age":    featureflow.NumberAttr(42),
				"since":  featureflow.TimeAttr(when),
				"roles":  featureflow.StringListAttr("admin", "editor"),
				"scores": featureflow.NumberListAttr(1, 2.5),
			},
		}

		raw, err := json.Marshal(user)
		require.NoError(t, err)
		assert.JSONEq(t, `{
			"id": "u1",
			"attributes": {
				"tier": "gold",
				"age": 42,
				"since": "2026-05-01T12:00:00Z",
				"roles": ["admin", "editor"],
				"scores": [1, 2.5]
			}
		}`, string(raw))
	})

	t.Run("scalars round trip", func(t *testing.T) {
		t.Parallel()

		raw := `{"id":"u1","attributes":{"tier":"gold","age":42}}`

		var user featureflow.User
		require.NoError(t, json.Unmarshal([]byte(raw), &user))
		assert.Equal(t, "u1", user.ID)
		assert.Len(t, user.Attributes, 2)

		out, err := json.Marshal(user)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	})

	t.Run("timestamp strings decode as times", func(t *testing.T) {
		t.Parallel()

		raw := `{"id":"u1","attributes":{"since":"2026-05-01T12:00:00Z"}}`

		var user featureflow.User
		require.NoError(t, json.Unmarshal([]byte(raw), &user))

		out, err := json.Marshal(user)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	})

	t.Run("homogeneous arrays decode", func(t *testing.T) {
		t.Parallel()

		raw := `{"id":"u1","attributes":{"roles":["a","b"],"scores":[1,2]}}`

		var user featureflow.User
		require.NoError(t, json.Unmarshal([]byte(raw), &user))

		out, err := json.Marshal(user)
		require.NoError(t, err)
		assert.JSONEq(t, raw, string(out))
	})

	t.Run("mixed arrays are rejected", func(t *testing.T) {
		t.Parallel()

		var user featureflow.User
		err := json.Unmarshal([]byte(`{"id":"u1","attributes":{"bad":["a",1]}}`), &user)
		require.Error(t, err)
	})

	t.Run("empty attributes are omitted", func(t *testing.T) {
		t.Parallel()

		raw, err := json.Marshal(featureflow.User{ID: "u1"})
		require.NoError(t, err)
		assert.JSONEq(t, `{"id":"u1"}`, string(raw))
	})
}
