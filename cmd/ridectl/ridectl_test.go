package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campusride/internal/modules/matching"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGenThenMatch(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "gen", "--out", dir, "--users", "20", "--groups", "10", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "groups: 10")

	out, err = execute(t, "match", "--dir", dir, "--uid", "U001", "--start", "Thapar Patiala", "--top-k", "5")
	require.NoError(t, err)

	var results []matching.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.NotEmpty(t, results)
	assert.LessOrEqual(t, len(results), 5)
	for _, r := range results {
		assert.Contains(t, r.Reasons, matching.ReasonExactStart)
	}
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestMatch_RejectsUnknownMode(t *testing.T) {
	_, err := execute(t, "match", "--dir", t.TempDir(), "--mode", "loose")
	assert.Error(t, err)
}

func TestMatch_EmptyDirectory(t *testing.T) {
	out, err := execute(t, "match", "--dir", t.TempDir(), "--start", "A", "--dest", "B")
	require.NoError(t, err)
	assert.JSONEq(t, "[]", out)
}
