package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/annel0/parkour-course/internal/auth"
	"github.com/annel0/parkour-course/internal/storage"
	"github.com/annel0/parkour-course/internal/vec"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestGenerateValidateInspect(t *testing.T) {
	mapPath := filepath.Join(t.TempDir(), "course.json.gz")

	out, err := run(t, "generate", "--seed", "7", "--checkpoints", "5", "--out", mapPath)
	require.NoError(t, err)
	assert.Contains(t, out, "5 checkpoints")

	out, err = run(t, "validate", mapPath)
	require.NoError(t, err)
	assert.Contains(t, out, "5 checkpoints")

	out, err = run(t, "inspect", mapPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Checkpoints: 5")

	out, err = run(t, "inspect", "--map", mapPath, "--json")
	require.NoError(t, err)
	var doc struct {
		Checkpoints []struct {
			Index int      `json:"index"`
			Block vec.Vec3 `json:"block"`
		} `json:"checkpoints"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	require.Len(t, doc.Checkpoints, 5)
	assert.Equal(t, vec.Vec3{}, doc.Checkpoints[0].Block)
	for i, cp := range doc.Checkpoints {
		assert.Equal(t, i, cp.Index)
	}
}

func TestGenerate_RejectsZeroCheckpoints(t *testing.T) {
	_, err := run(t, "generate", "--checkpoints", "0", "--out", filepath.Join(t.TempDir(), "x.json"))
	assert.Error(t, err)
}

func TestValidate_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := run(t, "validate", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"blockTypes":[],"blocks":{"0,0,0":1}}`), 0o644))
	_, err = run(t, "validate", empty)
	assert.Error(t, err)

	_, err = run(t, "validate")
	assert.Error(t, err)
}

func TestToken(t *testing.T) {
	const secret = "coursectl-test-secret-0123"

	_, err := run(t, "token", "-c", writeConfig(t, "admin:\n  enabled: true\n"))
	assert.Error(t, err)

	cfg := writeConfig(t, "admin:\n  enabled: true\n  jwt_secret: "+secret+"\n")
	out, err := run(t, "token", "-c", cfg, "--operator", "ops", "--ttl", "1h")
	require.NoError(t, err)

	a, err := auth.NewAuthenticator(secret)
	require.NoError(t, err)
	claims, err := a.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.True(t, claims.IsAdmin)
}

func TestCheckpointGetDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "checkpoints.db")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	repo, err := storage.NewSQLiteCheckpointRepo(ctx, dbPath)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, "alice", storage.Record{CheckpointPosition: vec.Vec3Float{X: 1, Y: 11, Z: 8}}))
	require.NoError(t, repo.Close())

	cfg := writeConfig(t, "storage:\n  type: sqlite\n  sqlite_path: "+dbPath+"\n")

	out, err := run(t, "checkpoint", "get", "alice", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, `"checkpointPosition":{"x":1,"y":11,"z":8}`)

	out, err = run(t, "checkpoint", "delete", "alice", "-c", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "alice cleared")

	_, err = run(t, "checkpoint", "get", "alice", "-c", cfg)
	assert.Error(t, err)

	_, err = run(t, "checkpoint", "get", " ", "-c", cfg)
	assert.Error(t, err)
}
