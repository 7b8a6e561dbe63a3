package main

import (
	"bytes"
	"context"
	"inbox-lab/domain"
	"inbox-lab/repositories"
	"log/slog"
	"testing"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, dir string, credentials map[domain.UserID]domain.Credential) {
	t.Helper()
	db, err := openDB(dir, true)
	require.NoError(t, err)
	defer db.Close()

	repository := repositories.NewCredentialRepository(db, logs.GetLoggerFromLevel(slog.LevelDebug))
	for userID, credential := range credentials {
		require.NoError(t, repository.Save(context.Background(), userID, credential))
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCredinspect_ListShowsStoredUsers(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()

	// Given two stored credentials, one of them binary
	seed(t, dir, map[domain.UserID]domain.Credential{
		"alice": domain.Credential("plain-session"),
		"bob":   domain.Credential{0x00, 0x01, 0xff},
	})

	// When listing
	out, err := execute(t, "--db", dir, "list")

	// Then both users are shown and the binary one is masked
	req.NoError(err)
	req.Contains(out, "alice")
	req.Contains(out, "plain-session")
	req.Contains(out, "bob")
	req.Contains(out, "<sealed>")
	req.Contains(out, "2 stored credential(s)")
}

func TestCredinspect_DeleteRemovesOneUser(t *testing.T) {
	req := require.New(t)
	dir := t.TempDir()
	seed(t, dir, map[domain.UserID]domain.Credential{
		"alice": domain.Credential("a"),
		"bob":   domain.Credential("b"),
	})

	// When deleting alice
	_, err := execute(t, "--db", dir, "delete", "alice")
	req.NoError(err)

	// Then only bob is left
	out, err := execute(t, "--db", dir, "list")
	req.NoError(err)
	req.NotContains(out, "alice")
	req.Contains(out, "1 stored credential(s)")
}

func TestCredinspect_DeleteRequiresUser(t *testing.T) {
	req := require.New(t)

	_, err := execute(t, "--db", t.TempDir(), "delete")

	req.Error(err)
}

func TestPreview(t *testing.T) {
	req := require.New(t)

	req.Equal("short", preview(domain.Credential("short")))
	req.Equal("abcdefghijklmnopqrstuvwx...", preview(domain.Credential("abcdefghijklmnopqrstuvwxyz")))
	req.Contains(preview(domain.Credential{0x00}), "<sealed>")
}
