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

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/wins-exporter/internal/config"
	"github.com/jonathan/wins-exporter/internal/export"
	"github.com/jonathan/wins-exporter/internal/server"
	"github.com/jonathan/wins-exporter/internal/upstreamtest"
)

const testSessionToken = "cli-session"

var envKeys = []string{
	"ALPHABOT_SESSION_TOKEN", "WINS_CUTOFF", "WINS_CONCURRENCY", "WINS_RETENTION_DAYS",
	"WINS_BASE_URL", "WINS_DETAIL_RPS", "WINS_TIMEOUT_SECONDS", "DATABASE_URL", "PORT",
	"JWT_SECRET", "JWT_EXPIRATION_HOURS", "JWT_ISSUER",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

// resetFlags restores every flag to its default so commands can run more than once per process.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, sub := range cmd.Commands() {
		resetFlags(sub)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

// startUpstream serves one project minted tomorrow and one picked before the cutoff.
func startUpstream(t *testing.T) (*upstreamtest.Upstream, string) {
	t.Helper()
	now := time.Now().UTC()
	cutoff := now.AddDate(0, 0, -3)
	mint := now.Add(24 * time.Hour)

	u := upstreamtest.New(t, testSessionToken, []upstreamtest.Project{
		{
			Slug:     "alpha",
			Name:     "Alpha",
			Chain:    "ETH",
			Picked:   now.Add(-time.Hour),
			MintDate: &mint,
			WLPrice:  "0.1",
			Detail:   `{"props":{"pageProps":{"project":{"supply":3333,"twitterUrl":"https://x.com/alpha"}}}}`,
		},
		{
			Slug:   "old",
			Name:   "Old",
			Picked: cutoff.Add(-24 * time.Hour),
		},
	})
	return u, cutoff.Format(time.DateOnly)
}

func TestRowsCommand_Table(t *testing.T) {
	clearEnv(t)
	u, cutoff := startUpstream(t)

	out, err := execute(t, "rows", "--token", testSessionToken, "--base-url", u.URL, "--cutoff", cutoff)
	require.NoError(t, err)

	assert.Contains(t, out, "WIN ROWS")
	assert.Contains(t, out, "Rows: 1")
	assert.Contains(t, out, "#1  Alpha (ETH)")
	assert.Contains(t, out, "Supply: 3333  Price: 0.1")
	assert.Zero(t, u.DetailCalls("old"))
}

func TestRowsCommand_JSON(t *testing.T) {
	clearEnv(t)
	u, cutoff := startUpstream(t)
	t.Setenv("ALPHABOT_SESSION_TOKEN", testSessionToken)
	t.Setenv("WINS_BASE_URL", u.URL)

	out, err := execute(t, "rows", "--json", "--cutoff", cutoff)
	require.NoError(t, err)

	var doc export.Document
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Count)
	require.Len(t, doc.Rows, 1)
	assert.Equal(t, "Alpha", doc.Rows[0].Title)
	assert.Equal(t, "https://x.com/alpha", doc.Rows[0].ExternalLink)
}

func TestRowsCommand_ConfigFile(t *testing.T) {
	clearEnv(t)
	u, cutoff := startUpstream(t)

	path := filepath.Join(t.TempDir(), "wins.yaml")
	content := "session_token: " + testSessionToken + "\nbase_url: " + u.URL + "\ncutoff: " + cutoff + "\nconcurrency: 2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	out, err := execute(t, "rows", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Rows: 1")
}

func TestRowsCommand_RequiresToken(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "rows")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "session token is required")
}

func TestRowsCommand_RejectsBadCutoff(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "rows", "--token", "x", "--cutoff", "last tuesday")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid cutoff")
}

func TestRowsCommand_UpstreamAuthFailure(t *testing.T) {
	clearEnv(t)
	u, cutoff := startUpstream(t)

	_, err := execute(t, "rows", "--token", "wrong", "--base-url", u.URL, "--cutoff", cutoff)
	require.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	clearEnv(t)
	u, cutoff := startUpstream(t)
	dest := filepath.Join(t.TempDir(), "out", "wins.csv")

	out, err := execute(t, "export", "--out", dest, "--token", testSessionToken, "--base-url", u.URL, "--cutoff", cutoff)
	require.NoError(t, err)

	assert.Contains(t, out, "EXPORT COMPLETE")
	assert.Contains(t, out, "not stored")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "Alpha")
}

func TestExportCommand_FormatOverridesExtension(t *testing.T) {
	clearEnv(t)
	u, cutoff := startUpstream(t)
	dest := filepath.Join(t.TempDir(), "wins.txt")

	_, err := execute(t, "export", "-o", dest, "--format", "json", "--token", testSessionToken, "--base-url", u.URL, "--cutoff", cutoff)
	require.NoError(t, err)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"count": 1`)
}

func TestExportCommand_Errors(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "export", "--token", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"out" not set`)

	_, err = execute(t, "export", "--out", "wins.pdf", "--token", "x", "--format", "pdf")
	require.Error(t, err)
}

func TestMigrateCommand_Validation(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "migrate")
	require.Error(t, err)

	_, err = execute(t, "migrate", "sideways")
	require.Error(t, err)

	_, err = execute(t, "migrate", "up")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is required")
}

func TestRunsCommand_RequiresDatabase(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "runs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is required")
}

func TestTokenCommand(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", "cli-test-secret-0123456789")

	out, err := execute(t, "token", "--subject", "ops")
	require.NoError(t, err)

	jwtConfig, err := config.NewJWTConfig()
	require.NoError(t, err)
	claims, err := server.NewJWTService(jwtConfig).ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
}

func TestTokenCommand_RequiresSecretAndSubject(t *testing.T) {
	clearEnv(t)

	_, err := execute(t, "token", "--subject", "ops")
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "cli-test-secret-0123456789")
	_, err = execute(t, "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"subject" not set`)
}

func TestRootCommand_ListsSubcommands(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"rows", "export", "serve", "migrate", "runs", "token"} {
		assert.Contains(t, out, name)
	}
}
