package cmd_test

import (
	"encoding/json"
	"runtime"
	"strings"
	"testing"

	"github.com/frostgate/relayer/internal/relayertest"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	t.Parallel()

	sys := relayertest.NewSystem(t)

	res := sys.MustRun(t, "version", "--json")

	var info struct {
		Version string `json:"version"`
		Commit  string `json:"commit"`
		Go      string `json:"go"`
	}
	require.NoError(t, json.Unmarshal(res.Stdout.Bytes(), &info))
	require.NotEmpty(t, info.Commit)
	require.True(t, strings.HasPrefix(info.Go, runtime.Version()), info.Go)

	res = sys.MustRun(t, "v")
	require.Contains(t, res.Stdout.String(), "go: "+runtime.Version())
}
