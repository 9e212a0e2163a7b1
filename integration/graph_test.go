package integration

import (
	"strings"
	"testing"

	"github.com/miretskiy/linesim/simulator"
	"github.com/stretchr/testify/require"
)

func TestGenerateMermaid(t *testing.T) {
	config, err := LoadYAML([]byte(diamondYAML))
	require.NoError(t, err)

	out := GenerateMermaid(config)
	lines := strings.Split(strings.TrimSpace(out), "\n")

	require.Equal(t, "graph LR", lines[0])
	require.Contains(t, out, `s0(["cut<br/>t=2, max=2"])`)
	require.Contains(t, out, `s1["weld<br/>t=1.5, max=1"]`)
	require.Contains(t, out, `s3(("pack<br/>t=2, max=1"))`)
	require.Contains(t, out, "s0 --> s1")
	require.Contains(t, out, "s2 --> s3")
	require.Len(t, lines, 1+4+4)
}

func TestGenerateMermaid_SkipsDanglingLinks(t *testing.T) {
	config := simulator.TwoStationConfig()
	config.Links = append(config.Links, simulator.LinkConfig{From: "B", To: "ghost"})

	out := GenerateMermaid(config)
	require.NotContains(t, out, "ghost")
	require.Contains(t, out, "s0 --> s1")
}
