package integration

import (
	"fmt"
	"strings"

	"github.com/miretskiy/linesim/simulator"
)

// GenerateMermaid renders the line as a Mermaid flowchart. The initial
// station is drawn as a stadium, the terminal station as a circle, and every
// other station as a box labelled with its processing time and capacity.
func GenerateMermaid(config simulator.SimConfig) string {
	ids := make(map[string]string, len(config.Stations))
	for i, sc := range config.Stations {
		ids[sc.Name] = fmt.Sprintf("s%d", i)
	}

	hasNext := make(map[string]bool, len(config.Links))
	for _, lc := range config.Links {
		hasNext[lc.From] = true
	}

	var b strings.Builder
	b.WriteString("graph LR\n")
	for _, sc := range config.Stations {
		label := fmt.Sprintf("%s<br/>t=%g, max=%d", escapeLabel(sc.Name), sc.ProcessingTime, sc.MaxWorkers)
		switch {
		case sc.Name == config.Seed.InitialStation:
			fmt.Fprintf(&b, "    %s([\"%s\"])\n", ids[sc.Name], label)
		case !hasNext[sc.Name]:
			fmt.Fprintf(&b, "    %s((\"%s\"))\n", ids[sc.Name], label)
		default:
			fmt.Fprintf(&b, "    %s[\"%s\"]\n", ids[sc.Name], label)
		}
	}
	for _, lc := range config.Links {
		from, okFrom := ids[lc.From]
		to, okTo := ids[lc.To]
		if !okFrom || !okTo {
			continue
		}
		fmt.Fprintf(&b, "    %s --> %s\n", from, to)
	}
	return b.String()
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, `"`, "#quot;")
}
