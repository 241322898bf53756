package bootstrap

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/kbukum/vidscribe/component"
)

// Summary tracks and displays the application bootstrap process.
type Summary struct {
	serviceName     string
	version         string
	startupDuration time.Duration
	out             io.Writer
}

// NewSummary creates a new bootstrap summary tracker writing to stdout.
func NewSummary(serviceName, version string) *Summary {
	return &Summary{
		serviceName: serviceName,
		version:     version,
		out:         os.Stdout,
	}
}

// SetOutput redirects the summary.
func (s *Summary) SetOutput(w io.Writer) {
	s.out = w
}

// SetStartupDuration records the total startup time.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// DisplaySummary prints components, routes and live health from registry.
// Components implementing component.Describable are listed with their
// details; component.RouteProvider routes are listed under Routes.
func (s *Summary) DisplaySummary(registry *component.Registry) {
	w := s.out
	fmt.Fprintf(w, "\n🚀 %s v%s started in %.2fs\n\n", s.serviceName, s.version, s.startupDuration.Seconds())
	if registry == nil {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}

	all := registry.All()
	if len(all) == 0 {
		fmt.Fprintf(w, "   └── No components registered\n\n")
		return
	}

	ctx := context.Background()
	var routes []component.Route

	fmt.Fprintf(w, "📊 Components\n")
	healthy := 0
	for i, c := range all {
		h := c.Health(ctx)
		if h.Status == component.StatusHealthy {
			healthy++
		}

		line := c.Name()
		if d, ok := c.(component.Describable); ok {
			desc := d.Describe()
			if desc.Name == "" {
				desc.Name = c.Name()
			}
			line = fmt.Sprintf("%s [%s]", desc.Name, desc.Type)
			if desc.Details != "" {
				line += ": " + desc.Details
			}
			if desc.Port > 0 {
				line += fmt.Sprintf(" (:%d)", desc.Port)
			}
		}
		if rp, ok := c.(component.RouteProvider); ok {
			routes = append(routes, rp.Routes()...)
		}

		fmt.Fprintf(w, "   %s %s %s\n", treePrefix(i, len(all)), healthStatusIcon(h.Status), line)
	}
	fmt.Fprintf(w, "\n")

	if healthy == len(all) {
		fmt.Fprintf(w, "✅ All components healthy (%d/%d)\n", healthy, len(all))
	} else {
		fmt.Fprintf(w, "⚠️  Some components have issues (%d/%d healthy)\n", healthy, len(all))
		for _, c := range all {
			h := c.Health(ctx)
			if h.Status == component.StatusHealthy || h.Message == "" {
				continue
			}
			fmt.Fprintf(w, "   %s %s: %s, %s\n", healthStatusIcon(h.Status), h.Name, strings.ToLower(string(h.Status)), h.Message)
		}
	}

	if len(routes) > 0 {
		fmt.Fprintf(w, "\n🌐 Routes (%d)\n", len(routes))
		for i, r := range routes {
			fmt.Fprintf(w, "   %s %-7s %s → %s\n", treePrefix(i, len(routes)), r.Method, r.Path, r.Handler)
		}
	}
	fmt.Fprintf(w, "\n")
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}

func healthStatusIcon(status component.HealthStatus) string {
	switch status {
	case component.StatusHealthy:
		return "✅"
	case component.StatusDegraded:
		return "⚠️"
	case component.StatusUnhealthy:
		return "❌"
	default:
		return "❓"
	}
}
