package rigup

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"

	provisioncmd "github.com/benchrig/rigup/pkg/commands/provision"
	"github.com/benchrig/rigup/pkg/config"
	"github.com/benchrig/rigup/pkg/output/styles"
	"github.com/benchrig/rigup/pkg/types"
)

// renderReport prints the per-stage outcome summary at the end of a
// run. Styling is dropped when the terminal cannot display it.
func renderReport(w io.Writer, cfg config.Config, result *provisioncmd.Result) {
	styled := isTerminal() && termenv.EnvColorProfile() != termenv.Ascii

	fmt.Fprintln(w)
	fmt.Fprintln(w, formatBoldUpper(fmt.Sprintf("%s provisioning (%s model)", cfg.AppName, cfg.Model)))

	for _, outcome := range result.Outcomes {
		fmt.Fprintf(w, "  %s %s %s\n",
			statusMark(outcome.Status, styled),
			render("Stage", outcome.Stage, styled),
			outcome.Detail)
		for _, warning := range outcome.Warnings {
			fmt.Fprintf(w, "      %s %s\n", render("Warning", "warning:", styled), warning)
		}
	}
}

func statusMark(status types.OutcomeStatus, styled bool) string {
	switch status {
	case types.StatusOK:
		return render("Success", "ok", styled)
	case types.StatusDegraded:
		return render("Warning", "degraded", styled)
	case types.StatusSkipped:
		return render("Muted", "skipped", styled)
	default:
		return render("Error", "failed", styled)
	}
}

func render(style, s string, styled bool) string {
	if !styled {
		return s
	}
	return styles.GetStyle(style).Render(s)
}
