package setup

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

const title = "Cross-Modal Center Loss Setup Check"

// Render prints the report with check marks, the summary and, on failure,
// the common fixes. Colors are only emitted when w is a terminal.
func Render(w io.Writer, r Report) {
	re := lipgloss.NewRenderer(w)
	heading := re.NewStyle().Bold(true)
	pass := re.NewStyle().Foreground(lipgloss.Color("10"))
	fail := re.NewStyle().Foreground(lipgloss.Color("9"))
	dim := re.NewStyle().Foreground(lipgloss.Color("8"))

	fmt.Fprintln(w, heading.Render(title))
	fmt.Fprintln(w, heading.Render("==================================="))

	for _, sec := range r.Sections {
		name := sec.Name + ":"
		if sec.Optional {
			name += dim.Render(" (optional)")
		}
		fmt.Fprintf(w, "\n%s\n", heading.Render(name))
		for _, it := range sec.Items {
			if it.Passed {
				fmt.Fprintln(w, pass.Render("  ✓ "+it.Name))
				continue
			}
			line := "  ✗ " + it.Name
			if it.Detail != "" {
				line += " (" + it.Detail + ")"
			}
			fmt.Fprintln(w, fail.Render(line))
		}
	}

	fmt.Fprintf(w, "\n%s\n", "==================================================")
	fmt.Fprintln(w, heading.Render("Setup Check Summary:"))
	if r.AllPassed() {
		fmt.Fprintln(w, pass.Render("  ✓ All checks passed! The setup is complete."))
		fmt.Fprintln(w, "\nYou can now proceed with training:")
		fmt.Fprintln(w, "  python train.py --dataset ModelNet40 --num_classes 40 --batch_size 96")
		return
	}
	fmt.Fprintln(w, fail.Render("  ✗ Some checks failed. Please address the issues above."))
	fmt.Fprintln(w, "\nCommon fixes:")
	fmt.Fprintln(w, "  - Install missing Python packages: pip install -r requirements.txt")
	fmt.Fprintln(w, "  - Ensure all project files are in place")
	fmt.Fprintln(w, "  - Check that CUDA is properly installed for GPU support")
}
