package commands

import (
	"fmt"
	"strings"

	"github.com/wonny/aegis-signal/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

// PrintSeparator prints a visual separator
func PrintSeparator() {
	fmt.Println("───────────────────────────────────────────────────────────")
}

// PrintDoubleSeparator prints a double-line separator
func PrintDoubleSeparator() {
	fmt.Println("═══════════════════════════════════════════════════════════")
}

// PrintWarning prints a warning message
func PrintWarning(message string) {
	fmt.Println()
	fmt.Printf("⚠️  %s\n", message)
	fmt.Println()
}

// PrintSuccess prints a success message
func PrintSuccess(message string) {
	fmt.Printf("✅ %s\n", message)
}

// PrintError prints an error message
func PrintError(message string) {
	fmt.Printf("❌ %s\n", message)
}

// PrintTableHeader prints a table header
func PrintTableHeader(columns []string, widths []int) {
	for i, col := range columns {
		fmt.Printf("%-*s", widths[i], col)
		if i < len(columns)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()

	// Separator line
	totalWidth := 0
	for i, width := range widths {
		totalWidth += width
		if i < len(widths)-1 {
			totalWidth += 2 // spacing
		}
	}
	fmt.Println(strings.Repeat("─", totalWidth))
}

// PrintTableRow prints a table row
func PrintTableRow(values []string, widths []int) {
	for i, val := range values {
		fmt.Printf("%-*s", widths[i], val)
		if i < len(values)-1 {
			fmt.Print("  ")
		}
	}
	fmt.Println()
}

// PrintKeyValue prints key-value pairs
func PrintKeyValue(key string, value string, keyWidth int) {
	fmt.Printf("   %-*s : %s\n", keyWidth, key, value)
}

// printRunResult prints the ranked signals and skipped instruments of one run
func printRunResult(result *contracts.BatchResult, top int) {
	fmt.Println()
	PrintDoubleSeparator()
	fmt.Println("  Scoring Run")
	PrintSeparator()
	PrintKeyValue("Run ID", result.RunID, 10)
	PrintKeyValue("Config", shortHash(result.ConfigHash), 10)
	PrintKeyValue("Rank By", string(result.RankBy), 10)
	PrintKeyValue("Emitted", fmt.Sprintf("%d", result.Count()), 10)
	PrintKeyValue("Skipped", fmt.Sprintf("%d", len(result.Skipped)), 10)
	PrintKeyValue("Duration", result.Duration.String(), 10)
	PrintDoubleSeparator()

	if result.Cancelled {
		PrintWarning("Run cancelled: 미완료 종목은 CANCELLED 로 제외됨")
	}

	signals := result.Signals
	if top > 0 {
		signals = result.Top(top)
	}

	if len(signals) > 0 {
		fmt.Println()
		columns := []string{"#", "Instrument", "Dir", "Comp", "Conf", "Robust", "Ctx", "Master", "Tier", "Day", "Pos"}
		widths := []int{4, 10, 5, 6, 5, 6, 4, 6, 6, 16, 4}
		PrintTableHeader(columns, widths)
		for _, r := range signals {
			s := r.Signal
			PrintTableRow([]string{
				fmt.Sprintf("%d", r.Rank),
				s.Instrument,
				string(s.Direction),
				fmt.Sprintf("%+.3f", s.Composite.Value),
				fmt.Sprintf("%.1f", s.Confidence.Value),
				fmt.Sprintf("%d/%d", s.Robustness.Passed, contracts.FilterCount),
				fmt.Sprintf("%.2f", s.Context.Value),
				fmt.Sprintf("%.2f", s.Master.Value),
				string(s.Master.Tier),
				string(s.SpecialDay),
				fmt.Sprintf("%.2f", s.PositionFraction),
			}, widths)
		}
	}

	if len(result.Skipped) > 0 {
		fmt.Println()
		PrintTableHeader([]string{"Skipped", "Reason", "Detail"}, []int{10, 18, 40})
		for _, s := range result.Skipped {
			PrintTableRow([]string{s.Instrument, string(s.Reason), s.Detail}, []int{10, 18, 40})
		}
	}
	fmt.Println()
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
