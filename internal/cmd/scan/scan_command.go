package scan

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/evfalk/refund-helper/claims"
	. "github.com/evfalk/refund-helper/internal/cmd/globals"
)

var (
	ScanCmd = &cobra.Command{
		Use:   "scan",
		Short: "Scan for delayed or cancelled departures without opening the UI",
		RunE:  run,
	}

	date      *string
	startTime *string
	apiKey    *string
)

func init() {
	date = ScanCmd.Flags().String("date", "", "Travel date to scan, as YYYY-MM-DD (defaults to today)")
	startTime = ScanCmd.Flags().String("start-time", "00:00", "Earliest departure time of day to consider")
	apiKey = ScanCmd.Flags().String("api-key", "", "Trafikverket API key (cached in the profile when given)")
}

func run(cmd *cobra.Command, _ []string) error {
	scanDate := *date
	if len(scanDate) == 0 {
		scanDate = claims.Today()
	}

	wf := claims.NewScanWorkflow(Client, Store, Logger)
	result, err := wf.Scan(cmd.Context(), scanDate, *startTime, *apiKey)
	if err != nil {
		return err
	}

	fmt.Println(wf.ResultMessage(result))

	if !wf.ApplyResult(result) {
		return nil
	}

	for _, candidate := range wf.Candidates() {
		fmt.Printf("  - %s\n", candidate.Summary())
	}

	return nil
}
