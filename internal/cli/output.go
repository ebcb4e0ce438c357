package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	migrate "github.com/pantos-io/servicenode-migrate"
	"go.uber.org/multierr"
)

type resultsOutput struct {
	MigrationResults []result `json:"migrations"`
	TotalDuration    int64    `json:"total_duration_ms"`
	HasError         bool     `json:"has_error"`
}

type result struct {
	Revision     string `json:"revision"`
	DownRevision string `json:"down_revision"`
	Filename     string `json:"filename"`
	Duration     int64  `json:"duration_ms"`
	Direction    string `json:"direction"`
	Empty        bool   `json:"empty"`
	Error        string `json:"error,omitempty"`
}

// single turns the result of a one step operation into a list, a nil result is dropped.
func single(r *migrate.MigrationResult) []*migrate.MigrationResult {
	if r == nil {
		return nil
	}
	return []*migrate.MigrationResult{r}
}

func printResult(
	st *state,
	migrationResults []*migrate.MigrationResult,
	err error,
	totalDuration time.Duration,
	useJSON bool,
) error {
	// A partial error carries the steps that did run, print them too.
	var partialErr *migrate.PartialError
	if errors.As(err, &partialErr) {
		migrationResults = append(migrationResults, partialErr.Applied...)
		if partialErr.Failed != nil {
			migrationResults = append(migrationResults, partialErr.Failed)
		}
	}
	if useJSON {
		output := resultsOutput{
			MigrationResults: convertResult(migrationResults),
			TotalDuration:    totalDuration.Milliseconds(),
			HasError:         err != nil,
		}
		return multierr.Append(err, st.writeJSON(output))
	}
	if len(migrationResults) == 0 {
		if err == nil {
			fmt.Fprintln(st.stdout, "no migrations to run")
		}
		return err
	}
	for _, r := range migrationResults {
		switch {
		case r.Error != nil:
			fmt.Fprintf(st.stdout, "FAIL  %s (%s)\n", filename(r.Source), truncateDuration(r.Duration))
		case r.Empty:
			fmt.Fprintf(st.stdout, "EMPTY %s (%s)\n", filename(r.Source), truncateDuration(r.Duration))
		default:
			fmt.Fprintf(st.stdout, "OK    %s (%s)\n", filename(r.Source), truncateDuration(r.Duration))
		}
	}
	if err == nil {
		fmt.Fprintf(st.stdout, "\nsuccessfully ran %d migrations in %v\n", len(migrationResults), truncateDuration(totalDuration))
	}
	return err
}

func convertResult(results []*migrate.MigrationResult) []result {
	output := make([]result, 0, len(results))
	for _, r := range results {
		result := result{
			Filename:  filename(r.Source),
			Duration:  r.Duration.Milliseconds(),
			Direction: r.Direction,
			Empty:     r.Empty,
		}
		if r.Source != nil {
			result.Revision = r.Source.Revision
			result.DownRevision = r.Source.DownRevision
		}
		if r.Error != nil {
			result.Error = r.Error.Error()
		}
		output = append(output, result)
	}
	return output
}

// filename is the base name of the file that registered the migration, or its revision when the
// migration was built in code.
func filename(s *migrate.Source) string {
	switch {
	case s == nil:
		return ""
	case s.Path != "":
		return filepath.Base(s.Path)
	default:
		return s.Revision
	}
}

func displayRevision(rev string) string {
	if rev == "" {
		return "<base>"
	}
	return rev
}

func truncateDuration(d time.Duration) time.Duration {
	for _, v := range []time.Duration{
		time.Second,
		time.Millisecond,
		time.Microsecond,
	} {
		if d > v {
			return d.Round(v / time.Duration(100))
		}
	}
	return d
}
