// Command backfill replays a historical window through a running etl
// server in date chunks, so one oversized request never trips the
// vendor's pagination ceiling.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/goforsam/toast-api/internal/etl/orchestrator"
	"github.com/goforsam/toast-api/pkg/logger"
)

const dateLayout = "2006-01-02"

func main() {
	var (
		serverURL  = flag.String("url", "http://localhost:8080", "etl server base url")
		stream     = flag.String("stream", "orders", "stream to backfill (orders, cash, labor)")
		restaurant = flag.String("restaurant", "ALL", "restaurant guid, or ALL")
		startDate  = flag.String("start", "", "first day of the window (YYYY-MM-DD)")
		endDate    = flag.String("end", "", "last day of the window (YYYY-MM-DD)")
		chunkDays  = flag.Int("chunk-days", 7, "days per request")
	)
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "backfill"})
	ctx := context.Background()

	start, err := time.ParseInLocation(dateLayout, *startDate, time.UTC)
	if err != nil {
		logg.Error(ctx, "invalid -start", err)
		os.Exit(2)
	}
	end, err := time.ParseInLocation(dateLayout, *endDate, time.UTC)
	if err != nil {
		logg.Error(ctx, "invalid -end", err)
		os.Exit(2)
	}
	if end.Before(start) {
		logg.Error(ctx, "window is inverted", fmt.Errorf("%s is after %s", *startDate, *endDate))
		os.Exit(2)
	}
	if *chunkDays < 1 {
		*chunkDays = 1
	}

	endpoint := fmt.Sprintf("%s/v1/runs/%s", *serverURL, *stream)
	client := &http.Client{Timeout: 30 * time.Minute}

	var totalRows, totalDupes int64
	failed := 0

	for chunkStart := start; !chunkStart.After(end); chunkStart = chunkStart.AddDate(0, 0, *chunkDays) {
		chunkEnd := chunkStart.AddDate(0, 0, *chunkDays-1)
		if chunkEnd.After(end) {
			chunkEnd = end
		}

		cctx := logg.WithFields(ctx, map[string]any{
			"chunk_start": chunkStart.Format(dateLayout),
			"chunk_end":   chunkEnd.Format(dateLayout),
		})
		logg.Info(cctx, "submitting chunk")

		result, err := submitChunk(ctx, client, endpoint, *restaurant, chunkStart, chunkEnd)
		if err != nil {
			logg.Error(cctx, "chunk failed", err)
			failed++
			continue
		}

		totalRows += result.RowsLoaded
		totalDupes += result.DuplicatesSkipped
		logg.Info(logg.WithFields(cctx, map[string]any{
			"status":      result.Status,
			"rows_loaded": result.RowsLoaded,
		}), "chunk finished")
	}

	summary := logg.WithFields(ctx, map[string]any{
		"rows_loaded":        totalRows,
		"duplicates_skipped": totalDupes,
		"failed_chunks":      failed,
	})
	logg.Info(summary, "backfill finished")
	if failed > 0 {
		os.Exit(1)
	}
}

// submitChunk posts one window to the server, retrying transient
// failures with exponential backoff.
func submitChunk(ctx context.Context, client *http.Client, endpoint, restaurant string, start, end time.Time) (*orchestrator.RunResult, error) {
	payload, err := json.Marshal(map[string]string{
		"restaurant_guid": restaurant,
		"start_date":      start.Format(dateLayout),
		"end_date":        end.Format(dateLayout),
	})
	if err != nil {
		return nil, err
	}

	backoff := retry.WithMaxRetries(3, retry.NewExponential(2*time.Second))

	var result *orchestrator.RunResult
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(err)
		}
		if resp.StatusCode >= 500 {
			return retry.RetryableError(fmt.Errorf("server returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(body))
		}

		var parsed orchestrator.RunResult
		if err := json.Unmarshal(body, &parsed); err != nil {
			return fmt.Errorf("decoding run result: %w", err)
		}
		result = &parsed
		return nil
	})
	return result, err
}
