package httpadapter

import (
	"fmt"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"
)

// jobReport renders the job tracker as a spreadsheet. This is the
// cost-accounting export: one row per batch job with its estimated
// spend, plus a totals row.
func (rt *Router) jobReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	jobs, err := rt.jobs.ListJobs(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	file := excelize.NewFile()
	defer file.Close()

	const sheet = "Batch jobs"
	file.SetSheetName(file.GetSheetName(0), sheet)

	headers := []string{"Job ID", "Kind", "Items", "Status", "Estimated cost (USD)", "Created", "Completed"}
	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		file.SetCellValue(sheet, cell, header)
	}

	totalItems := 0
	totalCost := 0.0
	for row, job := range jobs {
		completed := ""
		if job.CompletedAt != nil {
			completed = job.CompletedAt.Format(time.RFC3339)
		}
		values := []any{
			job.JobID,
			string(job.Kind),
			job.ItemCount,
			string(job.Status),
			job.EstimatedCostUSD,
			job.CreatedAt.Format(time.RFC3339),
			completed,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			file.SetCellValue(sheet, cell, value)
		}
		totalItems += job.ItemCount
		totalCost += job.EstimatedCostUSD
	}

	totalRow := len(jobs) + 2
	file.SetCellValue(sheet, fmt.Sprintf("A%d", totalRow), "Total")
	file.SetCellValue(sheet, fmt.Sprintf("C%d", totalRow), totalItems)
	file.SetCellValue(sheet, fmt.Sprintf("E%d", totalRow), totalCost)

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="batch_jobs.xlsx"`)
	if err := file.Write(w); err != nil {
		writeError(w, err)
	}
}
