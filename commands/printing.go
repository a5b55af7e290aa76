package commands

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/flowguard/flowguard/pkg/evaluate"
	"github.com/flowguard/flowguard/pkg/store"
	"github.com/olekukonko/tablewriter"
)

func showEvaluationReport(w io.Writer, report *evaluate.Report) {
	table := tablewriter.NewWriter(w)
	table.SetHeader(evaluate.Header())
	table.AppendBulk(report.Rows())
	table.Render()

	fmt.Fprintln(w)
	confusion := tablewriter.NewWriter(w)
	confusion.SetAutoFormatHeaders(false)
	confusion.SetHeader(report.ConfusionHeader())
	confusion.AppendBulk(report.ConfusionRows())
	confusion.Render()
}

func showEvaluationCsv(w io.Writer, report *evaluate.Report) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Write(evaluate.Header())
	csvWriter.WriteAll(report.Rows())
	return csvWriter.Error()
}

func showSchemaReport(w io.Writer, artifacts *store.Artifacts) {
	header := artifacts.Header()
	fmt.Fprintf(w, "Run: %s\nCreated: %s\nFormat: %s\n\n", header.RunID, header.CreatedAt, header.Format)

	features := tablewriter.NewWriter(w)
	features.SetHeader([]string{"Index", "Feature"})
	for i, name := range artifacts.Schema() {
		features.Append([]string{strconv.Itoa(i), name})
	}
	features.Render()

	fmt.Fprintln(w)
	classes := tablewriter.NewWriter(w)
	classes.SetHeader([]string{"Code", "Label"})
	for code, label := range artifacts.Codec().Classes() {
		classes.Append([]string{strconv.Itoa(code), label})
	}
	classes.Render()
}

func showSchemaCsv(w io.Writer, artifacts *store.Artifacts) error {
	csvWriter := csv.NewWriter(w)
	csvWriter.Write([]string{"kind", "index", "name"})
	for i, name := range artifacts.Schema() {
		csvWriter.Write([]string{"feature", strconv.Itoa(i), name})
	}
	for code, label := range artifacts.Codec().Classes() {
		csvWriter.Write([]string{"label", strconv.Itoa(code), label})
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
