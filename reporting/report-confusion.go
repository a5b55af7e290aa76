package reporting

import (
	"bytes"
	"html/template"

	"github.com/flowguard/flowguard/pkg/evaluate"
	"github.com/flowguard/flowguard/pkg/store"
	"github.com/flowguard/flowguard/reporting/templates"
)

type confusionCell struct {
	Count int
	Class string
}

type confusionRow struct {
	Label string
	Cells []confusionCell
}

func printConfusion(dir string, evaluation *store.Evaluation) error {
	w, err := getConfusionWriter(evaluation.Report)
	if err != nil {
		return err
	}
	return writePage(dir, "confusion.html", templates.ConfusionTempl,
		&templates.ReportingInfo{RunID: evaluation.Header.RunID.String(), Writer: template.HTML(w)})
}

// getConfusionWriter renders the matrix with correct predictions marked as
// hits and nonzero off diagonal cells marked as misses
func getConfusionWriter(report *evaluate.Report) (string, error) {
	tmpl := `{{define "head"}}<tr>{{range .}}<th>{{.}}</th>{{end}}</tr>
{{end}}{{define "row"}}<tr><th>{{.Label}}</th>{{range .Cells}}<td class="{{.Class}}">{{.Count}}</td>{{end}}</tr>
{{end}}`

	out, err := template.New("cnf").Parse(tmpl)
	if err != nil {
		return "", err
	}

	w := new(bytes.Buffer)
	if err := out.ExecuteTemplate(w, "head", report.ConfusionHeader()); err != nil {
		return "", err
	}

	for i, counts := range report.Confusion {
		row := confusionRow{Label: report.Classes[i].Label}
		for j, count := range counts {
			cell := confusionCell{Count: count}
			if i == j {
				cell.Class = "hit"
			} else if count > 0 {
				cell.Class = "miss"
			}
			row.Cells = append(row.Cells, cell)
		}
		if err := out.ExecuteTemplate(w, "row", row); err != nil {
			return "", err
		}
	}
	return w.String(), nil
}
