package reporting

import (
	"bytes"
	"html/template"
	"sort"

	"github.com/flowguard/flowguard/pkg/evaluate"
	"github.com/flowguard/flowguard/pkg/store"
	"github.com/flowguard/flowguard/reporting/templates"
)

func printClasses(dir string, evaluation *store.Evaluation) error {
	w, err := getClassWriter(evaluation.Report)
	if err != nil {
		return err
	}
	return writePage(dir, "classes.html", templates.ClassesTempl,
		&templates.ReportingInfo{RunID: evaluation.Header.RunID.String(), Writer: template.HTML(w)})
}

func getClassWriter(report *evaluate.Report) (string, error) {
	tmpl := "<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>\n"

	out, err := template.New("cls").Parse(tmpl)
	if err != nil {
		return "", err
	}

	w := new(bytes.Buffer)
	for _, row := range report.Rows() {
		if err := out.Execute(w, row); err != nil {
			return "", err
		}
	}
	return w.String(), nil
}

type classCount struct {
	Label string
	Train int
	Test  int
}

// getCountsWriter renders one row per class with its train and test counts
func getCountsWriter(train, test map[string]int) (string, error) {
	tmpl := "<tr><td>{{.Label}}</td><td>{{.Train}}</td><td>{{.Test}}</td></tr>\n"

	out, err := template.New("cnt").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var names []string
	for label := range train {
		names = append(names, label)
	}
	for label := range test {
		if _, ok := train[label]; !ok {
			names = append(names, label)
		}
	}
	sort.Strings(names)

	w := new(bytes.Buffer)
	for _, label := range names {
		err := out.Execute(w, classCount{Label: label, Train: train[label], Test: test[label]})
		if err != nil {
			return "", err
		}
	}
	return w.String(), nil
}
