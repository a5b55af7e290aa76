package reporting

import (
	"bytes"
	"html/template"

	"github.com/flowguard/flowguard/pkg/evaluate"
	"github.com/flowguard/flowguard/pkg/store"
	"github.com/flowguard/flowguard/reporting/templates"
)

func printFeatures(dir string, evaluation *store.Evaluation) error {
	w, err := getFeatureWriter(evaluation.Report.Importance)
	if err != nil {
		return err
	}
	return writePage(dir, "features.html", templates.FeaturesTempl,
		&templates.ReportingInfo{RunID: evaluation.Header.RunID.String(), Writer: template.HTML(w)})
}

func getFeatureWriter(scores []evaluate.FeatureScore) (string, error) {
	tmpl := "<tr><td>{{.Rank}}</td><td>{{.Feature}}</td><td>{{printf \"%.4f\" .Score}}</td></tr>\n"

	out, err := template.New("ftr").Parse(tmpl)
	if err != nil {
		return "", err
	}

	w := new(bytes.Buffer)
	for i, score := range scores {
		err := out.Execute(w, struct {
			Rank int
			evaluate.FeatureScore
		}{i + 1, score})
		if err != nil {
			return "", err
		}
	}
	return w.String(), nil
}
