package reporting

import (
	"fmt"
	"html/template"
	"io/ioutil"
	"os"
	"path/filepath"

	htmlTempl "github.com/flowguard/flowguard/reporting/templates"
	"github.com/flowguard/flowguard/pkg/store"
	"github.com/flowguard/flowguard/resources"
	"github.com/flowguard/flowguard/util"
	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"
)

// reportDirectory is the base name of the output folder, a counter is
// appended when it already exists
const reportDirectory = "flowguard-report"

// PrintHTML writes the evaluation of the stored model as a set of html pages
// into a new directory under the current working directory and opens the
// summary page in the default browser
func PrintHTML(evaluation *store.Evaluation, res *resources.Resources) error {
	outFolder := util.UniquePath(reportDirectory)

	index, err := WriteHTML(outFolder, evaluation)
	if err != nil {
		return err
	}

	fmt.Println("[-] Wrote outputs, check " + outFolder + " for files")
	if err := open.Run(index); err != nil {
		res.Log.WithFields(log.Fields{
			"path":  index,
			"error": err.Error(),
		}).Warn("Could not open the report in a browser")
	}
	return nil
}

// WriteHTML renders every report page into dir, which must not exist yet, and
// returns the path of the summary page
func WriteHTML(dir string, evaluation *store.Evaluation) (string, error) {
	if err := os.Mkdir(dir, 0755); err != nil {
		return "", err
	}

	if err := ioutil.WriteFile(filepath.Join(dir, "style.css"), htmlTempl.CSStempl, 0644); err != nil {
		return "", err
	}

	pages := []func(string, *store.Evaluation) error{
		writeHomePage,
		printClasses,
		printConfusion,
		printFeatures,
	}
	for _, page := range pages {
		if err := page(dir, evaluation); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, "index.html"), nil
}

// writePage renders one template with the given data into dir/name
func writePage(dir, name, templ string, data interface{}) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	out, err := template.New(name).Parse(templ)
	if err != nil {
		return err
	}
	return out.Execute(f, data)
}

func writeHomePage(dir string, evaluation *store.Evaluation) error {
	report := evaluation.Report
	w, err := getCountsWriter(report.TrainCounts, report.TestCounts)
	if err != nil {
		return err
	}

	return writePage(dir, "index.html", htmlTempl.Hometempl, &htmlTempl.SummaryInfo{
		RunID:      evaluation.Header.RunID.String(),
		Created:    evaluation.Header.CreatedAt.Format(util.TimeFormat),
		Format:     evaluation.Header.Format,
		Accuracy:   util.FormatFloat(report.Accuracy),
		Features:   report.Features,
		Dropped:    report.Dropped,
		Duplicates: report.Duplicates,
		Duration:   util.FormatDuration(report.Duration),
		Writer:     template.HTML(w),
	})
}
