package templates

import "html/template"

//ReportingInfo fills the templates listed in html/template
type ReportingInfo struct {
	RunID  string
	Writer template.HTML
}

//SummaryInfo fills the summary page
type SummaryInfo struct {
	RunID      string
	Created    string
	Format     string
	Accuracy   string
	Features   int
	Dropped    int
	Duplicates int
	Duration   string
	Writer     template.HTML
}

var header = `
<head>
<meta content="text/html;charset=utf-8" http-equiv="Content-Type">
<meta content="utf-8" http-equiv="encoding">
<link rel="stylesheet" type="text/css" href="./style.css">
<title>flowguard evaluation {{.RunID}}</title>
</head>

<ul>
  <li><a href="index.html">flowguard</a></li>
  <li><a href="classes.html">Classes</a></li>
  <li><a href="confusion.html">Confusion Matrix</a></li>
  <li><a href="features.html">Features</a></li>
  <li style="float:right"><a href="index.html">Run: {{.RunID}}</a></li>
</ul>
`

// Hometempl is the summary page of a training run
var Hometempl = header + `
<p>
  <div class="info">Evaluation of the classifier on the held out test split.</div>
</p>
<div class="container">
  <table>
    <tr><th>Accuracy</th><td>{{.Accuracy}}</td></tr>
    <tr><th>Features</th><td>{{.Features}}</td></tr>
    <tr><th>Unparseable Rows Dropped</th><td>{{.Dropped}}</td></tr>
    <tr><th>Duplicate Rows Removed</th><td>{{.Duplicates}}</td></tr>
    <tr><th>Training Time</th><td>{{.Duration}}</td></tr>
    <tr><th>Created</th><td>{{.Created}}</td></tr>
    <tr><th>Artifact Format</th><td>{{.Format}}</td></tr>
  </table>
</div>
<h1>Rows per Class</h1>
<div class="container">
  <table>
    <tr><th>Class</th><th>Train (after oversampling)</th><th>Test</th></tr>
    {{.Writer}}
  </table>
</div>
`

// ClassesTempl is the per class classification report
var ClassesTempl = header + `
<div class="container">
  <table>
    <tr><th>Class</th><th>Precision</th><th>Recall</th><th>F1</th><th>Support</th></tr>
    {{.Writer}}
  </table>
</div>
`

// ConfusionTempl is the confusion matrix, actual classes down the side
var ConfusionTempl = header + `
<div class="container">
  <table>
    {{.Writer}}
  </table>
</div>
`

// FeaturesTempl ranks the features by importance
var FeaturesTempl = header + `
<div class="container">
  <table>
    <tr><th>Rank</th><th>Feature</th><th>Importance</th></tr>
    {{.Writer}}
  </table>
</div>
`
