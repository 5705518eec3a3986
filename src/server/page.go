package server

import (
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/abhineetsingh10/aml2practice/src/analysis"
)

var pageTmpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Practice progress</title>
<style>
body { font-family: sans-serif; margin: 0; padding: 12px; }
#chart { display: block; margin-top: 8px; max-width: 100%; }
.muted { color: #777; font-size: 12px; }
</style>
</head>
<body>
<label for="subject">Subject</label>
<select id="subject">
{{range .Subjects}}<option value="{{.}}">{{.}}</option>
{{end}}</select>
<label for="preset">Chart</label>
<select id="preset">
<option value="trimmed">Weekly, trimmed to activity</option>
<option value="headline">Biweekly with headline</option>
</select>
<span class="muted">{{.Source}}</span>
{{if .Subjects}}<img id="chart" alt="progress chart">{{else}}<p>No subjects loaded.</p>{{end}}
<script>
(function () {
  var sel = document.getElementById("subject");
  var preset = document.getElementById("preset");
  var img = document.getElementById("chart");
  if (!img) { return; }
  var timer = null;
  function draw() {
    var q = new URLSearchParams({
      subject: sel.value,
      preset: preset.value,
      width: String(window.innerWidth),
      height: String(window.innerHeight)
    });
    img.src = "/chart?" + q.toString();
  }
  sel.addEventListener("change", draw);
  preset.addEventListener("change", draw);
  window.addEventListener("resize", function () {
    clearTimeout(timer);
    timer = setTimeout(draw, 250);
  });
  draw();
})();
</script>
</body>
</html>
`))

type pageData struct {
	Subjects []string
	Source   string
}

func (s *Server) index(c *gin.Context) {
	data := pageData{Source: s.data.Source()}
	if snap, err := s.data.Snapshot(); err == nil {
		data.Subjects = analysis.Subjects(snap.Records)
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := pageTmpl.Execute(c.Writer, data); err != nil {
		_ = c.Error(err)
	}
}
