package report

import "html/template"

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<script src="https://cdn.plot.ly/plotly-2.27.0.min.js"></script>
<style>
body { font-family: Arial, sans-serif; margin: 20px; }
.container { max-width: 1200px; margin: 0 auto; }
.header { text-align: center; margin-bottom: 30px; }
.visualization { margin-bottom: 40px; }
.score { font-size: 18px; margin: 10px 0; }
.score.good { color: green; }
.score.medium { color: orange; }
.score.poor { color: red; }
.method { color: #666; font-size: 14px; }
</style>
</head>
<body>
<div class="container">
  <div class="header">
    <h1>{{.Title}}</h1>
    <p>3D visualization of content similarity to target queries</p>
    <p class="method">Projection method: {{.Method}}</p>
  </div>

  <div class="visualization">
    <h2>3D Content Embedding Visualization</h2>
    <p>Interactive 3D plot showing how client and competitor content aligns with target queries.</p>
    <div id="scatter" style="height:700px"></div>
  </div>

  <div class="similarity-scores">
    <h2>Similarity Scores</h2>
    <p>Cosine similarity between content and query intent (higher is better):</p>
    <div id="bars" style="height:400px"></div>

    <h3>Detailed Scores</h3>
{{range .Scores}}    <div class="score {{.Band}}"><strong>{{.Label}}:</strong> {{.Value}}</div>
{{end}}
    <h3>How to Interpret These Results</h3>
    <ul>
      <li><strong>High score (0.7+):</strong> content is well aligned with query intent</li>
      <li><strong>Medium score (0.5&ndash;0.7):</strong> some alignment, room for improvement</li>
      <li><strong>Low score (&lt;0.5):</strong> content needs significant optimization</li>
    </ul>
  </div>
</div>
<script>
Plotly.newPlot('scatter', {{.ScatterJSON}}, {margin: {l: 0, r: 0, b: 0, t: 0}});
Plotly.newPlot('bars', {{.BarJSON}}, {yaxis: {range: [-1, 1]}});
</script>
</body>
</html>
`))
