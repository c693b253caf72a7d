package syncengine

import (
	"fmt"
	"strings"
)

// TemplateFile is one seed file for a new project.
type TemplateFile struct {
	Name    string
	Content string
}

// TemplateFiles returns the starter files for a project language. Unknown
// languages get the javascript set.
func TemplateFiles(language, projectName, description string) []TemplateFile {
	slug := strings.ToLower(strings.Join(strings.Fields(projectName), "-"))

	switch language {
	case "python":
		return []TemplateFile{
			{Name: "main.py", Content: "# Welcome to your new Python project!\nprint(\"Hello, World!\")\n"},
			{Name: "requirements.txt", Content: "# Add your Python dependencies here\n"},
			{Name: "README.md", Content: fmt.Sprintf("# %s\n\n%s\n\n## Getting Started\n\nRun `python main.py` to start the project.\n", projectName, description)},
		}
	case "html":
		return []TemplateFile{
			{Name: "index.html", Content: fmt.Sprintf(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>%s</title>
    <link rel="stylesheet" href="style.css">
</head>
<body>
    <h1>Welcome to %s!</h1>
    <p>%s</p>
    <script src="script.js"></script>
</body>
</html>
`, projectName, projectName, description)},
			{Name: "style.css", Content: "body {\n    font-family: Arial, sans-serif;\n    margin: 40px;\n    line-height: 1.6;\n}\n\nh1 {\n    color: #333;\n}\n"},
			{Name: "script.js", Content: "// Add your JavaScript code here\nconsole.log(\"Project loaded successfully!\");\n"},
		}
	default: // javascript
		return []TemplateFile{
			{Name: "index.js", Content: "// Welcome to your new JavaScript project!\nconsole.log(\"Hello, World!\");\n"},
			{Name: "package.json", Content: fmt.Sprintf("{\n  \"name\": %q,\n  \"version\": \"1.0.0\",\n  \"description\": %q,\n  \"main\": \"index.js\",\n  \"scripts\": {\n    \"start\": \"node index.js\"\n  }\n}\n", slug, description)},
			{Name: "README.md", Content: fmt.Sprintf("# %s\n\n%s\n\n## Getting Started\n\nRun `npm start` to start the project.\n", projectName, description)},
		}
	}
}
